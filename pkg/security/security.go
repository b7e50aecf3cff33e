package security

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
)

const (
	TOKEN_KEY  = "X-Authorization"
	COOKIE_KEY = "tablehub-auth"
)

type TokenClaims struct {
	ID         string `json:"jti"` // 用于注销
	User       string `json:"u"`
	UserName   string `json:"un"`
	ExpireTime int64  `json:"exp"` // 过期时间 时间戳
	NotBefore  int64  `json:"nbf"` // 生效时间 时间戳
}

func NewTokenClaims(tokenID, userID, userName string, ttl time.Duration) TokenClaims {
	now := time.Now()
	return TokenClaims{
		ID:         tokenID,
		User:       userID,
		UserName:   userName,
		ExpireTime: now.Add(ttl).Unix(),
		NotBefore:  now.Unix() - 1,
	}
}

func (t TokenClaims) GetUser() string {
	return t.User
}

// TTL is the remaining lifetime of the token.
func (t TokenClaims) TTL() time.Duration {
	d := time.Until(time.Unix(t.ExpireTime, 0))
	if d < 0 {
		return 0
	}
	return d
}

var (
	ErrInvalidJWT = errors.New("invalid token")
	ErrEmptyKey   = errors.New("empty signing key")
)

func GenerateJWT(info TokenClaims, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", ErrEmptyKey
	}
	claims := jwt.MapClaims{}

	t := reflect.TypeOf(info)
	v := reflect.ValueOf(info)
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		claims[tag] = v.Field(i).Interface()
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func VerifyToken(tokenString string, secret []byte) (*TokenClaims, error) {
	claims, err := ParseJWT(tokenString, secret)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	if claims.ExpireTime < now || claims.NotBefore > now {
		return nil, fmt.Errorf("expired token, %w", ErrInvalidJWT)
	}
	return claims, nil
}

func ParseJWT(tokenString string, secret []byte) (*TokenClaims, error) {
	_, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v, %w", token.Header["alg"], ErrInvalidJWT)
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s, %w", err.Error(), ErrInvalidJWT)
	}

	parts := strings.Split(tokenString, ".")
	claimBytes, err := jwt.DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%s, %w", err.Error(), ErrInvalidJWT)
	}

	result := &TokenClaims{}
	if err = json.Unmarshal(claimBytes, result); err != nil {
		return nil, fmt.Errorf("%s, %w", err.Error(), ErrInvalidJWT)
	}
	return result, nil
}
