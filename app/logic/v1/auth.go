package v1

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/tablehub/tablehub/app/core"
	"github.com/tablehub/tablehub/pkg/auth"
	"github.com/tablehub/tablehub/pkg/errors"
	"github.com/tablehub/tablehub/pkg/i18n"
	"github.com/tablehub/tablehub/pkg/security"
	"github.com/tablehub/tablehub/pkg/types"
	"github.com/tablehub/tablehub/pkg/utils"
)

type AuthLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewAuthLogic(ctx context.Context, core *core.Core) *AuthLogic {
	l := &AuthLogic{
		ctx:  ctx,
		core: core,
	}

	return l
}

type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt int64       `json:"expires_at"`
	User      *types.User `json:"user"`
}

// Login checks the password and signs a session token.
func (l *AuthLogic) Login(name, password string) (*LoginResult, error) {
	user, err := l.core.Store().UserStore().GetByName(l.ctx, name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.New("AuthLogic.Login.UserStore.GetByName", i18n.ERROR_INVALID_ACCOUNT, err).Code(http.StatusUnauthorized)
		}
		return nil, errors.New("AuthLogic.Login.UserStore.GetByName", i18n.ERROR_INTERNAL, err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, errors.New("AuthLogic.Login.CompareHashAndPassword", i18n.ERROR_INVALID_ACCOUNT, err).Code(http.StatusUnauthorized)
	}

	cfg := l.core.Cfg().Security
	claims := security.NewTokenClaims(utils.GenUniqIDStr(), user.ID, user.Name, cfg.TokenTTL())
	token, err := security.GenerateJWT(claims, []byte(cfg.JWTSecret))
	if err != nil {
		return nil, errors.New("AuthLogic.Login.GenerateJWT", i18n.ERROR_INTERNAL, err)
	}

	user, err = LoadUser(l.ctx, l.core, user.ID)
	if err != nil {
		return nil, errors.Trace("AuthLogic.Login", err)
	}

	return &LoginResult{
		Token:     token,
		ExpiresAt: claims.ExpireTime,
		User:      user,
	}, nil
}

// ValidateToken verifies the token and rejects logged out tokens.
func (l *AuthLogic) ValidateToken(token string) (*security.TokenClaims, error) {
	claims, err := auth.ValidateToken(l.ctx, token, []byte(l.core.Cfg().Security.JWTSecret), l.core.Cache())
	if err != nil {
		return nil, errors.Trace("AuthLogic.ValidateToken", err)
	}
	return claims, nil
}

// Logout revokes the token until it expires.
func (l *AuthLogic) Logout(claims security.TokenClaims) error {
	if claims.ID == "" {
		return errors.New("AuthLogic.Logout", i18n.ERROR_INVALID_TOKEN, fmt.Errorf("token has no id")).Code(http.StatusBadRequest)
	}
	if err := auth.RevokeToken(l.ctx, &claims, l.core.Cache()); err != nil {
		return errors.New("AuthLogic.Logout.RevokeToken", i18n.ERROR_INTERNAL, err)
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
