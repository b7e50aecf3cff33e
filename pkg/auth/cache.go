package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v9"

	cerrors "github.com/tablehub/tablehub/pkg/errors"
	"github.com/tablehub/tablehub/pkg/i18n"
	"github.com/tablehub/tablehub/pkg/security"
	"github.com/tablehub/tablehub/pkg/types"
)

func revokedKey(tokenID string) string {
	return fmt.Sprintf("user:token:revoked:%s", tokenID)
}

// RevokeToken marks the token as logged out until it would have expired anyway.
func RevokeToken(ctx context.Context, claims *security.TokenClaims, cache types.Cache) error {
	ttl := claims.TTL()
	if ttl <= 0 {
		return nil
	}
	return cache.SetEx(ctx, revokedKey(claims.ID), "1", ttl+time.Second)
}

// ValidateToken verifies the signature and lifetime of tokenValue and rejects revoked tokens.
func ValidateToken(ctx context.Context, tokenValue string, secret []byte, cache types.Cache) (*security.TokenClaims, error) {
	if tokenValue == "" {
		return nil, cerrors.New("auth.ValidateToken.empty_token", i18n.ERROR_UNAUTHORIZED, nil).Code(http.StatusUnauthorized)
	}

	claims, err := security.VerifyToken(tokenValue, secret)
	if err != nil {
		return nil, cerrors.New("auth.ValidateToken.VerifyToken", i18n.ERROR_INVALID_TOKEN, err).Code(http.StatusUnauthorized)
	}

	revoked, err := cache.Get(ctx, revokedKey(claims.ID))
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, cerrors.New("auth.ValidateToken.cache_get", i18n.ERROR_INTERNAL, err)
	}
	if revoked != "" {
		return nil, cerrors.New("auth.ValidateToken.revoked", i18n.ERROR_INVALID_TOKEN, fmt.Errorf("token revoked")).Code(http.StatusUnauthorized)
	}
	return claims, nil
}
