package v1

import (
	"context"

	"github.com/samber/lo"

	"github.com/tablehub/tablehub/pkg/security"
	"github.com/tablehub/tablehub/pkg/types"
)

const (
	TOKEN_CONTEXT_KEY = "__tablehub.access_token"
	USER_CONTEXT_KEY  = "__tablehub.user"
	LANGUAGE_KEY      = "__tablehub.accept_language"
)

// InjectTokenClaim get user token claims from context
func InjectTokenClaim(ctx context.Context) (security.TokenClaims, bool) {
	val, ok := ctx.Value(TOKEN_CONTEXT_KEY).(security.TokenClaims)
	return val, ok
}

// InjectUser returns the user loaded by the authorization middleware.
func InjectUser(ctx context.Context) (*types.User, bool) {
	val, ok := ctx.Value(USER_CONTEXT_KEY).(*types.User)
	return val, ok && val != nil
}

func InjectLanguage(ctx context.Context) (string, bool) {
	val, ok := ctx.Value(LANGUAGE_KEY).(string)
	return val, ok
}

func GetContentByClientLanguage[T any](c context.Context, enRes T, cnRes T) T {
	clientLang, _ := InjectLanguage(c)
	return lo.If(clientLang == types.LANGUAGE_CN_KEY, cnRes).Else(enRes)
}
