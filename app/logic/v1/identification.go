package v1

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/tablehub/tablehub/app/core"
	"github.com/tablehub/tablehub/app/core/srv"
	"github.com/tablehub/tablehub/pkg/errors"
	"github.com/tablehub/tablehub/pkg/i18n"
	"github.com/tablehub/tablehub/pkg/security"
	"github.com/tablehub/tablehub/pkg/types"
)

type _userInfo struct {
	ctx  context.Context
	core *core.Core
	u    *security.TokenClaims
	user *types.User
}

func (u *_userInfo) GetUserInfo() security.TokenClaims {
	return *u.u
}

// CurrentUser returns the authenticated user with its owned tables filled in.
func (u *_userInfo) CurrentUser() (*types.User, error) {
	if u.user != nil {
		return u.user, nil
	}
	if user, ok := InjectUser(u.ctx); ok {
		u.user = user
		return user, nil
	}
	if u.u.User == "" {
		return nil, errors.New("_userInfo.CurrentUser", i18n.ERROR_UNAUTHORIZED, nil).Code(http.StatusUnauthorized)
	}
	user, err := LoadUser(u.ctx, u.core, u.u.User)
	if err != nil {
		return nil, errors.Trace("_userInfo.CurrentUser", err)
	}
	u.user = user
	return user, nil
}

// Identification runs check against the current user and returns PermissionDenied when it fails.
func (u *_userInfo) Identification(trace string, check func(rbac *srv.RBACSrv, user *types.User) bool) (*types.User, error) {
	user, err := u.CurrentUser()
	if err != nil {
		return nil, err
	}
	if !check(u.core.Srv().RBAC(), user) {
		return nil, permissionDenied(trace)
	}
	return user, nil
}

func SetupUserInfo(ctx context.Context, core *core.Core) UserInfo {
	userInfo, ok := InjectTokenClaim(ctx)
	if !ok {
		slog.Error("Not found user in context", slog.String("component", "logic.v1.setupUserInfo"))
		userInfo = security.TokenClaims{}
	}
	return &_userInfo{
		ctx:  ctx,
		u:    &userInfo,
		core: core,
	}
}

type UserInfo interface {
	GetUserInfo() security.TokenClaims
	CurrentUser() (*types.User, error)
	Identification(trace string, check func(rbac *srv.RBACSrv, user *types.User) bool) (*types.User, error)
}

// LoadUser reads a user and the names of the tables it owns.
func LoadUser(ctx context.Context, core *core.Core, id string) (*types.User, error) {
	user, err := core.Store().UserStore().GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.New("LoadUser.UserStore.GetUser", i18n.ERROR_UNAUTHORIZED, err).Code(http.StatusUnauthorized)
		}
		return nil, errors.New("LoadUser.UserStore.GetUser", i18n.ERROR_INTERNAL, err)
	}

	owned, err := core.Store().DynamicTableStore().List(ctx, types.ListDynamicTableOptions{OwnerID: id})
	if err != nil {
		return nil, errors.New("LoadUser.DynamicTableStore.List", i18n.ERROR_INTERNAL, err)
	}
	user.OwnedTables = types.NewStringSet()
	for _, t := range owned {
		user.OwnedTables.Add(t.Name)
	}
	return user, nil
}

func isAdmin(_ *srv.RBACSrv, user *types.User) bool {
	return user.IsAdmin
}

func canCreateTables(rbac *srv.RBACSrv, user *types.User) bool {
	return rbac.CanCreateTables(user)
}

func canView(table string) func(*srv.RBACSrv, *types.User) bool {
	return func(rbac *srv.RBACSrv, user *types.User) bool {
		return rbac.CanView(user, table)
	}
}

func canEdit(table string) func(*srv.RBACSrv, *types.User) bool {
	return func(rbac *srv.RBACSrv, user *types.User) bool {
		return rbac.CanEdit(user, table)
	}
}

func canUpdate(table string) func(*srv.RBACSrv, *types.User) bool {
	return func(rbac *srv.RBACSrv, user *types.User) bool {
		return rbac.CanUpdate(user, table)
	}
}
