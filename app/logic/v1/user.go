package v1

import (
	"context"

	"github.com/tablehub/tablehub/app/core"
	"github.com/tablehub/tablehub/pkg/types"
)

type UserLogic struct {
	ctx  context.Context
	core *core.Core
	UserInfo
}

func NewUserLogic(ctx context.Context, core *core.Core) *UserLogic {
	return &UserLogic{
		ctx:      ctx,
		core:     core,
		UserInfo: SetupUserInfo(ctx, core),
	}
}

// Dashboard is what a user sees after login.
type Dashboard struct {
	User             *types.User          `json:"user"`
	Capabilities     []string             `json:"capabilities"`
	AccessibleTables []string             `json:"accessible_tables"`
	Tables           []types.DynamicTable `json:"tables"`
	CanCreateTables  bool                 `json:"can_create_tables"`
}

func (l *UserLogic) Info() (*Dashboard, error) {
	user, err := l.CurrentUser()
	if err != nil {
		return nil, err
	}

	tables, err := NewDynamicTableLogic(l.ctx, l.core).ListTables()
	if err != nil {
		return nil, err
	}

	rbac := l.core.Srv().RBAC()
	return &Dashboard{
		User:             user,
		Capabilities:     capabilitiesOf(user),
		AccessibleTables: rbac.AccessibleTables(user).Slice(),
		Tables:           tables,
		CanCreateTables:  rbac.CanCreateTables(user),
	}, nil
}

// capabilitiesOf returns the effective capability set, admins hold all of them.
func capabilitiesOf(user *types.User) []string {
	if user.IsAdmin {
		return append([]string(nil), types.AllCapabilities...)
	}
	return user.Capabilities.Slice()
}
