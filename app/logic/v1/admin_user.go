package v1

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/tablehub/tablehub/app/core"
	"github.com/tablehub/tablehub/pkg/dyntable"
	"github.com/tablehub/tablehub/pkg/errors"
	"github.com/tablehub/tablehub/pkg/i18n"
	"github.com/tablehub/tablehub/pkg/types"
	"github.com/tablehub/tablehub/pkg/utils"
)

const MinPasswordLength = 6

type AdminUserLogic struct {
	ctx  context.Context
	core *core.Core
	UserInfo
}

func NewAdminUserLogic(ctx context.Context, core *core.Core) *AdminUserLogic {
	return &AdminUserLogic{
		ctx:      ctx,
		core:     core,
		UserInfo: SetupUserInfo(ctx, core),
	}
}

type CreateUserRequest struct {
	Name             string   `json:"name" binding:"required"`
	Password         string   `json:"password" binding:"required"`
	Capabilities     []string `json:"capabilities"`
	AccessibleTables []string `json:"accessible_tables"`
	IsAdmin          bool     `json:"is_admin"`
	Reason           string   `json:"reason"`
}

type UpdateAccessRequest struct {
	Capabilities     []string `json:"capabilities"`
	AccessibleTables []string `json:"accessible_tables"`
	IsAdmin          bool     `json:"is_admin"`
	Reason           string   `json:"reason"`
}

// validateAccess checks the capability vocabulary and the table name format.
func validateAccess(capabilities, tables []string) (types.StringSet, types.StringSet, error) {
	for _, c := range capabilities {
		if !lo.Contains(types.AllCapabilities, c) {
			return types.StringSet{}, types.StringSet{}, fmt.Errorf("%w: unknown capability %q", dyntable.ErrValidation, c)
		}
	}
	for _, t := range tables {
		if err := dyntable.ValidateTableName(t); err != nil {
			return types.StringSet{}, types.StringSet{}, err
		}
	}
	return types.NewStringSet(capabilities...), types.NewStringSet(tables...), nil
}

// CreateUser 管理员创建新用户
func (l *AdminUserLogic) CreateUser(req CreateUserRequest) (*types.User, error) {
	admin, err := l.Identification("AdminUserLogic.CreateUser", isAdmin)
	if err != nil {
		return nil, err
	}
	if err = requireReason("AdminUserLogic.CreateUser", req.Reason); err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || len(req.Password) < MinPasswordLength {
		return nil, invalidArgument("AdminUserLogic.CreateUser", fmt.Errorf("%w: name and a password of at least %d characters are required", dyntable.ErrValidation, MinPasswordLength))
	}
	capabilities, tables, err := validateAccess(req.Capabilities, req.AccessibleTables)
	if err != nil {
		return nil, translateErr("AdminUserLogic.CreateUser.validateAccess", err)
	}

	if _, err = l.core.Store().UserStore().GetByName(l.ctx, req.Name); err == nil {
		return nil, errors.New("AdminUserLogic.CreateUser", i18n.ERROR_EXIST, fmt.Errorf("user %q already exists", req.Name)).Code(http.StatusConflict)
	} else if err != sql.ErrNoRows {
		return nil, errors.New("AdminUserLogic.CreateUser.UserStore.GetByName", i18n.ERROR_INTERNAL, err)
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		return nil, errors.New("AdminUserLogic.CreateUser.hashPassword", i18n.ERROR_INTERNAL, err)
	}

	user := types.User{
		ID:               utils.GenUniqIDStr(),
		Name:             req.Name,
		Password:         hashed,
		Capabilities:     capabilities,
		AccessibleTables: tables,
		IsAdmin:          req.IsAdmin,
		CreatedAt:        time.Now().Unix(),
		UpdatedAt:        time.Now().Unix(),
	}

	err = l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		if err := l.core.Store().UserStore().Create(ctx, user); err != nil {
			return errors.New("AdminUserLogic.CreateUser.UserStore.Create", i18n.ERROR_INTERNAL, err)
		}
		if err := recordAudit(ctx, l.core, admin.ID, types.AuditActionCreateUser, types.TABLE_USER.Name(), nil, req.Reason); err != nil {
			return errors.New("AdminUserLogic.CreateUser.recordAudit", i18n.ERROR_INTERNAL, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (l *AdminUserLogic) ListUsers(opts types.ListUserOptions, page, pageSize uint64) ([]types.User, int64, error) {
	if _, err := l.Identification("AdminUserLogic.ListUsers", isAdmin); err != nil {
		return nil, 0, err
	}

	list, err := l.core.Store().UserStore().ListUsers(l.ctx, opts, page, pageSize)
	if err != nil {
		return nil, 0, errors.New("AdminUserLogic.ListUsers.UserStore.ListUsers", i18n.ERROR_INTERNAL, err)
	}
	total, err := l.core.Store().UserStore().Total(l.ctx, opts)
	if err != nil {
		return nil, 0, errors.New("AdminUserLogic.ListUsers.UserStore.Total", i18n.ERROR_INTERNAL, err)
	}
	return list, total, nil
}

// UpdateAccess replaces the capabilities, the accessible tables and the admin flag of a user.
func (l *AdminUserLogic) UpdateAccess(id string, req UpdateAccessRequest) (*types.User, error) {
	admin, err := l.Identification("AdminUserLogic.UpdateAccess", isAdmin)
	if err != nil {
		return nil, err
	}
	if err = requireReason("AdminUserLogic.UpdateAccess", req.Reason); err != nil {
		return nil, err
	}
	capabilities, tables, err := validateAccess(req.Capabilities, req.AccessibleTables)
	if err != nil {
		return nil, translateErr("AdminUserLogic.UpdateAccess.validateAccess", err)
	}
	if id == admin.ID && !req.IsAdmin {
		return nil, invalidArgument("AdminUserLogic.UpdateAccess", fmt.Errorf("%w: admins cannot revoke their own admin flag", dyntable.ErrValidation))
	}

	err = l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		if _, err := l.core.Store().UserStore().GetUser(ctx, id); err != nil {
			return translateErr("AdminUserLogic.UpdateAccess.UserStore.GetUser", err)
		}
		if err := l.core.Store().UserStore().UpdateAccess(ctx, id, capabilities, tables, req.IsAdmin); err != nil {
			return errors.New("AdminUserLogic.UpdateAccess.UserStore.UpdateAccess", i18n.ERROR_INTERNAL, err)
		}
		if err := recordAudit(ctx, l.core, admin.ID, types.AuditActionUpdateUser, types.TABLE_USER.Name(), nil, req.Reason); err != nil {
			return errors.New("AdminUserLogic.UpdateAccess.recordAudit", i18n.ERROR_INTERNAL, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return LoadUser(l.ctx, l.core, id)
}

// ResetPassword sets a new password for a user.
func (l *AdminUserLogic) ResetPassword(id, password, reason string) error {
	admin, err := l.Identification("AdminUserLogic.ResetPassword", isAdmin)
	if err != nil {
		return err
	}
	if err = requireReason("AdminUserLogic.ResetPassword", reason); err != nil {
		return err
	}
	if len(password) < MinPasswordLength {
		return invalidArgument("AdminUserLogic.ResetPassword", fmt.Errorf("%w: password needs at least %d characters", dyntable.ErrValidation, MinPasswordLength))
	}
	hashed, err := hashPassword(password)
	if err != nil {
		return errors.New("AdminUserLogic.ResetPassword.hashPassword", i18n.ERROR_INTERNAL, err)
	}

	return l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		if _, err := l.core.Store().UserStore().GetUser(ctx, id); err != nil {
			return translateErr("AdminUserLogic.ResetPassword.UserStore.GetUser", err)
		}
		if err := l.core.Store().UserStore().UpdatePassword(ctx, id, hashed); err != nil {
			return errors.New("AdminUserLogic.ResetPassword.UserStore.UpdatePassword", i18n.ERROR_INTERNAL, err)
		}
		if err := recordAudit(ctx, l.core, admin.ID, types.AuditActionUpdateUser, types.TABLE_USER.Name(), nil, reason); err != nil {
			return errors.New("AdminUserLogic.ResetPassword.recordAudit", i18n.ERROR_INTERNAL, err)
		}
		return nil
	})
}
