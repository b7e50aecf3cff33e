package v1

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tablehub/tablehub/app/core"
	"github.com/tablehub/tablehub/pkg/dyntable"
	"github.com/tablehub/tablehub/pkg/errors"
	"github.com/tablehub/tablehub/pkg/i18n"
	"github.com/tablehub/tablehub/pkg/types"
)

type CoreEntityLogic struct {
	ctx  context.Context
	core *core.Core
	UserInfo
}

func NewCoreEntityLogic(ctx context.Context, core *core.Core) *CoreEntityLogic {
	return &CoreEntityLogic{
		ctx:      ctx,
		core:     core,
		UserInfo: SetupUserInfo(ctx, core),
	}
}

type CreateCoreEntityRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (l *CoreEntityLogic) Create(req CreateCoreEntityRequest) (*types.CoreEntity, error) {
	if _, err := l.Identification("CoreEntityLogic.Create", canCreateTables); err != nil {
		return nil, err
	}
	return createCoreEntity(l.ctx, l.core, req.Name, req.Description)
}

// createCoreEntity assigns the correlation key, it never changes afterwards.
func createCoreEntity(ctx context.Context, core *core.Core, name, description string) (*types.CoreEntity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidArgument("createCoreEntity", fmt.Errorf("%w: name is required", dyntable.ErrValidation))
	}

	now := time.Now().Unix()
	entity := types.CoreEntity{
		UUID:        uuid.NewString(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	id, err := core.Store().CoreEntityStore().Create(ctx, entity)
	if err != nil {
		return nil, translateErr("createCoreEntity.CoreEntityStore.Create", err)
	}
	entity.ID = id
	return &entity, nil
}

func (l *CoreEntityLogic) Get(id string) (*types.CoreEntity, error) {
	if _, err := l.CurrentUser(); err != nil {
		return nil, err
	}
	entity, err := l.core.Store().CoreEntityStore().GetByUUID(l.ctx, id)
	if err != nil {
		return nil, translateErr("CoreEntityLogic.Get.CoreEntityStore.GetByUUID", err)
	}
	return entity, nil
}

func (l *CoreEntityLogic) List(page, pageSize uint64) ([]types.CoreEntity, int64, error) {
	if _, err := l.CurrentUser(); err != nil {
		return nil, 0, err
	}
	list, err := l.core.Store().CoreEntityStore().List(l.ctx, page, pageSize)
	if err != nil {
		return nil, 0, translateErr("CoreEntityLogic.List.CoreEntityStore.List", err)
	}
	total, err := l.core.Store().CoreEntityStore().Total(l.ctx)
	if err != nil {
		return nil, 0, translateErr("CoreEntityLogic.List.CoreEntityStore.Total", err)
	}
	return list, total, nil
}

// Delete removes a core entity that no dynamic row references.
func (l *CoreEntityLogic) Delete(id string) error {
	if _, err := l.Identification("CoreEntityLogic.Delete", isAdmin); err != nil {
		return err
	}
	if _, err := l.core.Store().CoreEntityStore().GetByUUID(l.ctx, id); err != nil {
		return translateErr("CoreEntityLogic.Delete.CoreEntityStore.GetByUUID", err)
	}

	tables, err := l.core.Store().DynamicTableStore().List(l.ctx, types.ListDynamicTableOptions{})
	if err != nil {
		return translateErr("CoreEntityLogic.Delete.DynamicTableStore.List", err)
	}
	for _, t := range tables {
		if t.Independent {
			continue
		}
		h, err := l.core.Registry().Resolve(l.ctx, t.Name)
		if err != nil {
			return translateErr("CoreEntityLogic.Delete.Registry.Resolve", err)
		}
		n, err := l.core.Store().DynamicRowStore().CountByCoreRef(l.ctx, h, id)
		if err != nil {
			return translateErr("CoreEntityLogic.Delete.DynamicRowStore.CountByCoreRef", err)
		}
		if n > 0 {
			return errors.New("CoreEntityLogic.Delete", i18n.ERROR_CORE_ENTITY_REFERENCED,
				fmt.Errorf("%w: %d rows of %q reference core entity %q", dyntable.ErrValidation, n, t.Name, id)).
				Code(http.StatusBadRequest).
				WithData(map[string]interface{}{"table": t.Name, "rows": n})
		}
	}

	if err = l.core.Store().CoreEntityStore().Delete(l.ctx, id); err != nil {
		return translateErr("CoreEntityLogic.Delete.CoreEntityStore.Delete", err)
	}
	return nil
}
