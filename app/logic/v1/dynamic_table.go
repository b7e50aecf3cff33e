package v1

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"github.com/tablehub/tablehub/app/core"
	"github.com/tablehub/tablehub/app/store"
	"github.com/tablehub/tablehub/pkg/dyntable"
	"github.com/tablehub/tablehub/pkg/errors"
	"github.com/tablehub/tablehub/pkg/types"
)

// auditedCatalog writes the create_table audit entry in the same transaction as the catalog record.
type auditedCatalog struct {
	store.DynamicTableStore
	core   *core.Core
	userID string
	reason string
}

func (c auditedCatalog) Create(ctx context.Context, rec types.DynamicTable) (int64, error) {
	var id int64
	err := c.core.Store().Transaction(ctx, func(ctx context.Context) error {
		var err error
		if id, err = c.DynamicTableStore.Create(ctx, rec); err != nil {
			return err
		}
		return recordAudit(ctx, c.core, c.userID, types.AuditActionCreate, rec.Name, nil, c.reason)
	})
	return id, err
}

// defineTable is lookup-or-create followed by a resolve, so the physical table exists on return.
func defineTable(ctx context.Context, core *core.Core, rec types.DynamicTable, userID, reason string) (*types.DynamicTable, *dyntable.Handle, bool, error) {
	now := time.Now().Unix()
	rec.CreatedAt, rec.UpdatedAt = now, now

	catalog := auditedCatalog{
		DynamicTableStore: core.Store().DynamicTableStore(),
		core:              core,
		userID:            userID,
		reason:            reason,
	}
	table, created, err := dyntable.DefineOrGet(ctx, catalog, rec)
	if err != nil {
		return nil, nil, false, err
	}
	if created {
		slog.Info("dynamic table defined", slog.String("component", "logic.v1.defineTable"),
			slog.String("table", table.Name), slog.String("owner", table.OwnerID))
	}

	h, err := core.Registry().Resolve(ctx, table.Name)
	if err != nil {
		return table, nil, created, err
	}
	return table, h, created, nil
}

type DynamicTableLogic struct {
	ctx  context.Context
	core *core.Core
	UserInfo
}

func NewDynamicTableLogic(ctx context.Context, core *core.Core) *DynamicTableLogic {
	return &DynamicTableLogic{
		ctx:      ctx,
		core:     core,
		UserInfo: SetupUserInfo(ctx, core),
	}
}

type DefineTableRequest struct {
	Name        string           `json:"name" binding:"required"`
	Columns     types.ColumnList `json:"columns" binding:"required"`
	OwnerID     string           `json:"owner_id"`
	Independent bool             `json:"independent"`
	Reason      string           `json:"reason"`
}

type TableDetail struct {
	Table   *types.DynamicTable `json:"table"`
	Columns []dyntable.Column   `json:"columns"`
	Created bool                `json:"created"`
}

// DefineTable creates a dynamic table. A second define of the same name returns the
// existing record with Created set to false.
func (l *DynamicTableLogic) DefineTable(req DefineTableRequest) (*TableDetail, error) {
	user, err := l.Identification("DynamicTableLogic.DefineTable", canCreateTables)
	if err != nil {
		return nil, err
	}
	if err = requireReason("DynamicTableLogic.DefineTable", req.Reason); err != nil {
		return nil, err
	}

	if req.OwnerID == "" {
		req.OwnerID = user.ID
	}
	if req.OwnerID != user.ID {
		if !user.IsAdmin {
			return nil, permissionDenied("DynamicTableLogic.DefineTable.owner")
		}
		if _, err = l.core.Store().UserStore().GetUser(l.ctx, req.OwnerID); err != nil {
			return nil, translateErr("DynamicTableLogic.DefineTable.UserStore.GetUser", err)
		}
	}

	table, h, created, err := defineTable(l.ctx, l.core, types.DynamicTable{
		Name:        req.Name,
		Columns:     req.Columns,
		OwnerID:     req.OwnerID,
		Independent: req.Independent,
	}, user.ID, req.Reason)
	if err != nil {
		return nil, translateErr("DynamicTableLogic.DefineTable.defineTable", err)
	}
	// 已存在的表只返回给有查看权限的用户
	if !created && !l.core.Srv().RBAC().CanView(user, table.Name) {
		return nil, permissionDenied("DynamicTableLogic.DefineTable.CanView")
	}

	return &TableDetail{
		Table:   table,
		Columns: h.Columns(),
		Created: created,
	}, nil
}

// ListTables returns the catalog entries the current user can access.
func (l *DynamicTableLogic) ListTables() ([]types.DynamicTable, error) {
	user, err := l.CurrentUser()
	if err != nil {
		return nil, err
	}

	opts := types.ListDynamicTableOptions{}
	if !user.IsAdmin {
		names := l.core.Srv().RBAC().AccessibleTables(user)
		if names.Len() == 0 {
			return []types.DynamicTable{}, nil
		}
		opts.Names = names.Slice()
	}

	list, err := l.core.Store().DynamicTableStore().List(l.ctx, opts)
	if err != nil {
		return nil, translateErr("DynamicTableLogic.ListTables.DynamicTableStore.List", err)
	}
	return list, nil
}

func (l *DynamicTableLogic) GetTable(name string) (*TableDetail, error) {
	if _, err := l.Identification("DynamicTableLogic.GetTable", canView(name)); err != nil {
		return nil, err
	}

	table, err := l.core.Store().DynamicTableStore().Get(l.ctx, name)
	if err != nil {
		return nil, translateErr("DynamicTableLogic.GetTable.DynamicTableStore.Get", err)
	}
	h, err := l.core.Registry().Resolve(l.ctx, name)
	if err != nil {
		return nil, translateErr("DynamicTableLogic.GetTable.Registry.Resolve", err)
	}
	return &TableDetail{Table: table, Columns: h.Columns()}, nil
}

type AddColumnsRequest struct {
	Columns types.ColumnList `json:"columns" binding:"required"`
	Reason  string           `json:"reason"`
}

// AddColumns appends columns to the catalog record and the physical table in one
// transaction, then drops the cached handle.
func (l *DynamicTableLogic) AddColumns(name string, req AddColumnsRequest) (*TableDetail, error) {
	user, err := l.Identification("DynamicTableLogic.AddColumns", canCreateTables)
	if err != nil {
		return nil, err
	}
	if err = requireReason("DynamicTableLogic.AddColumns", req.Reason); err != nil {
		return nil, err
	}

	err = l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		rec, err := l.core.Store().DynamicTableStore().GetForUpdate(ctx, name)
		if err != nil {
			return translateErr("DynamicTableLogic.AddColumns.GetForUpdate", err)
		}
		if !user.IsAdmin && rec.OwnerID != user.ID {
			return permissionDenied("DynamicTableLogic.AddColumns.owner")
		}
		if err = dyntable.ValidateColumns(req.Columns, rec.Columns); err != nil {
			return translateErr("DynamicTableLogic.AddColumns.ValidateColumns", err)
		}

		columns := append(append(types.ColumnList{}, rec.Columns...), req.Columns...)
		if err = l.core.Store().DynamicTableStore().UpdateColumns(ctx, name, columns); err != nil {
			return translateErr("DynamicTableLogic.AddColumns.UpdateColumns", err)
		}

		added := lo.Map(req.Columns, func(c types.ColumnSpec, _ int) dyntable.Column {
			return dyntable.Column{Name: c.Name, Type: c.Type}
		})
		if err = l.core.Store().DynamicStorageStore().AddColumns(ctx, name, added); err != nil {
			return translateErr("DynamicTableLogic.AddColumns.DynamicStorageStore.AddColumns",
				fmt.Errorf("%w: %w", dyntable.ErrMaterializationIncomplete, err))
		}
		if err = recordAudit(ctx, l.core, user.ID, types.AuditActionAddColumn, name, nil, req.Reason); err != nil {
			return translateErr("DynamicTableLogic.AddColumns.recordAudit", err)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Trace("DynamicTableLogic.AddColumns", err)
	}

	l.core.Registry().Invalidate(name)
	return l.GetTable(name)
}

type RepairRequest struct {
	Reason string `json:"reason"`
}

// RepairTable recreates the missing physical parts of a catalogued table.
func (l *DynamicTableLogic) RepairTable(name, reason string) (*dyntable.RepairReport, error) {
	user, err := l.Identification("DynamicTableLogic.RepairTable", isAdmin)
	if err != nil {
		return nil, err
	}
	if err = requireReason("DynamicTableLogic.RepairTable", reason); err != nil {
		return nil, err
	}

	report, err := l.core.Registry().Repair(l.ctx, name)
	l.core.Metrics().RepairReported(report.Repaired)
	if err != nil {
		return &report, translateErr("DynamicTableLogic.RepairTable.Registry.Repair", err)
	}
	if report.Repaired {
		if err = recordAudit(l.ctx, l.core, user.ID, types.AuditActionRepair, name, nil, reason); err != nil {
			return &report, translateErr("DynamicTableLogic.RepairTable.recordAudit", err)
		}
	}
	return &report, nil
}

