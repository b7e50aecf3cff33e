package v1

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tablehub/tablehub/app/core"
	"github.com/tablehub/tablehub/pkg/dyntable"
	"github.com/tablehub/tablehub/pkg/errors"
	"github.com/tablehub/tablehub/pkg/types"
)

type RowLogic struct {
	ctx  context.Context
	core *core.Core
	UserInfo
}

func NewRowLogic(ctx context.Context, core *core.Core) *RowLogic {
	return &RowLogic{
		ctx:      ctx,
		core:     core,
		UserInfo: SetupUserInfo(ctx, core),
	}
}

func (l *RowLogic) resolve(trace, table string) (*dyntable.Handle, error) {
	h, err := l.core.Registry().Resolve(l.ctx, table)
	if err != nil {
		return nil, translateErr(trace+".Registry.Resolve", err)
	}
	return h, nil
}

// ViewTable lists rows with their core entity display columns.
func (l *RowLogic) ViewTable(table string, opts types.ListDynamicRowOptions, page, pageSize uint64) (*TableView, error) {
	user, err := l.Identification("RowLogic.ViewTable", canView(table))
	if err != nil {
		return nil, err
	}
	h, err := l.resolve("RowLogic.ViewTable", table)
	if err != nil {
		return nil, err
	}

	if opts.Equal != nil {
		if opts.Equal, err = h.CoerceValues(opts.Equal); err != nil {
			return nil, translateErr("RowLogic.ViewTable.CoerceValues", err)
		}
	}

	rows, err := l.core.Store().DynamicRowStore().List(l.ctx, h, opts, page, pageSize)
	if err != nil {
		return nil, translateErr("RowLogic.ViewTable.DynamicRowStore.List", err)
	}
	total, err := l.core.Store().DynamicRowStore().Total(l.ctx, h, opts)
	if err != nil {
		return nil, translateErr("RowLogic.ViewTable.DynamicRowStore.Total", err)
	}
	return buildTableView(h, rows, total, capabilitiesOf(user)), nil
}

func (l *RowLogic) GetRow(table string, id int64) (*types.DynamicRow, error) {
	if _, err := l.Identification("RowLogic.GetRow", canView(table)); err != nil {
		return nil, err
	}
	h, err := l.resolve("RowLogic.GetRow", table)
	if err != nil {
		return nil, err
	}

	row, err := l.core.Store().DynamicRowStore().Get(l.ctx, h, id)
	if err != nil {
		return nil, translateErr("RowLogic.GetRow.DynamicRowStore.Get", err)
	}
	return row, nil
}

type AddRowRequest struct {
	Values  map[string]any `json:"values" binding:"required"`
	CoreRef string         `json:"core_ref"`
	Reason  string         `json:"reason"`
}

// checkCoreRef enforces that linked tables reference an existing core entity and
// independent tables carry no reference.
func (l *RowLogic) checkCoreRef(h *dyntable.Handle, coreRef string) error {
	if h.Independent() {
		if coreRef != "" {
			return fmt.Errorf("%w: table %q does not link to core entities", dyntable.ErrValidation, h.Name())
		}
		return nil
	}
	if coreRef == "" {
		return fmt.Errorf("%w: core_ref is required for table %q", dyntable.ErrValidation, h.Name())
	}
	if _, err := l.core.Store().CoreEntityStore().GetByUUID(l.ctx, coreRef); err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: core entity %q does not exist", dyntable.ErrValidation, coreRef)
		}
		return err
	}
	return nil
}

// AddRow inserts a row and its audit entry in one transaction.
func (l *RowLogic) AddRow(table string, req AddRowRequest) (*types.DynamicRow, error) {
	user, err := l.Identification("RowLogic.AddRow", canEdit(table))
	if err != nil {
		return nil, err
	}
	if err = requireReason("RowLogic.AddRow", req.Reason); err != nil {
		return nil, err
	}
	h, err := l.resolve("RowLogic.AddRow", table)
	if err != nil {
		return nil, err
	}
	values, err := h.CoerceValues(req.Values)
	if err != nil {
		return nil, translateErr("RowLogic.AddRow.CoerceValues", err)
	}
	if err = l.checkCoreRef(h, req.CoreRef); err != nil {
		return nil, translateErr("RowLogic.AddRow.checkCoreRef", err)
	}

	var id int64
	err = l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		if id, err = l.core.Store().DynamicRowStore().Insert(ctx, h, req.CoreRef, values); err != nil {
			return translateErr("RowLogic.AddRow.DynamicRowStore.Insert", err)
		}
		if err = recordAudit(ctx, l.core, user.ID, types.AuditActionAdd, table, &id, req.Reason); err != nil {
			return translateErr("RowLogic.AddRow.recordAudit", err)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Trace("RowLogic.AddRow", err)
	}

	row, err := l.core.Store().DynamicRowStore().Get(l.ctx, h, id)
	if err != nil {
		return nil, translateErr("RowLogic.AddRow.DynamicRowStore.Get", err)
	}
	return row, nil
}

type EditRowRequest struct {
	Values map[string]any `json:"values" binding:"required"`
	Reason string         `json:"reason"`
}

func (l *RowLogic) EditRow(table string, id int64, req EditRowRequest) (*types.DynamicRow, error) {
	user, err := l.Identification("RowLogic.EditRow", canEdit(table))
	if err != nil {
		return nil, err
	}
	if err = requireReason("RowLogic.EditRow", req.Reason); err != nil {
		return nil, err
	}
	if len(req.Values) == 0 {
		return nil, invalidArgument("RowLogic.EditRow", fmt.Errorf("%w: nothing to update", dyntable.ErrValidation))
	}
	h, err := l.resolve("RowLogic.EditRow", table)
	if err != nil {
		return nil, err
	}
	values, err := h.CoerceValues(req.Values)
	if err != nil {
		return nil, translateErr("RowLogic.EditRow.CoerceValues", err)
	}

	err = l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		if err := l.core.Store().DynamicRowStore().Update(ctx, h, id, values); err != nil {
			return translateErr("RowLogic.EditRow.DynamicRowStore.Update", err)
		}
		if err := recordAudit(ctx, l.core, user.ID, types.AuditActionEdit, table, &id, req.Reason); err != nil {
			return translateErr("RowLogic.EditRow.recordAudit", err)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Trace("RowLogic.EditRow", err)
	}

	row, err := l.core.Store().DynamicRowStore().Get(l.ctx, h, id)
	if err != nil {
		return nil, translateErr("RowLogic.EditRow.DynamicRowStore.Get", err)
	}
	return row, nil
}

func (l *RowLogic) DeleteRow(table string, id int64, reason string) error {
	user, err := l.Identification("RowLogic.DeleteRow", canEdit(table))
	if err != nil {
		return err
	}
	if err = requireReason("RowLogic.DeleteRow", reason); err != nil {
		return err
	}
	h, err := l.resolve("RowLogic.DeleteRow", table)
	if err != nil {
		return err
	}

	return l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		if err := l.core.Store().DynamicRowStore().Delete(ctx, h, id); err != nil {
			return translateErr("RowLogic.DeleteRow.DynamicRowStore.Delete", err)
		}
		if err := recordAudit(ctx, l.core, user.ID, types.AuditActionDelete, table, &id, reason); err != nil {
			return translateErr("RowLogic.DeleteRow.recordAudit", err)
		}
		return nil
	})
}

type BulkUpdateRequest struct {
	Entries []types.RowUpdate `json:"entries" binding:"required"`
	Reason  string            `json:"reason"`
}

// BulkUpdate applies every entry or none, writing one audit entry per row.
func (l *RowLogic) BulkUpdate(table string, req BulkUpdateRequest) (int, error) {
	user, err := l.Identification("RowLogic.BulkUpdate", canUpdate(table))
	if err != nil {
		return 0, err
	}
	if err = requireReason("RowLogic.BulkUpdate", req.Reason); err != nil {
		return 0, err
	}
	if len(req.Entries) == 0 {
		return 0, invalidArgument("RowLogic.BulkUpdate", fmt.Errorf("%w: no entries", dyntable.ErrValidation))
	}
	h, err := l.resolve("RowLogic.BulkUpdate", table)
	if err != nil {
		return 0, err
	}

	updates := make([]types.RowUpdate, 0, len(req.Entries))
	for _, entry := range req.Entries {
		if len(entry.Values) == 0 {
			return 0, invalidArgument("RowLogic.BulkUpdate", fmt.Errorf("%w: row %d has nothing to update", dyntable.ErrValidation, entry.ID))
		}
		values, err := h.CoerceValues(entry.Values)
		if err != nil {
			return 0, translateErr("RowLogic.BulkUpdate.CoerceValues", err)
		}
		updates = append(updates, types.RowUpdate{ID: entry.ID, Values: values})
	}

	err = l.core.Store().Transaction(l.ctx, func(ctx context.Context) error {
		for _, u := range updates {
			id := u.ID
			if err := l.core.Store().DynamicRowStore().Update(ctx, h, id, u.Values); err != nil {
				return translateErr("RowLogic.BulkUpdate.DynamicRowStore.Update", err)
			}
			if err := recordAudit(ctx, l.core, user.ID, types.AuditActionEdit, table, &id, req.Reason); err != nil {
				return translateErr("RowLogic.BulkUpdate.recordAudit", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, errors.Trace("RowLogic.BulkUpdate", err)
	}
	return len(updates), nil
}
