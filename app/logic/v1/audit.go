package v1

import (
	"context"
	"time"

	"github.com/tablehub/tablehub/app/core"
	"github.com/tablehub/tablehub/pkg/types"
)

// recordAudit writes one audit entry. Call it with the transaction context of the change.
func recordAudit(ctx context.Context, core *core.Core, userID, action, table string, entryID *int64, reason string) error {
	return core.Store().AuditLogStore().Create(ctx, types.AuditLog{
		UserID:    userID,
		Action:    action,
		TableName: table,
		EntryID:   entryID,
		Reason:    reason,
		CreatedAt: time.Now().Unix(),
	})
}

type AuditLogic struct {
	ctx  context.Context
	core *core.Core
	UserInfo
}

func NewAuditLogic(ctx context.Context, core *core.Core) *AuditLogic {
	return &AuditLogic{
		ctx:      ctx,
		core:     core,
		UserInfo: SetupUserInfo(ctx, core),
	}
}

func (l *AuditLogic) List(opts types.ListAuditLogOptions, page, pageSize uint64) ([]types.AuditLog, int64, error) {
	if _, err := l.Identification("AuditLogic.List", isAdmin); err != nil {
		return nil, 0, err
	}

	list, err := l.core.Store().AuditLogStore().List(l.ctx, opts, page, pageSize)
	if err != nil {
		return nil, 0, translateErr("AuditLogic.List.AuditLogStore.List", err)
	}
	total, err := l.core.Store().AuditLogStore().Total(l.ctx, opts)
	if err != nil {
		return nil, 0, translateErr("AuditLogic.List.AuditLogStore.Total", err)
	}
	return list, total, nil
}
