package types

import sq "github.com/Masterminds/squirrel"

const (
	AuditActionAdd        = "add"
	AuditActionEdit       = "edit"
	AuditActionDelete     = "delete"
	AuditActionCreateUser = "create_user"
	AuditActionUpdateUser = "update_user"
	AuditActionCreate     = "create_table"
	AuditActionAddColumn  = "add_column"
	AuditActionRepair     = "repair_table"
)

// AuditLog is written in the same transaction as the change it documents and never modified.
type AuditLog struct {
	ID        int64  `json:"id" db:"id"`
	UserID    string `json:"user_id" db:"user_id"`
	Action    string `json:"action" db:"action"`
	TableName string `json:"table_name" db:"table_name"`
	EntryID   *int64 `json:"entry_id" db:"entry_id"`
	Reason    string `json:"reason" db:"reason"`
	CreatedAt int64  `json:"created_at" db:"created_at"`
}

type ListAuditLogOptions struct {
	UserID    string
	TableName string
	Action    string
	EntryID   *int64
}

func (opts ListAuditLogOptions) Apply(query *sq.SelectBuilder) {
	if opts.UserID != "" {
		*query = query.Where(sq.Eq{"user_id": opts.UserID})
	}
	if opts.TableName != "" {
		*query = query.Where(sq.Eq{"table_name": opts.TableName})
	}
	if opts.Action != "" {
		*query = query.Where(sq.Eq{"action": opts.Action})
	}
	if opts.EntryID != nil {
		*query = query.Where(sq.Eq{"entry_id": *opts.EntryID})
	}
}
