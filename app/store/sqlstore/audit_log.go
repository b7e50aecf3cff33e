package sqlstore

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/tablehub/tablehub/pkg/register"
	"github.com/tablehub/tablehub/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.AuditLogStore = NewAuditLogStore(provider)
	})
}

// AuditLogStore is append only, it has no update or delete.
type AuditLogStore struct {
	CommonFields
}

func NewAuditLogStore(provider SqlProviderAchieve) *AuditLogStore {
	repo := &AuditLogStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_AUDIT_LOG)
	repo.SetAllColumns("id", "user_id", "action", "table_name", "entry_id", "reason", "created_at")
	return repo
}

func (s *AuditLogStore) Create(ctx context.Context, data types.AuditLog) error {
	query := sq.Insert(s.GetTable()).
		Columns("user_id", "action", "table_name", "entry_id", "reason", "created_at").
		Values(data.UserID, data.Action, data.TableName, data.EntryID, data.Reason, data.CreatedAt)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

// List returns entries newest first.
func (s *AuditLogStore) List(ctx context.Context, opts types.ListAuditLogOptions, page, pageSize uint64) ([]types.AuditLog, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).OrderBy("id DESC")
	if page != 0 || pageSize != 0 {
		query = query.Limit(pageSize).Offset((page - 1) * pageSize)
	}

	opts.Apply(&query)

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.AuditLog
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *AuditLogStore) Total(ctx context.Context, opts types.ListAuditLogOptions) (int64, error) {
	query := sq.Select("COUNT(*)").From(s.GetTable())

	opts.Apply(&query)

	queryString, args, err := query.ToSql()
	if err != nil {
		return 0, ErrorSqlBuild(err)
	}

	var res int64
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return 0, err
	}
	return res, nil
}
