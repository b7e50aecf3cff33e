package sqlstore

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/tablehub/tablehub/pkg/dyntable"
	"github.com/tablehub/tablehub/pkg/register"
	"github.com/tablehub/tablehub/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.DynamicRowStore = NewDynamicRowStore(provider)
	})
}

const (
	rowAlias             = "t"
	coreAlias            = "c"
	coreNameColumn       = "__core_name"
	coreDescriptionColum = "__core_description"
)

// DynamicRowStore runs CRUD on any dynamic table described by a handle.
// Identifiers always come from the handle and are quoted, values are bound.
type DynamicRowStore struct {
	CommonFields
	coreTable string
}

func NewDynamicRowStore(provider SqlProviderAchieve) *DynamicRowStore {
	repo := &DynamicRowStore{coreTable: types.TABLE_CORE_ENTITY.Name()}
	repo.SetProvider(provider)
	return repo
}

func qualified(alias, column string) string {
	return alias + "." + pq.QuoteIdentifier(column)
}

func (s *DynamicRowStore) Insert(ctx context.Context, h *dyntable.Handle, coreRef string, values map[string]any) (int64, error) {
	now := time.Now().Unix()
	columns := []string{pq.QuoteIdentifier(dyntable.ColumnCreatedAt), pq.QuoteIdentifier(dyntable.ColumnUpdatedAt)}
	args := []any{now, now}
	if !h.Independent() {
		columns = append(columns, pq.QuoteIdentifier(dyntable.ColumnCoreRef))
		args = append(args, coreRef)
	}
	for _, c := range h.DataColumns() {
		v, ok := values[c.Name]
		if !ok {
			continue
		}
		columns = append(columns, pq.QuoteIdentifier(c.Name))
		args = append(args, v)
	}

	query := sq.Insert(pq.QuoteIdentifier(h.Name())).Columns(columns...).Values(args...).Suffix("RETURNING id")

	queryString, queryArgs, err := query.ToSql()
	if err != nil {
		return 0, ErrorSqlBuild(err)
	}

	var id int64
	if err = s.GetMaster(ctx).QueryRowx(queryString, queryArgs...).Scan(&id); err != nil {
		if IsForeignKeyViolation(err) {
			return 0, fmt.Errorf("%w: core entity %q does not exist", dyntable.ErrValidation, coreRef)
		}
		return 0, err
	}
	return id, nil
}

func (s *DynamicRowStore) selectRows(h *dyntable.Handle) sq.SelectBuilder {
	columns := make([]string, 0, len(h.Columns())+2)
	for _, c := range h.Columns() {
		columns = append(columns, qualified(rowAlias, c.Name))
	}

	from := pq.QuoteIdentifier(h.Name()) + " AS " + rowAlias
	if h.Independent() {
		return sq.Select(columns...).From(from)
	}
	columns = append(columns,
		qualified(coreAlias, "name")+" AS "+coreNameColumn,
		qualified(coreAlias, "description")+" AS "+coreDescriptionColum)
	return sq.Select(columns...).From(from).
		LeftJoin(fmt.Sprintf("%s AS %s ON %s = %s", pq.QuoteIdentifier(s.coreTable), coreAlias,
			qualified(coreAlias, "uuid"), qualified(rowAlias, dyntable.ColumnCoreRef)))
}

func applyRowOptions(h *dyntable.Handle, query *sq.SelectBuilder, opts types.ListDynamicRowOptions) error {
	if opts.CoreRef != "" {
		if h.Independent() {
			return fmt.Errorf("%w: table %q has no core reference", dyntable.ErrValidation, h.Name())
		}
		*query = query.Where(sq.Eq{qualified(rowAlias, dyntable.ColumnCoreRef): opts.CoreRef})
	}
	for name, v := range opts.Equal {
		if _, ok := h.Column(name); !ok {
			return fmt.Errorf("%w: table %q has no column %q", dyntable.ErrValidation, h.Name(), name)
		}
		*query = query.Where(sq.Eq{qualified(rowAlias, name): v})
	}
	return nil
}

func (s *DynamicRowStore) Get(ctx context.Context, h *dyntable.Handle, id int64) (*types.DynamicRow, error) {
	query := s.selectRows(h).Where(sq.Eq{qualified(rowAlias, dyntable.ColumnID): id})

	rows, err := s.query(ctx, h, query)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("row %d of %q: %w", id, h.Name(), dyntable.ErrNotFound)
	}
	return &rows[0], nil
}

func (s *DynamicRowStore) List(ctx context.Context, h *dyntable.Handle, opts types.ListDynamicRowOptions, page, pageSize uint64) ([]types.DynamicRow, error) {
	query := s.selectRows(h).OrderBy(qualified(rowAlias, dyntable.ColumnID) + " ASC")
	if err := applyRowOptions(h, &query, opts); err != nil {
		return nil, err
	}
	if page != 0 || pageSize != 0 {
		query = query.Limit(pageSize).Offset((page - 1) * pageSize)
	}
	return s.query(ctx, h, query)
}

func (s *DynamicRowStore) query(ctx context.Context, h *dyntable.Handle, query sq.SelectBuilder) ([]types.DynamicRow, error) {
	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	rows, err := s.GetReplica(ctx).Queryx(queryString, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []types.DynamicRow
	for rows.Next() {
		raw := make(map[string]any)
		if err = rows.MapScan(raw); err != nil {
			return nil, err
		}
		res = append(res, decodeRow(h, raw))
	}
	return res, rows.Err()
}

func decodeRow(h *dyntable.Handle, raw map[string]any) types.DynamicRow {
	row := types.DynamicRow{Values: make(map[string]any, len(raw))}
	if v, ok := dyntable.Normalize(raw[dyntable.ColumnID]).(int64); ok {
		row.ID = v
	}
	if v, ok := dyntable.Normalize(raw[dyntable.ColumnCreatedAt]).(int64); ok {
		row.CreatedAt = v
	}
	if v, ok := dyntable.Normalize(raw[dyntable.ColumnUpdatedAt]).(int64); ok {
		row.UpdatedAt = v
	}
	if v, ok := dyntable.Normalize(raw[dyntable.ColumnCoreRef]).(string); ok {
		row.CoreRef = v
	}
	for _, c := range h.DataColumns() {
		row.Values[c.Name] = dyntable.Normalize(raw[c.Name])
	}
	if name, ok := dyntable.Normalize(raw[coreNameColumn]).(string); ok {
		row.Core = &types.CoreDisplay{
			Name:        name,
			Description: dyntable.Display(raw[coreDescriptionColum]),
		}
	}
	return row
}

func (s *DynamicRowStore) Total(ctx context.Context, h *dyntable.Handle, opts types.ListDynamicRowOptions) (int64, error) {
	query := sq.Select("COUNT(*)").From(pq.QuoteIdentifier(h.Name()) + " AS " + rowAlias)
	if err := applyRowOptions(h, &query, opts); err != nil {
		return 0, err
	}

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

// Update writes values and refreshes updated_at.
func (s *DynamicRowStore) Update(ctx context.Context, h *dyntable.Handle, id int64, values map[string]any) error {
	query := sq.Update(pq.QuoteIdentifier(h.Name()))
	for _, c := range h.DataColumns() {
		if v, ok := values[c.Name]; ok {
			query = query.Set(pq.QuoteIdentifier(c.Name), v)
		}
	}
	query = query.Set(pq.QuoteIdentifier(dyntable.ColumnUpdatedAt), time.Now().Unix()).
		Where(sq.Eq{pq.QuoteIdentifier(dyntable.ColumnID): id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	res, err := s.GetMaster(ctx).Exec(queryString, args...)
	if err != nil {
		return err
	}
	return mustAffect(res, h, id)
}

func (s *DynamicRowStore) Delete(ctx context.Context, h *dyntable.Handle, id int64) error {
	queryString, args, err := sq.Delete(pq.QuoteIdentifier(h.Name())).
		Where(sq.Eq{pq.QuoteIdentifier(dyntable.ColumnID): id}).ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	res, err := s.GetMaster(ctx).Exec(queryString, args...)
	if err != nil {
		return err
	}
	return mustAffect(res, h, id)
}

func (s *DynamicRowStore) CountByCoreRef(ctx context.Context, h *dyntable.Handle, coreRef string) (int64, error) {
	if h.Independent() {
		return 0, nil
	}
	return s.Total(ctx, h, types.ListDynamicRowOptions{CoreRef: coreRef})
}

type rowsAffected interface {
	RowsAffected() (int64, error)
}

func mustAffect(res rowsAffected, h *dyntable.Handle, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("row %d of %q: %w", id, h.Name(), dyntable.ErrNotFound)
	}
	return nil
}
