package dyntable

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/tablehub/tablehub/pkg/types"
)

type fakeCatalog struct {
	mu      sync.Mutex
	records map[string]types.DynamicTable
	nextID  int64
	creates atomic.Int32
}

func newFakeCatalog(recs ...types.DynamicTable) *fakeCatalog {
	c := &fakeCatalog{records: map[string]types.DynamicTable{}}
	for _, r := range recs {
		_, _ = c.Create(context.Background(), r)
	}
	return c
}

func (c *fakeCatalog) Create(_ context.Context, rec types.DynamicTable) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.records[rec.Name]; ok {
		return 0, ErrAlreadyExists
	}
	c.creates.Add(1)
	c.nextID++
	rec.ID = c.nextID
	c.records[rec.Name] = rec
	return rec.ID, nil
}

func (c *fakeCatalog) Get(_ context.Context, name string) (*types.DynamicTable, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.records[name]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (c *fakeCatalog) List(_ context.Context, _ types.ListDynamicTableOptions) ([]types.DynamicTable, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var list []types.DynamicTable
	for _, v := range c.records {
		list = append(list, v)
	}
	return list, nil
}

// fakeStorage keeps physical tables as column name -> information_schema data type.
type fakeStorage struct {
	mu           sync.Mutex
	tables       map[string]map[string]string
	materialized atomic.Int32
	failWith     error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{tables: map[string]map[string]string{}}
}

func (s *fakeStorage) Materialize(_ context.Context, h *Handle) error {
	s.materialized.Add(1)
	if s.failWith != nil {
		return s.failWith
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cols, ok := s.tables[h.Name()]
	if !ok {
		cols = map[string]string{}
		s.tables[h.Name()] = cols
	}
	for _, c := range h.Columns() {
		if _, exists := cols[c.Name]; !exists {
			cols[c.Name] = informationSchemaType(c.Type)
		}
	}
	return nil
}

func (s *fakeStorage) Reflect(_ context.Context, table string) ([]PhysicalColumn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []PhysicalColumn
	for name, typ := range s.tables[table] {
		out = append(out, PhysicalColumn{Name: name, DataType: typ})
	}
	return out, nil
}

func (s *fakeStorage) drop(table, column string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if column == "" {
		delete(s.tables, table)
		return
	}
	delete(s.tables[table], column)
}

type countingObserver struct {
	hits, misses, materialized atomic.Int32
}

func (o *countingObserver) CacheHit(string)  { o.hits.Add(1) }
func (o *countingObserver) CacheMiss(string) { o.misses.Add(1) }
func (o *countingObserver) Materialized(string, error) {
	o.materialized.Add(1)
}

func employees() types.DynamicTable {
	return types.DynamicTable{
		Name:    "employees",
		OwnerID: "u1",
		Columns: types.ColumnList{
			{Name: "name", Type: types.ColumnTypeString},
			{Name: "position", Type: types.ColumnTypeString},
			{Name: "salary", Type: types.ColumnTypeInteger},
		},
	}
}

func (c *fakeCatalog) addColumn(table string, col types.ColumnSpec) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec := c.records[table]
	rec.Columns = append(rec.Columns, col)
	c.records[table] = rec
}

// gatedCatalog parks the first Get after it has read the record, until release is closed.
type gatedCatalog struct {
	*fakeCatalog
	gated   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func newGatedCatalog(inner *fakeCatalog) *gatedCatalog {
	c := &gatedCatalog{
		fakeCatalog: inner,
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	c.gated.Store(true)
	return c
}

func (c *gatedCatalog) Get(ctx context.Context, name string) (*types.DynamicTable, error) {
	rec, err := c.fakeCatalog.Get(ctx, name)
	if c.gated.CompareAndSwap(true, false) {
		close(c.entered)
		<-c.release
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return rec, err
}
