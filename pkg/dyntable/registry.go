package dyntable

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	cmap "github.com/orcaman/concurrent-map/v2"
	"golang.org/x/sync/singleflight"

	"github.com/tablehub/tablehub/pkg/types"
)

// Materializer owns the physical side of dynamic tables.
type Materializer interface {
	// Materialize creates the table and any missing columns of h. It must be idempotent.
	Materialize(ctx context.Context, h *Handle) error
	// Reflect returns the physical columns of a table, empty when it does not exist.
	Reflect(ctx context.Context, table string) ([]PhysicalColumn, error)
}

// Observer receives registry events, used for metrics.
type Observer interface {
	CacheHit(table string)
	CacheMiss(table string)
	Materialized(table string, err error)
}

type nopObserver struct{}

func (nopObserver) CacheHit(string)            {}
func (nopObserver) CacheMiss(string)           {}
func (nopObserver) Materialized(string, error) {}

type Option func(*Registry)

// WithAutoRepair controls whether Resolve materializes a catalogued table whose physical
// storage is missing. When disabled such tables fail with ErrMaterializationIncomplete.
func WithAutoRepair(enabled bool) Option {
	return func(r *Registry) {
		r.autoRepair = enabled
	}
}

func WithObserver(o Observer) Option {
	return func(r *Registry) {
		if o != nil {
			r.observer = o
		}
	}
}

// Registry caches one verified Handle per table name. Handles are only stored after the
// physical table matched the catalog, so a failed resolve leaves nothing behind.
type Registry struct {
	catalog      Catalog
	materializer Materializer
	handles      cmap.ConcurrentMap[string, *Handle]
	group        singleflight.Group
	autoRepair   bool
	observer     Observer

	// generations is bumped by Invalidate. A load only caches its handle when the
	// generation it started with is still current.
	mu          sync.Mutex
	generations map[string]uint64
}

func NewRegistry(catalog Catalog, materializer Materializer, opts ...Option) *Registry {
	r := &Registry{
		catalog:      catalog,
		materializer: materializer,
		handles:      cmap.New[*Handle](),
		autoRepair:   true,
		observer:     nopObserver{},
		generations:  make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the handle of table name. Repeated calls return the same *Handle
// until the name is invalidated. The shared load is detached from the caller's
// cancellation, a caller that gives up returns ctx.Err() and leaves the load running
// for the others.
func (r *Registry) Resolve(ctx context.Context, name string) (*Handle, error) {
	if h, ok := r.handles.Get(name); ok {
		r.observer.CacheHit(name)
		return h, nil
	}
	r.observer.CacheMiss(name)

	loadCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan(name, func() (any, error) {
		if h, ok := r.handles.Get(name); ok {
			return h, nil
		}
		gen := r.generation(name)
		h, err := r.load(loadCtx, name, r.autoRepair)
		if err != nil {
			return nil, err
		}
		r.store(name, gen, h)
		return h, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Handle), nil
	}
}

// Invalidate drops the cached handle of name, the next Resolve rebuilds it from the catalog.
// A load already in flight for name will not put its handle back into the cache.
func (r *Registry) Invalidate(name string) {
	r.mu.Lock()
	r.generations[name]++
	r.handles.Remove(name)
	r.mu.Unlock()
	r.group.Forget(name)
}

func (r *Registry) generation(name string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generations[name]
}

// store caches h unless name was invalidated after gen was read.
func (r *Registry) store(name string, gen uint64, h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.generations[name] == gen {
		r.handles.Set(name, h)
	}
}

// Cached reports whether a handle for name is currently cached.
func (r *Registry) Cached(name string) bool {
	return r.handles.Has(name)
}

func (r *Registry) Len() int {
	return r.handles.Count()
}

type RepairReport struct {
	Table    string    `json:"table"`
	Problems []Problem `json:"problems"`
	Repaired bool      `json:"repaired"`
}

// Repair re-materializes table name from its catalog record regardless of the auto repair
// setting, then replaces the cached handle.
func (r *Registry) Repair(ctx context.Context, name string) (RepairReport, error) {
	v, err, _ := r.group.Do("repair/"+name, func() (any, error) {
		report := RepairReport{Table: name}
		gen := r.generation(name)
		rec, err := r.catalog.Get(ctx, name)
		if err != nil {
			return report, err
		}
		h, err := NewHandle(*rec)
		if err != nil {
			return report, err
		}
		physical, err := r.materializer.Reflect(ctx, name)
		if err != nil {
			return report, fmt.Errorf("%w: reflect %q: %w", ErrMaterializationIncomplete, name, err)
		}
		report.Problems = Verify(h, physical)
		if len(report.Problems) > 0 {
			if err = r.materialize(ctx, h); err != nil {
				return report, err
			}
			report.Repaired = true
		}
		r.store(name, gen, h)
		return report, nil
	})
	report, _ := v.(RepairReport)
	report.Table = name
	if err != nil {
		r.handles.Remove(name)
	}
	return report, err
}

// RepairAll runs Repair over every catalogued table and returns the reports of tables
// that needed work. Errors of single tables are logged and do not stop the pass.
func (r *Registry) RepairAll(ctx context.Context) ([]RepairReport, error) {
	list, err := r.catalog.List(ctx, types.ListDynamicTableOptions{})
	if err != nil {
		return nil, err
	}
	var reports []RepairReport
	for _, rec := range list {
		report, err := r.Repair(ctx, rec.Name)
		if err != nil {
			slog.Error("failed to repair dynamic table", slog.String("component", "registry"),
				slog.String("table", rec.Name), slog.String("error", err.Error()))
			reports = append(reports, report)
			continue
		}
		if report.Repaired {
			reports = append(reports, report)
		}
	}
	return reports, nil
}

func (r *Registry) load(ctx context.Context, name string, repair bool) (*Handle, error) {
	rec, err := r.catalog.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	h, err := NewHandle(*rec)
	if err != nil {
		return nil, err
	}

	physical, err := r.materializer.Reflect(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: reflect %q: %w", ErrMaterializationIncomplete, name, err)
	}
	problems := Verify(h, physical)
	if len(problems) == 0 {
		return h, nil
	}
	if !repair || !Repairable(problems) {
		return nil, incomplete(name, problems)
	}

	slog.Warn("dynamic table is not fully materialized, repairing", slog.String("component", "registry"),
		slog.String("table", name), slog.Any("problems", problems))
	if err = r.materialize(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

// materialize runs the materializer and verifies the outcome.
func (r *Registry) materialize(ctx context.Context, h *Handle) error {
	err := r.materializer.Materialize(ctx, h)
	if err == nil {
		var physical []PhysicalColumn
		if physical, err = r.materializer.Reflect(ctx, h.Name()); err == nil {
			if problems := Verify(h, physical); len(problems) > 0 {
				err = incomplete(h.Name(), problems)
			}
		}
	}
	r.observer.Materialized(h.Name(), err)
	if err != nil && !errors.Is(err, ErrMaterializationIncomplete) {
		err = fmt.Errorf("%w: materialize %q: %w", ErrMaterializationIncomplete, h.Name(), err)
	}
	return err
}

func incomplete(table string, problems []Problem) error {
	parts := make([]string, 0, len(problems))
	for _, p := range problems {
		parts = append(parts, p.String())
	}
	return fmt.Errorf("%w: table %q: %s", ErrMaterializationIncomplete, table, strings.Join(parts, "; "))
}
