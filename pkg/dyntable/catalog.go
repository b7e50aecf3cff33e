package dyntable

import (
	"context"
	"errors"
	"fmt"

	"github.com/tablehub/tablehub/pkg/types"
)

// Catalog is the durable record of dynamic tables. Implementations must enforce name
// uniqueness and report a duplicate Create with ErrAlreadyExists and a missing Get with ErrNotFound.
type Catalog interface {
	Create(ctx context.Context, rec types.DynamicTable) (int64, error)
	Get(ctx context.Context, name string) (*types.DynamicTable, error)
	List(ctx context.Context, opts types.ListDynamicTableOptions) ([]types.DynamicTable, error)
}

// DefineOrGet validates rec and writes it to the catalog. When another caller defined the
// same name first, the existing record is returned with created set to false.
func DefineOrGet(ctx context.Context, catalog Catalog, rec types.DynamicTable) (*types.DynamicTable, bool, error) {
	if err := ValidateTableName(rec.Name); err != nil {
		return nil, false, err
	}
	if err := ValidateColumns(rec.Columns, nil); err != nil {
		return nil, false, err
	}

	id, err := catalog.Create(ctx, rec)
	if err == nil {
		rec.ID = id
		return &rec, true, nil
	}
	if !errors.Is(err, ErrAlreadyExists) {
		return nil, false, err
	}

	existing, err := catalog.Get(ctx, rec.Name)
	if err != nil {
		return nil, false, fmt.Errorf("lookup after duplicate define of %q: %w", rec.Name, err)
	}
	return existing, false, nil
}
