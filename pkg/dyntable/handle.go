package dyntable

import (
	"fmt"

	"github.com/tablehub/tablehub/pkg/types"
)

const (
	ColumnID        = "id"
	ColumnCoreRef   = "core_ref"
	ColumnCreatedAt = "created_at"
	ColumnUpdatedAt = "updated_at"
)

var spineColumns = map[string]bool{
	ColumnID:        true,
	ColumnCoreRef:   true,
	ColumnCreatedAt: true,
	ColumnUpdatedAt: true,
}

func IsSpineColumn(name string) bool {
	return spineColumns[name]
}

type Column struct {
	Name  string           `json:"name"`
	Type  types.ColumnType `json:"type"`
	Spine bool             `json:"-"`
}

// Handle describes the physical shape of one dynamic table. Handles are built once by
// the Registry and never mutated afterwards, so they can be shared without locking.
type Handle struct {
	name        string
	ownerID     string
	independent bool
	columns     []Column
	index       map[string]int
}

// NewHandle builds the handle of a catalog record: the fixed spine followed by the
// catalog columns in their declared order.
func NewHandle(rec types.DynamicTable) (*Handle, error) {
	if err := ValidateTableName(rec.Name); err != nil {
		return nil, err
	}
	if err := ValidateColumns(rec.Columns, nil); err != nil {
		return nil, err
	}

	h := &Handle{
		name:        rec.Name,
		ownerID:     rec.OwnerID,
		independent: rec.Independent,
	}
	h.columns = append(h.columns, Column{Name: ColumnID, Type: types.ColumnTypeSerial, Spine: true})
	if !rec.Independent {
		h.columns = append(h.columns, Column{Name: ColumnCoreRef, Type: types.ColumnTypeCoreRef, Spine: true})
	}
	h.columns = append(h.columns,
		Column{Name: ColumnCreatedAt, Type: types.ColumnTypeTimestamp, Spine: true},
		Column{Name: ColumnUpdatedAt, Type: types.ColumnTypeTimestamp, Spine: true},
	)
	for _, c := range rec.Columns {
		h.columns = append(h.columns, Column{Name: c.Name, Type: c.Type})
	}

	h.index = make(map[string]int, len(h.columns))
	for i, c := range h.columns {
		h.index[c.Name] = i
	}
	return h, nil
}

func (h *Handle) Name() string {
	return h.name
}

func (h *Handle) OwnerID() string {
	return h.ownerID
}

func (h *Handle) Independent() bool {
	return h.independent
}

// Columns returns every physical column, spine included.
func (h *Handle) Columns() []Column {
	out := make([]Column, len(h.columns))
	copy(out, h.columns)
	return out
}

// DataColumns returns the catalog columns only.
func (h *Handle) DataColumns() []Column {
	var out []Column
	for _, c := range h.columns {
		if !c.Spine {
			out = append(out, c)
		}
	}
	return out
}

func (h *Handle) ColumnNames() []string {
	names := make([]string, 0, len(h.columns))
	for _, c := range h.columns {
		names = append(names, c.Name)
	}
	return names
}

func (h *Handle) DataColumnNames() []string {
	var names []string
	for _, c := range h.columns {
		if !c.Spine {
			names = append(names, c.Name)
		}
	}
	return names
}

func (h *Handle) Column(name string) (Column, bool) {
	i, ok := h.index[name]
	if !ok {
		return Column{}, false
	}
	return h.columns[i], true
}

// CoerceValues converts caller supplied values to the column types of h.
// Unknown and spine columns are rejected.
func (h *Handle) CoerceValues(values map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(values))
	for name, raw := range values {
		col, ok := h.Column(name)
		if !ok || col.Spine {
			return nil, fmt.Errorf("%w: table %q has no column %q", ErrValidation, h.name, name)
		}
		v, err := Coerce(col, raw)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}
