package v1

import (
	"github.com/samber/lo"

	"github.com/tablehub/tablehub/pkg/dyntable"
	"github.com/tablehub/tablehub/pkg/types"
)

// CoreColumns are shown next to the data columns of tables linked to core entities.
var CoreColumns = []string{"name", "description"}

type RowView struct {
	ID        int64              `json:"id"`
	CoreRef   string             `json:"core_ref,omitempty"`
	CreatedAt int64              `json:"created_at"`
	UpdatedAt int64              `json:"updated_at"`
	Values    map[string]string  `json:"values"`
	Core      *types.CoreDisplay `json:"core,omitempty"`
}

// TableView is the structured data handed to the presentation layer.
type TableView struct {
	Table        string            `json:"table"`
	Columns      []dyntable.Column `json:"columns"`
	CoreColumns  []string          `json:"core_columns"`
	Rows         []RowView         `json:"rows"`
	Total        int64             `json:"total"`
	Capabilities []string          `json:"capabilities"`
}

func buildTableView(h *dyntable.Handle, rows []types.DynamicRow, total int64, capabilities []string) *TableView {
	view := &TableView{
		Table:        h.Name(),
		Columns:      h.DataColumns(),
		CoreColumns:  []string{},
		Total:        total,
		Capabilities: capabilities,
	}
	if view.Columns == nil {
		view.Columns = []dyntable.Column{}
	}
	if !h.Independent() {
		view.CoreColumns = CoreColumns
	}

	view.Rows = lo.Map(rows, func(row types.DynamicRow, _ int) RowView {
		return buildRowView(h, row)
	})
	return view
}

// buildRowView renders every value as display text. Rows of linked tables always carry a
// core block, empty when the reference matched nothing.
func buildRowView(h *dyntable.Handle, row types.DynamicRow) RowView {
	rv := RowView{
		ID:        row.ID,
		CoreRef:   row.CoreRef,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
		Values:    make(map[string]string, len(row.Values)),
	}
	for _, name := range h.DataColumnNames() {
		rv.Values[name] = dyntable.Display(row.Values[name])
	}
	if !h.Independent() {
		rv.Core = &types.CoreDisplay{}
		if row.Core != nil {
			*rv.Core = *row.Core
		}
	}
	return rv
}
