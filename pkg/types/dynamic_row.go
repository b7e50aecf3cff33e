package types

// DynamicRow is one record of a dynamic table. Values only holds the catalog columns.
type DynamicRow struct {
	ID        int64          `json:"id"`
	CoreRef   string         `json:"core_ref,omitempty"`
	CreatedAt int64          `json:"created_at"`
	UpdatedAt int64          `json:"updated_at"`
	Values    map[string]any `json:"values"`

	// Core is set by the left join with the core entity table, nil when nothing matched.
	Core *CoreDisplay `json:"core,omitempty"`
}

type CoreDisplay struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ListDynamicRowOptions struct {
	// Equal filters by exact column value.
	Equal   map[string]any
	CoreRef string
}

// RowUpdate is one entry of a bulk update.
type RowUpdate struct {
	ID     int64          `json:"id"`
	Values map[string]any `json:"values"`
}
