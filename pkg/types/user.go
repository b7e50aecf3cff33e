package types

import sq "github.com/Masterminds/squirrel"

const (
	CapabilityView   = "view"
	CapabilityEdit   = "edit"
	CapabilityUpdate = "update"
	CapabilityCreate = "create"
)

// AllCapabilities is the closed capability vocabulary.
var AllCapabilities = []string{CapabilityView, CapabilityEdit, CapabilityUpdate, CapabilityCreate}

type User struct {
	ID               string    `json:"id" db:"id"`
	Name             string    `json:"name" db:"name"`
	Password         string    `json:"-" db:"password"` // bcrypt hash
	Capabilities     StringSet `json:"capabilities" db:"capabilities"`
	AccessibleTables StringSet `json:"accessible_tables" db:"accessible_tables"`
	IsAdmin          bool      `json:"is_admin" db:"is_admin"`
	UpdatedAt        int64     `json:"updated_at" db:"updated_at"`
	CreatedAt        int64     `json:"created_at" db:"created_at"`

	// OwnedTables is filled from the table catalog, it is not a column.
	OwnedTables StringSet `json:"owned_tables" db:"-"`
}

type ListUserOptions struct {
	Name    string
	IsAdmin *bool
}

func (opts ListUserOptions) Apply(query *sq.SelectBuilder) {
	if opts.Name != "" {
		*query = query.Where(sq.Eq{"name": opts.Name})
	}
	if opts.IsAdmin != nil {
		*query = query.Where(sq.Eq{"is_admin": *opts.IsAdmin})
	}
}
