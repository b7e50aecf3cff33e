package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// ColumnType is the closed vocabulary of dynamic column types.
type ColumnType string

const (
	ColumnTypeString  ColumnType = "string"
	ColumnTypeInteger ColumnType = "integer"
	ColumnTypeText    ColumnType = "text"
	ColumnTypeFloat   ColumnType = "float"
	ColumnTypeBoolean ColumnType = "boolean"

	// spine only
	ColumnTypeSerial    ColumnType = "serial"
	ColumnTypeTimestamp ColumnType = "timestamp"
	ColumnTypeCoreRef   ColumnType = "core_ref"
)

var userColumnTypes = map[ColumnType]bool{
	ColumnTypeString:  true,
	ColumnTypeInteger: true,
	ColumnTypeText:    true,
	ColumnTypeFloat:   true,
	ColumnTypeBoolean: true,
}

// Valid reports whether t may be used for a catalog column.
func (t ColumnType) Valid() bool {
	return userColumnTypes[t]
}

type ColumnSpec struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// ColumnList is the ordered, append-only column definition of a dynamic table, stored as JSONB.
type ColumnList []ColumnSpec

func (c ColumnList) Names() []string {
	names := make([]string, 0, len(c))
	for _, v := range c {
		names = append(names, v.Name)
	}
	return names
}

func (c ColumnList) Find(name string) (ColumnSpec, bool) {
	for _, v := range c {
		if v.Name == name {
			return v, true
		}
	}
	return ColumnSpec{}, false
}

func (c ColumnList) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	raw, err := json.Marshal([]ColumnSpec(c))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (c *ColumnList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*c = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("types.ColumnList: unsupported scan type %T", src)
	}
	var list []ColumnSpec
	if err := json.Unmarshal(raw, &list); err != nil {
		return err
	}
	*c = list
	return nil
}

// DynamicTable is the catalog record of a runtime defined table. Name is also the physical table name.
type DynamicTable struct {
	ID          int64      `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Columns     ColumnList `json:"columns" db:"columns"`
	OwnerID     string     `json:"owner_id" db:"owner_id"`
	Independent bool       `json:"independent" db:"independent"`
	CreatedAt   int64      `json:"created_at" db:"created_at"`
	UpdatedAt   int64      `json:"updated_at" db:"updated_at"`
}

type ListDynamicTableOptions struct {
	OwnerID string
	Names   []string
}

func (opts ListDynamicTableOptions) Apply(query *sq.SelectBuilder) {
	if opts.OwnerID != "" {
		*query = query.Where(sq.Eq{"owner_id": opts.OwnerID})
	}
	if opts.Names != nil {
		*query = query.Where(sq.Eq{"name": opts.Names})
	}
}
