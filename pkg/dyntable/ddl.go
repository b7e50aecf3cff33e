package dyntable

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/tablehub/tablehub/pkg/types"
)

// sqlType maps a column type to its postgres definition.
func sqlType(t types.ColumnType, coreTable string) (string, error) {
	switch t {
	case types.ColumnTypeString:
		return "VARCHAR(255)", nil
	case types.ColumnTypeInteger:
		return "INTEGER", nil
	case types.ColumnTypeText:
		return "TEXT", nil
	case types.ColumnTypeFloat:
		return "DOUBLE PRECISION", nil
	case types.ColumnTypeBoolean:
		return "BOOLEAN", nil
	case types.ColumnTypeSerial:
		return "BIGSERIAL PRIMARY KEY", nil
	case types.ColumnTypeTimestamp:
		return "BIGINT NOT NULL", nil
	case types.ColumnTypeCoreRef:
		return fmt.Sprintf("VARCHAR(36) NOT NULL REFERENCES %s (%s)", pq.QuoteIdentifier(coreTable), pq.QuoteIdentifier("uuid")), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidColumnType, t)
}

// informationSchemaType is the information_schema.columns.data_type value expected for t.
func informationSchemaType(t types.ColumnType) string {
	switch t {
	case types.ColumnTypeString, types.ColumnTypeCoreRef:
		return "character varying"
	case types.ColumnTypeInteger:
		return "integer"
	case types.ColumnTypeText:
		return "text"
	case types.ColumnTypeFloat:
		return "double precision"
	case types.ColumnTypeBoolean:
		return "boolean"
	case types.ColumnTypeSerial, types.ColumnTypeTimestamp:
		return "bigint"
	}
	return ""
}

// CreateTableStatements returns the idempotent DDL that materializes h.
func CreateTableStatements(h *Handle, coreTable string) ([]string, error) {
	defs := make([]string, 0, len(h.columns))
	for _, c := range h.columns {
		typ, err := sqlType(c.Type, coreTable)
		if err != nil {
			return nil, err
		}
		defs = append(defs, pq.QuoteIdentifier(c.Name)+" "+typ)
	}

	table := pq.QuoteIdentifier(h.name)
	stmts := []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n    %s\n)", table, strings.Join(defs, ",\n    ")),
	}
	if !h.independent {
		stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
			pq.QuoteIdentifier(h.name+"_core_ref_idx"), table, pq.QuoteIdentifier(ColumnCoreRef)))
	}
	return stmts, nil
}

// AddColumnStatement returns DDL adding c to an existing table, a no-op when the column exists.
func AddColumnStatement(table string, c Column, coreTable string) (string, error) {
	typ, err := sqlType(c.Type, coreTable)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s %s",
		pq.QuoteIdentifier(table), pq.QuoteIdentifier(c.Name), typ), nil
}
