package dyntable

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tablehub/tablehub/pkg/types"
)

var identifierPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

// ValidateTableName checks that name can be used verbatim as a physical table name.
func ValidateTableName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: table name is required", ErrValidation)
	}
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("%w: table name %q must match %s", ErrValidation, name, identifierPattern.String())
	}
	if strings.HasPrefix(name, types.TABLE_PREFIX) {
		return fmt.Errorf("%w: table name %q uses the reserved prefix %q", ErrValidation, name, types.TABLE_PREFIX)
	}
	return nil
}

func ValidateColumnName(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("%w: column name %q must match %s", ErrValidation, name, identifierPattern.String())
	}
	if IsSpineColumn(name) {
		return fmt.Errorf("%w: column name %q is reserved", ErrValidation, name)
	}
	return nil
}

// ValidateColumns checks a column list for naming, duplicates and type vocabulary.
// existing holds already catalogued columns when appending.
func ValidateColumns(columns types.ColumnList, existing types.ColumnList) error {
	if len(columns) == 0 {
		return fmt.Errorf("%w: at least one column is required", ErrValidation)
	}
	seen := types.NewStringSet(existing.Names()...)
	for _, col := range columns {
		if err := ValidateColumnName(col.Name); err != nil {
			return err
		}
		if !col.Type.Valid() {
			return fmt.Errorf("%w: %q for column %q", ErrInvalidColumnType, col.Type, col.Name)
		}
		if seen.Has(col.Name) {
			return fmt.Errorf("%w: duplicate column %q", ErrValidation, col.Name)
		}
		seen.Add(col.Name)
	}
	return nil
}
