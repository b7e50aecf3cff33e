package dyntable

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tablehub/tablehub/pkg/types"
)

const maxStringLength = 255

// Coerce converts raw into the Go value stored for col. Form posts deliver strings and
// JSON bodies deliver float64/bool/string, both are accepted. Empty strings become NULL.
func Coerce(col Column, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	if s, ok := raw.(string); ok {
		if strings.TrimSpace(s) == "" {
			return nil, nil
		}
		return coerceString(col, s)
	}

	switch col.Type {
	case types.ColumnTypeString, types.ColumnTypeText:
		switch v := raw.(type) {
		case float64:
			return coerceString(col, strconv.FormatFloat(v, 'f', -1, 64))
		case json.Number:
			return coerceString(col, v.String())
		case int, int32, int64, bool:
			return coerceString(col, fmt.Sprint(v))
		}
	case types.ColumnTypeInteger:
		switch v := raw.(type) {
		case float64:
			if v != math.Trunc(v) || v > math.MaxInt32 || v < math.MinInt32 {
				return nil, invalidValue(col, raw)
			}
			return int64(v), nil
		case json.Number:
			return coerceString(col, v.String())
		case int:
			return coerceString(col, strconv.Itoa(v))
		case int32:
			return int64(v), nil
		case int64:
			return coerceString(col, strconv.FormatInt(v, 10))
		}
	case types.ColumnTypeFloat:
		switch v := raw.(type) {
		case float64:
			return v, nil
		case json.Number:
			return coerceString(col, v.String())
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		}
	case types.ColumnTypeBoolean:
		if v, ok := raw.(bool); ok {
			return v, nil
		}
	}
	return nil, invalidValue(col, raw)
}

func coerceString(col Column, s string) (any, error) {
	switch col.Type {
	case types.ColumnTypeString:
		if utf8.RuneCountInString(s) > maxStringLength {
			return nil, fmt.Errorf("%w: column %q is limited to %d characters", ErrValidation, col.Name, maxStringLength)
		}
		return s, nil
	case types.ColumnTypeText:
		return s, nil
	case types.ColumnTypeInteger:
		v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
		if err != nil {
			return nil, invalidValue(col, s)
		}
		return v, nil
	case types.ColumnTypeFloat:
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, invalidValue(col, s)
		}
		return v, nil
	case types.ColumnTypeBoolean:
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "on", "yes", "y":
			return true, nil
		case "off", "no", "n":
			return false, nil
		}
		v, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return nil, invalidValue(col, s)
		}
		return v, nil
	}
	return nil, invalidValue(col, s)
}

func invalidValue(col Column, raw any) error {
	return fmt.Errorf("%w: value %v is not a valid %s for column %q", ErrValidation, raw, col.Type, col.Name)
}

// Normalize turns a scanned driver value into its canonical Go type.
func Normalize(raw any) any {
	switch v := raw.(type) {
	case []byte:
		return string(v)
	case int:
		return int64(v)
	case int32:
		return int64(v)
	default:
		return v
	}
}

// Display renders a stored value for presentation, NULL renders as an empty string.
func Display(raw any) string {
	switch v := Normalize(raw).(type) {
	case nil:
		return ""
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}
