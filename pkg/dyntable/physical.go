package dyntable

import "fmt"

// PhysicalColumn is one row of information_schema.columns for a dynamic table.
type PhysicalColumn struct {
	Name     string `db:"column_name"`
	DataType string `db:"data_type"`
}

// Problem describes a difference between a handle and the physical table.
type Problem struct {
	Column string
	Reason string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s", p.Column, p.Reason)
}

// Verify compares the handle with the reflected physical columns. An empty physical
// slice means the table does not exist at all.
func Verify(h *Handle, physical []PhysicalColumn) []Problem {
	if len(physical) == 0 {
		return []Problem{{Column: "*", Reason: "table is missing"}}
	}
	byName := make(map[string]string, len(physical))
	for _, c := range physical {
		byName[c.Name] = c.DataType
	}

	var problems []Problem
	for _, c := range h.columns {
		got, ok := byName[c.Name]
		if !ok && c.Spine {
			problems = append(problems, Problem{Column: c.Name, Reason: "spine column is missing"})
			continue
		}
		if !ok {
			problems = append(problems, Problem{Column: c.Name, Reason: "column is missing"})
			continue
		}
		if want := informationSchemaType(c.Type); want != got {
			problems = append(problems, Problem{Column: c.Name, Reason: fmt.Sprintf("type is %s, want %s", got, want)})
		}
	}
	return problems
}

// Repairable reports whether every problem can be fixed by additive DDL.
func Repairable(problems []Problem) bool {
	for _, p := range problems {
		if p.Reason != "column is missing" && p.Reason != "table is missing" {
			return false
		}
	}
	return true
}
