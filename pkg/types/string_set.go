package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// StringSet is an ordered set of strings. It is stored as a comma joined
// string column and handled as a set everywhere else.
type StringSet struct {
	items []string
	index map[string]struct{}
}

func NewStringSet(items ...string) StringSet {
	var s StringSet
	s.Add(items...)
	return s
}

// ParseStringSet splits a comma joined value, trimming blanks and dropping duplicates.
func ParseStringSet(raw string) StringSet {
	return NewStringSet(strings.Split(raw, ",")...)
}

func (s *StringSet) Add(items ...string) {
	if s.index == nil {
		s.index = make(map[string]struct{}, len(items))
	}
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, ok := s.index[item]; ok {
			continue
		}
		s.index[item] = struct{}{}
		s.items = append(s.items, item)
	}
}

func (s StringSet) Has(item string) bool {
	_, ok := s.index[item]
	return ok
}

func (s StringSet) Len() int {
	return len(s.items)
}

// Slice returns a copy of the members in insertion order.
func (s StringSet) Slice() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// Union returns a new set holding the members of s followed by the new members of other.
func (s StringSet) Union(other StringSet) StringSet {
	out := NewStringSet(s.items...)
	out.Add(other.items...)
	return out
}

func (s StringSet) String() string {
	return strings.Join(s.items, ",")
}

func (s StringSet) Value() (driver.Value, error) {
	return s.String(), nil
}

func (s *StringSet) Scan(src any) error {
	*s = StringSet{}
	switch v := src.(type) {
	case nil:
		return nil
	case string:
		*s = ParseStringSet(v)
	case []byte:
		*s = ParseStringSet(string(v))
	default:
		return fmt.Errorf("types.StringSet: unsupported scan type %T", src)
	}
	return nil
}

func (s StringSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

func (s *StringSet) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*s = NewStringSet(items...)
	return nil
}
