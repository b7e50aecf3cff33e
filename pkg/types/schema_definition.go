package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

const (
	RelationshipOneToOne   = "one-to-one"
	RelationshipOneToMany  = "one-to-many"
	RelationshipManyToMany = "many-to-many"
)

var relationshipTypes = map[string]bool{
	RelationshipOneToOne:   true,
	RelationshipOneToMany:  true,
	RelationshipManyToMany: true,
}

func ValidRelationshipType(t string) bool {
	return relationshipTypes[t]
}

// Relationship is descriptive only, it is never enforced as a foreign key.
type Relationship struct {
	Parent string `json:"parent"`
	Child  string `json:"child"`
	Type   string `json:"type"`
}

type Relationships []Relationship

// Tables returns the table names mentioned by the relationships in first appearance order.
func (r Relationships) Tables() []string {
	set := NewStringSet()
	for _, v := range r {
		set.Add(v.Parent, v.Child)
	}
	return set.Slice()
}

func (r Relationships) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	raw, err := json.Marshal([]Relationship(r))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (r *Relationships) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*r = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("types.Relationships: unsupported scan type %T", src)
	}
	var list []Relationship
	if err := json.Unmarshal(raw, &list); err != nil {
		return err
	}
	*r = list
	return nil
}

type SchemaDefinition struct {
	ID          int64         `json:"id" db:"id"`
	Name        string        `json:"name" db:"name"`
	Description string        `json:"description" db:"description"`
	Structure   Relationships `json:"structure" db:"structure"`
	OwnerID     string        `json:"owner_id" db:"owner_id"`
	Version     int           `json:"version" db:"version"`
	ParentID    *int64        `json:"parent_id" db:"parent_id"`
	CreatedAt   int64         `json:"created_at" db:"created_at"`
	UpdatedAt   int64         `json:"updated_at" db:"updated_at"`
}

type ListSchemaDefinitionOptions struct {
	Name    string
	OwnerID string
}

func (opts ListSchemaDefinitionOptions) Apply(query *sq.SelectBuilder) {
	if opts.Name != "" {
		*query = query.Where(sq.Eq{"name": opts.Name})
	}
	if opts.OwnerID != "" {
		*query = query.Where(sq.Eq{"owner_id": opts.OwnerID})
	}
}

type VisualizationNode struct {
	ID string `json:"id"`
}

type VisualizationLink struct {
	Source int    `json:"source"`
	Target int    `json:"target"`
	Type   string `json:"type"`
}

type Visualization struct {
	Nodes []VisualizationNode `json:"nodes"`
	Links []VisualizationLink `json:"links"`
}

// Visualize turns the relationships into a node/link graph. Nodes keep first appearance
// order and links point at node indexes. Entries missing a parent or child are skipped.
func (r Relationships) Visualize() Visualization {
	res := Visualization{
		Nodes: []VisualizationNode{},
		Links: []VisualizationLink{},
	}
	index := make(map[string]int)
	nodeOf := func(name string) int {
		if i, ok := index[name]; ok {
			return i
		}
		index[name] = len(res.Nodes)
		res.Nodes = append(res.Nodes, VisualizationNode{ID: name})
		return index[name]
	}
	for _, rel := range r {
		if rel.Parent == "" || rel.Child == "" {
			continue
		}
		source := nodeOf(rel.Parent)
		target := nodeOf(rel.Child)
		linkType := rel.Type
		if linkType == "" {
			linkType = "unknown"
		}
		res.Links = append(res.Links, VisualizationLink{Source: source, Target: target, Type: linkType})
	}
	return res
}

// SchemaExport bundles a schema definition with the catalog records of the tables it mentions.
type SchemaExport struct {
	Schema SchemaDefinition `json:"schema"`
	Tables []DynamicTable   `json:"tables"`
}
