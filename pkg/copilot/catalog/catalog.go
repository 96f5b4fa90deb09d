package catalog

import "strings"

// EntityKind discriminates the three schema entity granularities.
type EntityKind string

const (
	KindTable        EntityKind = "table"
	KindColumn       EntityKind = "column"
	KindRelationship EntityKind = "relationship"
)

// SchemaEntity is one addressable element of the warehouse schema.
// Parent is the owning table for columns, and "from>to" tables for
// relationships. Entities are immutable once a snapshot is built.
type SchemaEntity struct {
	Name        string     `json:"name"`
	Kind        EntityKind `json:"kind"`
	Parent      string     `json:"parent,omitempty"`
	Description string     `json:"description,omitempty"`
}

// Snapshot is an immutable view of the full schema. Catalog implementations
// hand out the same snapshot to every concurrent reader; refreshes build a
// new snapshot and swap it atomically, never mutate one in place.
type Snapshot struct {
	Version  string         `json:"version"`
	Entities []SchemaEntity `json:"entities"`
}

// Catalog is the single read interface the resolver sees. Whether entities
// come from a graph store or a static descriptor is an implementation detail.
type Catalog interface {
	Snapshot() *Snapshot
}

// Tables returns the table entities in snapshot order.
func (s *Snapshot) Tables() []SchemaEntity {
	var out []SchemaEntity
	for _, e := range s.Entities {
		if e.Kind == KindTable {
			out = append(out, e)
		}
	}
	return out
}

// ColumnsOf returns the columns belonging to a table.
func (s *Snapshot) ColumnsOf(table string) []SchemaEntity {
	var out []SchemaEntity
	for _, e := range s.Entities {
		if e.Kind == KindColumn && e.Parent == table {
			out = append(out, e)
		}
	}
	return out
}

// Find returns the entity with the given name, matching case-insensitively.
func (s *Snapshot) Find(name string) (SchemaEntity, bool) {
	for _, e := range s.Entities {
		if strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return SchemaEntity{}, false
}

// TableOf resolves the table an entity belongs to: itself for tables, the
// parent for columns, the left side for relationships.
func (s *Snapshot) TableOf(e SchemaEntity) string {
	switch e.Kind {
	case KindTable:
		return e.Name
	case KindColumn:
		return e.Parent
	case KindRelationship:
		if idx := strings.Index(e.Parent, ">"); idx > 0 {
			return e.Parent[:idx]
		}
	}
	return e.Parent
}
