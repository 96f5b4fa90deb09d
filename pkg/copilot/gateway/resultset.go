package gateway

import "time"

// FieldType is the coarse value type of a result column.
type FieldType string

const (
	FieldString FieldType = "string"
	FieldNumber FieldType = "number"
	FieldTime   FieldType = "time"
)

// Column describes one column of a result set.
type Column struct {
	Name string    `json:"name"`
	Type FieldType `json:"type"`
}

// Meta carries execution metadata surfaced alongside the answer.
type Meta struct {
	Backend string        `json:"backend"`
	Latency time.Duration `json:"latency"`
	Retried bool          `json:"retried,omitempty"`
}

// ResultSet is the tabular outcome of one structured query. RowCount is the
// count before the display cap, so the UI can say "showing 50 of 1200".
type ResultSet struct {
	Columns   []Column `json:"columns"`
	Rows      [][]any  `json:"rows"`
	RowCount  int      `json:"row_count"`
	Truncated bool     `json:"truncated"`
	Meta      Meta     `json:"meta"`
}

// Empty reports whether the query produced no rows.
func (r *ResultSet) Empty() bool {
	return r == nil || len(r.Rows) == 0
}

// ColumnIndex returns the position of a named column, or -1.
func (r *ResultSet) ColumnIndex(name string) int {
	for i, c := range r.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}
