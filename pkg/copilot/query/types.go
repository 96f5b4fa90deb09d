package query

import (
	"fmt"
	"sort"
	"strings"
)

// OpKind is the shape of a structured query.
type OpKind string

const (
	OpAggregate OpKind = "aggregate"
	OpFilter    OpKind = "filter"
	OpTrace     OpKind = "trace"
	OpJoin      OpKind = "join"
)

// AggFunc is the aggregate applied to the target column.
type AggFunc string

const (
	AggNone  AggFunc = ""
	AggCount AggFunc = "count"
	AggSum   AggFunc = "sum"
	AggAvg   AggFunc = "avg"
	AggMin   AggFunc = "min"
	AggMax   AggFunc = "max"
)

// Predicate is a single equality or comparison filter.
type Predicate struct {
	Field string `json:"field"`
	Op    string `json:"op"`
	Value any    `json:"value"`
}

// Ordering sorts the result by one column.
type Ordering struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc"`
}

// StructuredQuery is the backend-neutral query plan produced by the
// synthesizer. Both the demo backend and the SQL translator consume it.
type StructuredQuery struct {
	Kind       OpKind      `json:"kind"`
	Table      string      `json:"table"`
	JoinTable  string      `json:"join_table,omitempty"`
	Targets    []string    `json:"targets,omitempty"`
	Agg        AggFunc     `json:"agg,omitempty"`
	GroupBy    []string    `json:"group_by,omitempty"`
	Predicates []Predicate `json:"predicates,omitempty"`
	OrderBy    *Ordering   `json:"order_by,omitempty"`
	Limit      int         `json:"limit,omitempty"`
	TraceKey   string      `json:"trace_key,omitempty"`
}

// Clone returns a deep copy, used to compose a follow-up on top of the
// previous turn's query without mutating session history.
func (q *StructuredQuery) Clone() *StructuredQuery {
	if q == nil {
		return nil
	}
	out := *q
	out.Targets = append([]string(nil), q.Targets...)
	out.GroupBy = append([]string(nil), q.GroupBy...)
	out.Predicates = append([]Predicate(nil), q.Predicates...)
	if q.OrderBy != nil {
		ob := *q.OrderBy
		out.OrderBy = &ob
	}
	return &out
}

// HasPredicate reports whether a predicate on the field already exists.
func (q *StructuredQuery) HasPredicate(field string) bool {
	for _, p := range q.Predicates {
		if p.Field == field {
			return true
		}
	}
	return false
}

// String renders a compact single-line plan for logs.
func (q *StructuredQuery) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", q.Kind, q.Table)
	if q.JoinTable != "" {
		fmt.Fprintf(&b, " join %s", q.JoinTable)
	}
	if q.Agg != AggNone {
		fmt.Fprintf(&b, " %s(%s)", q.Agg, strings.Join(q.Targets, ","))
	} else if len(q.Targets) > 0 {
		fmt.Fprintf(&b, " select %s", strings.Join(q.Targets, ","))
	}
	if len(q.GroupBy) > 0 {
		fmt.Fprintf(&b, " group by %s", strings.Join(q.GroupBy, ","))
	}
	if len(q.Predicates) > 0 {
		preds := make([]string, len(q.Predicates))
		for i, p := range q.Predicates {
			preds[i] = fmt.Sprintf("%s%s%v", p.Field, p.Op, p.Value)
		}
		sort.Strings(preds)
		fmt.Fprintf(&b, " where %s", strings.Join(preds, " and "))
	}
	if q.OrderBy != nil {
		dir := "asc"
		if q.OrderBy.Desc {
			dir = "desc"
		}
		fmt.Fprintf(&b, " order by %s %s", q.OrderBy.Field, dir)
	}
	if q.Limit > 0 {
		fmt.Fprintf(&b, " limit %d", q.Limit)
	}
	if q.TraceKey != "" {
		fmt.Fprintf(&b, " trace %s", q.TraceKey)
	}
	return b.String()
}
