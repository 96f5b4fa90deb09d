package gateway

import (
	"fmt"
	"strings"

	"dbquery-be/pkg/copilot/catalog"
	"dbquery-be/pkg/copilot/qerr"
	"dbquery-be/pkg/copilot/query"
)

// Translator renders a StructuredQuery as parameterized SQL. Identifiers are
// never taken from user text: every table and column must exist in the
// catalog snapshot or translation fails.
type Translator struct {
	cat catalog.Catalog
}

func NewTranslator(cat catalog.Catalog) *Translator {
	return &Translator{cat: cat}
}

// Translate returns SQL with ? placeholders plus the bound arguments.
// Deterministic: the same query always renders the same SQL.
func (t *Translator) Translate(q *query.StructuredQuery) (string, []any, error) {
	snap := t.cat.Snapshot()
	if err := t.validate(snap, q); err != nil {
		return "", nil, err
	}

	switch q.Kind {
	case query.OpTrace:
		return t.translateTrace(q)
	default:
		return t.translateSelect(q)
	}
}

func (t *Translator) validate(snap *catalog.Snapshot, q *query.StructuredQuery) error {
	hasTable := func(name string) bool {
		e, ok := snap.Find(name)
		return ok && e.Kind == catalog.KindTable
	}
	hasColumn := func(table, name string) bool {
		for _, c := range snap.ColumnsOf(table) {
			if c.Name == name {
				return true
			}
		}
		return false
	}
	inScope := func(name string) bool {
		if hasColumn(q.Table, name) {
			return true
		}
		return q.JoinTable != "" && hasColumn(q.JoinTable, name)
	}

	if !hasTable(q.Table) {
		return &qerr.InternalConsistencyError{Detail: fmt.Sprintf("query references unknown table %q", q.Table)}
	}
	if q.JoinTable != "" && !hasTable(q.JoinTable) {
		return &qerr.InternalConsistencyError{Detail: fmt.Sprintf("query references unknown table %q", q.JoinTable)}
	}
	if q.Kind == query.OpTrace {
		return nil
	}
	for _, c := range q.Targets {
		if !inScope(c) {
			return &qerr.InternalConsistencyError{Detail: fmt.Sprintf("query references unknown column %q", c)}
		}
	}
	for _, c := range q.GroupBy {
		if !inScope(c) {
			return &qerr.InternalConsistencyError{Detail: fmt.Sprintf("group by unknown column %q", c)}
		}
	}
	for _, p := range q.Predicates {
		if !inScope(p.Field) {
			return &qerr.InternalConsistencyError{Detail: fmt.Sprintf("predicate on unknown column %q", p.Field)}
		}
	}
	if q.OrderBy != nil && !inScope(q.OrderBy.Field) {
		return &qerr.InternalConsistencyError{Detail: fmt.Sprintf("order by unknown column %q", q.OrderBy.Field)}
	}
	return nil
}

func (t *Translator) translateSelect(q *query.StructuredQuery) (string, []any, error) {
	var b strings.Builder
	var args []any

	b.WriteString("SELECT ")
	switch {
	case q.Agg == query.AggCount && len(q.GroupBy) == 0:
		b.WriteString("count(*) AS count")
	case q.Agg == query.AggCount:
		b.WriteString(strings.Join(q.GroupBy, ", "))
		b.WriteString(", count(*) AS count")
	case q.Agg != query.AggNone:
		if len(q.Targets) == 0 {
			return "", nil, &qerr.InternalConsistencyError{Detail: fmt.Sprintf("aggregate %s without a target column", q.Agg)}
		}
		target := q.Targets[0]
		if len(q.GroupBy) > 0 {
			b.WriteString(strings.Join(q.GroupBy, ", "))
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s(%s) AS %s_%s", q.Agg, target, q.Agg, target)
	case len(q.Targets) > 0:
		b.WriteString(strings.Join(q.Targets, ", "))
	default:
		b.WriteString("*")
	}

	fmt.Fprintf(&b, " FROM %s", q.Table)
	if q.JoinTable != "" {
		key, err := joinKey(t.cat.Snapshot(), q.Table, q.JoinTable)
		if err != nil {
			return "", nil, err
		}
		fmt.Fprintf(&b, " JOIN %s ON %s.%s = %s.%s", q.JoinTable, q.Table, key, q.JoinTable, key)
	}

	if len(q.Predicates) > 0 {
		b.WriteString(" WHERE ")
		for i, p := range q.Predicates {
			if i > 0 {
				b.WriteString(" AND ")
			}
			op := p.Op
			if op == "" {
				op = "="
			}
			fmt.Fprintf(&b, "%s %s ?", p.Field, op)
			args = append(args, p.Value)
		}
	}

	if len(q.GroupBy) > 0 {
		fmt.Fprintf(&b, " GROUP BY %s", strings.Join(q.GroupBy, ", "))
	}

	if q.OrderBy != nil {
		field := q.OrderBy.Field
		if q.Agg != query.AggNone && len(q.Targets) > 0 && q.Targets[0] == field {
			field = fmt.Sprintf("%s_%s", q.Agg, field)
		}
		dir := "ASC"
		if q.OrderBy.Desc {
			dir = "DESC"
		}
		fmt.Fprintf(&b, " ORDER BY %s %s", field, dir)
	} else if len(q.GroupBy) > 0 {
		fmt.Fprintf(&b, " ORDER BY %s", strings.Join(q.GroupBy, ", "))
	} else {
		// Stable replay needs a total order even without an explicit ranking.
		fmt.Fprintf(&b, " ORDER BY 1")
	}

	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	}

	return b.String(), args, nil
}

// translateTrace renders the three-stage chain walk as one UNION of the
// vendor step and the shipment legs, ordered by stage.
func (t *Translator) translateTrace(q *query.StructuredQuery) (string, []any, error) {
	sql := `SELECT 1 AS step, 'vendor' AS stage, v.vendor_name AS site,
       'supplied ' || b.material_name AS detail
  FROM batches b JOIN vendors v ON v.vendor_id = b.vendor_id
 WHERE b.batch_id = ?
UNION ALL
SELECT CASE s.stage WHEN 'vendor' THEN 2 WHEN 'distribution_center' THEN 3 ELSE 4 END AS step,
       s.stage, s.destination AS site, 'arrived from ' || s.origin AS detail
  FROM shipments s
 WHERE s.batch_id = ?
 ORDER BY step, site`
	return sql, []any{q.TraceKey, q.TraceKey}, nil
}

func joinKey(snap *catalog.Snapshot, a, b string) (string, error) {
	for _, c := range snap.ColumnsOf(a) {
		if !strings.HasSuffix(c.Name, "_id") {
			continue
		}
		for _, rc := range snap.ColumnsOf(b) {
			if rc.Name == c.Name {
				return c.Name, nil
			}
		}
	}
	return "", &qerr.InternalConsistencyError{Detail: fmt.Sprintf("no join key between %s and %s", a, b)}
}
