package gateway

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"dbquery-be/pkg/copilot/qerr"
	"dbquery-be/pkg/copilot/query"
)

// demoTable is one canned table. Rows are stored in primary-key order so
// identical queries always replay identically.
type demoTable struct {
	name    string
	columns []Column
	rows    [][]any
}

func (t *demoTable) colIndex(name string) int {
	for i, c := range t.columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// DemoBackend serves the canned pharma supply-chain dataset. It never fails
// transiently and needs no external service.
type DemoBackend struct {
	tables map[string]*demoTable
}

func NewDemoBackend() *DemoBackend {
	return &DemoBackend{tables: demoTables()}
}

func (b *DemoBackend) Name() string { return "demo" }

func (b *DemoBackend) Execute(ctx context.Context, q *query.StructuredQuery) (*ResultSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, &qerr.BackendUnavailableError{Backend: b.Name(), Err: err}
	}

	switch q.Kind {
	case query.OpTrace:
		return b.trace(q)
	case query.OpJoin:
		base, err := b.join(q)
		if err != nil {
			return nil, err
		}
		return b.run(q, base)
	default:
		table, ok := b.tables[q.Table]
		if !ok {
			return nil, &qerr.InternalConsistencyError{Detail: fmt.Sprintf("demo backend has no table %q", q.Table)}
		}
		return b.run(q, table)
	}
}

// run applies predicates, aggregation, ordering and limit over a base table.
func (b *DemoBackend) run(q *query.StructuredQuery, base *demoTable) (*ResultSet, error) {
	rows, err := filterRows(base, q.Predicates)
	if err != nil {
		return nil, err
	}

	if q.Kind == query.OpAggregate || q.Agg != query.AggNone {
		return aggregateRows(base, q, rows)
	}

	columns, projection, err := projectColumns(base, q.Targets)
	if err != nil {
		return nil, err
	}
	out := make([][]any, len(rows))
	for i, row := range rows {
		projected := make([]any, len(projection))
		for j, idx := range projection {
			projected[j] = row[idx]
		}
		out[i] = projected
	}

	result := &ResultSet{Columns: columns, Rows: out}
	if q.OrderBy != nil {
		if err := sortResult(result, q.OrderBy); err != nil {
			return nil, err
		}
	}
	applyLimit(result, q.Limit)
	return result, nil
}

func filterRows(t *demoTable, predicates []query.Predicate) ([][]any, error) {
	idx := make([]int, len(predicates))
	for i, p := range predicates {
		j := t.colIndex(p.Field)
		if j < 0 {
			return nil, &qerr.InternalConsistencyError{Detail: fmt.Sprintf("predicate on unknown column %q in %s", p.Field, t.name)}
		}
		idx[i] = j
	}

	var out [][]any
	for _, row := range t.rows {
		keep := true
		for i, p := range predicates {
			if !matchPredicate(row[idx[i]], p) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, row)
		}
	}
	return out, nil
}

func matchPredicate(value any, p query.Predicate) bool {
	cmp, comparable := compareValues(value, p.Value)
	switch p.Op {
	case "=", "":
		return comparable && cmp == 0
	case "!=":
		return !comparable || cmp != 0
	case ">":
		return comparable && cmp > 0
	case ">=":
		return comparable && cmp >= 0
	case "<":
		return comparable && cmp < 0
	case "<=":
		return comparable && cmp <= 0
	}
	return false
}

// compareValues compares two values numerically when both convert to
// float64, case-insensitively otherwise.
func compareValues(a, b any) (int, bool) {
	fa, aok := toFloat(a)
	fb, bok := toFloat(b)
	if aok && bok {
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}
	sa := strings.ToLower(fmt.Sprintf("%v", a))
	sb := strings.ToLower(fmt.Sprintf("%v", b))
	return strings.Compare(sa, sb), true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// projectColumns keeps the table's identifying columns (primary key and
// label) ahead of the requested targets so ranked rows stay readable.
func projectColumns(t *demoTable, targets []string) ([]Column, []int, error) {
	if len(targets) == 0 {
		idx := make([]int, len(t.columns))
		for i := range t.columns {
			idx[i] = i
		}
		return t.columns, idx, nil
	}

	var columns []Column
	var idx []int
	seen := map[int]bool{}
	add := func(i int) {
		if i >= 0 && !seen[i] {
			columns = append(columns, t.columns[i])
			idx = append(idx, i)
			seen[i] = true
		}
	}
	add(0)
	if len(t.columns) > 1 {
		add(1)
	}
	for _, target := range targets {
		i := t.colIndex(target)
		if i < 0 {
			return nil, nil, &qerr.InternalConsistencyError{Detail: fmt.Sprintf("target column %q not in %s", target, t.name)}
		}
		add(i)
	}
	return columns, idx, nil
}

func aggregateRows(t *demoTable, q *query.StructuredQuery, rows [][]any) (*ResultSet, error) {
	groupIdx := make([]int, len(q.GroupBy))
	for i, g := range q.GroupBy {
		j := t.colIndex(g)
		if j < 0 {
			return nil, &qerr.InternalConsistencyError{Detail: fmt.Sprintf("group by unknown column %q in %s", g, t.name)}
		}
		groupIdx[i] = j
	}

	targetIdx := -1
	targetName := ""
	if q.Agg != query.AggCount {
		if len(q.Targets) == 0 {
			return nil, &qerr.InternalConsistencyError{Detail: fmt.Sprintf("aggregate %s without a target column", q.Agg)}
		}
		targetName = q.Targets[0]
		targetIdx = t.colIndex(targetName)
		if targetIdx < 0 {
			return nil, &qerr.InternalConsistencyError{Detail: fmt.Sprintf("aggregate target %q not in %s", targetName, t.name)}
		}
	}

	type bucket struct {
		key   []any
		sum   float64
		min   float64
		max   float64
		count int
	}
	buckets := map[string]*bucket{}
	var order []string

	for _, row := range rows {
		key := make([]any, len(groupIdx))
		parts := make([]string, len(groupIdx))
		for i, j := range groupIdx {
			key[i] = row[j]
			parts[i] = fmt.Sprintf("%v", row[j])
		}
		k := strings.Join(parts, "\x1f")
		bk, ok := buckets[k]
		if !ok {
			bk = &bucket{key: key}
			buckets[k] = bk
			order = append(order, k)
		}
		bk.count++
		if targetIdx >= 0 {
			v, ok := toFloat(row[targetIdx])
			if !ok {
				return nil, &qerr.InternalConsistencyError{Detail: fmt.Sprintf("aggregate %s over non-numeric column %q", q.Agg, targetName)}
			}
			if bk.count == 1 || v < bk.min {
				bk.min = v
			}
			if bk.count == 1 || v > bk.max {
				bk.max = v
			}
			bk.sum += v
		}
	}
	sort.Strings(order)

	var columns []Column
	for i := range q.GroupBy {
		columns = append(columns, t.columns[groupIdx[i]])
	}
	aggName := string(q.Agg)
	if targetName != "" {
		aggName = fmt.Sprintf("%s_%s", q.Agg, targetName)
	}
	columns = append(columns, Column{Name: aggName, Type: FieldNumber})

	out := make([][]any, 0, len(order))
	for _, k := range order {
		bk := buckets[k]
		var value float64
		switch q.Agg {
		case query.AggCount:
			value = float64(bk.count)
		case query.AggSum:
			value = bk.sum
		case query.AggAvg:
			value = bk.sum / float64(bk.count)
		case query.AggMin:
			value = bk.min
		case query.AggMax:
			value = bk.max
		default:
			return nil, &qerr.InternalConsistencyError{Detail: fmt.Sprintf("unknown aggregate %q", q.Agg)}
		}
		row := append(append([]any{}, bk.key...), round4(value))
		out = append(out, row)
	}

	result := &ResultSet{Columns: columns, Rows: out}
	if q.OrderBy != nil {
		if err := sortResult(result, q.OrderBy); err != nil {
			return nil, err
		}
	}
	applyLimit(result, q.Limit)
	return result, nil
}

func round4(v float64) float64 {
	return float64(int64(v*10000+0.5)) / 10000
}

// sortResult sorts by the named column, falling back to the aggregate
// column derived from it ("avg_x" for order-by x). Stable, so rows tied on
// the sort key keep primary-key order.
func sortResult(r *ResultSet, ob *query.Ordering) error {
	idx := r.ColumnIndex(ob.Field)
	if idx < 0 {
		for i, c := range r.Columns {
			if strings.HasSuffix(c.Name, "_"+ob.Field) {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return &qerr.InternalConsistencyError{Detail: fmt.Sprintf("order by unknown column %q", ob.Field)}
	}
	sort.SliceStable(r.Rows, func(i, j int) bool {
		cmp, _ := compareValues(r.Rows[i][idx], r.Rows[j][idx])
		if ob.Desc {
			return cmp > 0
		}
		return cmp < 0
	})
	return nil
}

func applyLimit(r *ResultSet, limit int) {
	if limit > 0 && len(r.Rows) > limit {
		r.Rows = r.Rows[:limit]
	}
}

// join pairs two related tables on their shared key column and yields a
// combined table, duplicate key columns dropped from the right side.
func (b *DemoBackend) join(q *query.StructuredQuery) (*demoTable, error) {
	left, ok := b.tables[q.Table]
	if !ok {
		return nil, &qerr.InternalConsistencyError{Detail: fmt.Sprintf("demo backend has no table %q", q.Table)}
	}
	right, ok := b.tables[q.JoinTable]
	if !ok {
		return nil, &qerr.InternalConsistencyError{Detail: fmt.Sprintf("demo backend has no table %q", q.JoinTable)}
	}

	key := sharedKey(left, right)
	if key == "" {
		return nil, &qerr.InternalConsistencyError{Detail: fmt.Sprintf("no join key between %s and %s", left.name, right.name)}
	}
	li, ri := left.colIndex(key), right.colIndex(key)

	combined := &demoTable{name: left.name + "_" + right.name}
	combined.columns = append(combined.columns, left.columns...)
	skip := map[int]bool{}
	for i, c := range right.columns {
		if left.colIndex(c.Name) >= 0 {
			skip[i] = true
			continue
		}
		combined.columns = append(combined.columns, c)
	}

	for _, lrow := range left.rows {
		for _, rrow := range right.rows {
			if cmp, ok := compareValues(lrow[li], rrow[ri]); !ok || cmp != 0 {
				continue
			}
			row := append([]any{}, lrow...)
			for i, v := range rrow {
				if !skip[i] {
					row = append(row, v)
				}
			}
			combined.rows = append(combined.rows, row)
		}
	}
	return combined, nil
}

func sharedKey(a, b *demoTable) string {
	for _, c := range a.columns {
		if strings.HasSuffix(c.Name, "_id") && b.colIndex(c.Name) >= 0 {
			return c.Name
		}
	}
	return ""
}

// trace walks one batch from its vendor through every shipment leg. Unknown
// keys yield an empty result, which the aggregator reports as no match.
func (b *DemoBackend) trace(q *query.StructuredQuery) (*ResultSet, error) {
	batches := b.tables["batches"]
	vendors := b.tables["vendors"]
	shipments := b.tables["shipments"]
	if batches == nil || vendors == nil || shipments == nil {
		return nil, &qerr.InternalConsistencyError{Detail: "demo backend missing trace tables"}
	}

	columns := []Column{
		{Name: "step", Type: FieldNumber},
		{Name: "stage", Type: FieldString},
		{Name: "site", Type: FieldString},
		{Name: "detail", Type: FieldString},
	}
	result := &ResultSet{Columns: columns}

	var batch []any
	for _, row := range batches.rows {
		if strings.EqualFold(fmt.Sprintf("%v", row[batches.colIndex("batch_id")]), q.TraceKey) {
			batch = row
			break
		}
	}
	if batch == nil {
		return result, nil
	}

	step := 1
	vendorID := batch[batches.colIndex("vendor_id")]
	for _, v := range vendors.rows {
		if v[vendors.colIndex("vendor_id")] == vendorID {
			detail := fmt.Sprintf("supplied %v, batch %v",
				batch[batches.colIndex("material_name")],
				strings.ToLower(fmt.Sprintf("%v", batch[batches.colIndex("status")])))
			result.Rows = append(result.Rows, []any{
				float64(step), "vendor", v[vendors.colIndex("vendor_name")], detail,
			})
			step++
			break
		}
	}

	var legs [][]any
	for _, leg := range shipments.rows {
		if strings.EqualFold(fmt.Sprintf("%v", leg[shipments.colIndex("batch_id")]), q.TraceKey) {
			legs = append(legs, leg)
		}
	}
	sort.SliceStable(legs, func(i, j int) bool {
		si := stageRank(fmt.Sprintf("%v", legs[i][shipments.colIndex("stage")]))
		sj := stageRank(fmt.Sprintf("%v", legs[j][shipments.colIndex("stage")]))
		if si != sj {
			return si < sj
		}
		a := fmt.Sprintf("%v", legs[i][shipments.colIndex("shipment_id")])
		bID := fmt.Sprintf("%v", legs[j][shipments.colIndex("shipment_id")])
		return a < bID
	})
	for _, leg := range legs {
		result.Rows = append(result.Rows, []any{
			float64(step),
			leg[shipments.colIndex("stage")],
			leg[shipments.colIndex("destination")],
			fmt.Sprintf("arrived from %v", leg[shipments.colIndex("origin")]),
		})
		step++
	}
	return result, nil
}

func stageRank(stage string) int {
	switch stage {
	case "vendor":
		return 0
	case "distribution_center":
		return 1
	case "hospital":
		return 2
	}
	return 3
}
