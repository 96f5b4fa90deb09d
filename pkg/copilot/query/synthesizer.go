package query

import (
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"dbquery-be/pkg/copilot/catalog"
	"dbquery-be/pkg/copilot/qerr"
	"dbquery-be/pkg/copilot/resolver"
)

// Synthesizer turns a prompt plus its resolved scope into a StructuredQuery.
// It is deterministic: the same prompt, scope and prior query always produce
// the same plan.
type Synthesizer struct {
	cat    catalog.Catalog
	logger *log.Logger
}

func NewSynthesizer(cat catalog.Catalog, logger *log.Logger) *Synthesizer {
	return &Synthesizer{cat: cat, logger: logger}
}

var (
	writeVerbs = []string{"delete", "drop", "insert", "update", "truncate", "alter", "modify"}

	limitPattern   = regexp.MustCompile(`(?i)\b(top|bottom|best|worst|highest|lowest|first|last)\s+(\d+)\b`)
	traceIDPattern = regexp.MustCompile(`(?i)\b([a-z]{1,3}\d{4,})\b`)
	countryCode    = regexp.MustCompile(`\b([A-Z]{2})\b`)
)

var countryNames = map[string]string{
	"america": "US", "usa": "US", "germany": "DE", "india": "IN",
	"china": "CN", "ireland": "IE", "switzerland": "CH",
}

var statusWords = []string{"delayed", "released", "quarantined", "rejected", "in_transit", "delivered"}

// Synthesize builds the query plan. prior is the previous turn's query and is
// composed onto only when the prompt carries a referential cue.
func (s *Synthesizer) Synthesize(prompt string, scope *resolver.ResolvedScope, prior *StructuredQuery) (*StructuredQuery, string, error) {
	lower := strings.ToLower(prompt)
	snap := s.cat.Snapshot()

	for _, verb := range writeVerbs {
		if containsWord(lower, verb) {
			return nil, "", &qerr.UnsupportedOperationError{Prompt: prompt, Operation: verb}
		}
	}

	var rationale []string

	if key := s.traceKey(lower); key != "" {
		q, why := s.buildTrace(snap, scope, key)
		rationale = append(rationale, why...)
		s.logger.Printf("[SYNTH] %s", q.String())
		return q, strings.Join(rationale, " "), nil
	}

	table, joinTable := s.pickTables(snap, scope)
	if table == "" {
		return nil, "", &qerr.NoMatchError{Prompt: prompt}
	}

	q := &StructuredQuery{Kind: OpFilter, Table: table}
	followUp := prior != nil && resolver.HasReferentialCue(prompt) &&
		prior.Kind != OpTrace && prior.Table == table
	if followUp {
		q = prior.Clone()
		q.Table = table
		rationale = append(rationale, fmt.Sprintf("Building on the previous question about %s.", table))
	} else {
		rationale = append(rationale, fmt.Sprintf("Querying the %s table.", table))
	}

	cols := s.promptColumns(snap, scope, lower, table)

	if agg := detectAggregate(lower); agg != AggNone {
		q.Agg = agg
		q.Kind = OpAggregate
		if target := firstNumeric(cols); target != "" && agg != AggCount {
			q.Targets = []string{target}
			rationale = append(rationale, fmt.Sprintf("Computing %s of %s.", agg, target))
		} else {
			rationale = append(rationale, fmt.Sprintf("Computing a row %s.", agg))
		}
	}

	if groups := detectGroupBy(lower, cols); len(groups) > 0 {
		q.GroupBy = groups
		q.Kind = OpAggregate
		if q.Agg == AggNone {
			// Regrouping a previous ranking turns its metric into an average;
			// otherwise fall back to a count per group.
			if q.OrderBy != nil && isNumericColumn(q.OrderBy.Field) {
				q.Agg = AggAvg
				q.Targets = []string{q.OrderBy.Field}
				q.OrderBy = &Ordering{Field: q.OrderBy.Field, Desc: q.OrderBy.Desc}
			} else {
				q.Agg = AggCount
			}
		}
		rationale = append(rationale, fmt.Sprintf("Grouped by %s.", strings.Join(groups, ", ")))
	}

	if limit, desc, ok := detectLimit(lower); ok {
		q.Limit = limit
		if metric := firstNumeric(cols); metric != "" {
			q.OrderBy = &Ordering{Field: metric, Desc: desc}
			rationale = append(rationale, fmt.Sprintf("Ranked by %s, keeping %d rows.", metric, limit))
		} else {
			rationale = append(rationale, fmt.Sprintf("Keeping %d rows.", limit))
		}
	}

	s.applyPredicates(q, snap, prompt, lower, &rationale)

	if q.Kind == OpFilter {
		if joinTable != "" {
			q.Kind = OpJoin
			q.JoinTable = joinTable
			rationale = append(rationale, fmt.Sprintf("Joined with %s.", joinTable))
		}
		if len(q.Targets) == 0 && len(cols) > 0 {
			q.Targets = cols
		}
	}

	s.logger.Printf("[SYNTH] %s", q.String())
	return q, strings.Join(rationale, " "), nil
}

// traceKey returns the uppercased trace identifier when the prompt asks to
// follow a batch or shipment through the chain.
func (s *Synthesizer) traceKey(lower string) string {
	if !containsWord(lower, "trace") && !containsWord(lower, "track") &&
		!containsWord(lower, "journey") && !strings.Contains(lower, "where is") {
		return ""
	}
	m := traceIDPattern.FindStringSubmatch(lower)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}

func (s *Synthesizer) buildTrace(snap *catalog.Snapshot, scope *resolver.ResolvedScope, key string) (*StructuredQuery, []string) {
	table, joinTable := s.pickTables(snap, scope)
	q := &StructuredQuery{
		Kind:      OpTrace,
		Table:     table,
		JoinTable: joinTable,
		TraceKey:  key,
	}
	return q, []string{fmt.Sprintf("Tracing %s through %s.", key, table)}
}

// pickTables chooses the primary table (the one with the most scope
// entities, alphabetical on ties) and, when the scope spans two related
// tables, the join counterpart.
func (s *Synthesizer) pickTables(snap *catalog.Snapshot, scope *resolver.ResolvedScope) (string, string) {
	counts := map[string]int{}
	for _, e := range scope.Entities {
		if e.Kind == catalog.KindRelationship {
			continue
		}
		counts[snap.TableOf(e)]++
	}

	var primary string
	for table, n := range counts {
		if primary == "" || n > counts[primary] || (n == counts[primary] && table < primary) {
			primary = table
		}
	}

	var join string
	for table := range counts {
		if table == primary {
			continue
		}
		if related(snap, primary, table) && (join == "" || table < join) {
			join = table
		}
	}
	return primary, join
}

func related(snap *catalog.Snapshot, a, b string) bool {
	for _, e := range snap.Entities {
		if e.Kind != catalog.KindRelationship {
			continue
		}
		if e.Parent == a+">"+b || e.Parent == b+">"+a {
			return true
		}
	}
	return false
}

// promptColumns returns the primary table's scope columns whose full name
// appears in the prompt, in snapshot order.
func (s *Synthesizer) promptColumns(snap *catalog.Snapshot, scope *resolver.ResolvedScope, lower, table string) []string {
	tokens := tokenSet(resolver.Tokenize(lower))
	var out []string
	for _, e := range snap.ColumnsOf(table) {
		if !scope.Contains(e.Name) {
			continue
		}
		if allPartsPresent(e.Name, tokens) {
			out = append(out, e.Name)
		}
	}
	return out
}

func allPartsPresent(name string, tokens map[string]bool) bool {
	hits := 0
	parts := strings.Split(strings.ToLower(name), "_")
	for _, p := range parts {
		for tok := range tokens {
			if tok == p || normalizeEq(tok, p) {
				hits++
				break
			}
		}
	}
	// Stopword-eaten segments ("on" in on_time_delivery_rate) still count as
	// matched when every other segment is present.
	return hits >= len(parts)-1 && hits > 0
}

func normalizeEq(a, b string) bool {
	trim := func(s string) string {
		if len(s) > 3 && strings.HasSuffix(s, "s") {
			return s[:len(s)-1]
		}
		return s
	}
	return trim(a) == trim(b)
}

func detectAggregate(lower string) AggFunc {
	switch {
	case strings.Contains(lower, "how many") || containsWord(lower, "count"):
		return AggCount
	case containsWord(lower, "average") || containsWord(lower, "avg") || containsWord(lower, "mean"):
		return AggAvg
	case containsWord(lower, "total") || containsWord(lower, "sum"):
		return AggSum
	case containsWord(lower, "maximum"):
		return AggMax
	case containsWord(lower, "minimum"):
		return AggMin
	}
	return AggNone
}

func detectGroupBy(lower string, cols []string) []string {
	grouping := strings.Contains(lower, "break") && strings.Contains(lower, "down") ||
		strings.Contains(lower, "group by") || strings.Contains(lower, "grouped by") ||
		strings.Contains(lower, "per ") || strings.Contains(lower, "for each") ||
		strings.Contains(lower, "split by")
	if !grouping {
		return nil
	}
	var out []string
	for _, c := range cols {
		if !isNumericColumn(c) {
			out = append(out, c)
		}
	}
	return out
}

func detectLimit(lower string) (int, bool, bool) {
	m := limitPattern.FindStringSubmatch(lower)
	if m == nil {
		return 0, false, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil || n <= 0 {
		return 0, false, false
	}
	desc := true
	switch strings.ToLower(m[1]) {
	case "bottom", "worst", "lowest", "last":
		desc = false
	}
	return n, desc, true
}

func (s *Synthesizer) applyPredicates(q *StructuredQuery, snap *catalog.Snapshot, prompt, lower string, rationale *[]string) {
	hasColumn := func(name string) bool {
		for _, c := range snap.ColumnsOf(q.Table) {
			if c.Name == name {
				return true
			}
		}
		return false
	}

	if hasColumn("country") && !q.HasPredicate("country") {
		code := ""
		if m := countryCode.FindStringSubmatch(prompt); m != nil {
			code = m[1]
		} else {
			for name, c := range countryNames {
				if containsWord(lower, name) {
					code = c
					break
				}
			}
		}
		if code != "" {
			q.Predicates = append(q.Predicates, Predicate{Field: "country", Op: "=", Value: code})
			*rationale = append(*rationale, fmt.Sprintf("Filtered to country %s.", code))
		}
	}

	statusField := ""
	if hasColumn("status") {
		statusField = "status"
	} else if hasColumn("stage") {
		statusField = "stage"
	}
	if statusField != "" && !q.HasPredicate(statusField) {
		for _, w := range statusWords {
			if containsWord(lower, strings.ReplaceAll(w, "_", " ")) || containsWord(lower, w) {
				q.Predicates = append(q.Predicates, Predicate{Field: statusField, Op: "=", Value: w})
				*rationale = append(*rationale, fmt.Sprintf("Filtered %s = %s.", statusField, w))
				break
			}
		}
	}
}

func firstNumeric(cols []string) string {
	for _, c := range cols {
		if isNumericColumn(c) {
			return c
		}
	}
	return ""
}

// isNumericColumn is a naming heuristic: metric columns carry rate, qty or
// similar suffixes in this warehouse.
func isNumericColumn(name string) bool {
	for _, suffix := range []string{"rate", "qty", "quantity", "count", "amount", "value", "pct"} {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

func containsWord(lower, word string) bool {
	idx := 0
	for {
		i := strings.Index(lower[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		leftOK := start == 0 || !isWordChar(lower[start-1])
		rightOK := end == len(lower) || !isWordChar(lower[end])
		if leftOK && rightOK {
			return true
		}
		idx = end
	}
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '_'
}

func tokenSet(tokens []string) map[string]bool {
	out := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		out[t] = true
	}
	return out
}
