package query

import (
	"errors"
	"log"
	"os"
	"testing"

	"dbquery-be/pkg/copilot/catalog"
	"dbquery-be/pkg/copilot/qerr"
	"dbquery-be/pkg/copilot/resolver"
)

func synthFixture(t *testing.T) (*Synthesizer, *resolver.Resolver) {
	t.Helper()
	logger := log.New(os.Stderr, "[test] ", log.LstdFlags)
	cat := catalog.NewStaticCatalog(catalog.DemoSnapshot())
	return NewSynthesizer(cat, logger), resolver.NewResolver(cat, logger)
}

func mustResolve(t *testing.T, r *resolver.Resolver, prompt string, prior *resolver.ResolvedScope) *resolver.ResolvedScope {
	t.Helper()
	scope, err := r.Resolve(prompt, prior)
	if err != nil {
		t.Fatalf("resolve %q: %v", prompt, err)
	}
	return scope
}

func TestSynthesizeRankingQuery(t *testing.T) {
	s, r := synthFixture(t)
	prompt := "Show top 5 vendors in US by on-time delivery rate"
	scope := mustResolve(t, r, prompt, nil)

	q, rationale, err := s.Synthesize(prompt, scope, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Kind != OpFilter {
		t.Errorf("kind = %s, want %s", q.Kind, OpFilter)
	}
	if q.Table != "vendors" {
		t.Errorf("table = %s, want vendors", q.Table)
	}
	if q.Limit != 5 {
		t.Errorf("limit = %d, want 5", q.Limit)
	}
	if q.OrderBy == nil || q.OrderBy.Field != "on_time_delivery_rate" || !q.OrderBy.Desc {
		t.Errorf("order by = %+v, want on_time_delivery_rate desc", q.OrderBy)
	}
	if !q.HasPredicate("country") {
		t.Error("expected country predicate from the US mention")
	}
	if rationale == "" {
		t.Error("expected a non-empty rationale")
	}
}

func TestSynthesizeFollowUpComposesPriorQuery(t *testing.T) {
	s, r := synthFixture(t)

	first := "Show top 5 vendors in US by on-time delivery rate"
	scope := mustResolve(t, r, first, nil)
	prior, _, err := s.Synthesize(first, scope, nil)
	if err != nil {
		t.Fatalf("first turn: %v", err)
	}

	followUp := "Now break this down by product category"
	scope2 := mustResolve(t, r, followUp, scope)
	q, _, err := s.Synthesize(followUp, scope2, prior)
	if err != nil {
		t.Fatalf("follow-up: %v", err)
	}
	if q.Kind != OpAggregate {
		t.Errorf("kind = %s, want %s", q.Kind, OpAggregate)
	}
	if len(q.GroupBy) != 1 || q.GroupBy[0] != "product_category" {
		t.Errorf("group by = %v, want [product_category]", q.GroupBy)
	}
	if q.Agg != AggAvg {
		t.Errorf("agg = %s, want %s", q.Agg, AggAvg)
	}
	if !q.HasPredicate("country") {
		t.Error("follow-up should keep the country filter from the prior turn")
	}
	if prior.GroupBy != nil {
		t.Error("composition must not mutate the prior query")
	}
}

func TestSynthesizeCountWithStatusFilter(t *testing.T) {
	s, r := synthFixture(t)
	prompt := "How many batches are quarantined"
	scope := mustResolve(t, r, prompt, nil)

	q, _, err := s.Synthesize(prompt, scope, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Kind != OpAggregate || q.Agg != AggCount {
		t.Errorf("got kind=%s agg=%s, want aggregate count", q.Kind, q.Agg)
	}
	if q.Table != "batches" {
		t.Errorf("table = %s, want batches", q.Table)
	}
	if !q.HasPredicate("status") {
		t.Error("expected status predicate for quarantined")
	}
}

func TestSynthesizeTrace(t *testing.T) {
	s, r := synthFixture(t)
	prompt := "Trace batch B2025001 from vendor to hospital"
	scope := mustResolve(t, r, prompt, nil)

	q, _, err := s.Synthesize(prompt, scope, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Kind != OpTrace {
		t.Fatalf("kind = %s, want %s", q.Kind, OpTrace)
	}
	if q.TraceKey != "B2025001" {
		t.Errorf("trace key = %s, want B2025001", q.TraceKey)
	}
	if q.Table != "batches" {
		t.Errorf("table = %s, want batches", q.Table)
	}
}

func TestSynthesizeRejectsWriteVerbs(t *testing.T) {
	s, r := synthFixture(t)
	prompt := "Delete all quarantined batches"
	scope := mustResolve(t, r, prompt, nil)

	_, _, err := s.Synthesize(prompt, scope, nil)
	var unsupported *qerr.UnsupportedOperationError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedOperationError, got %v", err)
	}
	if unsupported.Operation != "delete" {
		t.Errorf("operation = %s, want delete", unsupported.Operation)
	}
}

func TestCloneIsDeep(t *testing.T) {
	q := &StructuredQuery{
		Kind:       OpFilter,
		Table:      "vendors",
		Targets:    []string{"vendor_name"},
		Predicates: []Predicate{{Field: "country", Op: "=", Value: "US"}},
		OrderBy:    &Ordering{Field: "defect_rate", Desc: true},
	}
	c := q.Clone()
	c.Targets[0] = "changed"
	c.Predicates[0].Value = "DE"
	c.OrderBy.Desc = false

	if q.Targets[0] != "vendor_name" || q.Predicates[0].Value != "US" || !q.OrderBy.Desc {
		t.Error("Clone shares state with the original")
	}
}
