package gateway

import (
	"context"
	"errors"
	"log"
	"os"
	"reflect"
	"testing"
	"time"

	"dbquery-be/pkg/copilot/catalog"
	"dbquery-be/pkg/copilot/qerr"
	"dbquery-be/pkg/copilot/query"
)

func testLogger() *log.Logger {
	return log.New(os.Stderr, "[test] ", log.LstdFlags)
}

func TestDemoFilterRankedAndFiltered(t *testing.T) {
	b := NewDemoBackend()
	q := &query.StructuredQuery{
		Kind:       query.OpFilter,
		Table:      "vendors",
		Targets:    []string{"on_time_delivery_rate"},
		Predicates: []query.Predicate{{Field: "country", Op: "=", Value: "US"}},
		OrderBy:    &query.Ordering{Field: "on_time_delivery_rate", Desc: true},
		Limit:      5,
	}

	result, err := b.Execute(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Rows) != 5 {
		t.Fatalf("got %d rows, want 5 US vendors", len(result.Rows))
	}
	if got := result.Rows[0][0]; got != "V001" {
		t.Errorf("top vendor = %v, want V001", got)
	}
	rateIdx := result.ColumnIndex("on_time_delivery_rate")
	if rateIdx < 0 {
		t.Fatal("expected on_time_delivery_rate column")
	}
	prev := 1.1
	for _, row := range result.Rows {
		rate := row[rateIdx].(float64)
		if rate > prev {
			t.Fatalf("rows not sorted descending: %v after %v", rate, prev)
		}
		prev = rate
	}
}

func TestDemoReplayIsDeterministic(t *testing.T) {
	b := NewDemoBackend()
	q := &query.StructuredQuery{
		Kind:    query.OpAggregate,
		Table:   "vendors",
		Agg:     query.AggAvg,
		Targets: []string{"defect_rate"},
		GroupBy: []string{"country"},
	}

	first, err := b.Execute(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := b.Execute(context.Background(), q)
		if err != nil {
			t.Fatalf("replay %d: %v", i, err)
		}
		if !reflect.DeepEqual(first.Rows, again.Rows) {
			t.Fatalf("replay %d differs:\nfirst %v\nagain %v", i, first.Rows, again.Rows)
		}
	}
}

func TestDemoAggregateCount(t *testing.T) {
	b := NewDemoBackend()
	q := &query.StructuredQuery{
		Kind:       query.OpAggregate,
		Table:      "batches",
		Agg:        query.AggCount,
		Predicates: []query.Predicate{{Field: "status", Op: "=", Value: "quarantined"}},
	}

	result, err := b.Execute(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(result.Rows))
	}
	if got := result.Rows[0][0].(float64); got != 2 {
		t.Errorf("quarantined count = %v, want 2", got)
	}
}

func TestDemoTraceWalksChainInOrder(t *testing.T) {
	b := NewDemoBackend()
	q := &query.StructuredQuery{Kind: query.OpTrace, Table: "batches", TraceKey: "B2025001"}

	result, err := b.Execute(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Rows) != 4 {
		t.Fatalf("got %d trace steps, want 4", len(result.Rows))
	}
	stageIdx := result.ColumnIndex("stage")
	wantStages := []string{"vendor", "vendor", "distribution_center", "hospital"}
	for i, row := range result.Rows {
		if row[stageIdx] != wantStages[i] {
			t.Errorf("step %d stage = %v, want %s", i+1, row[stageIdx], wantStages[i])
		}
	}
}

func TestDemoTraceUnknownKeyIsEmpty(t *testing.T) {
	b := NewDemoBackend()
	q := &query.StructuredQuery{Kind: query.OpTrace, Table: "batches", TraceKey: "B9999999"}

	result, err := b.Execute(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Empty() {
		t.Errorf("expected empty result for unknown batch, got %d rows", len(result.Rows))
	}
}

func TestDemoUnknownColumnIsFatal(t *testing.T) {
	b := NewDemoBackend()
	q := &query.StructuredQuery{
		Kind:       query.OpFilter,
		Table:      "vendors",
		Predicates: []query.Predicate{{Field: "no_such_column", Op: "=", Value: 1}},
	}

	_, err := b.Execute(context.Background(), q)
	var fatal *qerr.InternalConsistencyError
	if !errors.As(err, &fatal) {
		t.Fatalf("expected InternalConsistencyError, got %v", err)
	}
}

func TestDemoJoinVendorsBatches(t *testing.T) {
	b := NewDemoBackend()
	q := &query.StructuredQuery{
		Kind:       query.OpJoin,
		Table:      "batches",
		JoinTable:  "vendors",
		Predicates: []query.Predicate{{Field: "country", Op: "=", Value: "IN"}},
	}

	result, err := b.Execute(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("got %d rows, want 2 batches from IN vendors", len(result.Rows))
	}
	if result.ColumnIndex("vendor_name") < 0 || result.ColumnIndex("batch_id") < 0 {
		t.Error("join result should carry columns from both tables")
	}
}

type flakyBackend struct {
	failures int
	calls    int
}

func (f *flakyBackend) Name() string { return "flaky" }

func (f *flakyBackend) Execute(ctx context.Context, q *query.StructuredQuery) (*ResultSet, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, &qerr.BackendUnavailableError{Backend: f.Name(), Err: errors.New("connection refused")}
	}
	return &ResultSet{
		Columns: []Column{{Name: "n", Type: FieldNumber}},
		Rows:    [][]any{{1.0}},
	}, nil
}

func TestGatewayRetriesTransientFailureOnce(t *testing.T) {
	backend := &flakyBackend{failures: 1}
	g := NewGateway(backend, Config{DisplayCap: 10, RetryBackoff: time.Millisecond}, testLogger())

	result, err := g.Execute(context.Background(), &query.StructuredQuery{Kind: query.OpFilter, Table: "t"})
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if backend.calls != 2 {
		t.Errorf("backend called %d times, want 2", backend.calls)
	}
	if !result.Meta.Retried {
		t.Error("meta should record the retry")
	}
}

func TestGatewayGivesUpAfterSecondFailure(t *testing.T) {
	backend := &flakyBackend{failures: 2}
	g := NewGateway(backend, Config{DisplayCap: 10, RetryBackoff: time.Millisecond}, testLogger())

	_, err := g.Execute(context.Background(), &query.StructuredQuery{Kind: query.OpFilter, Table: "t"})
	if !qerr.IsBackendUnavailable(err) {
		t.Fatalf("expected BackendUnavailableError, got %v", err)
	}
	if backend.calls != 2 {
		t.Errorf("backend called %d times, want exactly 2", backend.calls)
	}
}

func TestGatewayAppliesDisplayCap(t *testing.T) {
	g := NewGateway(NewDemoBackend(), Config{DisplayCap: 3, RetryBackoff: time.Millisecond}, testLogger())

	result, err := g.Execute(context.Background(), &query.StructuredQuery{Kind: query.OpFilter, Table: "vendors"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Rows) != 3 {
		t.Errorf("got %d rows, want display cap of 3", len(result.Rows))
	}
	if !result.Truncated {
		t.Error("expected truncated flag")
	}
	if result.RowCount != 11 {
		t.Errorf("row count = %d, want pre-cap total 11", result.RowCount)
	}
}

func TestTranslateRankedSelect(t *testing.T) {
	tr := NewTranslator(catalog.NewStaticCatalog(catalog.DemoSnapshot()))
	q := &query.StructuredQuery{
		Kind:       query.OpFilter,
		Table:      "vendors",
		Targets:    []string{"vendor_name", "on_time_delivery_rate"},
		Predicates: []query.Predicate{{Field: "country", Op: "=", Value: "US"}},
		OrderBy:    &query.Ordering{Field: "on_time_delivery_rate", Desc: true},
		Limit:      5,
	}

	sql, args, err := tr.Translate(q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "SELECT vendor_name, on_time_delivery_rate FROM vendors WHERE country = ? ORDER BY on_time_delivery_rate DESC LIMIT 5"
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
	if len(args) != 1 || args[0] != "US" {
		t.Errorf("args = %v, want [US]", args)
	}
}

func TestTranslateGroupedAverage(t *testing.T) {
	tr := NewTranslator(catalog.NewStaticCatalog(catalog.DemoSnapshot()))
	q := &query.StructuredQuery{
		Kind:       query.OpAggregate,
		Table:      "vendors",
		Agg:        query.AggAvg,
		Targets:    []string{"on_time_delivery_rate"},
		GroupBy:    []string{"product_category"},
		Predicates: []query.Predicate{{Field: "country", Op: "=", Value: "US"}},
	}

	sql, _, err := tr.Translate(q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "SELECT product_category, avg(on_time_delivery_rate) AS avg_on_time_delivery_rate FROM vendors WHERE country = ? GROUP BY product_category ORDER BY product_category"
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
}

func TestTranslateRejectsUnknownIdentifier(t *testing.T) {
	tr := NewTranslator(catalog.NewStaticCatalog(catalog.DemoSnapshot()))
	q := &query.StructuredQuery{
		Kind:    query.OpFilter,
		Table:   "vendors",
		Targets: []string{"password; drop table vendors"},
	}

	_, _, err := tr.Translate(q)
	var fatal *qerr.InternalConsistencyError
	if !errors.As(err, &fatal) {
		t.Fatalf("expected InternalConsistencyError, got %v", err)
	}
}
