package aggregate

import (
	"errors"
	"log"
	"os"
	"strings"
	"testing"

	"dbquery-be/pkg/copilot/gateway"
	"dbquery-be/pkg/copilot/grounding"
	"dbquery-be/pkg/copilot/qerr"
	"dbquery-be/pkg/copilot/query"
)

func testAggregator() *Aggregator {
	return NewAggregator(log.New(os.Stderr, "[test] ", log.LstdFlags))
}

func TestClassifyPrompt(t *testing.T) {
	tests := []struct {
		prompt string
		want   PromptClass
	}{
		{"What is OTIF?", ClassDefinitional},
		{"Explain the quarantine process", ClassDefinitional},
		{"what does on-time delivery rate mean", ClassDefinitional},
		{"What is the average defect rate per country", ClassData},
		{"Show top 5 vendors by delivery rate", ClassData},
		{"How many batches are quarantined", ClassData},
		{"Trace batch B2025001", ClassData},
	}
	for _, tt := range tests {
		if got := ClassifyPrompt(tt.prompt); got != tt.want {
			t.Errorf("ClassifyPrompt(%q) = %s, want %s", tt.prompt, got, tt.want)
		}
	}
}

func TestComposeRankedAnswer(t *testing.T) {
	a := testAggregator()
	q := &query.StructuredQuery{
		Kind:       query.OpFilter,
		Table:      "vendors",
		Predicates: []query.Predicate{{Field: "country", Op: "=", Value: "US"}},
		OrderBy:    &query.Ordering{Field: "on_time_delivery_rate", Desc: true},
		Limit:      5,
	}
	result := &gateway.ResultSet{
		Columns: []gateway.Column{
			{Name: "vendor_id", Type: gateway.FieldString},
			{Name: "vendor_name", Type: gateway.FieldString},
			{Name: "on_time_delivery_rate", Type: gateway.FieldNumber},
		},
		Rows: [][]any{
			{"V001", "Helix Pharma Supply", 0.97},
			{"V007", "Boston Sterile Labs", 0.95},
		},
		RowCount: 2,
	}
	passages := []grounding.Passage{{DocumentID: "DOC002", Source: "glossary", Score: 0.6}}

	answer, err := a.Compose("top vendors", q, result, passages, "ranked by delivery rate")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer.Class != ClassData {
		t.Errorf("class = %s, want data", answer.Class)
	}
	if !strings.Contains(answer.Narrative, "Helix Pharma Supply") {
		t.Errorf("narrative should name the leader, got %q", answer.Narrative)
	}
	if len(answer.Hints) == 0 || answer.Hints[0].Kind != HintBar {
		t.Errorf("expected bar hint for a ranked numeric result, got %v", answer.Hints)
	}
	if answer.Hints[0].X != "vendor_id" && answer.Hints[0].X != "vendor_name" {
		t.Errorf("bar hint X = %s, want a label column", answer.Hints[0].X)
	}
	if len(answer.Passages) != 0 {
		t.Errorf("data answer carries %d passages, want none", len(answer.Passages))
	}
}

func TestComposeEmptyResultIsNoMatch(t *testing.T) {
	a := testAggregator()
	q := &query.StructuredQuery{Kind: query.OpTrace, Table: "batches", TraceKey: "B9999999"}
	result := &gateway.ResultSet{}

	_, err := a.Compose("trace batch B9999999", q, result, nil, "")
	var noMatch *qerr.NoMatchError
	if !errors.As(err, &noMatch) {
		t.Fatalf("expected NoMatchError, got %v", err)
	}
}

func TestComposeCountAnswer(t *testing.T) {
	a := testAggregator()
	q := &query.StructuredQuery{
		Kind:       query.OpAggregate,
		Table:      "batches",
		Agg:        query.AggCount,
		Predicates: []query.Predicate{{Field: "status", Op: "=", Value: "quarantined"}},
	}
	result := &gateway.ResultSet{
		Columns:  []gateway.Column{{Name: "count", Type: gateway.FieldNumber}},
		Rows:     [][]any{{2.0}},
		RowCount: 1,
	}

	answer, err := a.Compose("how many batches are quarantined", q, result, nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(answer.Narrative, "2") || !strings.Contains(answer.Narrative, "quarantined") {
		t.Errorf("narrative = %q, want the count and the filter", answer.Narrative)
	}
	if answer.Hints[0].Kind != HintStat {
		t.Errorf("hint = %s, want stat", answer.Hints[0].Kind)
	}
}

func TestComposeDefinitional(t *testing.T) {
	a := testAggregator()
	passages := []grounding.Passage{
		{DocumentID: "DOC001", Source: "supply_chain_glossary.md", Text: "OTIF measures on time in full delivery.", Score: 0.8},
	}

	answer, err := a.ComposeDefinitional("What is OTIF?", passages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer.Class != ClassDefinitional {
		t.Errorf("class = %s, want definitional", answer.Class)
	}
	if !strings.Contains(answer.Narrative, "OTIF measures") || !strings.Contains(answer.Narrative, "supply_chain_glossary.md") {
		t.Errorf("narrative = %q, want passage text with source", answer.Narrative)
	}
	if answer.Result != nil {
		t.Error("definitional answers carry no tabular result")
	}
}

func TestComposeDefinitionalWithoutPassages(t *testing.T) {
	a := testAggregator()

	_, err := a.ComposeDefinitional("What is flurbium?", nil)
	var noMatch *qerr.NoMatchError
	if !errors.As(err, &noMatch) {
		t.Fatalf("expected NoMatchError, got %v", err)
	}
}
