package resolver

import (
	"errors"
	"log"
	"os"
	"testing"

	"dbquery-be/pkg/copilot/catalog"
	"dbquery-be/pkg/copilot/qerr"
)

func testResolver(cat catalog.Catalog) *Resolver {
	return NewResolver(cat, log.New(os.Stderr, "[test] ", log.LstdFlags))
}

func TestResolveVendorPerformancePrompt(t *testing.T) {
	r := testResolver(catalog.NewStaticCatalog(catalog.DemoSnapshot()))

	scope, err := r.Resolve("Show top 5 vendors in US by on-time delivery rate", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !scope.Contains("vendors") {
		t.Error("expected vendors table in scope")
	}
	if !scope.Contains("on_time_delivery_rate") {
		t.Error("expected on_time_delivery_rate column in scope")
	}
	if scope.Contains("defect_rate") {
		t.Error("defect_rate should not match from a single shared token")
	}
	if scope.Confidence < 0.9 {
		t.Errorf("expected high confidence for exact table match, got %.2f", scope.Confidence)
	}
	if len(scope.Trace) == 0 {
		t.Error("expected match trace entries")
	}
}

func TestResolveFollowUpCarriesScope(t *testing.T) {
	r := testResolver(catalog.NewStaticCatalog(catalog.DemoSnapshot()))

	prior, err := r.Resolve("Show top 5 vendors in US by on-time delivery rate", nil)
	if err != nil {
		t.Fatalf("unexpected error on first turn: %v", err)
	}

	scope, err := r.Resolve("Now break this down by product category", prior)
	if err != nil {
		t.Fatalf("unexpected error on follow-up: %v", err)
	}
	for _, e := range prior.Entities {
		if !scope.Contains(e.Name) {
			t.Errorf("follow-up scope lost prior entity %s", e.Name)
		}
	}
	if !scope.Contains("product_category") {
		t.Error("expected product_category added to the carried scope")
	}
}

func TestResolveTopicChangeOverridesCue(t *testing.T) {
	r := testResolver(catalog.NewStaticCatalog(catalog.DemoSnapshot()))

	prior, err := r.Resolve("Show top vendors by on-time delivery rate", nil)
	if err != nil {
		t.Fatalf("unexpected error on first turn: %v", err)
	}

	scope, err := r.Resolve("Now trace this batch B2025001 through shipments", prior)
	if err != nil {
		t.Fatalf("unexpected error on follow-up: %v", err)
	}
	if scope.Contains("vendors") {
		t.Error("new topic should not carry the vendor scope")
	}
	if !scope.Contains("batches") || !scope.Contains("shipments") {
		t.Errorf("expected batches and shipments in scope, got %+v", scope.Entities)
	}
}

func TestResolvePureRefinementCarriesPrior(t *testing.T) {
	r := testResolver(catalog.NewStaticCatalog(catalog.DemoSnapshot()))

	prior, err := r.Resolve("Show vendors by defect rate", nil)
	if err != nil {
		t.Fatalf("unexpected error on first turn: %v", err)
	}

	scope, err := r.Resolve("show that again", prior)
	if err != nil {
		t.Fatalf("unexpected error on refinement: %v", err)
	}
	if len(scope.Entities) != len(prior.Entities) {
		t.Errorf("refinement should carry the prior scope unchanged, got %d entities, want %d",
			len(scope.Entities), len(prior.Entities))
	}
	if scope.Confidence >= prior.Confidence {
		t.Error("carried scope should report reduced confidence")
	}
}

func TestResolveNoMatch(t *testing.T) {
	r := testResolver(catalog.NewStaticCatalog(catalog.DemoSnapshot()))

	_, err := r.Resolve("what is the meaning of life", nil)
	var noMatch *qerr.NoMatchError
	if !errors.As(err, &noMatch) {
		t.Fatalf("expected NoMatchError, got %v", err)
	}
}

func TestResolveAmbiguousTerm(t *testing.T) {
	snap := &catalog.Snapshot{
		Version: "test",
		Entities: []catalog.SchemaEntity{
			{Name: "inbound_orders", Kind: catalog.KindTable},
			{Name: "outbound_orders", Kind: catalog.KindTable},
		},
	}
	r := testResolver(catalog.NewStaticCatalog(snap))

	_, err := r.Resolve("how many orders arrived", nil)
	var ambiguous *qerr.AmbiguousScopeError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("expected AmbiguousScopeError, got %v", err)
	}
	if len(ambiguous.Candidates) != 2 {
		t.Errorf("expected 2 candidate tables, got %v", ambiguous.Candidates)
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "stopwords and plurals",
			input: "Show me the top suppliers",
			want:  []string{"top", "vendor"},
		},
		{
			name:  "hyphenated metric",
			input: "by on-time delivery rate",
			want:  []string{"time", "delivery", "rate"},
		},
		{
			name:  "batch identifier survives",
			input: "trace batch B2025001",
			want:  []string{"trace", "batch", "b2025001"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Tokenize(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestHasReferentialCue(t *testing.T) {
	tests := []struct {
		prompt string
		want   bool
	}{
		{"Now break this down by category", true},
		{"what about defect rate", true},
		{"show the same for Germany", true},
		{"Show top 5 vendors by delivery rate", false},
		{"trace batch B2025001", false},
	}
	for _, tt := range tests {
		if got := HasReferentialCue(tt.prompt); got != tt.want {
			t.Errorf("HasReferentialCue(%q) = %v, want %v", tt.prompt, got, tt.want)
		}
	}
}
