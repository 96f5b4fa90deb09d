package grounding

import (
	"context"
	"sort"

	"dbquery-be/pkg/copilot/resolver"
)

// demoPassage is one canned glossary entry served in demo mode.
type demoPassage struct {
	id     string
	source string
	text   string
}

var demoCorpus = []demoPassage{
	{"DOC001", "supply_chain_glossary.md", "OTIF (On Time In Full) measures the share of orders delivered both on schedule and in the full ordered quantity. Vendors below 90% OTIF trigger a supplier review."},
	{"DOC002", "supply_chain_glossary.md", "On-time delivery rate is the fraction of purchase order lines received on or before the promised date over a rolling 12 month window."},
	{"DOC003", "supply_chain_glossary.md", "Defect rate is the share of received units rejected at incoming quality inspection. Rates above 2% require a corrective action plan from the vendor."},
	{"DOC004", "quality_sop.md", "A quarantined batch is held in a segregated area and must not be released to production until quality assurance completes the deviation investigation."},
	{"DOC005", "quality_sop.md", "Batch release requires a completed batch record review, certificate of analysis, and sign-off by the qualified person."},
	{"DOC006", "logistics_handbook.md", "Cold chain shipments move through temperature-controlled legs from the vendor to a distribution center and on to the hospital pharmacy, with loggers checked at each handover."},
	{"DOC007", "logistics_handbook.md", "A shipment leg records one movement between two sites. Tracing a batch follows its legs in stage order: vendor, distribution center, hospital."},
	{"DOC008", "procurement_policy.md", "Vendor scorecards combine on-time delivery rate, defect rate and responsiveness. Scorecards are refreshed monthly per product category."},
}

// DemoRetriever scores the canned corpus lexically. Deterministic, so demo
// sessions replay with identical grounding.
type DemoRetriever struct{}

func NewDemoRetriever() *DemoRetriever { return &DemoRetriever{} }

func (r *DemoRetriever) Retrieve(ctx context.Context, prompt string, topK int) ([]Passage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	queryTokens := tokenSet(resolver.Tokenize(prompt))
	if len(queryTokens) == 0 {
		return nil, nil
	}

	var out []Passage
	for _, p := range demoCorpus {
		score := queryCoverage(queryTokens, resolver.Tokenize(p.text))
		if score <= 0 {
			continue
		}
		out = append(out, Passage{DocumentID: p.id, Source: p.source, Text: p.text, Score: score})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].DocumentID < out[j].DocumentID
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

// queryCoverage scores a passage by the share of prompt tokens it covers,
// the lexical stand-in for the vector store's cosine similarity.
func queryCoverage(queryTokens map[string]bool, passageTokens []string) float64 {
	passageSet := tokenSet(passageTokens)
	if len(passageSet) == 0 {
		return 0
	}
	var overlap int
	for tok := range queryTokens {
		if passageSet[tok] {
			overlap++
		}
	}
	return float64(overlap) / float64(len(queryTokens))
}

func tokenSet(tokens []string) map[string]bool {
	out := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		out[t] = true
	}
	return out
}
