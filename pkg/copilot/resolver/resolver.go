package resolver

import (
	"log"
	"sort"
	"strings"

	"dbquery-be/pkg/copilot/catalog"
	"dbquery-be/pkg/copilot/qerr"
)

// MatchTrace records which prompt term matched which entity, kept on the
// scope so the UI can explain why a table was pulled in.
type MatchTrace struct {
	Term   string  `json:"term"`
	Entity string  `json:"entity"`
	Score  float64 `json:"score"`
}

// ResolvedScope is the minimal schema subset relevant to a prompt.
// A follow-up prompt with a referential cue produces a superset (or pure
// refinement) of the previous turn's scope unless the topic-change override
// fires.
type ResolvedScope struct {
	Entities   []catalog.SchemaEntity `json:"entities"`
	Confidence float64                `json:"confidence"`
	Trace      []MatchTrace           `json:"trace"`
}

// Contains reports whether the scope holds an entity by name.
func (s *ResolvedScope) Contains(name string) bool {
	if s == nil {
		return false
	}
	for _, e := range s.Entities {
		if strings.EqualFold(e.Name, name) {
			return true
		}
	}
	return false
}

// Resolver scores catalog entities against prompt tokens.
type Resolver struct {
	cat             catalog.Catalog
	logger          *log.Logger
	minScore        float64
	ambiguityMargin float64
}

func NewResolver(cat catalog.Catalog, logger *log.Logger) *Resolver {
	return &Resolver{
		cat:             cat,
		logger:          logger,
		minScore:        0.45,
		ambiguityMargin: 0.1,
	}
}

// Resolve maps a prompt (plus the prior turn's scope, if any) to a scope.
// Fails with AmbiguousScopeError when disjoint table groups match with
// comparable confidence and nothing disambiguates, and with NoMatchError
// when no entity clears the minimum score.
func (r *Resolver) Resolve(prompt string, prior *ResolvedScope) (*ResolvedScope, error) {
	snap := r.cat.Snapshot()
	tokens := Tokenize(prompt)
	cue := HasReferentialCue(prompt)

	candidates, trace := r.scoreEntities(snap, tokens, prior)

	// Ambiguity is judged before the score floor: two weak but comparable
	// matches from disjoint tables still need the user to pick one.
	if err := r.checkAmbiguity(prompt, snap, candidates, trace, prior); err != nil {
		return nil, err
	}

	matched := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		if c.score >= r.minScore {
			matched = append(matched, c)
		}
	}

	if len(matched) == 0 {
		if cue && prior != nil && len(prior.Entities) > 0 {
			// Pure refinement ("show that again"): carry the prior scope.
			return &ResolvedScope{
				Entities:   append([]catalog.SchemaEntity(nil), prior.Entities...),
				Confidence: prior.Confidence * 0.8,
				Trace:      prior.Trace,
			}, nil
		}
		return nil, &qerr.NoMatchError{Prompt: prompt}
	}

	entities := entitiesOf(matched)
	confidence := topScore(matched)
	trace = keepTrace(trace, matched)

	if cue && prior != nil && len(prior.Entities) > 0 {
		if r.topicChanged(snap, entities, prior) {
			r.logger.Printf("[RESOLVER] Referential cue overridden: prompt opens a new topic")
		} else {
			entities = unionScope(prior.Entities, entities)
		}
	}

	sortEntities(entities)
	return &ResolvedScope{Entities: entities, Confidence: confidence, Trace: trace}, nil
}

type scored struct {
	entity catalog.SchemaEntity
	score  float64
}

// scoreEntities returns every entity with at least one token hit, scored.
// The caller applies the minScore floor; sub-floor candidates still feed
// the ambiguity check.
func (r *Resolver) scoreEntities(snap *catalog.Snapshot, tokens []string, prior *ResolvedScope) ([]scored, []MatchTrace) {
	var matched []scored
	var trace []MatchTrace

	for _, entity := range snap.Entities {
		parts := nameParts(entity.Name)
		descWords := tokenSet(Tokenize(entity.Description))

		var hitParts int
		var hitDesc int
		var terms []string
		seen := map[string]bool{}
		for _, tok := range tokens {
			if seen[tok] {
				continue
			}
			if containsToken(parts, tok) {
				hitParts++
				terms = append(terms, tok)
				seen[tok] = true
			} else if descWords[tok] {
				hitDesc++
				seen[tok] = true
			}
		}
		if hitParts == 0 && hitDesc == 0 {
			continue
		}

		var score float64
		if hitParts == len(parts) && hitParts > 0 {
			score = 1.0
		} else {
			score = 0.7 * float64(hitParts) / float64(len(parts))
		}
		descBonus := 0.1 * float64(hitDesc)
		if descBonus > 0.2 {
			descBonus = 0.2
		}
		score += descBonus

		switch entity.Kind {
		case catalog.KindTable:
			score += 0.1
		case catalog.KindColumn:
			score += 0.05
		}
		if prior != nil && prior.Contains(entity.Name) {
			score += 0.25
		}

		matched = append(matched, scored{entity: entity, score: score})
		for _, term := range terms {
			trace = append(trace, MatchTrace{Term: term, Entity: entity.Name, Score: score})
		}
	}
	return matched, trace
}

// checkAmbiguity fires when the same prompt term pulls in entities from
// disjoint tables with comparable top scores and no prior scope breaks the
// tie. Multi-table prompts without a shared term are join scopes, not
// ambiguity.
func (r *Resolver) checkAmbiguity(prompt string, snap *catalog.Snapshot, matched []scored, trace []MatchTrace, prior *ResolvedScope) error {
	if prior != nil && len(prior.Entities) > 0 {
		return nil
	}

	groups := map[string]float64{}
	for _, m := range matched {
		table := snap.TableOf(m.entity)
		if m.score > groups[table] {
			groups[table] = m.score
		}
	}
	if len(groups) < 2 {
		return nil
	}

	termTables := map[string]map[string]bool{}
	for _, t := range trace {
		entity, ok := snap.Find(t.Entity)
		if !ok {
			continue
		}
		table := snap.TableOf(entity)
		if termTables[t.Term] == nil {
			termTables[t.Term] = map[string]bool{}
		}
		termTables[t.Term][table] = true
	}

	for term, tables := range termTables {
		if len(tables) < 2 {
			continue
		}
		scores := make([]float64, 0, len(tables))
		names := make([]string, 0, len(tables))
		for table := range tables {
			scores = append(scores, groups[table])
			names = append(names, table)
		}
		sort.Sort(sort.Reverse(sort.Float64Slice(scores)))
		if scores[0]-scores[1] <= r.ambiguityMargin {
			sort.Strings(names)
			r.logger.Printf("[RESOLVER] Ambiguous term %q spans tables %v", term, names)
			return &qerr.AmbiguousScopeError{Prompt: prompt, Candidates: names}
		}
	}
	return nil
}

// topicChanged decides whether a referential cue is overridden by an
// apparently new topic: the prompt names at least two entities from tables
// outside the prior scope and none of the prior scope's tables at all.
func (r *Resolver) topicChanged(snap *catalog.Snapshot, fresh []catalog.SchemaEntity, prior *ResolvedScope) bool {
	priorTables := map[string]bool{}
	for _, e := range prior.Entities {
		priorTables[snap.TableOf(e)] = true
	}

	var outside int
	for _, e := range fresh {
		if priorTables[snap.TableOf(e)] {
			return false
		}
		outside++
	}
	return outside >= 2
}

func entitiesOf(matched []scored) []catalog.SchemaEntity {
	out := make([]catalog.SchemaEntity, len(matched))
	for i, m := range matched {
		out[i] = m.entity
	}
	return out
}

// keepTrace drops trace entries for candidates that fell below the floor.
func keepTrace(trace []MatchTrace, matched []scored) []MatchTrace {
	kept := map[string]bool{}
	for _, m := range matched {
		kept[m.entity.Name] = true
	}
	var out []MatchTrace
	for _, t := range trace {
		if kept[t.Entity] {
			out = append(out, t)
		}
	}
	return out
}

func topScore(matched []scored) float64 {
	var best float64
	for _, m := range matched {
		if m.score > best {
			best = m.score
		}
	}
	if best > 1 {
		best = 1
	}
	return best
}

func unionScope(prior, fresh []catalog.SchemaEntity) []catalog.SchemaEntity {
	out := append([]catalog.SchemaEntity(nil), prior...)
	have := map[string]bool{}
	for _, e := range prior {
		have[e.Name] = true
	}
	for _, e := range fresh {
		if !have[e.Name] {
			out = append(out, e)
			have[e.Name] = true
		}
	}
	return out
}

// sortEntities keeps scope ordering deterministic: tables first, then
// columns, then relationships, alphabetical within each kind.
func sortEntities(entities []catalog.SchemaEntity) {
	rank := map[catalog.EntityKind]int{
		catalog.KindTable:        0,
		catalog.KindColumn:       1,
		catalog.KindRelationship: 2,
	}
	sort.SliceStable(entities, func(i, j int) bool {
		if rank[entities[i].Kind] != rank[entities[j].Kind] {
			return rank[entities[i].Kind] < rank[entities[j].Kind]
		}
		return entities[i].Name < entities[j].Name
	})
}
