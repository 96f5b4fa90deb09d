package pipeline

import (
	"context"
	"log"

	"dbquery-be/pkg/copilot/aggregate"
	"dbquery-be/pkg/copilot/gateway"
	"dbquery-be/pkg/copilot/grounding"
	"dbquery-be/pkg/copilot/query"
	"dbquery-be/pkg/copilot/resolver"
	"dbquery-be/pkg/copilot/session"
)

// Executor chains the per-turn phases: classify, resolve, synthesize,
// execute with grounding in parallel, aggregate. A turn is appended to the
// session only when every phase succeeds, so a failed turn never pollutes
// scope carry.
type Executor struct {
	resolver    *resolver.Resolver
	synthesizer *query.Synthesizer
	gateway     *gateway.Gateway
	grounder    *grounding.Grounder
	aggregator  *aggregate.Aggregator
	logger      *log.Logger
}

func NewExecutor(
	res *resolver.Resolver,
	synth *query.Synthesizer,
	gw *gateway.Gateway,
	grounder *grounding.Grounder,
	agg *aggregate.Aggregator,
	logger *log.Logger,
) *Executor {
	return &Executor{
		resolver:    res,
		synthesizer: synth,
		gateway:     gw,
		grounder:    grounder,
		aggregator:  agg,
		logger:      logger,
	}
}

// Execute runs one turn against a session.
func (e *Executor) Execute(ctx context.Context, sess *session.Context, prompt string) (*aggregate.Answer, error) {
	e.logger.Printf("[PHASE 0] Classifying prompt: %s", truncate(prompt, 80))

	if aggregate.ClassifyPrompt(prompt) == aggregate.ClassDefinitional {
		passages := e.grounder.Ground(ctx, prompt)
		answer, err := e.aggregator.ComposeDefinitional(prompt, passages)
		if err != nil {
			return nil, err
		}
		sess.AppendTurn(prompt, nil, nil, answer)
		return answer, nil
	}

	var priorScope *resolver.ResolvedScope
	var priorQuery *query.StructuredQuery
	if last := sess.LastTurn(); last != nil {
		priorScope = last.Scope
		priorQuery = last.Query
	}

	e.logger.Printf("[PHASE 1] Resolving schema scope")
	scope, err := e.resolver.Resolve(prompt, priorScope)
	if err != nil {
		return nil, err
	}

	e.logger.Printf("[PHASE 2] Synthesizing query over %d scope entities", len(scope.Entities))
	q, rationale, err := e.synthesizer.Synthesize(prompt, scope, priorQuery)
	if err != nil {
		return nil, err
	}

	e.logger.Printf("[PHASE 3] Executing on %s, grounding in parallel", e.gateway.Backend())
	passagesCh := make(chan []grounding.Passage, 1)
	go func() {
		passagesCh <- e.grounder.Ground(ctx, prompt)
	}()

	result, execErr := e.gateway.Execute(ctx, q)
	passages := <-passagesCh
	if execErr != nil {
		return nil, execErr
	}

	e.logger.Printf("[PHASE 4] Aggregating %d rows with %d passages", len(result.Rows), len(passages))
	answer, err := e.aggregator.Compose(prompt, q, result, passages, rationale)
	if err != nil {
		return nil, err
	}

	sess.AppendTurn(prompt, scope, q, answer)
	return answer, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
