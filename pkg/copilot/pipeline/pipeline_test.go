package pipeline

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"dbquery-be/pkg/copilot/aggregate"
	"dbquery-be/pkg/copilot/catalog"
	"dbquery-be/pkg/copilot/gateway"
	"dbquery-be/pkg/copilot/grounding"
	"dbquery-be/pkg/copilot/qerr"
	"dbquery-be/pkg/copilot/query"
	"dbquery-be/pkg/copilot/resolver"
	"dbquery-be/pkg/copilot/session"
)

func demoExecutor() *Executor {
	logger := log.New(os.Stderr, "[test] ", log.LstdFlags)
	cat := catalog.NewStaticCatalog(catalog.DemoSnapshot())
	return NewExecutor(
		resolver.NewResolver(cat, logger),
		query.NewSynthesizer(cat, logger),
		gateway.NewGateway(gateway.NewDemoBackend(), gateway.Config{DisplayCap: 50, RetryBackoff: time.Millisecond}, logger),
		grounding.NewGrounder(grounding.NewDemoRetriever(), grounding.DefaultConfig(), logger),
		aggregate.NewAggregator(logger),
		logger,
	)
}

func TestRankedPromptWithFollowUp(t *testing.T) {
	e := demoExecutor()
	sess := session.NewContext(session.ModeDemo)

	answer, err := e.Execute(context.Background(), sess, "Show top 5 vendors in US by on-time delivery rate")
	if err != nil {
		t.Fatalf("first turn: %v", err)
	}
	if answer.Result == nil || len(answer.Result.Rows) != 5 {
		t.Fatalf("expected exactly 5 ranked rows, got %+v", answer.Result)
	}
	if len(answer.Passages) != 0 {
		t.Errorf("data answer carries %d passages, want none", len(answer.Passages))
	}
	if answer.Result.Meta.Backend != "demo" {
		t.Errorf("backend = %s, want demo", answer.Result.Meta.Backend)
	}

	followUp, err := e.Execute(context.Background(), sess, "Now break this down by product category")
	if err != nil {
		t.Fatalf("follow-up turn: %v", err)
	}
	last := sess.LastTurn()
	if last.Query.Kind != query.OpAggregate {
		t.Errorf("follow-up kind = %s, want aggregate", last.Query.Kind)
	}
	if !last.Query.HasPredicate("country") {
		t.Error("follow-up should keep the country filter from the first turn")
	}
	if !strings.Contains(followUp.Narrative, "product category") {
		t.Errorf("narrative = %q, want the grouping named", followUp.Narrative)
	}
	if len(sess.Turns()) != 2 {
		t.Errorf("session has %d turns, want 2", len(sess.Turns()))
	}
}

func TestDefinitionalPromptBypassesGateway(t *testing.T) {
	e := demoExecutor()
	sess := session.NewContext(session.ModeDemo)

	answer, err := e.Execute(context.Background(), sess, "What is OTIF?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer.Class != aggregate.ClassDefinitional {
		t.Errorf("class = %s, want definitional", answer.Class)
	}
	if answer.Result != nil {
		t.Error("definitional answer should not run the gateway")
	}
	if len(answer.Passages) == 0 {
		t.Error("definitional answer should carry passages")
	}
}

func TestTracePrompt(t *testing.T) {
	e := demoExecutor()
	sess := session.NewContext(session.ModeDemo)

	answer, err := e.Execute(context.Background(), sess, "Trace batch B2025001 from vendor to hospital")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.LastTurn().Query.Kind != query.OpTrace {
		t.Errorf("kind = %s, want trace", sess.LastTurn().Query.Kind)
	}
	if !strings.Contains(answer.Narrative, "B2025001") {
		t.Errorf("narrative = %q, want the batch named", answer.Narrative)
	}
	if answer.Hints[0].Kind != aggregate.HintTrace {
		t.Errorf("hint = %s, want trace", answer.Hints[0].Kind)
	}
}

func TestFailedTurnLeavesSessionUntouched(t *testing.T) {
	e := demoExecutor()
	sess := session.NewContext(session.ModeDemo)

	_, err := e.Execute(context.Background(), sess, "what is the meaning of life")
	var noMatch *qerr.NoMatchError
	if !errors.As(err, &noMatch) {
		t.Fatalf("expected NoMatchError, got %v", err)
	}
	if len(sess.Turns()) != 0 {
		t.Error("a failed turn must not be appended to the session")
	}

	_, err = e.Execute(context.Background(), sess, "Delete all quarantined batches")
	var unsupported *qerr.UnsupportedOperationError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedOperationError, got %v", err)
	}
	if len(sess.Turns()) != 0 {
		t.Error("a rejected operation must not be appended to the session")
	}
}

func TestDemoSessionReplaysIdentically(t *testing.T) {
	prompts := []string{
		"Show top 5 vendors in US by on-time delivery rate",
		"Now break this down by product category",
		"How many batches are quarantined",
	}

	run := func() []string {
		e := demoExecutor()
		sess := session.NewContext(session.ModeDemo)
		var narratives []string
		for _, p := range prompts {
			answer, err := e.Execute(context.Background(), sess, p)
			if err != nil {
				t.Fatalf("prompt %q: %v", p, err)
			}
			narratives = append(narratives, answer.Narrative)
		}
		return narratives
	}

	first := run()
	for i := 0; i < 3; i++ {
		again := run()
		for j := range first {
			if first[j] != again[j] {
				t.Fatalf("replay %d narrative %d differs:\n%s\n%s", i, j, first[j], again[j])
			}
		}
	}
}
