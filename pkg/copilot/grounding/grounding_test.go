package grounding

import (
	"context"
	"errors"
	"log"
	"os"
	"reflect"
	"testing"
	"time"
)

func testLogger() *log.Logger {
	return log.New(os.Stderr, "[test] ", log.LstdFlags)
}

func TestDemoRetrieveRanksByCoverage(t *testing.T) {
	r := NewDemoRetriever()

	passages, err := r.Retrieve(context.Background(), "What does OTIF mean?", 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(passages) == 0 {
		t.Fatal("expected at least one passage")
	}
	if passages[0].DocumentID != "DOC001" {
		t.Errorf("top passage = %s, want DOC001 (the OTIF definition)", passages[0].DocumentID)
	}
	for i := 1; i < len(passages); i++ {
		if passages[i].Score > passages[i-1].Score {
			t.Fatal("passages not sorted by score")
		}
	}
}

func TestDemoRetrieveIsDeterministic(t *testing.T) {
	r := NewDemoRetriever()
	prompt := "on-time delivery rate for vendors"

	first, err := r.Retrieve(context.Background(), prompt, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := r.Retrieve(context.Background(), prompt, 4)
		if err != nil {
			t.Fatalf("replay %d: %v", i, err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("replay %d differs", i)
		}
	}
}

func TestGrounderAppliesRelevanceFloor(t *testing.T) {
	fixed := retrieverFunc(func(ctx context.Context, prompt string, topK int) ([]Passage, error) {
		return []Passage{
			{DocumentID: "A", Score: 0.9},
			{DocumentID: "B", Score: 0.2},
			{DocumentID: "C", Score: 0.5},
		}, nil
	})
	g := NewGrounder(fixed, Config{TopK: 4, MinScore: 0.35, Timeout: time.Second}, testLogger())

	passages := g.Ground(context.Background(), "anything")
	if len(passages) != 2 {
		t.Fatalf("got %d passages, want 2 above the floor", len(passages))
	}
	if passages[0].DocumentID != "A" || passages[1].DocumentID != "C" {
		t.Errorf("got %v, want [A C] sorted by score", passages)
	}
}

func TestGrounderDegradesOnFailure(t *testing.T) {
	failing := retrieverFunc(func(ctx context.Context, prompt string, topK int) ([]Passage, error) {
		return nil, errors.New("store down")
	})
	g := NewGrounder(failing, DefaultConfig(), testLogger())

	if passages := g.Ground(context.Background(), "anything"); passages != nil {
		t.Errorf("expected ungrounded answer on failure, got %v", passages)
	}
}

func TestGrounderBoundsWait(t *testing.T) {
	slow := retrieverFunc(func(ctx context.Context, prompt string, topK int) ([]Passage, error) {
		select {
		case <-time.After(5 * time.Second):
			return []Passage{{DocumentID: "late", Score: 1}}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	g := NewGrounder(slow, Config{TopK: 4, MinScore: 0.1, Timeout: 20 * time.Millisecond}, testLogger())

	start := time.Now()
	passages := g.Ground(context.Background(), "anything")
	if passages != nil {
		t.Errorf("expected no passages from a timed-out retriever, got %v", passages)
	}
	if time.Since(start) > time.Second {
		t.Error("grounding did not respect its timeout")
	}
}

type retrieverFunc func(ctx context.Context, prompt string, topK int) ([]Passage, error)

func (f retrieverFunc) Retrieve(ctx context.Context, prompt string, topK int) ([]Passage, error) {
	return f(ctx, prompt, topK)
}
