package session

import (
	"testing"

	"dbquery-be/pkg/copilot/aggregate"
	"dbquery-be/pkg/copilot/gateway"
)

func answerWithID(id string) *aggregate.Answer {
	return &aggregate.Answer{ID: id, Narrative: "narrative for " + id}
}

func answerWithResult(id string) *aggregate.Answer {
	return &aggregate.Answer{
		ID:        id,
		Narrative: "narrative for " + id,
		Result: &gateway.ResultSet{
			Columns:  []gateway.Column{{Name: "vendor_id", Type: gateway.FieldString}},
			Rows:     [][]any{{"V001"}},
			RowCount: 1,
		},
		Hints: []aggregate.VisualizationHint{{Kind: aggregate.HintTable}},
	}
}

func TestAppendAndLastTurn(t *testing.T) {
	c := NewContext(ModeDemo)
	if c.LastTurn() != nil {
		t.Fatal("fresh session should have no turns")
	}

	c.AppendTurn("first", nil, nil, answerWithID("a1"))
	c.AppendTurn("second", nil, nil, answerWithID("a2"))

	last := c.LastTurn()
	if last == nil || last.Prompt != "second" {
		t.Fatalf("last turn = %+v, want the second prompt", last)
	}
	if len(c.Turns()) != 2 {
		t.Errorf("got %d turns, want 2", len(c.Turns()))
	}
}

func TestPinIsIdempotent(t *testing.T) {
	c := NewContext(ModeDemo)
	c.AppendTurn("q", nil, nil, answerWithID("a1"))

	if !c.Pin("a1") {
		t.Fatal("pinning an existing answer should succeed")
	}
	if !c.Pin("a1") {
		t.Fatal("re-pinning should stay a successful no-op")
	}
	if got := len(c.Pinned()); got != 1 {
		t.Errorf("got %d pinned turns, want 1", got)
	}
	if c.Pin("unknown") {
		t.Error("pinning an answer from another session should fail")
	}
}

func TestSwitchModeClearsHistory(t *testing.T) {
	c := NewContext(ModeDemo)
	c.AppendTurn("q", nil, nil, answerWithID("a1"))
	c.Pin("a1")

	if c.SwitchMode(ModeDemo) {
		t.Error("switching to the current mode should be a no-op")
	}
	if len(c.Turns()) != 1 {
		t.Fatal("no-op switch must keep the transcript")
	}

	if !c.SwitchMode(ModeLive) {
		t.Fatal("expected a real mode switch")
	}
	if c.Mode() != ModeLive {
		t.Errorf("mode = %s, want live", c.Mode())
	}
	if len(c.Turns()) != 0 || len(c.Pinned()) != 0 {
		t.Error("mode switch must clear turns and pins")
	}
}

func TestExportable(t *testing.T) {
	c := NewContext(ModeDemo)
	c.AppendTurn("first", nil, nil, answerWithID("a1"))
	c.AppendTurn("second", nil, nil, answerWithResult("a2"))
	c.Pin("a2")

	full := c.Exportable(false)
	if len(full.Turns) != 2 {
		t.Fatalf("full export has %d turns, want 2", len(full.Turns))
	}
	if full.Turns[0].Pinned || !full.Turns[1].Pinned {
		t.Error("pinned flags wrong in full export")
	}

	pinned := c.Exportable(true)
	if len(pinned.Turns) != 1 || pinned.Turns[0].Prompt != "second" {
		t.Fatalf("pinned export = %+v, want only the second turn", pinned.Turns)
	}
	if pinned.SessionID != c.ID || pinned.Mode != ModeDemo {
		t.Error("export should carry session metadata")
	}
	if pinned.Turns[0].Result == nil || len(pinned.Turns[0].Result.Rows) != 1 {
		t.Error("export should carry the tabular result")
	}
	if len(pinned.Turns[0].Hints) == 0 || pinned.Turns[0].Hints[0].Kind != aggregate.HintTable {
		t.Error("export should carry the visualization hints")
	}
}
