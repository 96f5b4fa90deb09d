package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"dbquery-be/pkg/copilot/aggregate"
	"dbquery-be/pkg/copilot/gateway"
	"dbquery-be/pkg/copilot/query"
	"dbquery-be/pkg/copilot/resolver"
)

// Mode selects the execution backend for a session.
type Mode string

const (
	ModeDemo Mode = "demo"
	ModeLive Mode = "live"
)

func (m Mode) Valid() bool {
	return m == ModeDemo || m == ModeLive
}

// Turn is one completed prompt/answer exchange. Turns are appended only
// after the whole pipeline succeeds, so history never contains half-finished
// state.
type Turn struct {
	ID        string                  `json:"id"`
	Prompt    string                  `json:"prompt"`
	Scope     *resolver.ResolvedScope `json:"scope,omitempty"`
	Query     *query.StructuredQuery  `json:"query,omitempty"`
	Answer    *aggregate.Answer       `json:"answer"`
	CreatedAt time.Time               `json:"created_at"`
}

// Context is one conversation. All methods are safe for concurrent use;
// turn ordering within a session is enforced one level up by the service.
type Context struct {
	ID        string
	CreatedAt time.Time

	mu     sync.RWMutex
	mode   Mode
	turns  []*Turn
	pinned map[string]bool
}

func NewContext(mode Mode) *Context {
	return &Context{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		mode:      mode,
		pinned:    map[string]bool{},
	}
}

func (c *Context) Mode() Mode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}

// AppendTurn records a completed exchange.
func (c *Context) AppendTurn(prompt string, scope *resolver.ResolvedScope, q *query.StructuredQuery, answer *aggregate.Answer) *Turn {
	turn := &Turn{
		ID:        uuid.NewString(),
		Prompt:    prompt,
		Scope:     scope,
		Query:     q,
		Answer:    answer,
		CreatedAt: time.Now().UTC(),
	}
	c.mu.Lock()
	c.turns = append(c.turns, turn)
	c.mu.Unlock()
	return turn
}

// LastTurn returns the most recent turn, or nil on a fresh session.
func (c *Context) LastTurn() *Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.turns) == 0 {
		return nil
	}
	return c.turns[len(c.turns)-1]
}

// Turns returns a copy of the transcript.
func (c *Context) Turns() []*Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*Turn(nil), c.turns...)
}

// Pin marks an answer as a kept insight. Pinning twice is a no-op; pinning
// an answer the session never produced reports false.
func (c *Context) Pin(answerID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.turns {
		if t.Answer != nil && t.Answer.ID == answerID {
			c.pinned[answerID] = true
			return true
		}
	}
	return false
}

// Pinned returns the pinned turns in transcript order.
func (c *Context) Pinned() []*Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []*Turn
	for _, t := range c.turns {
		if t.Answer != nil && c.pinned[t.Answer.ID] {
			out = append(out, t)
		}
	}
	return out
}

// SwitchMode changes the backend and clears the transcript: scope carry
// across different backends would silently mix datasets. Switching to the
// current mode keeps everything.
func (c *Context) SwitchMode(mode Mode) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if mode == c.mode {
		return false
	}
	c.mode = mode
	c.turns = nil
	c.pinned = map[string]bool{}
	return true
}

// Export is the serializable session transcript.
type Export struct {
	SessionID  string       `json:"session_id"`
	Mode       Mode         `json:"mode"`
	ExportedAt time.Time    `json:"exported_at"`
	Turns      []ExportTurn `json:"turns"`
}

// ExportTurn carries enough of the answer to render a slide without
// re-querying: the table, the narrative and the visualization hints.
type ExportTurn struct {
	Prompt    string                        `json:"prompt"`
	Narrative string                        `json:"narrative"`
	Rationale string                        `json:"rationale,omitempty"`
	Plan      string                        `json:"plan,omitempty"`
	Result    *gateway.ResultSet            `json:"result,omitempty"`
	Hints     []aggregate.VisualizationHint `json:"hints,omitempty"`
	Pinned    bool                          `json:"pinned"`
	CreatedAt time.Time                     `json:"created_at"`
}

// Exportable renders the transcript for export. pinnedOnly keeps just the
// pinned insights.
func (c *Context) Exportable(pinnedOnly bool) *Export {
	c.mu.RLock()
	defer c.mu.RUnlock()

	export := &Export{
		SessionID:  c.ID,
		Mode:       c.mode,
		ExportedAt: time.Now().UTC(),
	}
	for _, t := range c.turns {
		pinned := t.Answer != nil && c.pinned[t.Answer.ID]
		if pinnedOnly && !pinned {
			continue
		}
		et := ExportTurn{
			Prompt:    t.Prompt,
			Pinned:    pinned,
			CreatedAt: t.CreatedAt,
		}
		if t.Answer != nil {
			et.Narrative = t.Answer.Narrative
			et.Rationale = t.Answer.Rationale
			et.Result = t.Answer.Result
			et.Hints = t.Answer.Hints
		}
		if t.Query != nil {
			et.Plan = t.Query.String()
		}
		export.Turns = append(export.Turns, et)
	}
	return export
}
