package aggregate

import (
	"time"

	"dbquery-be/pkg/copilot/gateway"
	"dbquery-be/pkg/copilot/grounding"
)

// VisualizationHint tells the client which rendering fits the result shape.
type VisualizationHint struct {
	Kind string `json:"kind"`
	X    string `json:"x,omitempty"`
	Y    string `json:"y,omitempty"`
}

const (
	HintTable = "table"
	HintBar   = "bar"
	HintStat  = "stat"
	HintTrace = "trace"
	HintText  = "text"
)

// Answer is the composed outcome of one turn: the tabular result (for data
// prompts), the narrative, grounding passages and rendering hints.
type Answer struct {
	ID        string              `json:"id"`
	Prompt    string              `json:"prompt"`
	Class     PromptClass         `json:"class"`
	Result    *gateway.ResultSet  `json:"result,omitempty"`
	Narrative string              `json:"narrative"`
	Passages  []grounding.Passage `json:"passages,omitempty"`
	Hints     []VisualizationHint `json:"hints"`
	Rationale string              `json:"rationale,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}
