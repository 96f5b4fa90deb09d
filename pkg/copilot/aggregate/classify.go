package aggregate

import "strings"

// PromptClass splits prompts between the two answer paths: data questions
// run through the gateway, definitional questions are answered from the
// grounding corpus alone.
type PromptClass string

const (
	ClassData         PromptClass = "data"
	ClassDefinitional PromptClass = "definitional"
)

var definitionalLeads = []string{
	"what is", "what are", "what does", "whats ", "what's",
	"define", "definition of", "explain", "meaning of",
	"how is", "how are", "why ",
}

var dataMarkers = []string{
	"show", "list", "top ", "bottom ", "count", "how many",
	"average", "avg", "total", "sum", "trace", "track",
	"per ", "group", "rank", "filter", "compare",
}

// ClassifyPrompt is a lead-phrase heuristic: a definitional opener wins
// unless the prompt also carries a data marker ("what is the average...").
func ClassifyPrompt(prompt string) PromptClass {
	lower := strings.ToLower(strings.TrimSpace(prompt))

	definitional := false
	for _, lead := range definitionalLeads {
		if strings.HasPrefix(lower, lead) {
			definitional = true
			break
		}
	}
	if !definitional {
		return ClassData
	}
	for _, marker := range dataMarkers {
		if strings.Contains(lower, marker) {
			return ClassData
		}
	}
	return ClassDefinitional
}
