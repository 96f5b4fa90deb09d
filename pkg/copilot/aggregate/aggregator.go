package aggregate

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"dbquery-be/pkg/copilot/gateway"
	"dbquery-be/pkg/copilot/grounding"
	"dbquery-be/pkg/copilot/qerr"
	"dbquery-be/pkg/copilot/query"
)

// Aggregator merges the gateway result with grounding passages into the
// final answer.
type Aggregator struct {
	logger *log.Logger
}

func NewAggregator(logger *log.Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

// Compose builds the answer for a data prompt. An empty result is a no
// match, not an empty answer. Grounding passages never ride on a data
// answer; document text surfaces only through the definitional path.
func (a *Aggregator) Compose(prompt string, q *query.StructuredQuery, result *gateway.ResultSet, passages []grounding.Passage, rationale string) (*Answer, error) {
	if result.Empty() {
		return nil, &qerr.NoMatchError{Prompt: prompt}
	}

	answer := &Answer{
		ID:        uuid.NewString(),
		Prompt:    prompt,
		Class:     ClassData,
		Result:    result,
		Narrative: narrate(q, result),
		Hints:     hints(q, result),
		Rationale: rationale,
		CreatedAt: time.Now().UTC(),
	}
	a.logger.Printf("[AGGREGATE] Answer %s: %d rows, dropped %d passages", answer.ID, len(result.Rows), len(passages))
	return answer, nil
}

// ComposeDefinitional answers a glossary question straight from the
// grounding corpus. No passage above the floor means no match.
func (a *Aggregator) ComposeDefinitional(prompt string, passages []grounding.Passage) (*Answer, error) {
	if len(passages) == 0 {
		return nil, &qerr.NoMatchError{Prompt: prompt}
	}

	top := passages[0]
	answer := &Answer{
		ID:        uuid.NewString(),
		Prompt:    prompt,
		Class:     ClassDefinitional,
		Narrative: fmt.Sprintf("%s (source: %s)", top.Text, top.Source),
		Passages:  passages,
		Hints:     []VisualizationHint{{Kind: HintText}},
		CreatedAt: time.Now().UTC(),
	}
	a.logger.Printf("[AGGREGATE] Definitional answer %s from %s", answer.ID, top.Source)
	return answer, nil
}

// narrate renders a one-paragraph deterministic summary of the result.
func narrate(q *query.StructuredQuery, result *gateway.ResultSet) string {
	switch {
	case q.Kind == query.OpTrace:
		last := result.Rows[len(result.Rows)-1]
		site := ""
		if idx := result.ColumnIndex("site"); idx >= 0 {
			site = fmt.Sprintf("%v", last[idx])
		}
		return fmt.Sprintf("Batch %s moved through %d steps, most recently reaching %s.",
			q.TraceKey, len(result.Rows), site)

	case q.Agg == query.AggCount && len(q.GroupBy) == 0:
		n := result.Rows[0][0]
		return fmt.Sprintf("Found %v matching %s%s.", n, q.Table, predicateClause(q))

	case q.Agg != query.AggNone && len(q.GroupBy) > 0:
		target := string(q.Agg)
		if len(q.Targets) > 0 {
			target = fmt.Sprintf("%s %s", q.Agg, humanize(q.Targets[0]))
		}
		lead := describeLeader(result)
		return fmt.Sprintf("%s by %s across %d groups%s.%s",
			capitalize(target), humanize(strings.Join(q.GroupBy, ", ")), len(result.Rows), predicateClause(q), lead)

	case q.Agg != query.AggNone:
		value := result.Rows[0][len(result.Rows[0])-1]
		target := ""
		if len(q.Targets) > 0 {
			target = " " + humanize(q.Targets[0])
		}
		return fmt.Sprintf("The %s%s is %v%s.", q.Agg, target, value, predicateClause(q))

	default:
		n := len(result.Rows)
		desc := fmt.Sprintf("Showing %d %s%s", n, q.Table, predicateClause(q))
		if result.Truncated {
			desc += fmt.Sprintf(" (of %d total)", result.RowCount)
		}
		if q.OrderBy != nil {
			dir := "ascending"
			if q.OrderBy.Desc {
				dir = "descending"
			}
			desc += fmt.Sprintf(", ranked by %s %s", humanize(q.OrderBy.Field), dir)
		}
		return desc + "." + describeLeader(result)
	}
}

// describeLeader names the first row when the result has a label column and
// a trailing numeric column.
func describeLeader(result *gateway.ResultSet) string {
	if len(result.Rows) == 0 || len(result.Columns) < 2 {
		return ""
	}
	lastCol := len(result.Columns) - 1
	if result.Columns[lastCol].Type != gateway.FieldNumber {
		return ""
	}
	labelIdx := -1
	for i, c := range result.Columns {
		if c.Type != gateway.FieldString {
			continue
		}
		if labelIdx < 0 {
			labelIdx = i
		}
		// A display name beats an identifier.
		if strings.Contains(c.Name, "name") {
			labelIdx = i
			break
		}
	}
	if labelIdx < 0 || labelIdx == lastCol {
		return ""
	}
	first := result.Rows[0]
	return fmt.Sprintf(" %v leads with %v.", first[labelIdx], first[lastCol])
}

func predicateClause(q *query.StructuredQuery) string {
	if len(q.Predicates) == 0 {
		return ""
	}
	parts := make([]string, len(q.Predicates))
	for i, p := range q.Predicates {
		op := p.Op
		if op == "" {
			op = "="
		}
		parts[i] = fmt.Sprintf("%s %s %v", humanize(p.Field), op, p.Value)
	}
	return " where " + strings.Join(parts, " and ")
}

func humanize(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// hints picks the rendering that fits the result shape.
func hints(q *query.StructuredQuery, result *gateway.ResultSet) []VisualizationHint {
	switch {
	case q.Kind == query.OpTrace:
		return []VisualizationHint{{Kind: HintTrace}}

	case q.Agg == query.AggCount && len(q.GroupBy) == 0:
		return []VisualizationHint{{Kind: HintStat, Y: "count"}}

	case len(q.GroupBy) > 0 && len(result.Columns) >= 2:
		return []VisualizationHint{
			{Kind: HintBar, X: result.Columns[0].Name, Y: result.Columns[len(result.Columns)-1].Name},
			{Kind: HintTable},
		}

	case q.OrderBy != nil && len(result.Columns) >= 2 && result.Columns[len(result.Columns)-1].Type == gateway.FieldNumber:
		x := result.Columns[0].Name
		for _, c := range result.Columns {
			if c.Type == gateway.FieldString {
				x = c.Name
				break
			}
		}
		return []VisualizationHint{
			{Kind: HintBar, X: x, Y: result.Columns[len(result.Columns)-1].Name},
			{Kind: HintTable},
		}

	default:
		return []VisualizationHint{{Kind: HintTable}}
	}
}
