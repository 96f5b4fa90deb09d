package grounding

import (
	"context"
	"log"
	"sort"
	"time"
)

// Passage is one retrieved grounding snippet with its relevance score in
// [0, 1].
type Passage struct {
	DocumentID string  `json:"document_id"`
	Source     string  `json:"source"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

// Retriever finds passages relevant to a prompt.
type Retriever interface {
	Retrieve(ctx context.Context, prompt string, topK int) ([]Passage, error)
}

// Config bounds retrieval. MinScore is the relevance floor: passages below
// it are dropped rather than padded into the answer. Timeout caps how long
// an answer waits on grounding.
type Config struct {
	TopK     int
	MinScore float64
	Timeout  time.Duration
}

func DefaultConfig() Config {
	return Config{
		TopK:     4,
		MinScore: 0.35,
		Timeout:  3 * time.Second,
	}
}

// Grounder wraps a retriever with the relevance floor and a bounded wait.
// Grounding is best-effort: failures and timeouts degrade to an ungrounded
// answer instead of failing the turn.
type Grounder struct {
	retriever Retriever
	config    Config
	logger    *log.Logger
}

func NewGrounder(retriever Retriever, config Config, logger *log.Logger) *Grounder {
	if config.TopK <= 0 {
		config.TopK = DefaultConfig().TopK
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	return &Grounder{retriever: retriever, config: config, logger: logger}
}

// Ground retrieves, floors and ranks passages for a prompt.
func (g *Grounder) Ground(ctx context.Context, prompt string) []Passage {
	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	passages, err := g.retriever.Retrieve(ctx, prompt, g.config.TopK)
	if err != nil {
		g.logger.Printf("[GROUND] Retrieval failed, answering ungrounded: %v", err)
		return nil
	}

	kept := passages[:0]
	for _, p := range passages {
		if p.Score >= g.config.MinScore {
			kept = append(kept, p)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Score > kept[j].Score })
	if len(kept) > g.config.TopK {
		kept = kept[:g.config.TopK]
	}
	g.logger.Printf("[GROUND] %d passages above floor %.2f", len(kept), g.config.MinScore)
	return kept
}
