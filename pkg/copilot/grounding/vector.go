package grounding

import (
	"context"
	"fmt"

	"dbquery-be/pkg/embedding"
)

// SimilarChunk is one embedding-store hit with its cosine similarity.
type SimilarChunk struct {
	DocumentID string
	Source     string
	Chunk      string
	Similarity float64
}

// VectorSearcher is the embedding store read surface, implemented by the
// document embedding repository.
type VectorSearcher interface {
	SearchSimilarWithScore(ctx context.Context, vector []float32, limit int, minScore float64) ([]SimilarChunk, error)
}

// VectorRetriever embeds the prompt and searches the pgvector corpus.
type VectorRetriever struct {
	provider embedding.EmbeddingProvider
	searcher VectorSearcher
	minScore float64
}

func NewVectorRetriever(provider embedding.EmbeddingProvider, searcher VectorSearcher, minScore float64) *VectorRetriever {
	return &VectorRetriever{provider: provider, searcher: searcher, minScore: minScore}
}

func (r *VectorRetriever) Retrieve(ctx context.Context, prompt string, topK int) ([]Passage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := r.provider.Generate(prompt, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, fmt.Errorf("embed prompt: %w", err)
	}

	chunks, err := r.searcher.SearchSimilarWithScore(ctx, res.Embedding.Values, topK, r.minScore)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	passages := make([]Passage, len(chunks))
	for i, c := range chunks {
		passages[i] = Passage{
			DocumentID: c.DocumentID,
			Source:     c.Source,
			Text:       c.Chunk,
			Score:      c.Similarity,
		}
	}
	return passages, nil
}
