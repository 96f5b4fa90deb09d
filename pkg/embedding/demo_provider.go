package embedding

import (
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

const demoDimensions = 768

// DemoProvider produces deterministic embeddings without calling any
// external API. Each token is hashed into a handful of dimensions and
// the resulting vector is L2-normalized, so identical text always maps
// to an identical vector and lexically similar texts land close to each
// other. Good enough for local development and replayable tests.
type DemoProvider struct{}

func NewDemoProvider() *DemoProvider {
	return &DemoProvider{}
}

func (p *DemoProvider) Generate(text string, taskType string) (*EmbeddingResponse, error) {
	values := make([]float32, demoDimensions)

	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	for _, tok := range tokens {
		h := fnv.New64a()
		h.Write([]byte(tok))
		seed := h.Sum64()

		// Spread each token across four dimensions with alternating sign.
		for i := 0; i < 4; i++ {
			idx := int((seed >> (i * 16)) % demoDimensions)
			sign := float32(1)
			if (seed>>(i*16+7))&1 == 1 {
				sign = -1
			}
			values[idx] += sign
		}
	}

	var norm float64
	for _, v := range values {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range values {
			values[i] *= scale
		}
	}

	return &EmbeddingResponse{
		Embedding: EmbeddingResponseEmbedding{Values: values},
	}, nil
}
