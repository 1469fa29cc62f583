package knowledge

import (
	"context"
	"fmt"
	"math"

	"github.com/folio-agent/server/internal/agent/model"
	logx "github.com/folio-agent/server/pkg/logger"
)

// Retriever returns the top-k knowledge-base passages for a query, ordered
// by descending similarity.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]model.RetrievedChunk, error)
}

// VectorRetriever composes an Embedder with a VectorSearcher.
type VectorRetriever struct {
	embedder Embedder
	searcher VectorSearcher
}

// NewVectorRetriever wires the embedding and search collaborators together.
func NewVectorRetriever(embedder Embedder, searcher VectorSearcher) (*VectorRetriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is nil")
	}
	if searcher == nil {
		return nil, fmt.Errorf("vector searcher is nil")
	}
	return &VectorRetriever{embedder: embedder, searcher: searcher}, nil
}

// Retrieve embeds the query and maps raw hits into domain chunks. Scores are
// clamped into [0, 1] so the grounding gate can rely on the range.
func (r *VectorRetriever) Retrieve(ctx context.Context, query string, topK int) ([]model.RetrievedChunk, error) {
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	points, err := r.searcher.Search(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	chunks := make([]model.RetrievedChunk, 0, len(points))
	for _, p := range points {
		content, _ := p.Payload["content"].(string)
		if content == "" {
			logx.Warn().Str("point_id", p.ID).Msg("Skipping hit without content payload")
			continue
		}
		sourceID, _ := p.Payload["source_id"].(string)
		if sourceID == "" {
			sourceID = p.ID
		}
		chunks = append(chunks, model.RetrievedChunk{
			Content:  content,
			SourceID: sourceID,
			Score:    clampScore(p.Score),
		})
	}
	return chunks, nil
}

func clampScore(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

var _ Retriever = (*VectorRetriever)(nil)
