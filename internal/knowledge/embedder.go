package knowledge

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	logx "github.com/folio-agent/server/pkg/logger"
)

// Embedder turns a piece of text into a dense vector for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// GeminiEmbedder produces embeddings with the Gemini embedding models,
// sharing the genai client used by the chat model.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

// NewGeminiEmbedder creates an embedder bound to the given embedding model.
func NewGeminiEmbedder(client *genai.Client, model string) (*GeminiEmbedder, error) {
	if client == nil {
		return nil, fmt.Errorf("genai client is nil")
	}
	if model == "" {
		model = "text-embedding-004"
	}
	return &GeminiEmbedder{client: client, model: model}, nil
}

// Embed generates a single embedding for the query text.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Models.EmbedContent(ctx, e.model, genai.Text(text), &genai.EmbedContentConfig{
		TaskType: "RETRIEVAL_QUERY",
	})
	if err != nil {
		logx.Error().Err(err).Str("model", e.model).Msg("Embedding request failed")
		return nil, fmt.Errorf("embed content: %w", err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, fmt.Errorf("embed content: empty response")
	}
	values := resp.Embeddings[0].Values
	if len(values) == 0 {
		return nil, fmt.Errorf("embed content: empty vector")
	}
	return values, nil
}

var _ Embedder = (*GeminiEmbedder)(nil)
