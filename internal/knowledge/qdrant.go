package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	errx "github.com/folio-agent/server/internal/core/error"
	logx "github.com/folio-agent/server/pkg/logger"
)

// VectorSearcher runs a nearest-neighbor query against the knowledge base.
// It must be safe to call repeatedly; errors are recovered by the caller's
// grounding gate, never propagated as turn failures.
type VectorSearcher interface {
	Search(ctx context.Context, vector []float32, limit int) ([]ScoredPoint, error)
}

// ScoredPoint is one raw vector-store hit before domain mapping.
type ScoredPoint struct {
	ID      string
	Score   float64
	Payload map[string]any
}

// QdrantConfig configures the Qdrant HTTP client.
type QdrantConfig struct {
	Endpoint   string `envconfig:"QDRANT_ENDPOINT" default:"http://localhost:6333"`
	Collection string `envconfig:"QDRANT_COLLECTION" default:"portfolio_chunks"`
	APIKey     string `envconfig:"QDRANT_API_KEY"`
	TimeoutSec int    `envconfig:"QDRANT_TIMEOUT" default:"10"`
}

// QdrantClient talks to Qdrant's REST search API.
type QdrantClient struct {
	endpoint   string
	collection string
	apiKey     string
	httpClient *http.Client
}

// NewQdrantClient creates the client. No collection management happens here;
// the offline ingestion tooling owns the collection lifecycle.
func NewQdrantClient(cfg QdrantConfig) *QdrantClient {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &QdrantClient{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		collection: cfg.Collection,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type qdrantSearchRequest struct {
	Vector      []float32 `json:"vector"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
}

type qdrantSearchResponse struct {
	Result []struct {
		ID      any            `json:"id"`
		Score   float64        `json:"score"`
		Payload map[string]any `json:"payload"`
	} `json:"result"`
	Status any `json:"status"`
}

// Search runs a top-k similarity query over the configured collection.
func (q *QdrantClient) Search(ctx context.Context, vector []float32, limit int) ([]ScoredPoint, error) {
	if limit <= 0 {
		limit = 4
	}
	reqBody := qdrantSearchRequest{
		Vector:      vector,
		Limit:       limit,
		WithPayload: true,
	}

	var resp qdrantSearchResponse
	path := fmt.Sprintf("/collections/%s/points/search", q.collection)
	if err := q.doRequest(ctx, http.MethodPost, path, reqBody, &resp); err != nil {
		return nil, errx.WrapVector(err)
	}

	points := make([]ScoredPoint, 0, len(resp.Result))
	for _, r := range resp.Result {
		points = append(points, ScoredPoint{
			ID:      fmt.Sprint(r.ID),
			Score:   r.Score,
			Payload: r.Payload,
		})
	}
	logx.Debug().
		Str("collection", q.collection).
		Int("limit", limit).
		Int("hits", len(points)).
		Msg("Qdrant search completed")
	return points, nil
}

// doRequest issues one JSON request/response round-trip against Qdrant.
func (q *QdrantClient) doRequest(ctx context.Context, method, path string, body, result any) error {
	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		payload = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, q.endpoint+path, payload)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}

	res, err := q.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant request: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("qdrant status %d: %s", res.StatusCode, truncate(string(raw), 200))
	}
	if result != nil {
		if err := json.Unmarshal(raw, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

var _ VectorSearcher = (*QdrantClient)(nil)
