package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	errx "github.com/folio-agent/server/internal/core/error"
	logx "github.com/folio-agent/server/pkg/logger"
)

// AnalyticsSink receives structured per-turn records. Writes are best-effort:
// the pipeline logs failures and never lets them affect the turn.
type AnalyticsSink interface {
	Record(ctx context.Context, event map[string]any) error
}

const defaultAnalyticsStream = "analytics:turns"

// RedisAnalyticsSink appends turn records to a Redis stream, from which the
// reporting layer (out of scope here) consumes them.
type RedisAnalyticsSink struct {
	rdb    redis.Cmdable
	stream string
}

func NewRedisAnalyticsSink(rdb redis.Cmdable, stream string) *RedisAnalyticsSink {
	if stream == "" {
		stream = defaultAnalyticsStream
	}
	return &RedisAnalyticsSink{rdb: rdb, stream: stream}
}

// Record writes one event. Nested values are flattened to JSON strings since
// stream fields are scalar.
func (s *RedisAnalyticsSink) Record(ctx context.Context, event map[string]any) error {
	values := make(map[string]any, len(event))
	for k, v := range event {
		switch v.(type) {
		case string, bool, int, int64, float64:
			values[k] = v
		default:
			b, err := json.Marshal(v)
			if err != nil {
				values[k] = fmt.Sprint(v)
				continue
			}
			values[k] = string(b)
		}
	}

	err := s.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: values,
	}).Err()
	if err != nil {
		logx.Warn().Err(err).Str("stream", s.stream).Msg("failed to append analytics record")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ AnalyticsSink = (*RedisAnalyticsSink)(nil)
