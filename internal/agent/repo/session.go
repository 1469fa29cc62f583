package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"

	"github.com/folio-agent/server/internal/agent/model"
	errx "github.com/folio-agent/server/internal/core/error"
	logx "github.com/folio-agent/server/pkg/logger"
)

// RedisSessionRepository persists session records as JSON values and chat
// history as message lists, with the TTL refreshed on every touch.
type RedisSessionRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisSessionRepository(rdb redis.Cmdable, ttl time.Duration) *RedisSessionRepository {
	return &RedisSessionRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisSessionRepository) recordKey(sessionID string) string {
	return fmt.Sprintf("session:%s:state", sessionID)
}

func (r *RedisSessionRepository) messagesKey(sessionID string) string {
	return fmt.Sprintf("session:%s:messages", sessionID)
}

// LoadRecord returns the persisted record, or a zero record for an unknown
// session so a conversation can always start.
func (r *RedisSessionRepository) LoadRecord(ctx context.Context, sessionID string) (model.SessionRecord, error) {
	key := r.recordKey(sessionID)
	raw, err := r.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.SessionRecord{}, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load session record from redis")
		return model.SessionRecord{}, errx.WrapRedis(err)
	}

	var rec model.SessionRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to unmarshal session record")
		return model.SessionRecord{}, fmt.Errorf("unmarshal session record: %w", err)
	}
	return rec, nil
}

// SaveRecord persists the record and refreshes the session TTL.
func (r *RedisSessionRepository) SaveRecord(ctx context.Context, sessionID string, rec model.SessionRecord) error {
	rec.UpdatedAt = time.Now().UTC()
	b, err := json.Marshal(rec)
	if err != nil {
		logx.Error().Err(err).Str("sessionID", sessionID).Msg("failed to marshal session record")
		return fmt.Errorf("marshal session record: %w", err)
	}

	key := r.recordKey(sessionID)
	if err := r.rdb.Set(ctx, key, b, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to save session record to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

// AddMessage appends a message to the session's chat history.
func (r *RedisSessionRepository) AddMessage(ctx context.Context, sessionID string, message *schema.Message) error {
	b, err := json.Marshal(message)
	if err != nil {
		logx.Error().Err(err).Str("sessionID", sessionID).Msg("failed to marshal message")
		return fmt.Errorf("marshal message: %w", err)
	}
	key := r.messagesKey(sessionID)

	// append message
	if err := r.rdb.RPush(ctx, key, b).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to push message to redis")
		return errx.WrapRedis(err)
	}
	// extend TTL on touch
	if r.ttl > 0 {
		if ok, err := r.rdb.Expire(ctx, key, r.ttl).Result(); err != nil {
			logx.Error().Err(err).Str("key", key).Msg("failed to set expire")
			return errx.WrapRedis(err)
		} else if !ok {
			logx.Warn().Str("key", key).Dur("ttl", r.ttl).Msg("failed to set TTL on session messages key")
		}
	}
	return nil
}

// LoadHistory retrieves the session's chat history in order.
func (r *RedisSessionRepository) LoadHistory(ctx context.Context, sessionID string) ([]*schema.Message, error) {
	key := r.messagesKey(sessionID)

	rows, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []*schema.Message{}, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load chat history from redis")
		return nil, errx.WrapRedis(err)
	}

	msgs := make([]*schema.Message, 0, len(rows))
	for i, s := range rows {
		var m schema.Message
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			logx.Error().Err(err).Str("sessionID", sessionID).Int("index", i).Msg("failed to unmarshal message")
			return nil, fmt.Errorf("unmarshal message at index %d: %w", i, err)
		}
		msgs = append(msgs, &m)
	}
	return msgs, nil
}

// ClearSession removes the record and the chat history.
func (r *RedisSessionRepository) ClearSession(ctx context.Context, sessionID string) error {
	if err := r.rdb.Del(ctx, r.recordKey(sessionID), r.messagesKey(sessionID)).Err(); err != nil {
		logx.Error().Err(err).Str("sessionID", sessionID).Msg("failed to delete session from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.SessionRepository = (*RedisSessionRepository)(nil)
