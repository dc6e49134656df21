package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"campusportal/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisStore keeps messages in a sorted set scored by timestamp with the
// JSON bodies in a hash. Every write publishes on a change channel and each
// subscription re-runs its query when notified.
type RedisStore struct {
	client  *redis.Client
	index   string
	bodies  string
	channel string
	timeout time.Duration
	logger  zerolog.Logger
}

func NewRedisStore(client *redis.Client, prefix string, timeout time.Duration, logger zerolog.Logger) *RedisStore {
	if prefix == "" {
		prefix = "campusportal"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RedisStore{
		client:  client,
		index:   prefix + ":chat",
		bodies:  prefix + ":chat:bodies",
		channel: prefix + ":chat:changes",
		timeout: timeout,
		logger:  logger.With().Str("service", "RealtimeStore").Logger(),
	}
}

func (s *RedisStore) Fetch(ctx context.Context, q Query) ([]model.ChatMessage, error) {
	max := "+inf"
	if q.Before > 0 {
		max = "(" + strconv.FormatInt(q.Before, 10)
	}
	ids, err := s.client.ZRevRangeByScore(ctx, s.index, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   max,
		Count: int64(q.Limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("reading chat index: %w", err)
	}
	if len(ids) == 0 {
		return []model.ChatMessage{}, nil
	}

	raw, err := s.client.HMGet(ctx, s.bodies, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("reading chat bodies: %w", err)
	}
	msgs := make([]model.ChatMessage, 0, len(raw))
	for i, v := range raw {
		body, ok := v.(string)
		if !ok {
			// removed between the two reads
			continue
		}
		var m model.ChatMessage
		if err := json.Unmarshal([]byte(body), &m); err != nil {
			s.logger.Warn().Err(err).Str("id", ids[i]).Msg("Skipping undecodable chat message")
			continue
		}
		m.ID = ids[i]
		msgs = append(msgs, m)
	}
	SortMessages(msgs)
	return msgs, nil
}

func (s *RedisStore) Push(ctx context.Context, msg model.ChatMessage) (string, error) {
	msg.ID = uuid.NewString()
	body, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("encoding chat message: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.bodies, msg.ID, body)
		pipe.ZAdd(ctx, s.index, redis.Z{Score: float64(msg.Timestamp), Member: msg.ID})
		pipe.Publish(ctx, s.channel, "push:"+msg.ID)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("storing chat message: %w", err)
	}
	return msg.ID, nil
}

func (s *RedisStore) Remove(ctx context.Context, id string) error {
	var removed *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.ZRem(ctx, s.index, id)
		pipe.HDel(ctx, s.bodies, id)
		pipe.Publish(ctx, s.channel, "remove:"+id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("removing chat message: %w", err)
	}
	if removed.Val() == 0 {
		return ErrNotFound
	}
	return nil
}

// Subscribe waits for the channel subscription to be confirmed, then
// delivers snapshots from a background goroutine. ctx only bounds the
// subscription handshake.
func (s *RedisStore) Subscribe(ctx context.Context, q Query, fn func(Snapshot)) (Subscription, error) {
	ps := s.client.Subscribe(ctx, s.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribing to chat changes: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	sub := &redisSub{pubsub: ps, cancel: cancel}
	go s.run(runCtx, ps, q, fn)
	return sub, nil
}

func (s *RedisStore) run(ctx context.Context, ps *redis.PubSub, q Query, fn func(Snapshot)) {
	deliver := func() {
		fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		msgs, err := s.Fetch(fetchCtx, q)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			fn(Snapshot{Err: err})
			return
		}
		fn(Snapshot{Messages: msgs})
	}

	deliver()
	changes := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			// collapse a burst of notifications into one re-query
			drain(changes)
			deliver()
		}
	}
}

func drain(ch <-chan *redis.Message) {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

type redisSub struct {
	pubsub *redis.PubSub
	cancel context.CancelFunc
	once   sync.Once
}

func (sub *redisSub) Unsubscribe() {
	sub.once.Do(func() {
		sub.cancel()
		_ = sub.pubsub.Close()
	})
}
