package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const RelayChannel = "mentorlink:realtime"

// Envelope is what instances exchange over the relay. An empty Target
// means a broadcast to every connection.
type Envelope struct {
	Origin string          `json:"origin"`
	Target string          `json:"target,omitempty"`
	Frame  json.RawMessage `json:"frame"`
}

// RedisRelay fans events out to other instances over Redis pub/sub.
type RedisRelay struct {
	client  *redis.Client
	channel string
	origin  string
	logger  *slog.Logger
}

// NewRedisClient connects to url and checks the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	return client, nil
}

func NewRedisRelay(client *redis.Client, channel string, logger *slog.Logger) *RedisRelay {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisRelay{
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
		logger:  logger.With("component", "relay"),
	}
}

func (r *RedisRelay) Publish(ctx context.Context, env Envelope) error {
	env.Origin = r.origin
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, data).Err()
}

// Run feeds envelopes published by other instances to deliver until ctx is done.
func (r *RedisRelay) Run(ctx context.Context, deliver func(context.Context, Envelope)) {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			env, ok := decodeEnvelope(msg.Payload, r.origin)
			if !ok {
				continue
			}
			deliver(ctx, env)
		case <-ctx.Done():
			return
		}
	}
}

// decodeEnvelope drops malformed payloads and this instance's own echoes.
func decodeEnvelope(payload, self string) (Envelope, bool) {
	var env Envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return Envelope{}, false
	}
	if env.Origin == self || len(env.Frame) == 0 {
		return Envelope{}, false
	}
	return env, true
}
