package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/and161185/cadetcorps/internal/model"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultChannel is the Redis pub/sub channel used for changes.
const DefaultChannel = "cadetcorps:changes"

// Redis is a Feed backed by Redis pub/sub, shared by every server replica.
type Redis struct {
	client  *redis.Client
	channel string
	log     *zap.Logger
}

// NewRedis wraps an existing client. An empty channel selects DefaultChannel.
func NewRedis(client *redis.Client, channel string, log *zap.Logger) *Redis {
	if channel == "" {
		channel = DefaultChannel
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Redis{client: client, channel: channel, log: log}
}

// Dial connects to Redis and verifies the connection with a short ping.
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

// Publish sends c as JSON on the channel.
func (r *Redis) Publish(ctx context.Context, c model.Change) error {
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, b).Err()
}

// Subscribe opens a pub/sub subscription. Malformed payloads are logged and skipped.
func (r *Redis) Subscribe(ctx context.Context) (<-chan model.Change, func(), error) {
	ps := r.client.Subscribe(ctx, r.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, fmt.Errorf("redis subscribe: %w", err)
	}

	sctx, stop := context.WithCancel(ctx)
	out := make(chan model.Change, subscriberBuffer)
	in := ps.Channel()
	go func() {
		defer close(out)
		defer ps.Close()
		for {
			select {
			case <-sctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				c, err := decode(msg.Payload)
				if err != nil {
					r.log.Warn("feed: bad payload", zap.Error(err))
					continue
				}
				select {
				case out <- c:
				default:
					r.log.Debug("feed: subscriber lagging, change dropped", zap.String("collection", c.Collection))
				}
			}
		}
	}()
	return out, stop, nil
}

func decode(payload string) (model.Change, error) {
	var c model.Change
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return model.Change{}, err
	}
	if c.Collection == "" {
		return model.Change{}, fmt.Errorf("change without collection")
	}
	return c, nil
}
