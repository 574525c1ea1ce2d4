package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/parivartan/hub/internal/app/models"
	"github.com/rs/zerolog"
)

// Feed is the chat change feed: every inserted chat message is published
// once and delivered to every subscriber. There is no replay.
type Feed interface {
	Publish(ctx context.Context, msg models.ChatMessage) error
	Subscribe(ctx context.Context) (<-chan models.ChatMessage, error)
}

// RedisFeed implements Feed over a Redis pub/sub channel so inserts made by
// any API instance reach the sessions of all instances.
type RedisFeed struct {
	client  *redis.Client
	channel string
	logger  zerolog.Logger
}

// NewRedisFeed creates a feed on the given channel.
func NewRedisFeed(client *redis.Client, channel string, logger zerolog.Logger) *RedisFeed {
	return &RedisFeed{client: client, channel: channel, logger: logger}
}

// Publish announces an inserted chat message.
func (f *RedisFeed) Publish(ctx context.Context, msg models.ChatMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("error encoding chat message: %w", err)
	}
	if err := f.client.Publish(ctx, f.channel, payload).Err(); err != nil {
		return fmt.Errorf("error publishing chat message: %w", err)
	}
	return nil
}

// Subscribe returns inserted messages until ctx is cancelled. The channel is
// closed when the subscription ends.
func (f *RedisFeed) Subscribe(ctx context.Context) (<-chan models.ChatMessage, error) {
	sub := f.client.Subscribe(ctx, f.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("error subscribing to %s: %w", f.channel, err)
	}

	out := make(chan models.ChatMessage, 64)
	go func() {
		defer close(out)
		defer sub.Close()
		in := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-in:
				if !ok {
					return
				}
				var msg models.ChatMessage
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					f.logger.Warn().Err(err).Str("channel", f.channel).Msg("Dropping malformed chat feed payload")
					continue
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	f.logger.Info().Str("channel", f.channel).Msg("Subscribed to chat feed")
	return out, nil
}

// LocalFeed is an in-process Feed for single-instance deployments without Redis.
type LocalFeed struct {
	mu   sync.Mutex
	subs map[chan models.ChatMessage]struct{}
}

func NewLocalFeed() *LocalFeed {
	return &LocalFeed{subs: make(map[chan models.ChatMessage]struct{})}
}

// Publish delivers to every current subscriber; slow subscribers miss the message.
func (f *LocalFeed) Publish(ctx context.Context, msg models.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs {
		select {
		case ch <- msg:
		default:
		}
	}
	return nil
}

func (f *LocalFeed) Subscribe(ctx context.Context) (<-chan models.ChatMessage, error) {
	ch := make(chan models.ChatMessage, 64)
	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.subs, ch)
		close(ch)
		f.mu.Unlock()
	}()
	return ch, nil
}
