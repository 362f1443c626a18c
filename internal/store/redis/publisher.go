// Package redis announces committed saves so other processes can reload.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/rentals/internal/domain"
	"github.com/gosuda/rentals/internal/store"
)

type Publisher struct {
	client *redis.Client
	now    func() time.Time
}

func New(ctx context.Context, addr, password string, db int) (*Publisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis.New: ping: %w", err)
	}

	return NewWithClient(client), nil
}

// NewWithClient wraps an existing client. The publisher takes ownership and
// closes it in Close.
func NewWithClient(client *redis.Client) *Publisher {
	return &Publisher{client: client, now: time.Now}
}

func (p *Publisher) Close() error {
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("redis.Publisher.Close: %w", err)
	}
	return nil
}

// PublishSaved stores ev under LastSaveKey and publishes it on SavedChannel.
func (p *Publisher) PublishSaved(ctx context.Context, ev SaveEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("redis.Publisher.PublishSaved: marshal: %w", err)
	}

	_, err = p.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, LastSaveKey, payload, 0)
		pipe.Publish(ctx, SavedChannel, payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis.Publisher.PublishSaved: %w", err)
	}

	log.Debug().Str("event_id", ev.ID.String()).Msg("redis.Publisher.PublishSaved: published")
	return nil
}

// NotifySaved builds a SaveEvent from snap and publishes it.
func (p *Publisher) NotifySaved(ctx context.Context, dir string, snap *store.Snapshot) error {
	return p.PublishSaved(ctx, NewSaveEvent(dir, snap.Counts(), len(snap.Orphans), p.now()))
}

// LastSave returns the most recently published event, or domain.ErrNotFound
// if nothing was published yet.
func (p *Publisher) LastSave(ctx context.Context) (*SaveEvent, error) {
	payload, err := p.client.Get(ctx, LastSaveKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis.Publisher.LastSave: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("redis.Publisher.LastSave: %w", err)
	}

	var ev SaveEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("redis.Publisher.LastSave: decode: %w", err)
	}
	return &ev, nil
}

// Subscribe streams save events until ctx is done or cleanup is called.
// Payloads that do not decode are logged and skipped.
func (p *Publisher) Subscribe(ctx context.Context) (<-chan SaveEvent, func(), error) {
	sub := p.client.Subscribe(ctx, SavedChannel)

	// Wait for subscription confirmation.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("redis.Publisher.Subscribe: receive confirmation: %w", err)
	}

	out := make(chan SaveEvent, 16)
	redisCh := sub.Channel()

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-redisCh:
				if !ok {
					return
				}
				var ev SaveEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Warn().Err(err).Str("channel", msg.Channel).Msg("redis.Publisher.Subscribe: skipping payload")
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	cleanup := func() {
		_ = sub.Close()
	}

	return out, cleanup, nil
}
