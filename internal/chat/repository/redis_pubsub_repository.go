package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"tab_chat_sync/internal/chat/domain"
	"tab_chat_sync/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisPubSub ChangeFeed over one redis pub/sub channel
type RedisPubSub struct {
	client  *redis.Client
	channel string
}

// NewRedisPubSub create RedisPubSub publishing on <namespace>:changes
func NewRedisPubSub(client *redis.Client, namespace string) *RedisPubSub {
	return &RedisPubSub{
		client:  client,
		channel: namespace + ":changes",
	}
}

// Publish serialize the event and publish it
func (r *RedisPubSub) Publish(ctx context.Context, ev domain.ChangeEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, data).Err()
}

// Subscribe deliver every event not written by contextID to handler until ctx ends or the returned func is called
func (r *RedisPubSub) Subscribe(ctx context.Context, contextID string, handler func(domain.ChangeEvent)) (func(), error) {
	sub := r.client.Subscribe(ctx, r.channel)
	// wait for the subscription confirmation so no publish after return is missed
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("%w: subscribe %s: %v", domain.ErrStoreUnavailable, r.channel, err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer sub.Close()
		ch := sub.Channel()

		for {
			select {
			case m, ok := <-ch:
				if !ok {
					return
				}

				var ev domain.ChangeEvent
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					logger.Log.Warn("drop malformed change event", zap.String("channel", r.channel), zap.Error(err))
					continue
				}
				if ev.Origin == contextID {
					continue
				}
				handler(ev)
			case <-subCtx.Done():
				logger.Log.Debug("change feed subscription closed", zap.String("channel", r.channel), zap.String("context", contextID))
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}, nil
}
