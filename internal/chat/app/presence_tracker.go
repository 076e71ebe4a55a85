package app

import (
	"context"
	"sync"

	"tab_chat_sync/internal/chat/domain"
	"tab_chat_sync/pkg/logger"

	"go.uber.org/zap"
)

// PresenceSink receive presence transitions
type PresenceSink interface {
	SetPresence(ctx context.Context, online bool) bool
}

// PresenceTracker map lifecycle signals to presence writes, one at a time and in call order
type PresenceTracker struct {
	mu      sync.Mutex
	sink    PresenceSink
	mounted bool
	torn    bool
}

// NewPresenceTracker create PresenceTracker
func NewPresenceTracker(sink PresenceSink) *PresenceTracker {
	return &PresenceTracker{sink: sink}
}

// Mount context started: online, registering the current user in the shared set
func (p *PresenceTracker) Mount(ctx context.Context) bool {
	return p.Handle(ctx, domain.SignalMount)
}

// Focus context regained focus
func (p *PresenceTracker) Focus(ctx context.Context) bool {
	return p.Handle(ctx, domain.SignalFocus)
}

// Blur context lost focus
func (p *PresenceTracker) Blur(ctx context.Context) bool {
	return p.Handle(ctx, domain.SignalBlur)
}

// Unmount context torn down: the offline write completes before this returns
func (p *PresenceTracker) Unmount(ctx context.Context) bool {
	return p.Handle(ctx, domain.SignalUnmount)
}

// Handle apply one signal; signals before Mount or after Unmount are dropped
func (p *PresenceTracker) Handle(ctx context.Context, s domain.Signal) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.torn:
		logger.Log.Debug("presence signal after unmount ignored", zap.String("signal", string(s)))
		return false
	case s == domain.SignalMount:
		p.mounted = true
	case !p.mounted:
		logger.Log.Debug("presence signal before mount ignored", zap.String("signal", string(s)))
		return false
	case s == domain.SignalUnmount:
		p.torn = true
	}

	return p.sink.SetPresence(ctx, s.Online())
}
