package app

import (
	"context"
	"sync"
	"time"

	"tab_chat_sync/internal/chat/domain"
	"tab_chat_sync/internal/chat/repository"
	"tab_chat_sync/pkg/config"
	"tab_chat_sync/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// triggerBuffer pending merge triggers; a full buffer drops triggers since one pending poll covers them
const triggerBuffer = 64

// SessionConfig collaborators of one context
type SessionConfig struct {
	Store        repository.Store
	Feed         repository.ChangeFeed
	PollInterval time.Duration
	SeedDemo     bool
	Options      []EngineOption
}

// Session one running context: engine, presence, facade, change subscription and poll timer
type Session struct {
	engine       *SyncEngine
	tracker      *PresenceTracker
	facade       *ChatFacade
	feed         repository.ChangeFeed
	pollInterval time.Duration
	seed         bool
	triggers     chan domain.Trigger

	mu          sync.Mutex
	started     bool
	closed      bool
	cancel      context.CancelFunc
	group       *errgroup.Group
	unsubscribe func()
}

// NewSession build a Session; nothing touches the store until Start
func NewSession(cfg SessionConfig) *Session {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = config.DefaultPollInterval
	}
	opts := append([]EngineOption{}, cfg.Options...)
	if cfg.Feed != nil {
		opts = append(opts, WithChangeFeed(cfg.Feed))
	}

	engine := NewSyncEngine(cfg.Store, opts...)
	return &Session{
		engine:       engine,
		tracker:      NewPresenceTracker(engine),
		facade:       NewChatFacade(engine),
		feed:         cfg.Feed,
		pollInterval: cfg.PollInterval,
		seed:         cfg.SeedDemo,
		triggers:     make(chan domain.Trigger, triggerBuffer),
	}
}

// ID context id
func (s *Session) ID() string {
	return s.engine.ContextID()
}

// Facade state surface for presentation
func (s *Session) Facade() *ChatFacade {
	return s.facade
}

// Presence lifecycle signal entry point
func (s *Session) Presence() *PresenceTracker {
	return s.tracker
}

// Engine underlying engine
func (s *Session) Engine() *SyncEngine {
	return s.engine
}

// Start load state, go online and run the merge loop until Close
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.closed {
		return nil
	}
	s.started = true

	s.engine.Init(ctx)
	if s.seed {
		users, msgs := DemoSeed(s.engine.now())
		s.engine.Seed(ctx, users, msgs)
	}
	s.tracker.Mount(ctx)

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	if s.feed != nil {
		unsubscribe, err := s.feed.Subscribe(runCtx, s.ID(), func(ev domain.ChangeEvent) {
			s.enqueue(domain.Trigger{Source: domain.TriggerEvent, Change: &ev})
		})
		if err != nil {
			logger.Log.Warn("change feed unavailable, relying on polling", zap.String("context", s.ID()), zap.Error(err))
		} else {
			s.unsubscribe = unsubscribe
		}
	}

	g, gctx := errgroup.WithContext(runCtx)
	s.group = g

	g.Go(func() error {
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				s.enqueue(domain.Trigger{Source: domain.TriggerPoll})
			}
		}
	})

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case t := <-s.triggers:
				s.handle(gctx, t)
			}
		}
	})

	logger.Log.Info("session started", zap.String("context", s.ID()), zap.Duration("poll_interval", s.pollInterval))
	return nil
}

// Closed report whether Close ran
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Sync run one poll now, outside the timer
func (s *Session) Sync(ctx context.Context) bool {
	return s.engine.Poll(ctx)
}

func (s *Session) enqueue(t domain.Trigger) {
	select {
	case s.triggers <- t:
	default:
		logger.Log.Debug("merge trigger dropped, loop busy", zap.String("context", s.ID()), zap.String("source", string(t.Source)))
	}
}

func (s *Session) handle(ctx context.Context, t domain.Trigger) {
	if t.Change != nil {
		s.engine.ApplyChange(ctx, *t.Change)
		return
	}
	s.engine.Poll(ctx)
}

// Close stop listening and polling, then write the user offline as the last step
// The engine is sealed afterwards, so nothing reaches the store after the offline write.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	if s.cancel != nil {
		s.cancel()
		_ = s.group.Wait()
	}
	if s.started {
		s.tracker.Unmount(ctx)
	}
	s.engine.Seal()

	logger.Log.Info("session closed", zap.String("context", s.ID()))
	return nil
}
