package app

import (
	"context"

	"tab_chat_sync/internal/chat/domain"
	"tab_chat_sync/internal/chat/repository"

	"github.com/stretchr/testify/mock"
)

// MockStore Mock repository.Store
type MockStore struct {
	mock.Mock
}

// Keys mock keys
func (m *MockStore) Keys() domain.Keys {
	args := m.Called()
	return args.Get(0).(domain.Keys)
}

// ReadAll mock read whole snapshot
func (m *MockStore) ReadAll(ctx context.Context) (domain.Snapshot, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Snapshot), args.Error(1)
}


// Write mock partial write
func (m *MockStore) Write(ctx context.Context, p domain.PartialSnapshot) ([]domain.ChangeEvent, error) {
	args := m.Called(ctx, p)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.ChangeEvent), args.Error(1)
	}
	return nil, args.Error(1)
}

// Update mock compare-and-set write
func (m *MockStore) Update(ctx context.Context, fn repository.UpdateFunc) ([]domain.ChangeEvent, error) {
	args := m.Called(ctx, fn)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.ChangeEvent), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockChangeFeed Mock repository.ChangeFeed
type MockChangeFeed struct {
	mock.Mock
}

// Publish mock publish
func (m *MockChangeFeed) Publish(ctx context.Context, ev domain.ChangeEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

// Subscribe mock subscribe
func (m *MockChangeFeed) Subscribe(ctx context.Context, contextID string, handler func(domain.ChangeEvent)) (func(), error) {
	args := m.Called(ctx, contextID, handler)
	if args.Get(0) != nil {
		return args.Get(0).(func()), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockPresenceSink Mock PresenceSink
type MockPresenceSink struct {
	mock.Mock
}

// SetPresence mock presence write
func (m *MockPresenceSink) SetPresence(ctx context.Context, online bool) bool {
	args := m.Called(ctx, online)
	return args.Bool(0)
}
