package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"tab_chat_sync/internal/chat/domain"
	"tab_chat_sync/pkg/logger"

	"go.uber.org/zap"
)

// Pair one key and its serialized value
type Pair struct {
	Key   string
	Value string
}

// KV raw key-value medium shared by every context
// Set is atomic per key only, in the order given, and returns the previous values.
// SetIf writes all pairs only while guard still holds want ("" for a missing key);
// ok is false when another writer moved guard first.
type KV interface {
	Get(ctx context.Context, keys ...string) (map[string]string, error)
	Set(ctx context.Context, pairs ...Pair) (map[string]string, error)
	SetIf(ctx context.Context, guard, want string, pairs ...Pair) (old map[string]string, ok bool, err error)
}

// UpdateFunc build the write from the snapshot it was read against; it may run more than once
type UpdateFunc func(observed domain.Snapshot) domain.PartialSnapshot

// Store snapshot-level view over a KV for one namespace and identity profile
type Store interface {
	Keys() domain.Keys
	ReadAll(ctx context.Context) (domain.Snapshot, error)
	Write(ctx context.Context, p domain.PartialSnapshot) ([]domain.ChangeEvent, error)
	Update(ctx context.Context, fn UpdateFunc) ([]domain.ChangeEvent, error)
}

// maxUpdateAttempts reads and retries Update makes before giving up with ErrWriteConflict
const maxUpdateAttempts = 8

type kvStore struct {
	kv   KV
	keys domain.Keys
}

// NewStore create a Store over kv
func NewStore(kv KV, keys domain.Keys) Store {
	return &kvStore{kv: kv, keys: keys}
}

func (s *kvStore) Keys() domain.Keys {
	return s.keys
}

func (s *kvStore) ReadAll(ctx context.Context) (domain.Snapshot, error) {
	raw, err := s.readRaw(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return s.decode(raw), nil
}

func (s *kvStore) readRaw(ctx context.Context) (map[string]string, error) {
	return s.kv.Get(ctx, s.keys.Messages, s.keys.Users, s.keys.CurrentUser, s.keys.Clock)
}

func (s *kvStore) decode(raw map[string]string) domain.Snapshot {
	var snap domain.Snapshot
	if v, ok := raw[s.keys.Messages]; ok {
		snap.Messages = decodeOrEmpty[[]domain.Message](s.keys.Messages, v)
	}
	if v, ok := raw[s.keys.Users]; ok {
		snap.Users = decodeOrEmpty[[]domain.User](s.keys.Users, v)
	}
	if v, ok := raw[s.keys.CurrentUser]; ok {
		cu := decodeOrEmpty[*domain.User](s.keys.CurrentUser, v)
		if cu != nil && cu.ID != "" {
			snap.CurrentUser = cu
		}
	}
	if v, ok := raw[s.keys.Clock]; ok {
		snap.Clock = decodeClock(s.keys.Clock, v)
	}
	return snap
}

// Write persist the set fields, data keys first and the clock last
func (s *kvStore) Write(ctx context.Context, p domain.PartialSnapshot) ([]domain.ChangeEvent, error) {
	if p.IsEmpty() {
		return nil, nil
	}
	pairs, err := s.encode(p)
	if err != nil {
		return nil, err
	}
	old, err := s.kv.Set(ctx, pairs...)
	if err != nil {
		return nil, err
	}
	return changeEvents(pairs, old), nil
}

// Update read, let fn build the write, and commit it only if the clock key did not move meanwhile
// A moved clock means another context wrote in between, so fn runs again on a fresh read.
func (s *kvStore) Update(ctx context.Context, fn UpdateFunc) ([]domain.ChangeEvent, error) {
	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		raw, err := s.readRaw(ctx)
		if err != nil {
			return nil, err
		}
		p := fn(s.decode(raw))
		if p.IsEmpty() {
			return nil, nil
		}
		pairs, err := s.encode(p)
		if err != nil {
			return nil, err
		}

		old, ok, err := s.kv.SetIf(ctx, s.keys.Clock, raw[s.keys.Clock], pairs...)
		if err != nil {
			return nil, err
		}
		if ok {
			return changeEvents(pairs, old), nil
		}
		logger.Log.Debug("clock moved during update, retrying",
			zap.String("key", s.keys.Clock),
			zap.Int("attempt", attempt),
		)
	}
	return nil, fmt.Errorf("%w: %d attempts on %s", domain.ErrWriteConflict, maxUpdateAttempts, s.keys.Clock)
}

func (s *kvStore) encode(p domain.PartialSnapshot) ([]Pair, error) {
	var pairs []Pair
	add := func(key string, v interface{}) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", key, err)
		}
		pairs = append(pairs, Pair{Key: key, Value: string(data)})
		return nil
	}

	if p.Messages != nil {
		if err := add(s.keys.Messages, p.Messages); err != nil {
			return nil, err
		}
	}
	if p.Users != nil {
		if err := add(s.keys.Users, p.Users); err != nil {
			return nil, err
		}
	}
	if p.CurrentUser != nil {
		if err := add(s.keys.CurrentUser, p.CurrentUser); err != nil {
			return nil, err
		}
	}
	if p.Clock != nil {
		pairs = append(pairs, Pair{Key: s.keys.Clock, Value: strconv.FormatInt(*p.Clock, 10)})
	}
	return pairs, nil
}

func changeEvents(pairs []Pair, old map[string]string) []domain.ChangeEvent {
	changes := make([]domain.ChangeEvent, 0, len(pairs))
	for _, pair := range pairs {
		changes = append(changes, domain.ChangeEvent{
			Key:      pair.Key,
			NewValue: pair.Value,
			OldValue: old[pair.Key],
		})
	}
	return changes
}

// DecodeMessages decode the raw messages key value
func DecodeMessages(raw string) ([]domain.Message, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var msgs []domain.Message
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedSnapshot, err)
	}
	return msgs, nil
}

func decodeOrEmpty[T any](key, raw string) T {
	var v T
	if strings.TrimSpace(raw) == "" {
		return v
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		logger.Log.Warn("stored key is malformed, treating as empty",
			zap.String("key", key),
			zap.Error(fmt.Errorf("%w: %v", domain.ErrMalformedSnapshot, err)),
		)
		var zero T
		return zero
	}
	return v
}

func decodeClock(key, raw string) int64 {
	clock, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || clock < 0 {
		logger.Log.Warn("stored clock is malformed, treating as 0",
			zap.String("key", key),
			zap.String("raw", raw),
		)
		return 0
	}
	return clock
}
