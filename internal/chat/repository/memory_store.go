package repository

import (
	"context"
	"fmt"
	"sync"

	"tab_chat_sync/internal/chat/domain"
)

// MemoryKV process-local KV, the shared medium for contexts living in one process
type MemoryKV struct {
	mu       sync.Mutex
	data     map[string]string
	quota    int
	disabled bool
}

// MemoryOption configure a MemoryKV
type MemoryOption func(*MemoryKV)

// WithQuota cap the total stored bytes (keys + values); 0 means unlimited
func WithQuota(bytes int) MemoryOption {
	return func(m *MemoryKV) {
		m.quota = bytes
	}
}

// NewMemoryKV create an empty MemoryKV
func NewMemoryKV(opts ...MemoryOption) *MemoryKV {
	m := &MemoryKV{data: make(map[string]string)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetDisabled make every operation fail with ErrStoreUnavailable
func (m *MemoryKV) SetDisabled(disabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disabled = disabled
}

// Raw return the stored value of key
func (m *MemoryKV) Raw(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

// Put overwrite key with value, bypassing quota (tests and fixtures)
func (m *MemoryKV) Put(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

func (m *MemoryKV) Get(_ context.Context, keys ...string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disabled {
		return nil, fmt.Errorf("%w: memory store disabled", domain.ErrStoreUnavailable)
	}

	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := m.data[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

// Set write pairs one at a time; the lock is released between keys so readers can observe a partial write
func (m *MemoryKV) Set(_ context.Context, pairs ...Pair) (map[string]string, error) {
	old := make(map[string]string, len(pairs))
	for _, p := range pairs {
		prev, err := m.setOne(p)
		if err != nil {
			return old, err
		}
		old[p.Key] = prev
	}
	return old, nil
}

// SetIf write every pair under one lock, and nothing at all if guard no longer holds want
func (m *MemoryKV) SetIf(_ context.Context, guard, want string, pairs ...Pair) (map[string]string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disabled {
		return nil, false, fmt.Errorf("%w: memory store disabled", domain.ErrStoreUnavailable)
	}
	if m.data[guard] != want {
		return nil, false, nil
	}

	if m.quota > 0 {
		next := make(map[string]string, len(pairs))
		size := m.sizeLocked()
		for _, p := range pairs {
			prev, exists := next[p.Key]
			if !exists {
				prev, exists = m.data[p.Key]
			}
			size += len(p.Value) - len(prev)
			if !exists {
				size += len(p.Key)
			}
			next[p.Key] = p.Value
		}
		if size > m.quota {
			return nil, false, fmt.Errorf("%w: quota of %d bytes exceeded", domain.ErrStoreUnavailable, m.quota)
		}
	}

	old := make(map[string]string, len(pairs))
	for _, p := range pairs {
		old[p.Key] = m.data[p.Key]
		m.data[p.Key] = p.Value
	}
	return old, true, nil
}

func (m *MemoryKV) setOne(p Pair) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disabled {
		return "", fmt.Errorf("%w: memory store disabled", domain.ErrStoreUnavailable)
	}

	prev := m.data[p.Key]
	if m.quota > 0 {
		size := m.sizeLocked() - len(prev) + len(p.Value)
		if _, exists := m.data[p.Key]; !exists {
			size += len(p.Key)
		}
		if size > m.quota {
			return "", fmt.Errorf("%w: quota of %d bytes exceeded writing %s", domain.ErrStoreUnavailable, m.quota, p.Key)
		}
	}
	m.data[p.Key] = p.Value
	return prev, nil
}

func (m *MemoryKV) sizeLocked() int {
	n := 0
	for k, v := range m.data {
		n += len(k) + len(v)
	}
	return n
}
