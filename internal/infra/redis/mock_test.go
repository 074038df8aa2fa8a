//go:build !integration

package redis

import (
	"context"
	"sync"
	"time"
)

// memClient is a tiny in-process stand-in for the parts of Redis these tests touch.
type memClient struct {
	mu   sync.Mutex
	data map[string]string
	ints map[string]int64
	ttls map[string]time.Duration

	IncrErr  error
	SetNXErr error
}

var _ RedisClient = (*memClient)(nil)

func newMemClient() *memClient {
	return &memClient{data: map[string]string{}, ints: map[string]int64{}, ttls: map[string]time.Duration{}}
}

func (m *memClient) Ping(ctx context.Context) error { return nil }

func (m *memClient) Set(ctx context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = toString(value)
	return nil
}

func (m *memClient) SetNX(ctx context.Context, key string, value interface{}, _ time.Duration) (bool, error) {
	if m.SetNXErr != nil {
		return false, m.SetNXErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = toString(value)
	return true, nil
}

func (m *memClient) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", Nil
	}
	return v, nil
}

func (m *memClient) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	if m.IncrErr != nil {
		return 0, m.IncrErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ints[key]++
	if _, ok := m.ttls[key]; !ok {
		m.ttls[key] = window
	}
	return m.ints[key], nil
}

func (m *memClient) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
		delete(m.ints, k)
		delete(m.ttls, k)
	}
	return nil
}

func (m *memClient) DelIfEquals(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[key] == value {
		delete(m.data, key)
	}
	return nil
}

func (m *memClient) Close() error { return nil }

func toString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return ""
	}
}
