package numerator

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockGenerator is an in-memory Generator for unit tests.
// It keeps one counter per number head and per sequence scope.
type MockGenerator struct {
	mu        sync.Mutex
	counters  map[string]int64
	sequences map[string]int64

	// Err, when set, is returned by every call.
	Err error
}

// NewMockGenerator creates an empty MockGenerator.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{
		counters:  make(map[string]int64),
		sequences: make(map[string]int64),
	}
}

// NextNumber implements Generator.
func (m *MockGenerator) NextNumber(_ context.Context, cfg Config, period time.Time) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := cfg.LockKey(period)
	m.counters[key]++
	return Format(cfg, period, m.counters[key]), nil
}

// NextSequence implements Generator.
func (m *MockGenerator) NextSequence(_ context.Context, cfg SequenceConfig) (int64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := fmt.Sprintf("%s.%s:%v", cfg.Table, cfg.Field, cfg.ScopeValue)
	m.sequences[key]++
	return m.sequences[key], nil
}

var _ Generator = (*MockGenerator)(nil)
