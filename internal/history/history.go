// Package history keeps finished run summaries for later inspection.
package history

import (
	"context"
	"sync"

	"github.com/wonny/tvbatch/internal/contracts"
)

// Recorder stores run summaries
type Recorder interface {
	Record(ctx context.Context, summary *contracts.RunSummary) error
	// Latest returns the most recent summary; found is false when none exists
	Latest(ctx context.Context) (*contracts.RunSummary, bool, error)
}

// DefaultMemoryCapacity is the number of summaries Memory keeps
const DefaultMemoryCapacity = 20

// Memory is an in-process Recorder keeping the last N summaries
type Memory struct {
	mu       sync.RWMutex
	runs     []*contracts.RunSummary
	capacity int
}

// NewMemory creates an in-memory recorder. capacity <= 0 uses the default.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &Memory{capacity: capacity}
}

// Record implements Recorder
func (m *Memory) Record(ctx context.Context, summary *contracts.RunSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.runs = append(m.runs, summary)
	if len(m.runs) > m.capacity {
		m.runs = m.runs[len(m.runs)-m.capacity:]
	}
	return nil
}

// Latest implements Recorder
func (m *Memory) Latest(ctx context.Context) (*contracts.RunSummary, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.runs) == 0 {
		return nil, false, nil
	}
	return m.runs[len(m.runs)-1], true, nil
}

// All returns the kept summaries, oldest first
func (m *Memory) All() []*contracts.RunSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*contracts.RunSummary(nil), m.runs...)
}

// Multi fans a summary out to several recorders; Latest comes from the first
type Multi []Recorder

// Record implements Recorder. Every recorder is tried; the first error is returned.
func (m Multi) Record(ctx context.Context, summary *contracts.RunSummary) error {
	var first error
	for _, r := range m {
		if err := r.Record(ctx, summary); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Latest implements Recorder
func (m Multi) Latest(ctx context.Context) (*contracts.RunSummary, bool, error) {
	if len(m) == 0 {
		return nil, false, nil
	}
	return m[0].Latest(ctx)
}
