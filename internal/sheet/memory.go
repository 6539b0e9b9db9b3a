package sheet

import (
	"context"
	"fmt"
	"sync"
)

// InMemory is a worksheet double for tests. The error fields simulate
// outages on a single call path; AfterRead lets tests interleave concurrent
// attempts around the unserialized read-then-append window.
type InMemory struct {
	mu   sync.Mutex
	rows []Record

	ReadErr   error
	AppendErr error
	UpdateErr error

	// AfterRead runs after LastSequence has computed its result, outside the
	// lock, so the next accessor call from another goroutine can proceed.
	AfterRead func()
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

// Seed preloads rows without going through Append.
func (m *InMemory) Seed(recs ...Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, recs...)
}

// Rows returns a copy of everything appended so far.
func (m *InMemory) Rows() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.rows))
	copy(out, m.rows)
	return out
}

func (m *InMemory) LastSequence(ctx context.Context) (int, error) {
	m.mu.Lock()
	if m.ReadErr != nil {
		m.mu.Unlock()
		return 0, m.ReadErr
	}
	last := 0
	for _, r := range m.rows {
		if r.Sequence > last {
			last = r.Sequence
		}
	}
	hook := m.AfterRead
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	return last, nil
}

func (m *InMemory) Append(ctx context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendErr != nil {
		return m.AppendErr
	}
	m.rows = append(m.rows, rec)
	return nil
}

func (m *InMemory) FindBySequence(ctx context.Context, seq int) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	for i := range m.rows {
		if m.rows[i].Sequence == seq {
			rec := m.rows[i]
			return &rec, nil
		}
	}
	return nil, fmt.Errorf("%w: sequence %d", ErrNotFound, seq)
}

func (m *InMemory) UpdateStatus(ctx context.Context, seq int, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	for i := range m.rows {
		if m.rows[i].Sequence == seq {
			m.rows[i].Status = status
			return nil
		}
	}
	return fmt.Errorf("%w: sequence %d", ErrNotFound, seq)
}

func (m *InMemory) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ReadErr
}
