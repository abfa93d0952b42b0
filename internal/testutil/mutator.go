package testutil

import (
	"context"
	"sync"

	"github.com/roach88/pullgraph/internal/query"
)

// MutationCall is one recorded mutation.
type MutationCall struct {
	Seq    int64
	Name   string
	Params query.Params
}

// RecordingMutator records every mutation it receives and returns
// {"seq": n} where n counts calls from 1.
//
// Fail maps a mutation name to the error returned for it. Failed calls are
// recorded too.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type RecordingMutator struct {
	Fail map[string]error

	mu    sync.Mutex
	seq   int64
	calls []MutationCall
}

// NewRecordingMutator creates a mutator with no recorded calls.
func NewRecordingMutator() *RecordingMutator {
	return &RecordingMutator{}
}

// Mutate implements resolve.Mutator.
func (m *RecordingMutator) Mutate(_ context.Context, name string, params query.Params) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	m.calls = append(m.calls, MutationCall{Seq: m.seq, Name: name, Params: params})
	if err := m.Fail[name]; err != nil {
		return nil, err
	}
	return map[string]any{"seq": m.seq}, nil
}

// Calls returns the recorded calls in order.
func (m *RecordingMutator) Calls() []MutationCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MutationCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// Names returns the recorded mutation names in order.
func (m *RecordingMutator) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	for i, c := range m.calls {
		out[i] = c.Name
	}
	return out
}

// Reset clears the recorded calls. The next call gets seq 1.
func (m *RecordingMutator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq = 0
	m.calls = nil
}
