package match

import (
	"sync"

	"github.com/driftmkt/obcore/protocol"
)

// Sink receives the batch of responses produced by processing a single
// Request against a single symbol's book. Publish is called on the
// engine's dispatch goroutine; the engine allocates a new slice for each
// request and does not touch it after Publish returns.
type Sink interface {
	Publish(symbol Symbol, responses []protocol.Response)
}

// MemorySink accumulates every response it's given, useful for tests and
// for embedding the engine directly in a process that wants in-memory
// access to the output stream.
type MemorySink struct {
	mu        sync.RWMutex
	responses []protocol.Response
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (m *MemorySink) Publish(symbol Symbol, responses []protocol.Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, responses...)
}

func (m *MemorySink) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.responses)
}

func (m *MemorySink) Responses() []protocol.Response {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]protocol.Response, len(m.responses))
	copy(out, m.responses)
	return out
}

// Reset discards every accumulated response, useful for a test that wants a
// clean slate after setup it isn't asserting on.
func (m *MemorySink) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = nil
}

// DiscardSink drops every response, useful for benchmarking the matching
// loop in isolation from any downstream transport.
type DiscardSink struct{}

func NewDiscardSink() *DiscardSink { return &DiscardSink{} }

func (DiscardSink) Publish(Symbol, []protocol.Response) {}
