package aggregatedbook

import (
	"sync"

	"github.com/driftmkt/obcore/match"
	"github.com/driftmkt/obcore/protocol"
)

// next is anything that wants every public response after Manager has had
// a chance to update its own read-model state — typically a
// transport.MarketDataHub. Defined locally rather than imported from
// transport so this package has no dependency on the transport layer;
// Go's structural typing lets any matching Publish method satisfy it.
type next interface {
	Publish(symbol match.Symbol, resp protocol.Response)
}

// Manager owns one AggregatedBook per symbol and implements the same
// Publish(symbol, response) shape the engine's transport router expects
// of a market-data sink, so it can be wired in front of the multicast/
// WebSocket fan-out to keep a queryable depth snapshot without the
// engine's own matching goroutine ever being touched by a read request.
type Manager struct {
	mu    sync.RWMutex
	books map[match.Symbol]*AggregatedBook
	next  next
}

func NewManager(next next) *Manager {
	return &Manager{
		books: make(map[match.Symbol]*AggregatedBook),
		next:  next,
	}
}

func (m *Manager) Publish(symbol match.Symbol, resp protocol.Response) {
	book := m.bookFor(symbol)
	switch resp.Kind {
	case protocol.RespTopOfBook:
		book.ApplyTopOfBook(resp)
	case protocol.RespDepth:
		book.ApplyDepth(resp)
	}

	if m.next != nil {
		m.next.Publish(symbol, resp)
	}
}

func (m *Manager) bookFor(symbol match.Symbol) *AggregatedBook {
	m.mu.RLock()
	book, ok := m.books[symbol]
	m.mu.RUnlock()
	if ok {
		return book
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if book, ok = m.books[symbol]; ok {
		return book
	}
	book = NewAggregatedBook()
	m.books[symbol] = book
	return book
}

// Book returns the current read-model for symbol, creating an empty one
// if none has been published yet.
func (m *Manager) Book(symbol match.Symbol) *AggregatedBook {
	return m.bookFor(symbol)
}
