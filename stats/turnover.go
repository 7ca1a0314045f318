// Package stats accumulates notional turnover per symbol from the
// engine's trade stream. The core matching path stays on fixed-width
// integers end to end for speed; turnover accounting is exactly the kind
// of downstream, non-hot-path arithmetic the teacher itself reaches for
// shopspring/decimal to do in aggregated_book.go, so this package is
// where that dependency earns its place once the hot path no longer
// needs it.
package stats

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/driftmkt/obcore/match"
	"github.com/driftmkt/obcore/protocol"
)

// TurnoverTracker sums price × quantity for every trade, per symbol.
// Implements the same Publish(symbol, response) shape the transport
// layer's market-data sinks use, so it can be chained alongside
// aggregatedbook.Manager ahead of the multicast/WebSocket fan-out.
type TurnoverTracker struct {
	mu       sync.RWMutex
	turnover map[match.Symbol]decimal.Decimal
	trades   map[match.Symbol]uint64
	next     next
}

type next interface {
	Publish(symbol match.Symbol, resp protocol.Response)
}

func NewTurnoverTracker(next next) *TurnoverTracker {
	return &TurnoverTracker{
		turnover: make(map[match.Symbol]decimal.Decimal),
		trades:   make(map[match.Symbol]uint64),
		next:     next,
	}
}

func (t *TurnoverTracker) Publish(symbol match.Symbol, resp protocol.Response) {
	if resp.Kind == protocol.RespTrade {
		t.record(symbol, resp.Price, resp.Quantity)
	}

	if t.next != nil {
		t.next.Publish(symbol, resp)
	}
}

func (t *TurnoverTracker) record(symbol match.Symbol, price, quantity uint32) {
	notional := decimal.NewFromInt(int64(price)).Mul(decimal.NewFromInt(int64(quantity)))

	t.mu.Lock()
	defer t.mu.Unlock()
	t.turnover[symbol] = t.turnover[symbol].Add(notional)
	t.trades[symbol]++
}

// Turnover returns the running notional turnover for symbol.
func (t *TurnoverTracker) Turnover(symbol match.Symbol) decimal.Decimal {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.turnover[symbol]
}

// TradeCount returns the running trade count for symbol.
func (t *TurnoverTracker) TradeCount(symbol match.Symbol) uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.trades[symbol]
}

// Snapshot returns a copy of the turnover map for every symbol seen so
// far.
func (t *TurnoverTracker) Snapshot() map[match.Symbol]decimal.Decimal {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[match.Symbol]decimal.Decimal, len(t.turnover))
	for symbol, v := range t.turnover {
		out[symbol] = v
	}
	return out
}
