package transport

import (
	"github.com/driftmkt/obcore/match"
	"github.com/driftmkt/obcore/protocol"
	"github.com/driftmkt/obcore/wire"
)

// MarketDataHub fans out public responses (trades, top-of-book updates) to
// every subscriber, and also stages their binary encoding onto a
// RingBuffer so a MulticastPublisher can assign them gap-detectable
// sequence numbers in true publish order. Implements MarketDataSink.
type MarketDataHub struct {
	subscribers *hub[protocol.Response]
	staging     *RingBuffer[[]byte]
}

func NewMarketDataHub(staging *RingBuffer[[]byte]) *MarketDataHub {
	return &MarketDataHub{
		subscribers: newHub[protocol.Response](),
		staging:     staging,
	}
}

func (m *MarketDataHub) Publish(symbol match.Symbol, resp protocol.Response) {
	m.subscribers.Broadcast(resp)

	if m.staging == nil {
		return
	}
	payload, err := wire.EncodeBinaryOutput(nil, resp)
	if err != nil {
		return
	}
	m.staging.Publish(payload)
}

// Subscribe returns a channel of every public response published from now
// on, for a WebSocket feed connection to drain until it unsubscribes.
func (m *MarketDataHub) Subscribe(buffer int) *subscription[protocol.Response] {
	return m.subscribers.Subscribe(buffer)
}

func (m *MarketDataHub) Unsubscribe(sub *subscription[protocol.Response]) {
	m.subscribers.Unsubscribe(sub)
}
