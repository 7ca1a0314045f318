package transport

import (
	"github.com/driftmkt/obcore/match"
	"github.com/driftmkt/obcore/protocol"
)

// MarketDataSink receives every response that is public market data rather
// than a private acknowledgement, so it can be fanned out over multicast
// and/or a WebSocket feed.
type MarketDataSink interface {
	Publish(symbol match.Symbol, resp protocol.Response)
}

// Router is the match.Sink the engine publishes into: it decides, per
// response, whether the response is private (goes to one or two specific
// clients by user ID) or public (goes to every market-data subscriber).
// Grounded on the reference transport's MessageRouter: ack-like responses
// route to their originating client only, a trade routes to both
// counterparties by user_id plus the public feed, and a top-of-book update
// is public-only.
type Router struct {
	registry   *ClientRegistry
	marketData MarketDataSink
}

func NewRouter(registry *ClientRegistry, marketData MarketDataSink) *Router {
	return &Router{registry: registry, marketData: marketData}
}

// Publish implements match.Sink. It runs synchronously on the engine's
// dispatch goroutine, so it never retains responses past this call.
func (r *Router) Publish(symbol match.Symbol, responses []protocol.Response) {
	for _, resp := range responses {
		r.route(symbol, resp)
	}
}

func (r *Router) route(symbol match.Symbol, resp protocol.Response) {
	switch resp.Kind {
	case protocol.RespAck, protocol.RespCancelAck, protocol.RespAmendAck, protocol.RespOrderRejected, protocol.RespDepth:
		r.registry.SendToUser(resp.UserID, resp)
	case protocol.RespTrade:
		r.registry.SendToUser(resp.BuyUserID, resp)
		r.registry.SendToUser(resp.SellUserID, resp)
		if r.marketData != nil {
			r.marketData.Publish(symbol, resp)
		}
	case protocol.RespTopOfBook:
		if r.marketData != nil {
			r.marketData.Publish(symbol, resp)
		}
	}
}
