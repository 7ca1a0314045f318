package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/driftmkt/obcore/match"
	"github.com/driftmkt/obcore/protocol"
)

type recordingMarketDataSink struct {
	published []protocol.Response
}

func (r *recordingMarketDataSink) Publish(_ match.Symbol, resp protocol.Response) {
	r.published = append(r.published, resp)
}

func TestRouter_AckRoutesToOriginatingUserOnly(t *testing.T) {
	registry := NewClientRegistry(4)
	id, outbound := registry.Register()
	registry.BindUser(id, 1)

	sink := &recordingMarketDataSink{}
	router := NewRouter(registry, sink)

	router.Publish(match.Pack("IBM"), []protocol.Response{{Kind: protocol.RespAck, UserID: 1}})

	assert.Len(t, outbound, 1)
	assert.Empty(t, sink.published, "acks must never reach the public market-data sink")
}

func TestRouter_TradeRoutesToBothCounterpartiesAndMarketData(t *testing.T) {
	registry := NewClientRegistry(4)
	buyerID, buyerOutbound := registry.Register()
	sellerID, sellerOutbound := registry.Register()
	registry.BindUser(buyerID, 1)
	registry.BindUser(sellerID, 2)

	sink := &recordingMarketDataSink{}
	router := NewRouter(registry, sink)

	router.Publish(match.Pack("IBM"), []protocol.Response{{
		Kind: protocol.RespTrade, BuyUserID: 1, SellUserID: 2, Price: 100, Quantity: 10,
	}})

	assert.Len(t, buyerOutbound, 1)
	assert.Len(t, sellerOutbound, 1)
	assert.Len(t, sink.published, 1)
}

func TestRouter_TopOfBookIsPublicOnly(t *testing.T) {
	registry := NewClientRegistry(4)
	sink := &recordingMarketDataSink{}
	router := NewRouter(registry, sink)

	router.Publish(match.Pack("IBM"), []protocol.Response{{Kind: protocol.RespTopOfBook, Side: protocol.Buy, Price: 100, Quantity: 5}})

	assert.Len(t, sink.published, 1)
}
