package match

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/driftmkt/obcore/protocol"
)

func startTestEngine(t *testing.T, sink Sink) *Engine {
	t.Helper()
	engine := NewEngine(sink, 64)
	engine.RegisterSymbol(Pack("ABC"))
	go engine.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = engine.Shutdown(ctx)
	})
	return engine
}

func TestEngine_SubmitAndProcessNewOrder(t *testing.T) {
	sink := NewMemorySink()
	engine := startTestEngine(t, sink)

	err := engine.Submit(Pack("ABC"), protocol.NewOrderRequest(1, 1, uint64(Pack("ABC")), 100, 10, protocol.Buy, protocol.Limit))
	assert.NoError(t, err)

	assert.Eventually(t, func() bool {
		return sink.Count() > 0
	}, time.Second, time.Millisecond)

	responses := sink.Responses()
	assert.Equal(t, protocol.RespAck, responses[0].Kind)
}

func TestEngine_NewOrderForUnseenSymbolCreatesBookOnDemand(t *testing.T) {
	sink := NewMemorySink()
	engine := startTestEngine(t, sink)

	err := engine.Submit(Pack("ZZZ"), protocol.NewOrderRequest(1, 1, uint64(Pack("ZZZ")), 100, 10, protocol.Buy, protocol.Limit))
	assert.NoError(t, err)

	assert.Eventually(t, func() bool {
		return sink.Count() > 0
	}, time.Second, time.Millisecond)

	responses := sink.Responses()
	assert.Equal(t, protocol.RespAck, responses[0].Kind)
}

func TestEngine_CancelOnUnregisteredSymbolAcksWithUnknownSymbol(t *testing.T) {
	sink := NewMemorySink()
	engine := startTestEngine(t, sink)

	err := engine.Submit(Pack("ZZZ"), protocol.CancelRequest(1, 1))
	assert.NoError(t, err)

	assert.Eventually(t, func() bool {
		return sink.Count() > 0
	}, time.Second, time.Millisecond)

	responses := sink.Responses()
	assert.Equal(t, protocol.RespCancelAck, responses[0].Kind)
	assert.Equal(t, uint64(Unknown), responses[0].Symbol)
}

func TestEngine_FlushFansOutToEveryRegisteredBook(t *testing.T) {
	sink := NewMemorySink()
	engine := NewEngine(sink, 64)
	engine.RegisterSymbol(Pack("ABC"))
	engine.RegisterSymbol(Pack("XYZ"))
	go engine.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = engine.Shutdown(ctx)
	})

	assert.NoError(t, engine.Submit(Pack("ABC"), protocol.NewOrderRequest(1, 1, uint64(Pack("ABC")), 100, 10, protocol.Buy, protocol.Limit)))
	assert.NoError(t, engine.Submit(Pack("XYZ"), protocol.NewOrderRequest(2, 1, uint64(Pack("XYZ")), 200, 5, protocol.Buy, protocol.Limit)))

	assert.Eventually(t, func() bool {
		return sink.Count() >= 4 // 2 acks + 2 top-of-book updates
	}, time.Second, time.Millisecond)
	sink.Reset()

	// FlushRequest carries no symbol at all; the fan-out must not depend on
	// the symbol Submit happened to be called with.
	assert.NoError(t, engine.Submit(Unknown, protocol.FlushRequest()))

	assert.Eventually(t, func() bool {
		symbols := make(map[Symbol]bool)
		for _, r := range sink.Responses() {
			if r.Kind == protocol.RespTopOfBook && r.Price == 0 && r.Quantity == 0 {
				symbols[Symbol(r.Symbol)] = true
			}
		}
		return symbols[Pack("ABC")] && symbols[Pack("XYZ")]
	}, time.Second, time.Millisecond)
}

func TestEngine_SubmitAfterShutdownFails(t *testing.T) {
	sink := NewMemorySink()
	engine := NewEngine(sink, 64)
	engine.RegisterSymbol(Pack("ABC"))
	go engine.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, engine.Shutdown(ctx))

	err := engine.Submit(Pack("ABC"), protocol.FlushRequest())
	assert.ErrorIs(t, err, ErrShutdown)
}

func TestEngine_QueueFullDropsAndCounts(t *testing.T) {
	sink := NewDiscardSink()
	engine := NewEngine(sink, 1)
	engine.RegisterSymbol(Pack("ABC"))
	// Deliberately not started: the queue never drains, so it fills after
	// one accepted submission.

	req := protocol.NewOrderRequest(1, 1, uint64(Pack("ABC")), 100, 10, protocol.Buy, protocol.Limit)
	assert.NoError(t, engine.Submit(Pack("ABC"), req))
	err := engine.Submit(Pack("ABC"), req)
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, uint64(1), engine.Stats().QueueDrops)
}
