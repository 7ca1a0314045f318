package match

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/driftmkt/obcore/protocol"
)

func newTestOrder(seq uint64, userID, userOrderID uint32, side Side, otype protocol.OrderType, price, qty uint32) *Order {
	return &Order{
		UserID:            userID,
		UserOrderID:       userOrderID,
		Symbol:            Pack("ABC"),
		Price:             price,
		Side:              side,
		Type:              otype,
		OriginalQuantity:  qty,
		RemainingQuantity: qty,
		Sequence:          seq,
	}
}

func TestOrderBook_RestsWhenNoOpposingLiquidity(t *testing.T) {
	book := NewOrderBook(Pack("ABC"))
	var out []protocol.Response

	book.AddOrder(newTestOrder(1, 101, 1, Buy, protocol.Limit, 100, 10), &out)

	assert.Len(t, out, 2) // Ack + top-of-book
	assert.Equal(t, protocol.RespAck, out[0].Kind)
	assert.Equal(t, protocol.RespTopOfBook, out[1].Kind)
	assert.Equal(t, uint32(100), out[1].Price)
	assert.Equal(t, uint32(10), out[1].Quantity)
}

func TestOrderBook_LimitOrderMatchesAtPassivePrice(t *testing.T) {
	book := NewOrderBook(Pack("ABC"))
	var out []protocol.Response

	book.AddOrder(newTestOrder(1, 101, 1, Buy, protocol.Limit, 100, 10), &out)
	out = out[:0]

	// Aggressive sell at 95 should trade at the resting buy's price of 100.
	book.AddOrder(newTestOrder(2, 202, 1, Sell, protocol.Limit, 95, 10), &out)

	var trade *protocol.Response
	for i := range out {
		if out[i].Kind == protocol.RespTrade {
			trade = &out[i]
		}
	}
	assert.NotNil(t, trade)
	assert.Equal(t, uint32(100), trade.Price)
	assert.Equal(t, uint32(10), trade.Quantity)
	assert.Equal(t, uint32(101), trade.BuyUserID)
	assert.Equal(t, uint32(202), trade.SellUserID)
}

func TestOrderBook_PartialFillRestsResidual(t *testing.T) {
	book := NewOrderBook(Pack("ABC"))
	var out []protocol.Response

	book.AddOrder(newTestOrder(1, 101, 1, Buy, protocol.Limit, 100, 5), &out)
	out = out[:0]

	book.AddOrder(newTestOrder(2, 202, 1, Sell, protocol.Limit, 100, 8), &out)

	resting := book.asks.find(202, 1)
	assert.NotNil(t, resting)
	assert.Equal(t, uint32(3), resting.RemainingQuantity)
}

func TestOrderBook_MarketOrderWithNoLiquidityIsRejected(t *testing.T) {
	book := NewOrderBook(Pack("ABC"))
	var out []protocol.Response

	book.AddOrder(newTestOrder(1, 101, 1, Buy, protocol.Market, 0, 10), &out)

	assert.Equal(t, protocol.RespAck, out[0].Kind)
	assert.Equal(t, protocol.RespOrderRejected, out[len(out)-1].Kind)
	assert.Equal(t, protocol.RejectReasonNoLiquidity, out[len(out)-1].Reason)
}

func TestOrderBook_IOCDiscardsResidual(t *testing.T) {
	book := NewOrderBook(Pack("ABC"))
	var out []protocol.Response

	book.AddOrder(newTestOrder(1, 101, 1, Sell, protocol.Limit, 100, 3), &out)
	out = out[:0]

	book.AddOrder(newTestOrder(2, 202, 1, Buy, protocol.IOC, 100, 10), &out)

	hasReject := false
	for _, r := range out {
		if r.Kind == protocol.RespOrderRejected {
			hasReject = true
			assert.Equal(t, protocol.RejectReasonNoLiquidity, r.Reason)
		}
	}
	assert.True(t, hasReject)
	assert.Nil(t, book.bids.find(202, 1), "IOC residual must never rest")
}

func TestOrderBook_FOKRejectsWhenInsufficientSize(t *testing.T) {
	book := NewOrderBook(Pack("ABC"))
	var out []protocol.Response

	book.AddOrder(newTestOrder(1, 101, 1, Sell, protocol.Limit, 100, 3), &out)
	out = out[:0]

	book.AddOrder(newTestOrder(2, 202, 1, Buy, protocol.FOK, 100, 10), &out)

	assert.Equal(t, protocol.RespOrderRejected, out[len(out)-1].Kind)
	assert.Equal(t, protocol.RejectReasonInsufficientSize, out[len(out)-1].Reason)
	// The resting sell order must be untouched — FOK never partially matches.
	resting := book.asks.find(101, 1)
	assert.NotNil(t, resting)
	assert.Equal(t, uint32(3), resting.RemainingQuantity)
}

func TestOrderBook_FOKFillsCompletelyWhenSufficient(t *testing.T) {
	book := NewOrderBook(Pack("ABC"))
	var out []protocol.Response

	book.AddOrder(newTestOrder(1, 101, 1, Sell, protocol.Limit, 100, 10), &out)
	out = out[:0]

	book.AddOrder(newTestOrder(2, 202, 1, Buy, protocol.FOK, 100, 7), &out)

	found := false
	for _, r := range out {
		if r.Kind == protocol.RespTrade {
			found = true
			assert.Equal(t, uint32(7), r.Quantity)
		}
	}
	assert.True(t, found)
}

func TestOrderBook_PostOnlyRejectedWhenWouldCross(t *testing.T) {
	book := NewOrderBook(Pack("ABC"))
	var out []protocol.Response

	book.AddOrder(newTestOrder(1, 101, 1, Sell, protocol.Limit, 100, 10), &out)
	out = out[:0]

	book.AddOrder(newTestOrder(2, 202, 1, Buy, protocol.PostOnly, 100, 5), &out)

	assert.Equal(t, protocol.RespOrderRejected, out[len(out)-1].Kind)
	assert.Equal(t, protocol.RejectReasonWouldCrossSpread, out[len(out)-1].Reason)
}

func TestOrderBook_PostOnlyRestsWhenItWouldNotCross(t *testing.T) {
	book := NewOrderBook(Pack("ABC"))
	var out []protocol.Response

	book.AddOrder(newTestOrder(1, 101, 1, Sell, protocol.Limit, 100, 10), &out)
	out = out[:0]

	book.AddOrder(newTestOrder(2, 202, 1, Buy, protocol.PostOnly, 90, 5), &out)

	assert.Equal(t, protocol.RespAck, out[0].Kind)
	resting := book.bids.find(202, 1)
	assert.NotNil(t, resting)
}

func TestOrderBook_CancelUnknownOrderStillAcksWithUnknownSymbol(t *testing.T) {
	book := NewOrderBook(Pack("ABC"))
	var out []protocol.Response

	book.CancelOrder(999, 999, &out)

	assert.Equal(t, protocol.RespCancelAck, out[0].Kind)
	assert.Equal(t, uint64(Unknown), out[0].Symbol)
	assert.Equal(t, uint32(999), out[0].UserID)
	assert.Equal(t, uint32(999), out[0].UserOrderID)
}

func TestOrderBook_AmendSamePriceSmallerQuantityKeepsPriority(t *testing.T) {
	book := NewOrderBook(Pack("ABC"))
	var out []protocol.Response

	book.AddOrder(newTestOrder(1, 101, 1, Buy, protocol.Limit, 100, 10), &out)
	out = out[:0]

	nextSeq := uint64(100)
	book.AmendOrder(101, 1, 100, 4, func() uint64 { nextSeq++; return nextSeq }, &out)

	assert.Equal(t, protocol.RespAmendAck, out[0].Kind)
	resting := book.bids.find(101, 1)
	assert.NotNil(t, resting)
	assert.Equal(t, uint32(4), resting.RemainingQuantity)
	assert.Equal(t, uint64(1), resting.Sequence, "priority-kept amend must not reassign sequence")
}

func TestOrderBook_AmendPriceChangeLosesPriorityAndCanTrade(t *testing.T) {
	book := NewOrderBook(Pack("ABC"))
	var out []protocol.Response

	book.AddOrder(newTestOrder(1, 101, 1, Buy, protocol.Limit, 100, 10), &out)
	out = out[:0]
	book.AddOrder(newTestOrder(2, 202, 1, Sell, protocol.Limit, 105, 5), &out)
	out = out[:0]

	nextSeq := uint64(100)
	// Amending the bid up to 105 should now cross the resting ask.
	book.AmendOrder(101, 1, 105, 10, func() uint64 { nextSeq++; return nextSeq }, &out)

	hasTrade := false
	for _, r := range out {
		if r.Kind == protocol.RespTrade {
			hasTrade = true
		}
	}
	assert.True(t, hasTrade)
}

func TestOrderBook_FlushEmitsEliminationsOnly(t *testing.T) {
	book := NewOrderBook(Pack("ABC"))
	var out []protocol.Response

	book.AddOrder(newTestOrder(1, 101, 1, Buy, protocol.Limit, 100, 10), &out)
	out = out[:0]

	book.Flush(&out)

	for _, r := range out {
		assert.Equal(t, protocol.RespTopOfBook, r.Kind)
		assert.Equal(t, uint32(0), r.Price)
		assert.Equal(t, uint32(0), r.Quantity)
	}
	assert.True(t, len(out) > 0)
}

func TestOrderBook_TopOfBookQueryReportsElimination(t *testing.T) {
	book := NewOrderBook(Pack("ABC"))
	var out []protocol.Response

	book.TopOfBookQuery(&out)

	assert.Len(t, out, 2)
	assert.Equal(t, uint32(0), out[0].Price)
	assert.Equal(t, uint32(0), out[1].Price)
}
