package match

import (
	"github.com/driftmkt/obcore/protocol"
)

// topOfBook is a cached snapshot of the best price/aggregate-quantity on
// one side, used to detect whether an operation actually changed the top
// of book so TOP_OF_BOOK responses are only emitted on real changes.
type topOfBook struct {
	price    uint32
	quantity uint64
	known    bool // false only before the book has ever had anything on this side
}

// OrderBook holds the resting bid and ask queues for a single symbol and
// implements the price-time matching algorithm against them. An OrderBook
// is only ever touched from the owning Engine's single dispatch goroutine;
// it has no internal locking, matching the teacher's single-threaded
// order_book.go design.
type OrderBook struct {
	Symbol Symbol

	bids *bookSide
	asks *bookSide

	prevBidTop topOfBook
	prevAskTop topOfBook
}

func NewOrderBook(symbol Symbol) *OrderBook {
	return &OrderBook{
		Symbol: symbol,
		bids:   newBookSide(Buy),
		asks:   newBookSide(Sell),
	}
}

func (book *OrderBook) sideFor(s Side) (mine, target *bookSide) {
	if s == Buy {
		return book.bids, book.asks
	}
	return book.asks, book.bids
}

// AddOrder admits a new order into the book, running the matching loop
// appropriate to its type and appending every response it produces — in
// order: the admission ack, any trades, then top-of-book updates for
// whichever sides actually changed — to out.
func (book *OrderBook) AddOrder(o *Order, out *[]protocol.Response) {
	switch o.Type {
	case protocol.PostOnly:
		book.addPostOnly(o, out)
	case protocol.FOK:
		book.addFOK(o, out)
	case protocol.IOC:
		book.addIOC(o, out)
	default: // Limit, Market
		book.addLimitOrMarket(o, out)
	}
	book.emitTopOfBookChanges(out)
}

func ackResponse(o *Order) protocol.Response {
	return protocol.Response{
		Kind:        protocol.RespAck,
		UserID:      o.UserID,
		UserOrderID: o.UserOrderID,
		Symbol:      uint64(o.Symbol),
		Price:       o.Price,
		Quantity:    o.OriginalQuantity,
		Side:        o.Side,
	}
}

func rejectResponse(o *Order, reason protocol.RejectReason) protocol.Response {
	return protocol.Response{
		Kind:        protocol.RespOrderRejected,
		UserID:      o.UserID,
		UserOrderID: o.UserOrderID,
		Symbol:      uint64(o.Symbol),
		Price:       o.Price,
		Quantity:    o.RemainingQuantity,
		Side:        o.Side,
		Reason:      reason,
	}
}

func tradeResponse(aggressor, passive *Order, price, qty uint32) protocol.Response {
	r := protocol.Response{
		Kind:     protocol.RespTrade,
		Symbol:   uint64(aggressor.Symbol),
		Price:    price,
		Quantity: qty,
	}
	if aggressor.Side == Buy {
		r.BuyUserID, r.BuyUserOrderID = aggressor.UserID, aggressor.UserOrderID
		r.SellUserID, r.SellUserOrderID = passive.UserID, passive.UserOrderID
	} else {
		r.BuyUserID, r.BuyUserOrderID = passive.UserID, passive.UserOrderID
		r.SellUserID, r.SellUserOrderID = aggressor.UserID, aggressor.UserOrderID
	}
	return r
}

// sweep matches o against target's resting orders for as long as the top
// of target satisfies o.CanMatchAgainst and o has remaining quantity. It
// never inserts o into any book; callers decide what to do with whatever
// quantity remains afterward. Trade prices always take the passive
// (resting) order's price, per price-time priority's price-improvement
// rule.
func sweep(o *Order, target *bookSide, out *[]protocol.Response) {
	iterations := 0
	for o.RemainingQuantity > 0 {
		invariant(iterations < MaxMatchIterations, "sweep exceeded MaxMatchIterations")
		iterations++

		level := target.bestLevel()
		if level == nil {
			return
		}
		passive := level.front()
		if !o.CanMatchAgainst(passive.Price) {
			return
		}

		fillQty := o.RemainingQuantity
		if passive.RemainingQuantity < fillQty {
			fillQty = passive.RemainingQuantity
		}

		o.Fill(fillQty)
		passive.Fill(fillQty)
		level.onFill(fillQty)
		*out = append(*out, tradeResponse(o, passive, passive.Price, fillQty))

		if passive.IsFilled() {
			target.removeResting(passive)
		}
	}
}

// availableLiquidity reports the total quantity resting on target at
// prices o is willing to trade at, without mutating anything — used by
// FOK's all-or-nothing pre-check.
func availableLiquidity(o *Order, target *bookSide) uint64 {
	var total uint64
	for el := target.levels.Front(); el != nil; el = el.Next() {
		level := el.Value.(*PriceLevel)
		if !o.CanMatchAgainst(level.Price) {
			break
		}
		total += level.aggregateQuantity()
	}
	return total
}

func (book *OrderBook) addLimitOrMarket(o *Order, out *[]protocol.Response) {
	mine, target := book.sideFor(o.Side)

	sweep(o, target, out)

	if o.RemainingQuantity == 0 {
		*out = append([]protocol.Response{ackResponse(o)}, *out...)
		return
	}

	if o.Type == protocol.Market {
		acked := append([]protocol.Response{ackResponse(o)}, *out...)
		*out = append(acked, rejectResponse(o, protocol.RejectReasonNoLiquidity))
		return
	}

	// Limit order with residual quantity: rest it.
	mine.rest(o)
	*out = append([]protocol.Response{ackResponse(o)}, *out...)
}

func (book *OrderBook) addIOC(o *Order, out *[]protocol.Response) {
	_, target := book.sideFor(o.Side)

	if target.bestLevel() == nil {
		*out = append(*out, ackResponse(o), rejectResponse(o, protocol.RejectReasonNoLiquidity))
		return
	}
	if !o.CanMatchAgainst(target.bestLevel().Price) {
		*out = append(*out, ackResponse(o), rejectResponse(o, protocol.RejectReasonPriceMismatch))
		return
	}

	var trades []protocol.Response
	sweep(o, target, &trades)

	*out = append(*out, ackResponse(o))
	*out = append(*out, trades...)
	if o.RemainingQuantity > 0 {
		*out = append(*out, rejectResponse(o, protocol.RejectReasonNoLiquidity))
	}
}

func (book *OrderBook) addFOK(o *Order, out *[]protocol.Response) {
	_, target := book.sideFor(o.Side)

	if availableLiquidity(o, target) < uint64(o.RemainingQuantity) {
		*out = append(*out, ackResponse(o), rejectResponse(o, protocol.RejectReasonInsufficientSize))
		return
	}

	var trades []protocol.Response
	sweep(o, target, &trades)

	*out = append(*out, ackResponse(o))
	*out = append(*out, trades...)
	// availableLiquidity guarantees a full fill; o.RemainingQuantity == 0 here.
}

func (book *OrderBook) addPostOnly(o *Order, out *[]protocol.Response) {
	mine, target := book.sideFor(o.Side)

	if best := target.bestLevel(); best != nil && o.CanMatchAgainst(best.Price) {
		*out = append(*out, ackResponse(o), rejectResponse(o, protocol.RejectReasonWouldCrossSpread))
		return
	}

	mine.rest(o)
	*out = append(*out, ackResponse(o))
}

// CancelOrder removes a resting order by identity and emits a CancelAck. An
// unknown (userID, userOrderID) pair still gets a CancelAck, carrying the
// sentinel Unknown symbol, rather than an ORDER_REJECTED — cancel never
// rejects.
func (book *OrderBook) CancelOrder(userID, userOrderID uint32, out *[]protocol.Response) {
	o := book.asks.find(userID, userOrderID)
	side := book.asks
	if o == nil {
		o = book.bids.find(userID, userOrderID)
		side = book.bids
	}
	if o == nil {
		*out = append(*out, protocol.Response{
			Kind:        protocol.RespCancelAck,
			UserID:      userID,
			UserOrderID: userOrderID,
			Symbol:      uint64(Unknown),
		})
		return
	}

	side.removeResting(o)
	*out = append(*out, protocol.Response{
		Kind:        protocol.RespCancelAck,
		UserID:      o.UserID,
		UserOrderID: o.UserOrderID,
		Symbol:      uint64(o.Symbol),
		Price:       o.Price,
		Quantity:    o.RemainingQuantity,
		Side:        o.Side,
	})
	book.emitTopOfBookChanges(out)
}

// AmendOrder modifies a resting order in place, per SPEC_FULL.md §4.7:
// a price change or a quantity increase loses priority (remove, then
// resubmit as a new order through the full AddOrder path); a same-price
// quantity decrease keeps priority (update in place).
func (book *OrderBook) AmendOrder(userID, userOrderID, newPrice, newQuantity uint32, nextSequence func() uint64, out *[]protocol.Response) {
	o := book.asks.find(userID, userOrderID)
	side := book.asks
	if o == nil {
		o = book.bids.find(userID, userOrderID)
		side = book.bids
	}
	if o == nil {
		*out = append(*out, protocol.Response{
			Kind:        protocol.RespOrderRejected,
			UserID:      userID,
			UserOrderID: userOrderID,
			Reason:      protocol.RejectReasonOrderNotFound,
		})
		return
	}

	oldPrice, oldQuantity := o.Price, o.RemainingQuantity

	losesPriority := newPrice != o.Price || newQuantity > o.RemainingQuantity
	if !losesPriority {
		delta := oldQuantity - newQuantity
		level := side.levelAt(o.Price)
		o.RemainingQuantity = newQuantity
		level.onFill(delta)

		*out = append(*out, protocol.Response{
			Kind:        protocol.RespAmendAck,
			UserID:      o.UserID,
			UserOrderID: o.UserOrderID,
			Symbol:      uint64(o.Symbol),
			OldPrice:    oldPrice,
			OldQuantity: oldQuantity,
			Price:       newPrice,
			Quantity:    newQuantity,
			Side:        o.Side,
		})
		book.emitTopOfBookChanges(out)
		return
	}

	side.removeResting(o)
	resubmitted := &Order{
		UserID:            o.UserID,
		UserOrderID:       o.UserOrderID,
		Symbol:            o.Symbol,
		Price:             newPrice,
		Side:              o.Side,
		Type:              protocol.Limit,
		OriginalQuantity:  newQuantity,
		RemainingQuantity: newQuantity,
		Sequence:          nextSequence(),
	}

	*out = append(*out, protocol.Response{
		Kind:        protocol.RespAmendAck,
		UserID:      o.UserID,
		UserOrderID: o.UserOrderID,
		Symbol:      uint64(o.Symbol),
		OldPrice:    oldPrice,
		OldQuantity: oldQuantity,
		Price:       newPrice,
		Quantity:    newQuantity,
		Side:        o.Side,
	})
	book.AddOrder(resubmitted, out)
}

// Flush removes every resting order from both sides without emitting a
// per-order CancelAck (see SPEC_FULL.md §9 decision 1), then reports
// top-of-book eliminations for whichever side had anything resting.
func (book *OrderBook) Flush(out *[]protocol.Response) {
	book.bids.flush()
	book.asks.flush()
	book.emitTopOfBookChanges(out)
}

// TopOfBookQuery reports the current best price/quantity on each side. A
// side with nothing resting is reported as a zero elimination.
func (book *OrderBook) TopOfBookQuery(out *[]protocol.Response) {
	*out = append(*out, topOfBookResponse(book.Symbol, Buy, book.bids.bestLevel()))
	*out = append(*out, topOfBookResponse(book.Symbol, Sell, book.asks.bestLevel()))
}

func topOfBookResponse(symbol Symbol, side Side, level *PriceLevel) protocol.Response {
	r := protocol.Response{Kind: protocol.RespTopOfBook, Symbol: uint64(symbol), Side: side}
	if level != nil {
		r.Price = level.Price
		r.Quantity = uint32(level.aggregateQuantity())
	}
	return r
}

// DepthQuery returns up to levels price levels per side; a pure read with
// no side effects on the book or its top-of-book cache.
func (book *OrderBook) DepthQuery(levels uint32, out *[]protocol.Response) {
	*out = append(*out, protocol.Response{
		Kind:   protocol.RespDepth,
		Symbol: uint64(book.Symbol),
		Bids:   book.bids.depth(levels),
		Asks:   book.asks.depth(levels),
	})
}

// emitTopOfBookChanges compares each side's current best level against the
// cached snapshot from the previous operation and appends a TOP_OF_BOOK
// response only for sides whose price or aggregate quantity actually
// changed, ask side first, then bid side. A side that has never held an
// order counts as empty (0/0), so it produces no elimination.
func (book *OrderBook) emitTopOfBookChanges(out *[]protocol.Response) {
	book.emitSideTopOfBookChange(Sell, book.asks, &book.prevAskTop, out)
	book.emitSideTopOfBookChange(Buy, book.bids, &book.prevBidTop, out)
}

func (book *OrderBook) emitSideTopOfBookChange(side Side, bs *bookSide, prev *topOfBook, out *[]protocol.Response) {
	level := bs.bestLevel()

	var cur topOfBook
	cur.known = true
	if level != nil {
		cur.price = level.Price
		cur.quantity = level.aggregateQuantity()
	}

	if prev.price == cur.price && prev.quantity == cur.quantity {
		return
	}
	*prev = cur

	r := protocol.Response{Kind: protocol.RespTopOfBook, Symbol: uint64(book.Symbol), Side: side, Price: cur.price, Quantity: uint32(cur.quantity)}
	*out = append(*out, r)
}
