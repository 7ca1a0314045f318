package match

import "github.com/driftmkt/obcore/protocol"

// Order is a single resting or in-flight order. Orders that come to rest in
// a PriceLevel are linked into that level's intrusive FIFO queue via prev
// and next; an order that never rests (fully matched, or an IOC/FOK/POST_ONLY
// order that never enters a level) leaves those pointers nil.
type Order struct {
	UserID      uint32
	UserOrderID uint32
	Symbol      Symbol
	Price       uint32
	Side        protocol.Side
	Type        protocol.OrderType

	OriginalQuantity  uint32
	RemainingQuantity uint32

	// Sequence is the engine-assigned admission order, used to break ties
	// between orders resting at the same price (time priority).
	Sequence uint64

	prev, next *Order
}

// Fill reduces the order's remaining quantity by up to n, returning the
// quantity actually filled. Callers never pass n larger than Remaining;
// Fill trusts that invariant rather than clamping, since the matching
// loop always computes n as min(aggressor remaining, passive remaining).
func (o *Order) Fill(n uint32) uint32 {
	o.RemainingQuantity -= n
	return n
}

// IsFilled reports whether the order has no remaining quantity.
func (o *Order) IsFilled() bool {
	return o.RemainingQuantity == 0
}

// CanMatchAgainst reports whether this order is willing to trade against a
// passive order resting at passivePrice. Market orders accept any price;
// limit-family orders (Limit, IOC, FOK, PostOnly) require a buy price at or
// above the passive price, or a sell price at or below it.
func (o *Order) CanMatchAgainst(passivePrice uint32) bool {
	if o.Type == protocol.Market {
		return true
	}
	if o.Side == protocol.Buy {
		return o.Price >= passivePrice
	}
	return o.Price <= passivePrice
}
