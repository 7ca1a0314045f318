package match

import (
	"github.com/huandu/skiplist"

	"github.com/driftmkt/obcore/protocol"
)

// bookSide is the price-ordered index for one side of an OrderBook. It
// keeps a skiplist of PriceLevels ordered by price (descending for bids,
// ascending for asks, so the best price is always the skiplist's front
// element), a parallel map from price to the skiplist element holding
// that level (so removal never needs a key-based skiplist lookup), and a
// flat hash index from (userID, userOrderID) to the resting *Order, so
// cancel/amend by identity never walks the skiplist. Grounded on the
// teacher's queue.go — same depthList/priceList/orders triple — adapted
// from udecimal.Decimal price keys to uint32 tick prices and from a
// string order id to the (userID, userOrderID) pair used throughout this
// engine.
type bookSide struct {
	side Side

	cmp        skiplist.GreaterThanFunc
	levels     *skiplist.SkipList
	priceIndex map[uint32]*skiplist.Element
	byKey      map[orderKey]*Order

	restingCount int
}

// Side is an alias of protocol.Side, re-exported (with Buy and Sell) so
// code in match can name sides without the protocol prefix.
type Side = protocol.Side

const (
	Buy  = protocol.Buy
	Sell = protocol.Sell
)

type orderKey struct {
	userID      uint32
	userOrderID uint32
}

func newBookSide(side Side) *bookSide {
	var cmp skiplist.GreaterThanFunc
	if side == Buy {
		// Bids: highest price sorts first.
		cmp = func(lhs, rhs any) int {
			l, r := lhs.(uint32), rhs.(uint32)
			switch {
			case l > r:
				return -1
			case l < r:
				return 1
			default:
				return 0
			}
		}
	} else {
		// Asks: lowest price sorts first.
		cmp = func(lhs, rhs any) int {
			l, r := lhs.(uint32), rhs.(uint32)
			switch {
			case l < r:
				return -1
			case l > r:
				return 1
			default:
				return 0
			}
		}
	}

	return &bookSide{
		side:       side,
		cmp:        cmp,
		levels:     skiplist.New(cmp),
		priceIndex: make(map[uint32]*skiplist.Element),
		byKey:      make(map[orderKey]*Order),
	}
}

// bestLevel returns the level with highest time-priority at this side's
// best price, or nil if the side is empty.
func (bs *bookSide) bestLevel() *PriceLevel {
	front := bs.levels.Front()
	if front == nil {
		return nil
	}
	return front.Value.(*PriceLevel)
}

// levelAt returns the PriceLevel at price, creating it if absent.
func (bs *bookSide) levelAt(price uint32) *PriceLevel {
	if el, ok := bs.priceIndex[price]; ok {
		return el.Value.(*PriceLevel)
	}
	invariant(len(bs.priceIndex) < MaxPriceLevelsPerSide, "book side exceeded MaxPriceLevelsPerSide")
	pl := newPriceLevel(price)
	el := bs.levels.Set(price, pl)
	bs.priceIndex[price] = el
	return pl
}

// rest inserts o into its price level's FIFO queue and indexes it by
// identity. o.Price must already be set.
func (bs *bookSide) rest(o *Order) {
	pl := bs.levelAt(o.Price)
	pl.append(o)
	bs.byKey[orderKey{o.UserID, o.UserOrderID}] = o
	bs.restingCount++
}

// find looks up a resting order by identity in O(1).
func (bs *bookSide) find(userID, userOrderID uint32) *Order {
	return bs.byKey[orderKey{userID, userOrderID}]
}

// removeResting removes a resting order by identity — used for cancel, for
// an amend that loses priority, and for an order the matching loop has just
// reduced to zero remaining quantity. No-op if the order isn't indexed.
func (bs *bookSide) removeResting(o *Order) {
	key := orderKey{o.UserID, o.UserOrderID}
	if _, ok := bs.byKey[key]; !ok {
		return
	}
	delete(bs.byKey, key)
	bs.restingCount--

	el, ok := bs.priceIndex[o.Price]
	if !ok {
		return
	}
	pl := el.Value.(*PriceLevel)
	pl.removeByIdentity(o)
	if pl.isEmpty() {
		bs.levels.RemoveElement(el)
		delete(bs.priceIndex, o.Price)
	}
}

func (bs *bookSide) isEmpty() bool {
	return bs.restingCount == 0
}

// flush empties the side entirely, used by OrderBook.Flush.
func (bs *bookSide) flush() {
	bs.levels = skiplist.New(bs.cmp)
	bs.priceIndex = make(map[uint32]*skiplist.Element)
	bs.byKey = make(map[orderKey]*Order)
	bs.restingCount = 0
}

// depth walks up to n price levels from the best, collecting aggregate
// quantity per level, for DepthQuery.
func (bs *bookSide) depth(n uint32) []protocol.PriceLevelView {
	out := make([]protocol.PriceLevelView, 0, n)
	el := bs.levels.Front()
	for el != nil && uint32(len(out)) < n {
		pl := el.Value.(*PriceLevel)
		out = append(out, protocol.PriceLevelView{Price: pl.Price, Quantity: pl.aggregateQuantity()})
		el = el.Next()
	}
	return out
}
