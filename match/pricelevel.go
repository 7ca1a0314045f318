package match

// PriceLevel is the FIFO queue of resting orders at a single price, plus a
// running total of their remaining quantity. Orders are linked intrusively
// (head/tail on the level, prev/next on the order) so insertion at the tail,
// removal of the head, and removal of an arbitrary order by identity are all
// O(1) once the order itself is known — no scanning of the queue is needed,
// matching the teacher's queue.go technique rather than a literal front-to-
// back scan.
type PriceLevel struct {
	Price uint32

	head, tail *Order
	count      int
	aggregate  uint64
}

func newPriceLevel(price uint32) *PriceLevel {
	return &PriceLevel{Price: price}
}

// append adds o to the tail of the FIFO queue, giving it the lowest time
// priority among orders currently resting at this price.
func (pl *PriceLevel) append(o *Order) {
	invariant(pl.count < MaxOrdersPerPriceLevel, "price level %d exceeded MaxOrdersPerPriceLevel", pl.Price)

	o.prev = pl.tail
	o.next = nil
	if pl.tail != nil {
		pl.tail.next = o
	} else {
		pl.head = o
	}
	pl.tail = o
	pl.count++
	pl.aggregate += uint64(o.RemainingQuantity)
}

// front returns the order with the highest time priority, or nil if the
// level is empty.
func (pl *PriceLevel) front() *Order {
	return pl.head
}

// onFill must be called after o.Fill reduces its remaining quantity, to
// keep the level's aggregate in sync. It does not remove o even if it is
// now fully filled; callers remove filled orders explicitly.
func (pl *PriceLevel) onFill(filled uint32) {
	pl.aggregate -= uint64(filled)
}

// removeByIdentity unlinks o from the queue in O(1), given only a pointer
// to the order itself — no traversal of the level's other orders is
// required. Safe to call on an order already known to belong to this level.
func (pl *PriceLevel) removeByIdentity(o *Order) {
	if o.prev != nil {
		o.prev.next = o.next
	} else {
		pl.head = o.next
	}
	if o.next != nil {
		o.next.prev = o.prev
	} else {
		pl.tail = o.prev
	}
	o.prev, o.next = nil, nil
	pl.count--
	pl.aggregate -= uint64(o.RemainingQuantity)
}

// popFront removes and returns the head order, or nil if the level is empty.
func (pl *PriceLevel) popFront() *Order {
	o := pl.head
	if o == nil {
		return nil
	}
	pl.removeByIdentity(o)
	return o
}

func (pl *PriceLevel) isEmpty() bool {
	return pl.count == 0
}

// aggregateQuantity returns the sum of remaining quantity across every
// order resting at this price.
func (pl *PriceLevel) aggregateQuantity() uint64 {
	return pl.aggregate
}
