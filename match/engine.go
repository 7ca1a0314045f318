package match

import (
	"context"
	"runtime"
	"sync/atomic"

	"github.com/driftmkt/obcore/protocol"
)

type inboundItem struct {
	symbol Symbol
	req    protocol.Request
}

// Stats holds engine-wide counters for conditions that are not themselves
// engine-fatal but are worth tracking: a dropped Stats() snapshot never
// blocks the hot path, matching the BookStats read path in the teacher's
// order_book.go, generalized from a synchronous command/response round
// trip to plain atomics the caller reads directly.
type Stats struct {
	Processed   uint64
	QueueDrops  uint64
	RejectedBad uint64
}

// Engine owns one OrderBook per registered symbol and processes every
// inbound request on a single dispatch goroutine, matching the teacher's
// single-threaded OrderBook.Start() loop generalized from one symbol to
// many. There is no locking inside the loop: books are only ever touched
// from here.
type Engine struct {
	books map[Symbol]*OrderBook
	sink  Sink

	inbound          chan inboundItem
	done             chan struct{}
	shutdownComplete chan struct{}
	isShutdown       atomic.Bool

	sequence atomic.Uint64

	processed   atomic.Uint64
	queueDrops  atomic.Uint64
	rejectedBad atomic.Uint64
}

// NewEngine constructs an Engine with the given output sink and a bounded
// inbound queue of queueSize; pass 0 to use DefaultInboundQueueSize.
func NewEngine(sink Sink, queueSize int) *Engine {
	if queueSize <= 0 {
		queueSize = DefaultInboundQueueSize
	}
	if sink == nil {
		sink = NewDiscardSink()
	}
	return &Engine{
		books:            make(map[Symbol]*OrderBook),
		sink:             sink,
		inbound:          make(chan inboundItem, queueSize),
		done:             make(chan struct{}),
		shutdownComplete: make(chan struct{}),
	}
}

// RegisterSymbol creates an empty book for symbol ahead of time. Calling it
// is optional — NEW_ORDER creates a book on demand for any symbol it hasn't
// seen yet — but pre-registering keeps a symbol's first order from paying
// the (tiny) cost of book creation on the dispatch goroutine's first touch.
func (e *Engine) RegisterSymbol(symbol Symbol) {
	if _, ok := e.books[symbol]; ok {
		return
	}
	invariant(len(e.books) < MaxSymbols, "engine exceeded MaxSymbols")
	e.books[symbol] = NewOrderBook(symbol)
}

// bookForNewOrder resolves symbol's book, creating it on demand if this is
// the first time the engine has seen it. Bounded by MaxSymbols like
// RegisterSymbol.
func (e *Engine) bookForNewOrder(symbol Symbol) *OrderBook {
	if book, ok := e.books[symbol]; ok {
		return book
	}
	invariant(len(e.books) < MaxSymbols, "engine exceeded MaxSymbols")
	book := NewOrderBook(symbol)
	e.books[symbol] = book
	return book
}

// Submit enqueues a request for symbol. It never blocks: if the inbound
// queue is full the request is dropped and ErrQueueFull is returned, per
// the engine's drop-on-full backpressure policy.
func (e *Engine) Submit(symbol Symbol, req protocol.Request) error {
	if e.isShutdown.Load() {
		return ErrShutdown
	}

	select {
	case e.inbound <- inboundItem{symbol: symbol, req: req}:
		return nil
	default:
		e.queueDrops.Add(1)
		return ErrQueueFull
	}
}

// Start runs the dispatch loop until Shutdown closes the done channel,
// then drains whatever is left in the inbound queue before returning.
// Intended to be run on its own goroutine.
func (e *Engine) Start() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for {
		select {
		case <-e.done:
			e.drain()
			close(e.shutdownComplete)
			return
		case item := <-e.inbound:
			e.dispatch(item)
		}
	}
}

// drain processes whatever remains in the inbound queue once shutdown has
// been signalled, so submissions accepted before Shutdown was called are
// never silently lost.
func (e *Engine) drain() {
	for {
		select {
		case item := <-e.inbound:
			e.dispatch(item)
		default:
			return
		}
	}
}

// Shutdown signals the dispatch loop to stop accepting new work from the
// queue after draining it, and blocks until that drain completes or ctx
// is cancelled.
func (e *Engine) Shutdown(ctx context.Context) error {
	if e.isShutdown.CompareAndSwap(false, true) {
		close(e.done)
	}

	select {
	case <-e.shutdownComplete:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) nextSequence() uint64 {
	return e.sequence.Add(1)
}

// dispatch runs a single request against its book and publishes whatever
// responses it produces. Unknown symbols are reported as a rejection
// rather than panicking the engine thread, since an unregistered symbol
// is a client-input problem, not a broken invariant — except for
// NEW_ORDER, which creates the book it needs on first sight; FLUSH,
// which ignores item.symbol entirely and is fanned out to every book; and
// CANCEL/AMEND, which ignore item.symbol and go to whichever book holds
// the order.
func (e *Engine) dispatch(item inboundItem) {
	req := item.req

	if req.Kind == protocol.ReqFlush {
		e.flushAll()
		e.processed.Add(1)
		return
	}

	var book *OrderBook
	if req.Kind == protocol.ReqCancel || req.Kind == protocol.ReqAmend {
		// CANCEL and AMEND carry no symbol on the wire: they go to the book
		// holding the order, or to an empty stand-in book, which answers as
		// for an unknown order (CancelAck or ORDER_REJECTED with Unknown).
		item.symbol, book = Unknown, NewOrderBook(Unknown)
		for s, b := range e.books {
			if b.bids.find(req.UserID, req.UserOrderID) != nil || b.asks.find(req.UserID, req.UserOrderID) != nil {
				item.symbol, book = s, b
			}
		}
	} else if req.Kind == protocol.ReqNewOrder {
		book = e.bookForNewOrder(item.symbol)
	} else {
		var ok bool
		book, ok = e.books[item.symbol]
		if !ok {
			// TOP_OF_BOOK_QUERY against an unknown symbol is silent: closer to a
			// protocol error than a legitimate "book is empty" answer, and a
			// query has no ORDER_REJECTED-shaped (userID, userOrderID) identity
			// to attach a rejection to anyway.
			if req.Kind == protocol.ReqTopOfBookQuery {
				e.rejectedBad.Add(1)
				return
			}
			e.rejectedBad.Add(1)
			e.sink.Publish(item.symbol, []protocol.Response{{
				Kind:   protocol.RespOrderRejected,
				Symbol: uint64(item.symbol),
				Reason: protocol.RejectReasonOrderNotFound,
			}})
			return
		}
	}

	out := make([]protocol.Response, 0, 8)

	switch req.Kind {
	case protocol.ReqNewOrder:
		o := &Order{
			UserID:            req.UserID,
			UserOrderID:       req.UserOrderID,
			Symbol:            item.symbol,
			Price:             req.Price,
			Side:              req.Side,
			Type:              req.OrderType,
			OriginalQuantity:  req.Quantity,
			RemainingQuantity: req.Quantity,
			Sequence:          e.nextSequence(),
		}
		book.AddOrder(o, &out)
	case protocol.ReqCancel:
		book.CancelOrder(req.UserID, req.UserOrderID, &out)
	case protocol.ReqAmend:
		book.AmendOrder(req.UserID, req.UserOrderID, req.NewPrice, req.NewQuantity, e.nextSequence, &out)
	case protocol.ReqTopOfBookQuery:
		book.TopOfBookQuery(&out)
	case protocol.ReqDepthQuery:
		book.DepthQuery(req.Levels, &out)
	default:
		e.rejectedBad.Add(1)
		return
	}

	e.processed.Add(1)
	if len(out) > 0 {
		e.sink.Publish(item.symbol, out)
	}
}

// flushAll invokes Flush on every registered book, independent of any
// single inbound item's symbol, and publishes each book's resulting
// top-of-book eliminations under that book's own symbol.
func (e *Engine) flushAll() {
	for symbol, book := range e.books {
		out := make([]protocol.Response, 0, 2)
		book.Flush(&out)
		if len(out) > 0 {
			e.sink.Publish(symbol, out)
		}
	}
}

// Stats returns a snapshot of the engine's counters. Safe to call from any
// goroutine.
func (e *Engine) Stats() Stats {
	return Stats{
		Processed:   e.processed.Load(),
		QueueDrops:  e.queueDrops.Load(),
		RejectedBad: e.rejectedBad.Load(),
	}
}
