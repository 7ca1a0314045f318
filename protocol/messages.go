package protocol

// RequestKind is the tag of the Request closed sum type. Dispatch on the
// hot path is a single switch over Kind followed by monomorphic field
// access — no type assertions, no interface boxing.
type RequestKind uint8

const (
	ReqNewOrder RequestKind = iota + 1
	ReqCancel
	ReqFlush
	ReqTopOfBookQuery
	ReqAmend
	ReqDepthQuery
)

// Request is a flat tagged union of every message the transport layer can
// submit to the matching engine. Only the fields relevant to Kind are
// populated; callers build one with the constructors below
// (NewOrderRequest, CancelRequest, FlushRequest, ...) rather than setting
// Kind by hand.
type Request struct {
	Kind RequestKind

	UserID      uint32
	UserOrderID uint32
	Symbol      uint64 // packed match.Symbol; protocol stays independent of the match package
	Price       uint32
	Quantity    uint32
	Side        Side
	OrderType   OrderType

	// Amend-only fields.
	NewPrice    uint32
	NewQuantity uint32

	// DepthQuery-only field.
	Levels uint32
}

func NewOrderRequest(userID, userOrderID uint32, symbol uint64, price, quantity uint32, side Side, orderType OrderType) Request {
	return Request{
		Kind:        ReqNewOrder,
		UserID:      userID,
		UserOrderID: userOrderID,
		Symbol:      symbol,
		Price:       price,
		Quantity:    quantity,
		Side:        side,
		OrderType:   orderType,
	}
}

func CancelRequest(userID, userOrderID uint32) Request {
	return Request{Kind: ReqCancel, UserID: userID, UserOrderID: userOrderID}
}

func FlushRequest() Request {
	return Request{Kind: ReqFlush}
}

func TopOfBookQueryRequest(symbol uint64) Request {
	return Request{Kind: ReqTopOfBookQuery, Symbol: symbol}
}

func AmendRequest(userID, userOrderID uint32, newPrice, newQuantity uint32) Request {
	return Request{Kind: ReqAmend, UserID: userID, UserOrderID: userOrderID, NewPrice: newPrice, NewQuantity: newQuantity}
}

func DepthQueryRequest(symbol uint64, levels uint32) Request {
	return Request{Kind: ReqDepthQuery, Symbol: symbol, Levels: levels}
}

// ResponseKind is the tag of the Response closed sum type.
type ResponseKind uint8

const (
	RespAck ResponseKind = iota + 1
	RespCancelAck
	RespAmendAck
	RespTrade
	RespTopOfBook
	RespOrderRejected
	RespDepth
)

// Response is a flat tagged union of every message the matching engine
// can produce for a single processed Request. The match package's
// OrderBook methods append these by value to a []Response buffer that the
// engine allocates per request; only the Depth fields hold slices.
type Response struct {
	Kind ResponseKind

	UserID      uint32
	UserOrderID uint32
	Symbol      uint64
	Price       uint32
	Quantity    uint32
	Side        Side

	// Trade-only fields.
	BuyUserID       uint32
	BuyUserOrderID  uint32
	SellUserID      uint32
	SellUserOrderID uint32

	// Amend-only fields.
	OldPrice    uint32
	OldQuantity uint32

	// OrderRejected-only field.
	Reason RejectReason

	// Depth-only fields (DepthQuery has no intrinsic ordering contract in
	// the deterministic per-input output stream; it is a pure read).
	Bids []PriceLevelView
	Asks []PriceLevelView
}

// PriceLevelView is a single (price, aggregate quantity) pair, used by the
// Depth response and by read-only book-state queries.
type PriceLevelView struct {
	Price    uint32
	Quantity uint64
}
