package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/driftmkt/obcore/protocol"
)

// Binary wire protocol constants. Magic and the four core message
// layouts/sizes are fixed by the reference wire format; the additive
// Amend/DepthQuery/AmendAck/OrderRejected types are this engine's own
// extension and are not bound by any external layout.
const (
	magicByte byte = 0x4D // 'M'

	symbolSize = 8

	inputNewOrder       byte = 'N'
	inputCancel         byte = 'C'
	inputFlush          byte = 'F'
	inputTopOfBookQuery byte = 'Q'
	inputAmend          byte = 'M'
	inputDepthQuery     byte = 'D'

	outputAck           byte = 'A'
	outputCancelAck     byte = 'X'
	outputTrade         byte = 'T'
	outputTopOfBook     byte = 'B'
	outputAmendAck      byte = 'M'
	outputOrderRejected byte = 'R'
	outputDepth         byte = 'V'

	// NewOrder: magic(1) + type(1) + userId(4) + symbol(8) + price(4) + qty(4) + side(1) + orderId(4)
	newOrderSize = 27
	// Cancel: magic(1) + type(1) + userId(4) + symbol(8) + orderId(4)
	cancelSize = 18
	// Flush: magic(1) + type(1)
	flushSize = 2
	// TopOfBookQuery: magic(1) + type(1) + symbol(8)
	topOfBookQuerySize = 10
	// Amend: magic(1) + type(1) + userId(4) + orderId(4) + newPrice(4) + newQty(4)
	amendSize = 18

	// Ack/CancelAck: magic(1) + type(1) + symbol(8) + userId(4) + orderId(4)
	ackSize = 18
	// Trade: magic(1) + type(1) + symbol(8) + buyUser(4) + buyOrder(4) + sellUser(4) + sellOrder(4) + price(4) + qty(4)
	tradeSize = 34
	// TopOfBook: magic(1) + type(1) + symbol(8) + side(1) + price(4) + qty(4) + padding(1)
	topOfBookSize = 20
	// AmendAck: magic(1) + type(1) + userId(4) + orderId(4) + oldPrice(4) + oldQty(4) + newPrice(4) + newQty(4)
	amendAckSize = 26
	// OrderRejected: magic(1) + type(1) + userId(4) + orderId(4) + symbol(8) + reason(1)
	orderRejectedSize = 19
)

func wireSide(s protocol.Side) byte {
	if s == protocol.Sell {
		return 1
	}
	return 0
}

func sideFromWire(b byte) (protocol.Side, error) {
	switch b {
	case 0:
		return protocol.Buy, nil
	case 1:
		return protocol.Sell, nil
	default:
		return 0, fmt.Errorf("wire: invalid side wire value %d", b)
	}
}

// DecodeBinaryInput decodes a single framed input payload (the
// [frame_len][payload] envelope is the transport's job — this function
// takes the payload bytes only, starting at the magic byte).
func DecodeBinaryInput(payload []byte) (protocol.Request, error) {
	if len(payload) < 2 {
		return protocol.Request{}, fmt.Errorf("wire: truncated frame, need at least 2 bytes")
	}
	if payload[0] != magicByte {
		return protocol.Request{}, fmt.Errorf("wire: invalid magic byte 0x%02X", payload[0])
	}

	switch payload[1] {
	case inputNewOrder:
		return decodeBinaryNewOrder(payload)
	case inputCancel:
		return decodeBinaryCancel(payload)
	case inputFlush:
		if len(payload) != flushSize {
			return protocol.Request{}, fmt.Errorf("wire: FLUSH frame must be %d bytes, got %d", flushSize, len(payload))
		}
		return protocol.FlushRequest(), nil
	case inputTopOfBookQuery:
		return decodeBinaryTopOfBookQuery(payload)
	case inputAmend:
		return decodeBinaryAmend(payload)
	case inputDepthQuery:
		return decodeBinaryDepthQuery(payload)
	default:
		return protocol.Request{}, fmt.Errorf("wire: unknown input message type 0x%02X", payload[1])
	}
}

func decodeBinaryNewOrder(payload []byte) (protocol.Request, error) {
	if len(payload) != newOrderSize {
		return protocol.Request{}, fmt.Errorf("wire: NEW_ORDER frame must be %d bytes, got %d", newOrderSize, len(payload))
	}
	userID := binary.BigEndian.Uint32(payload[2:6])
	symbol := binary.BigEndian.Uint64(payload[6:14])
	price := binary.BigEndian.Uint32(payload[14:18])
	qty := binary.BigEndian.Uint32(payload[18:22])
	side, err := sideFromWire(payload[22])
	if err != nil {
		return protocol.Request{}, err
	}
	userOrderID := binary.BigEndian.Uint32(payload[23:27])
	return protocol.NewOrderRequest(userID, userOrderID, symbol, price, qty, side, protocol.Limit), nil
}

func decodeBinaryCancel(payload []byte) (protocol.Request, error) {
	if len(payload) != cancelSize {
		return protocol.Request{}, fmt.Errorf("wire: CANCEL frame must be %d bytes, got %d", cancelSize, len(payload))
	}
	userID := binary.BigEndian.Uint32(payload[2:6])
	// payload[6:14] is the symbol; unused for cancel, matching the
	// reference codec which skips it entirely.
	userOrderID := binary.BigEndian.Uint32(payload[14:18])
	return protocol.CancelRequest(userID, userOrderID), nil
}

func decodeBinaryTopOfBookQuery(payload []byte) (protocol.Request, error) {
	if len(payload) != topOfBookQuerySize {
		return protocol.Request{}, fmt.Errorf("wire: TOP_OF_BOOK_QUERY frame must be %d bytes, got %d", topOfBookQuerySize, len(payload))
	}
	symbol := binary.BigEndian.Uint64(payload[2:10])
	return protocol.TopOfBookQueryRequest(symbol), nil
}

func decodeBinaryAmend(payload []byte) (protocol.Request, error) {
	if len(payload) != amendSize {
		return protocol.Request{}, fmt.Errorf("wire: AMEND frame must be %d bytes, got %d", amendSize, len(payload))
	}
	userID := binary.BigEndian.Uint32(payload[2:6])
	userOrderID := binary.BigEndian.Uint32(payload[6:10])
	newPrice := binary.BigEndian.Uint32(payload[10:14])
	newQty := binary.BigEndian.Uint32(payload[14:18])
	return protocol.AmendRequest(userID, userOrderID, newPrice, newQty), nil
}

func decodeBinaryDepthQuery(payload []byte) (protocol.Request, error) {
	const depthQuerySize = 2 + symbolSize + 4
	if len(payload) != depthQuerySize {
		return protocol.Request{}, fmt.Errorf("wire: DEPTH_QUERY frame must be %d bytes, got %d", depthQuerySize, len(payload))
	}
	symbol := binary.BigEndian.Uint64(payload[2:10])
	levels := binary.BigEndian.Uint32(payload[10:14])
	return protocol.DepthQueryRequest(symbol, levels), nil
}

// EncodeBinaryOutput appends the framed payload for r (magic + type +
// fields, no outer [frame_len] envelope — the transport adds that) to buf
// and returns the extended slice.
func EncodeBinaryOutput(buf []byte, r protocol.Response) ([]byte, error) {
	switch r.Kind {
	case protocol.RespAck:
		return appendAckLike(buf, outputAck, r), nil
	case protocol.RespCancelAck:
		return appendAckLike(buf, outputCancelAck, r), nil
	case protocol.RespTrade:
		return appendTrade(buf, r), nil
	case protocol.RespTopOfBook:
		return appendTopOfBook(buf, r), nil
	case protocol.RespAmendAck:
		return appendAmendAck(buf, r), nil
	case protocol.RespOrderRejected:
		return appendOrderRejected(buf, r), nil
	case protocol.RespDepth:
		return appendDepth(buf, r), nil
	default:
		return buf, fmt.Errorf("wire: response kind %d has no binary encoding", r.Kind)
	}
}

func appendAckLike(buf []byte, typ byte, r protocol.Response) []byte {
	buf = append(buf, magicByte, typ)
	buf = appendUint64(buf, r.Symbol)
	buf = appendUint32(buf, r.UserID)
	buf = appendUint32(buf, r.UserOrderID)
	return buf
}

func appendTrade(buf []byte, r protocol.Response) []byte {
	buf = append(buf, magicByte, outputTrade)
	buf = appendUint64(buf, r.Symbol)
	buf = appendUint32(buf, r.BuyUserID)
	buf = appendUint32(buf, r.BuyUserOrderID)
	buf = appendUint32(buf, r.SellUserID)
	buf = appendUint32(buf, r.SellUserOrderID)
	buf = appendUint32(buf, r.Price)
	buf = appendUint32(buf, r.Quantity)
	return buf
}

func appendTopOfBook(buf []byte, r protocol.Response) []byte {
	buf = append(buf, magicByte, outputTopOfBook)
	buf = appendUint64(buf, r.Symbol)
	buf = append(buf, wireSide(r.Side))
	buf = appendUint32(buf, r.Price)
	buf = appendUint32(buf, r.Quantity)
	buf = append(buf, 0) // padding
	return buf
}

func appendAmendAck(buf []byte, r protocol.Response) []byte {
	buf = append(buf, magicByte, outputAmendAck)
	buf = appendUint32(buf, r.UserID)
	buf = appendUint32(buf, r.UserOrderID)
	buf = appendUint32(buf, r.OldPrice)
	buf = appendUint32(buf, r.OldQuantity)
	buf = appendUint32(buf, r.Price)
	buf = appendUint32(buf, r.Quantity)
	return buf
}

func appendOrderRejected(buf []byte, r protocol.Response) []byte {
	buf = append(buf, magicByte, outputOrderRejected)
	buf = appendUint32(buf, r.UserID)
	buf = appendUint32(buf, r.UserOrderID)
	buf = appendUint64(buf, r.Symbol)
	buf = append(buf, byte(r.Reason))
	return buf
}

// appendDepth encodes a variable-length DEPTH response: magic + type +
// symbol(8) + numBids(2) + [price(4)+qty(8)]*numBids + numAsks(2) +
// [price(4)+qty(8)]*numAsks. There is no fixed size for this frame since
// the level count is caller-chosen; this layout is this engine's own
// extension, not bound by the reference wire format.
func appendDepth(buf []byte, r protocol.Response) []byte {
	buf = append(buf, magicByte, outputDepth)
	buf = appendUint64(buf, r.Symbol)

	buf = appendUint16(buf, uint16(len(r.Bids)))
	for _, lvl := range r.Bids {
		buf = appendUint32(buf, lvl.Price)
		buf = appendUint64(buf, lvl.Quantity)
	}

	buf = appendUint16(buf, uint16(len(r.Asks)))
	for _, lvl := range r.Asks {
		buf = appendUint32(buf, lvl.Price)
		buf = appendUint64(buf, lvl.Quantity)
	}
	return buf
}

func appendUint16(buf []byte, v uint16) []byte {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}
