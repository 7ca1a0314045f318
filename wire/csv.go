// Package wire implements the two external protocols the transport layer
// exchanges with clients: a human-readable CSV line protocol and a
// compact big-endian binary framing. Both codecs translate to and from
// protocol.Request/protocol.Response; neither codec knows anything about
// matching semantics.
package wire

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/driftmkt/obcore/match"
	"github.com/driftmkt/obcore/protocol"
)

// DecodeCSVLine parses a single input line. Comment lines (starting with
// '#') and blank lines decode to (zero Request, false, nil) rather than an
// error, matching the original format's "ignored, not malformed" handling.
func DecodeCSVLine(line string) (protocol.Request, bool, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return protocol.Request{}, false, nil
	}

	fields := strings.Split(line, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	switch strings.ToUpper(fields[0]) {
	case "N":
		return decodeCSVNewOrder(fields)
	case "C":
		return decodeCSVCancel(fields)
	case "F":
		return protocol.FlushRequest(), true, nil
	case "Q":
		return decodeCSVTopOfBookQuery(fields)
	case "M":
		return decodeCSVAmend(fields)
	case "D":
		return decodeCSVDepthQuery(fields)
	default:
		return protocol.Request{}, false, fmt.Errorf("wire: unknown CSV input type %q", fields[0])
	}
}

func decodeCSVNewOrder(fields []string) (protocol.Request, bool, error) {
	// N, userId, symbol, price, qty, side, userOrderId [, orderType]
	if len(fields) < 7 {
		return protocol.Request{}, false, fmt.Errorf("wire: NEW_ORDER requires 7 fields, got %d", len(fields))
	}
	userID, err := parseUint32(fields[1])
	if err != nil {
		return protocol.Request{}, false, err
	}
	symbol := match.Pack(fields[2])
	price, err := parseUint32(fields[3])
	if err != nil {
		return protocol.Request{}, false, err
	}
	qty, err := parseUint32(fields[4])
	if err != nil {
		return protocol.Request{}, false, err
	}
	side, err := decodeCSVSide(fields[5])
	if err != nil {
		return protocol.Request{}, false, err
	}
	userOrderID, err := parseUint32(fields[6])
	if err != nil {
		return protocol.Request{}, false, err
	}

	orderType := protocol.Limit
	if len(fields) > 7 && fields[7] != "" {
		orderType, err = decodeCSVOrderType(fields[7])
		if err != nil {
			return protocol.Request{}, false, err
		}
	}

	return protocol.NewOrderRequest(userID, userOrderID, uint64(symbol), price, qty, side, orderType), true, nil
}

func decodeCSVCancel(fields []string) (protocol.Request, bool, error) {
	// C, userId, userOrderId
	if len(fields) < 3 {
		return protocol.Request{}, false, fmt.Errorf("wire: CANCEL requires 3 fields, got %d", len(fields))
	}
	userID, err := parseUint32(fields[1])
	if err != nil {
		return protocol.Request{}, false, err
	}
	userOrderID, err := parseUint32(fields[2])
	if err != nil {
		return protocol.Request{}, false, err
	}
	return protocol.CancelRequest(userID, userOrderID), true, nil
}

func decodeCSVTopOfBookQuery(fields []string) (protocol.Request, bool, error) {
	// Q, symbol
	if len(fields) < 2 {
		return protocol.Request{}, false, fmt.Errorf("wire: TOP_OF_BOOK_QUERY requires 2 fields, got %d", len(fields))
	}
	return protocol.TopOfBookQueryRequest(uint64(match.Pack(fields[1]))), true, nil
}

func decodeCSVAmend(fields []string) (protocol.Request, bool, error) {
	// M, userId, userOrderId, newPrice, newQty
	if len(fields) < 5 {
		return protocol.Request{}, false, fmt.Errorf("wire: AMEND requires 5 fields, got %d", len(fields))
	}
	userID, err := parseUint32(fields[1])
	if err != nil {
		return protocol.Request{}, false, err
	}
	userOrderID, err := parseUint32(fields[2])
	if err != nil {
		return protocol.Request{}, false, err
	}
	newPrice, err := parseUint32(fields[3])
	if err != nil {
		return protocol.Request{}, false, err
	}
	newQty, err := parseUint32(fields[4])
	if err != nil {
		return protocol.Request{}, false, err
	}
	return protocol.AmendRequest(userID, userOrderID, newPrice, newQty), true, nil
}

func decodeCSVDepthQuery(fields []string) (protocol.Request, bool, error) {
	// D, symbol, levels
	if len(fields) < 3 {
		return protocol.Request{}, false, fmt.Errorf("wire: DEPTH_QUERY requires 3 fields, got %d", len(fields))
	}
	levels, err := parseUint32(fields[2])
	if err != nil {
		return protocol.Request{}, false, err
	}
	return protocol.DepthQueryRequest(uint64(match.Pack(fields[1])), levels), true, nil
}

func decodeCSVSide(s string) (protocol.Side, error) {
	if len(s) == 0 {
		return 0, fmt.Errorf("wire: empty side field")
	}
	switch s[0] {
	case 'B', 'b':
		return protocol.Buy, nil
	case 'S', 's':
		return protocol.Sell, nil
	default:
		return 0, fmt.Errorf("wire: invalid side %q", s)
	}
}

func decodeCSVOrderType(s string) (protocol.OrderType, error) {
	switch strings.ToUpper(s) {
	case "L", "LIMIT":
		return protocol.Limit, nil
	case "K", "MARKET":
		return protocol.Market, nil
	case "I", "IOC":
		return protocol.IOC, nil
	case "O", "FOK":
		return protocol.FOK, nil
	case "P", "POST_ONLY":
		return protocol.PostOnly, nil
	default:
		return 0, fmt.Errorf("wire: invalid order type %q", s)
	}
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("wire: invalid integer field %q: %w", s, err)
	}
	return uint32(v), nil
}

// EncodeCSVLine renders a single output response as a CSV line (without a
// trailing newline). The caller owns line termination.
func EncodeCSVLine(r protocol.Response) string {
	symbol := match.Symbol(r.Symbol).String()
	if match.Symbol(r.Symbol).IsUnknown() {
		symbol = "<UNK>"
	}

	switch r.Kind {
	case protocol.RespAck:
		return fmt.Sprintf("A, %d, %d, %s", r.UserID, r.UserOrderID, symbol)
	case protocol.RespCancelAck:
		return fmt.Sprintf("X, %d, %d, %s", r.UserID, r.UserOrderID, symbol)
	case protocol.RespTrade:
		return fmt.Sprintf("T, %s, %d, %d, %d, %d, %d, %d",
			symbol, r.BuyUserID, r.BuyUserOrderID, r.SellUserID, r.SellUserOrderID, r.Price, r.Quantity)
	case protocol.RespTopOfBook:
		side := sideChar(r.Side)
		if r.Price == 0 && r.Quantity == 0 {
			return fmt.Sprintf("B, %s, %c, -, -", symbol, side)
		}
		return fmt.Sprintf("B, %s, %c, %d, %d", symbol, side, r.Price, r.Quantity)
	case protocol.RespAmendAck:
		return fmt.Sprintf("M, %d, %d, %s, %d, %d, %d, %d",
			r.UserID, r.UserOrderID, symbol, r.OldPrice, r.OldQuantity, r.Price, r.Quantity)
	case protocol.RespOrderRejected:
		return fmt.Sprintf("R, %d, %d, %s, %s", r.UserID, r.UserOrderID, symbol, r.Reason)
	case protocol.RespDepth:
		return encodeCSVDepth(symbol, r)
	default:
		return "# unknown response kind"
	}
}

func encodeCSVDepth(symbol string, r protocol.Response) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "D, %s, %d", symbol, len(r.Bids))
	for _, lvl := range r.Bids {
		fmt.Fprintf(&sb, ", %d, %d", lvl.Price, lvl.Quantity)
	}
	fmt.Fprintf(&sb, ", %d", len(r.Asks))
	for _, lvl := range r.Asks {
		fmt.Fprintf(&sb, ", %d, %d", lvl.Price, lvl.Quantity)
	}
	return sb.String()
}

func sideChar(s protocol.Side) byte {
	if s == protocol.Sell {
		return 'S'
	}
	return 'B'
}
