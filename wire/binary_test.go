package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/driftmkt/obcore/match"
	"github.com/driftmkt/obcore/protocol"
)

func TestDecodeBinaryInput_NewOrder(t *testing.T) {
	symbol := uint64(match.Pack("IBM"))
	req := protocol.NewOrderRequest(1, 1, symbol, 100, 50, protocol.Buy, protocol.Limit)

	payload := make([]byte, 0, newOrderSize)
	payload = append(payload, magicByte, inputNewOrder)
	payload = appendUint32(payload, req.UserID)
	payload = appendUint64(payload, req.Symbol)
	payload = appendUint32(payload, req.Price)
	payload = appendUint32(payload, req.Quantity)
	payload = append(payload, wireSide(req.Side))
	payload = appendUint32(payload, req.UserOrderID)

	assert.Len(t, payload, newOrderSize)

	decoded, err := DecodeBinaryInput(payload)
	assert.NoError(t, err)
	assert.Equal(t, req.UserID, decoded.UserID)
	assert.Equal(t, req.Symbol, decoded.Symbol)
	assert.Equal(t, req.Price, decoded.Price)
	assert.Equal(t, req.Quantity, decoded.Quantity)
	assert.Equal(t, req.Side, decoded.Side)
	assert.Equal(t, req.UserOrderID, decoded.UserOrderID)
}

func TestDecodeBinaryInput_TruncatedFrameErrors(t *testing.T) {
	_, err := DecodeBinaryInput([]byte{magicByte})
	assert.Error(t, err)
}

func TestDecodeBinaryInput_BadMagicErrors(t *testing.T) {
	_, err := DecodeBinaryInput([]byte{0x00, inputFlush})
	assert.Error(t, err)
}

func TestEncodeBinaryOutput_AckMatchesFixedSize(t *testing.T) {
	r := protocol.Response{Kind: protocol.RespAck, UserID: 1, UserOrderID: 1, Symbol: uint64(match.Pack("IBM"))}
	buf, err := EncodeBinaryOutput(nil, r)
	assert.NoError(t, err)
	assert.Len(t, buf, ackSize)
	assert.Equal(t, magicByte, buf[0])
	assert.Equal(t, outputAck, buf[1])
}

func TestEncodeBinaryOutput_TradeMatchesFixedSize(t *testing.T) {
	r := protocol.Response{Kind: protocol.RespTrade, Symbol: uint64(match.Pack("IBM")), BuyUserID: 1, BuyUserOrderID: 1, SellUserID: 2, SellUserOrderID: 1, Price: 100, Quantity: 50}
	buf, err := EncodeBinaryOutput(nil, r)
	assert.NoError(t, err)
	assert.Len(t, buf, tradeSize)
}

func TestEncodeBinaryOutput_TopOfBookMatchesFixedSize(t *testing.T) {
	r := protocol.Response{Kind: protocol.RespTopOfBook, Symbol: uint64(match.Pack("IBM")), Side: protocol.Buy, Price: 100, Quantity: 50}
	buf, err := EncodeBinaryOutput(nil, r)
	assert.NoError(t, err)
	assert.Len(t, buf, topOfBookSize)
	assert.Equal(t, byte(0), buf[len(buf)-1], "trailing padding byte must be zero")
}

func TestEncodeBinaryOutput_DepthIsVariableLength(t *testing.T) {
	r := protocol.Response{
		Kind:   protocol.RespDepth,
		Symbol: uint64(match.Pack("IBM")),
		Bids:   []protocol.PriceLevelView{{Price: 100, Quantity: 10}, {Price: 99, Quantity: 5}},
		Asks:   []protocol.PriceLevelView{{Price: 101, Quantity: 20}},
	}
	buf, err := EncodeBinaryOutput(nil, r)
	assert.NoError(t, err)
	// magic(1) + type(1) + symbol(8) + numBids(2) + 2*(4+8) + numAsks(2) + 1*(4+8)
	assert.Len(t, buf, 1+1+8+2+2*12+2+1*12)
	assert.Equal(t, outputDepth, buf[1])
}

func TestDecodeBinaryInput_Cancel(t *testing.T) {
	payload := make([]byte, 0, cancelSize)
	payload = append(payload, magicByte, inputCancel)
	payload = appendUint32(payload, 7)
	payload = append(payload, make([]byte, symbolSize)...)
	payload = appendUint32(payload, 7)

	req, err := DecodeBinaryInput(payload)
	assert.NoError(t, err)
	assert.Equal(t, uint32(7), req.UserID)
	assert.Equal(t, uint32(7), req.UserOrderID)
}
