package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/driftmkt/obcore/match"
	"github.com/driftmkt/obcore/protocol"
)

// WebSocketFeed serves a read-only market-data stream over WebSocket,
// encoding each public response as JSON. Enrichment beyond the reference
// transport (which only speaks raw TCP/UDP): grounded on
// realmfikri-Limitless's hub-backed WebSocket observer connections, which
// is exactly the "subscribe to a hub, write until the connection drops"
// shape used here.
type WebSocketFeed struct {
	market   *MarketDataHub
	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewWebSocketFeed(market *MarketDataHub) *WebSocketFeed {
	return &WebSocketFeed{
		market:   market,
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 4096},
		log:      slog.Default().With("component", "transport.WebSocketFeed"),
	}
}

func (f *WebSocketFeed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sub := f.market.Subscribe(256)
	defer f.market.Unsubscribe(sub)

	go f.discardIncoming(conn)

	for resp := range sub.ch {
		payload, err := json.Marshal(toWireResponse(resp))
		if err != nil {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

// discardIncoming reads and ignores client frames until the first read
// error, then returns. It does not stop ServeHTTP's write loop, which ends
// only when a write fails or the subscription channel is closed.
func (f *WebSocketFeed) discardIncoming(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// wireResponse is the JSON-friendly projection of a protocol.Response:
// only the fields relevant to a given Kind are populated in the wire
// struct, which keeps the feed's payloads small instead of serializing
// every field of the flat internal struct.
type wireResponse struct {
	Kind     string `json:"kind"`
	Symbol   string `json:"symbol"`
	Side     string `json:"side,omitempty"`
	Price    uint32 `json:"price,omitempty"`
	Quantity uint32 `json:"quantity,omitempty"`

	BuyUserID       uint32 `json:"buy_user_id,omitempty"`
	BuyUserOrderID  uint32 `json:"buy_user_order_id,omitempty"`
	SellUserID      uint32 `json:"sell_user_id,omitempty"`
	SellUserOrderID uint32 `json:"sell_user_order_id,omitempty"`
}

func toWireResponse(r protocol.Response) wireResponse {
	return wireResponse{
		Kind:            wireResponseKindName(r.Kind),
		Symbol:          match.Symbol(r.Symbol).String(),
		Side:            sideName(r.Side),
		Price:           r.Price,
		Quantity:        r.Quantity,
		BuyUserID:       r.BuyUserID,
		BuyUserOrderID:  r.BuyUserOrderID,
		SellUserID:      r.SellUserID,
		SellUserOrderID: r.SellUserOrderID,
	}
}

func wireResponseKindName(k protocol.ResponseKind) string {
	switch k {
	case protocol.RespTrade:
		return "trade"
	case protocol.RespTopOfBook:
		return "top_of_book"
	default:
		return "unknown"
	}
}

func sideName(s protocol.Side) string {
	switch s {
	case protocol.Buy:
		return "buy"
	case protocol.Sell:
		return "sell"
	default:
		return ""
	}
}
