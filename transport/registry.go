package transport

import (
	"sync"

	"github.com/rs/xid"

	"github.com/driftmkt/obcore/protocol"
)

// ClientID uniquely identifies one connected transport session (one TCP
// connection). Backed by xid so IDs are globally unique, sortable by
// creation time, and cheap to generate on every accept — the same
// property the teacher's engine_bench_test.go relies on xid for when
// minting correlation IDs.
type ClientID string

func newClientID() ClientID {
	return ClientID(xid.New().String())
}

type clientEntry struct {
	id       ClientID
	userID   uint32
	hasUser  bool
	outbound chan protocol.Response
}

// ClientRegistry tracks connected clients and the (user ID → client)
// mapping needed to route a TRADE response to both counterparties by
// user_id rather than by connection. Grounded on the reference
// transport's ClientRegistry: client map + user-to-client map + a
// per-client bounded outbound queue that a send never blocks on.
type ClientRegistry struct {
	mu             sync.RWMutex
	clients        map[ClientID]*clientEntry
	userToClient   map[uint32]ClientID
	outboundBuffer int
}

func NewClientRegistry(outboundBuffer int) *ClientRegistry {
	if outboundBuffer <= 0 {
		outboundBuffer = 256
	}
	return &ClientRegistry{
		clients:        make(map[ClientID]*clientEntry),
		userToClient:   make(map[uint32]ClientID),
		outboundBuffer: outboundBuffer,
	}
}

// Register creates a new client entry and returns its ID and the outbound
// channel a writer goroutine should drain.
func (r *ClientRegistry) Register() (ClientID, <-chan protocol.Response) {
	id := newClientID()
	entry := &clientEntry{id: id, outbound: make(chan protocol.Response, r.outboundBuffer)}

	r.mu.Lock()
	r.clients[id] = entry
	r.mu.Unlock()

	return id, entry.outbound
}

// Unregister removes a client and its user-id association, if any, then
// closes its outbound channel so the writer goroutine exits.
func (r *ClientRegistry) Unregister(id ClientID) {
	r.mu.Lock()
	entry, ok := r.clients[id]
	if ok {
		delete(r.clients, id)
		if entry.hasUser {
			delete(r.userToClient, entry.userID)
		}
	}
	r.mu.Unlock()

	if ok {
		close(entry.outbound)
	}
}

// BindUser associates userID with id, so future trades addressed to
// userID route to this connection. Server calls it for every request a
// client submits that carries a non-zero user_id.
func (r *ClientRegistry) BindUser(id ClientID, userID uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.clients[id]
	if !ok {
		return
	}
	entry.userID = userID
	entry.hasUser = true
	r.userToClient[userID] = id
}

// SendToClient enqueues resp for id, dropping it if the client's outbound
// queue is full rather than blocking the engine's dispatch path.
func (r *ClientRegistry) SendToClient(id ClientID, resp protocol.Response) bool {
	r.mu.RLock()
	entry, ok := r.clients[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	select {
	case entry.outbound <- resp:
		return true
	default:
		return false
	}
}

// SendToUser resolves userID to its current client and enqueues resp, if
// that user has a connection bound.
func (r *ClientRegistry) SendToUser(userID uint32, resp protocol.Response) bool {
	r.mu.RLock()
	id, ok := r.userToClient[userID]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	return r.SendToClient(id, resp)
}

func (r *ClientRegistry) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
