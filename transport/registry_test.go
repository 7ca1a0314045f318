package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/driftmkt/obcore/protocol"
)

func TestClientRegistry_SendToClientAfterRegister(t *testing.T) {
	r := NewClientRegistry(4)
	id, outbound := r.Register()

	ok := r.SendToClient(id, protocol.Response{Kind: protocol.RespAck, UserID: 1})
	assert.True(t, ok)
	assert.Equal(t, protocol.RespAck, (<-outbound).Kind)
}

func TestClientRegistry_SendToUserRequiresBinding(t *testing.T) {
	r := NewClientRegistry(4)
	id, _ := r.Register()

	assert.False(t, r.SendToUser(42, protocol.Response{}))

	r.BindUser(id, 42)
	assert.True(t, r.SendToUser(42, protocol.Response{Kind: protocol.RespAck}))
}

func TestClientRegistry_UnregisterClosesOutboundAndDropsUser(t *testing.T) {
	r := NewClientRegistry(4)
	id, outbound := r.Register()
	r.BindUser(id, 7)

	r.Unregister(id)

	_, ok := <-outbound
	assert.False(t, ok, "outbound channel must be closed on unregister")
	assert.False(t, r.SendToUser(7, protocol.Response{}))
	assert.Equal(t, 0, r.ClientCount())
}

func TestClientRegistry_SendDropsWhenOutboundFull(t *testing.T) {
	r := NewClientRegistry(1)
	id, _ := r.Register()

	assert.True(t, r.SendToClient(id, protocol.Response{}))
	assert.False(t, r.SendToClient(id, protocol.Response{}), "second send must drop, not block")
}
