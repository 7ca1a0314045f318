package transport

import (
	"encoding/binary"
	"fmt"
	"net"
)

// Frame is one outbound market-data datagram: a monotonically increasing
// sequence number plus its encoded payload. The sequence number lets a
// subscriber detect dropped or reordered UDP datagrams, which is the
// reason frames flow through a RingBuffer before reaching here — the ring
// buffer is what guarantees seq is assigned in true publish order.
type Frame struct {
	Seq     uint64
	Payload []byte
}

// MulticastPublisher sends market-data frames to a UDP multicast group.
// Framing is [seq_num: u64 BE][frame_len: u32 BE][payload]. Grounded on
// the reference transport's MulticastPublisher; net.ListenMulticastUDP
// has no pack-library equivalent — no example repo wraps multicast
// sockets, so this stays on the standard library and is noted as such.
type MulticastPublisher struct {
	conn *net.UDPConn
	seq  uint64
}

func NewMulticastPublisher(groupAddr string, ifaceName string) (*MulticastPublisher, error) {
	addr, err := net.ResolveUDPAddr("udp", groupAddr)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve multicast addr: %w", err)
	}

	var iface *net.Interface
	if ifaceName != "" {
		iface, err = net.InterfaceByName(ifaceName)
		if err != nil {
			return nil, fmt.Errorf("transport: resolve multicast interface %q: %w", ifaceName, err)
		}
	}

	conn, err := net.ListenMulticastUDP("udp", iface, addr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen multicast: %w", err)
	}

	return &MulticastPublisher{conn: conn}, nil
}

// OnEvent implements EventHandler[[]byte], so a MulticastPublisher can sit
// directly behind a RingBuffer as its consumer.
func (p *MulticastPublisher) OnEvent(payload []byte) {
	p.seq++
	frame := make([]byte, 8+4+len(payload))
	binary.BigEndian.PutUint64(frame[0:8], p.seq)
	binary.BigEndian.PutUint32(frame[8:12], uint32(len(payload)))
	copy(frame[12:], payload)

	_, _ = p.conn.Write(frame)
}

func (p *MulticastPublisher) Close() error {
	return p.conn.Close()
}
