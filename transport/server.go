package transport

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"net"

	"github.com/driftmkt/obcore/match"
	"github.com/driftmkt/obcore/protocol"
	"github.com/driftmkt/obcore/wire"
)

// WireFormat selects which codec a listener's connections speak.
// Grounded on the reference transport's dual TCP listeners — one CSV, one
// binary — rather than the sniffing ProtocolDetector.java does, since a
// fixed per-port protocol is simpler to operate and the spec never asks
// for detection on a shared port.
type WireFormat int

const (
	CSVFormat WireFormat = iota
	BinaryFormat
)

// Server accepts client connections on one or more TCP listeners, decodes
// requests per listener's WireFormat, submits them to the engine, and
// writes the responses addressed back to that client by the Router.
// Grounded on the reference transport's TcpServer/EngineServer pairing,
// collapsed here into one type since this design has no separate task
// queue between accept and engine submission — Engine.Submit already is
// that queue.
type Server struct {
	engine   *match.Engine
	registry *ClientRegistry
	log      *slog.Logger

	listeners []net.Listener
}

func NewServer(engine *match.Engine, registry *ClientRegistry) *Server {
	return &Server{
		engine:   engine,
		registry: registry,
		log:      slog.Default().With("component", "transport.Server"),
	}
}

// Listen starts accepting connections on addr, decoding them with format,
// and returns once the listener is bound. Accepting runs on its own
// goroutine; call Close to stop every listener Listen has started.
func (s *Server) Listen(addr string, format WireFormat) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listeners = append(s.listeners, ln)

	go s.acceptLoop(ln, format)
	return nil
}

func (s *Server) Close() error {
	var firstErr error
	for _, ln := range s.listeners {
		if err := ln.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Server) acceptLoop(ln net.Listener, format WireFormat) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Warn("accept failed", "error", err)
			continue
		}
		go s.serveConn(conn, format)
	}
}

func (s *Server) serveConn(conn net.Conn, format WireFormat) {
	defer conn.Close()

	id, outbound := s.registry.Register()
	defer s.registry.Unregister(id)

	done := make(chan struct{})
	go s.writeLoop(conn, outbound, format, done)

	switch format {
	case CSVFormat:
		s.readCSVLoop(conn, id)
	case BinaryFormat:
		s.readBinaryLoop(conn, id)
	}

	<-done
}

func (s *Server) readCSVLoop(conn net.Conn, id ClientID) {
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		req, ok, err := wire.DecodeCSVLine(scanner.Text())
		if err != nil {
			s.log.Warn("csv decode error", "client", id, "error", err)
			continue
		}
		if !ok {
			continue
		}
		s.submit(id, req)
	}
}

func (s *Server) readBinaryLoop(conn net.Conn, id ClientID) {
	reader := bufio.NewReader(conn)
	for {
		var lengthPrefix [4]byte
		if _, err := io.ReadFull(reader, lengthPrefix[:]); err != nil {
			return
		}
		frameLen := binary.BigEndian.Uint32(lengthPrefix[:])
		payload := make([]byte, frameLen)
		if _, err := io.ReadFull(reader, payload); err != nil {
			return
		}

		req, err := wire.DecodeBinaryInput(payload)
		if err != nil {
			s.log.Warn("binary decode error", "client", id, "error", err)
			continue
		}
		s.submit(id, req)
	}
}

func (s *Server) submit(id ClientID, req protocol.Request) {
	if req.UserID != 0 {
		s.registry.BindUser(id, req.UserID)
	}

	symbol := match.Symbol(req.Symbol)
	if err := s.engine.Submit(symbol, req); err != nil {
		s.log.Warn("submit failed", "client", id, "error", err)
	}
}

func (s *Server) writeLoop(conn net.Conn, outbound <-chan protocol.Response, format WireFormat, done chan struct{}) {
	defer close(done)

	writer := bufio.NewWriter(conn)
	for resp := range outbound {
		switch format {
		case CSVFormat:
			if _, err := writer.WriteString(wire.EncodeCSVLine(resp) + "\n"); err != nil {
				return
			}
		case BinaryFormat:
			payload, err := wire.EncodeBinaryOutput(nil, resp)
			if err != nil {
				continue
			}
			var lengthPrefix [4]byte
			binary.BigEndian.PutUint32(lengthPrefix[:], uint32(len(payload)))
			if _, err := writer.Write(lengthPrefix[:]); err != nil {
				return
			}
			if _, err := writer.Write(payload); err != nil {
				return
			}
		}
		if err := writer.Flush(); err != nil {
			return
		}
	}
}
