package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/livetree/pkg/protocol"
)

// handleStream upgrades to a WebSocket and streams frames until either
// side goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.isClosed() {
		http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied.
		s.logger.Debug("upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	sub, err := s.subscribe(r.RemoteAddr)
	if err != nil {
		s.logger.Error("subscribe failed", "remote", r.RemoteAddr, "error", err)
		conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
		conn.WriteMessage(websocket.BinaryMessage, protocol.ErrorFrame(protocol.ErrServerError, err.Error(), true))
		conn.Close()
		return
	}
	s.logger.Debug("subscribed", "subscriber", sub.id, "remote", sub.remote)

	go s.writeLoop(conn, sub)
	s.readLoop(conn, sub)
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// readLoop reads client frames until the connection fails or the client
// sends a close control.
func (s *Server) readLoop(conn *websocket.Conn, sub *subscriber) {
	defer sub.close(closeClient)

	conn.SetReadLimit(s.config.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Warn("read error", "subscriber", sub.id, "error", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		frame, err := protocol.DecodeFrame(msg)
		if err != nil {
			s.logger.Debug("frame decode error", "subscriber", sub.id, "error", err)
			sub.enqueue(protocol.ErrorFrame(protocol.ErrInvalidFrame, err.Error(), false))
			continue
		}

		switch frame.Type {
		case protocol.FrameControl:
			if !s.handleControl(sub, frame.Payload) {
				return
			}
		default:
			sub.enqueue(protocol.ErrorFrame(protocol.ErrInvalidFrame, "unexpected "+frame.Type.String()+" frame", false))
		}
	}
}

// handleControl answers a control frame and reports whether the stream
// stays open.
func (s *Server) handleControl(sub *subscriber, payload []byte) bool {
	c, err := protocol.DecodeControl(payload)
	if err != nil {
		sub.enqueue(protocol.ErrorFrame(protocol.ErrInvalidFrame, err.Error(), false))
		return true
	}

	switch c.Type {
	case protocol.ControlPing:
		sub.enqueue(protocol.ControlMessage(&protocol.Control{Type: protocol.ControlPong, Timestamp: c.Timestamp}))
	case protocol.ControlPong:
		s.logger.Debug("received pong", "subscriber", sub.id)
	case protocol.ControlClose:
		s.logger.Debug("client closing", "subscriber", sub.id, "reason", c.Reason)
		return false
	default:
		sub.enqueue(protocol.ErrorFrame(protocol.ErrInvalidFrame, "unexpected "+c.Type.String()+" control", false))
	}
	return true
}

// writeLoop is the only writer on conn. It owns the connection and closes
// it when the subscriber is done.
func (s *Server) writeLoop(conn *websocket.Conn, sub *subscriber) {
	ticker := time.NewTicker(s.config.PingInterval)
	defer func() {
		ticker.Stop()
		sub.close(closeClient)
		s.hub.remove(sub)
		conn.Close()
		s.logger.Debug("unsubscribed", "subscriber", sub.id)
	}()

	for {
		select {
		case msg := <-sub.send:
			if err := s.write(conn, websocket.BinaryMessage, msg); err != nil {
				s.logger.Debug("write error", "subscriber", sub.id, "error", err)
				return
			}
			s.metrics.sent(msg)

		case <-ticker.C:
			if err := s.write(conn, websocket.PingMessage, nil); err != nil {
				s.logger.Debug("ping error", "subscriber", sub.id, "error", err)
				return
			}

		case <-sub.done:
			s.goodbye(conn, sub.reason)
			return
		}
	}
}

// goodbye sends the last frame for reason and a WebSocket close message.
func (s *Server) goodbye(conn *websocket.Conn, reason closeReason) {
	code := websocket.CloseNormalClosure
	switch reason {
	case closeOverloaded:
		msg := protocol.ErrorFrame(protocol.ErrOverloaded, "subscriber fell behind", true)
		if s.write(conn, websocket.BinaryMessage, msg) == nil {
			s.metrics.sent(msg)
		}
		code = websocket.CloseTryAgainLater
	case closeShutdown:
		msg := protocol.ControlMessage(&protocol.Control{Type: protocol.ControlClose, Reason: "server shutting down"})
		if s.write(conn, websocket.BinaryMessage, msg) == nil {
			s.metrics.sent(msg)
		}
		code = websocket.CloseGoingAway
	}
	s.write(conn, websocket.CloseMessage, websocket.FormatCloseMessage(code, ""))
}

func (s *Server) write(conn *websocket.Conn, messageType int, data []byte) error {
	conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	return conn.WriteMessage(messageType, data)
}
