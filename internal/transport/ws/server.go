package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Justparthi/meeting-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	errConnClosed     = errors.New("connection closed")
	errSendBufferFull = errors.New("send buffer full")
)

type Server struct {
	upgrader websocket.Upgrader
	registry *Registry

	pingEvery time.Duration
	readLimit int64
}

func NewServer(registry *Registry, pingEvery time.Duration, readLimit int64) *Server {
	if pingEvery <= 0 {
		pingEvery = 15 * time.Second
	}
	if readLimit <= 0 {
		readLimit = 1 << 20
	}
	return &Server{
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: pingEvery,
		readLimit: readLimit,
	}
}

// WS endpoint: GET /ws
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	c := newWSConn(conn, uuid.New().String())
	s.registry.Register(c)
	slog.Debug("ws connected", "conn", c.ID())

	go c.writePump(s.pingEvery)
	s.readLoop(c)

	// транспортный дисконнект: только реестр и presence, никакого leave
	id, roomID, identified := s.registry.Unregister(c.ID())
	if identified {
		s.registry.Broadcast(roomID, c.ID(), Message{
			Type:    EventUserDisconnected,
			Payload: PresencePayload{UserID: id.UserID, UserData: id.UserData},
		})
	}
	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "conn", c.ID(), "err", err)
	}
}

func (s *Server) readLoop(c *wsConn) {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(s.readLimit)
	c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case EventJoinRoom:
			s.handleJoinRoom(c, msg.Payload)
		case EventSignal:
			s.handleSignal(c, msg.Payload)
		case EventSendMessage:
			s.handleChat(c, msg.Payload)
		default:
			// ignore
		}
	}
}

func (s *Server) handleJoinRoom(c *wsConn, payload interface{}) {
	var p JoinRoomPayload
	if decode(payload, &p) != nil || p.RoomID == "" || p.UserID == "" {
		slog.Debug("ws join-room: bad payload", "conn", c.ID())
		return
	}

	s.registry.JoinRoom(c.ID(), p.RoomID, p.UserID, p.UserData)

	// снапшот вошедшему, presence остальным
	_ = c.Send(Message{
		Type: EventRoomUsers,
		Payload: RoomUsersPayload{
			RoomID: p.RoomID,
			Users:  s.registry.MembersOf(p.RoomID, c.ID()),
		},
	})
	s.registry.Broadcast(p.RoomID, c.ID(), Message{
		Type:    EventUserConnected,
		Payload: PresencePayload{UserID: p.UserID, UserData: p.UserData},
	})
}

func (s *Server) handleSignal(c *wsConn, payload interface{}) {
	var p SignalPayload
	if decode(payload, &p) != nil || p.RoomID == "" || p.TargetUserID == "" {
		return
	}

	src, _, ok := s.registry.IdentityOf(c.ID())
	if !ok {
		slog.Debug("ws signal from unidentified connection", "conn", c.ID())
		return
	}

	s.registry.Relay(domain.SignalEnvelope{
		RoomID:       p.RoomID,
		SourceUserID: src.UserID,
		TargetUserID: p.TargetUserID,
		Payload:      p.Signal,
	})
}

func (s *Server) handleChat(c *wsConn, payload interface{}) {
	var p ChatPayload
	if decode(payload, &p) != nil || p.RoomID == "" || p.Message == "" {
		return
	}

	src, _, ok := s.registry.IdentityOf(c.ID())
	if !ok {
		return
	}

	ts := p.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	s.registry.Broadcast(p.RoomID, c.ID(), Message{
		Type: EventReceiveMessage,
		Payload: domain.ChatMessage{
			RoomID:    p.RoomID,
			UserID:    src.UserID,
			UserName:  p.UserName,
			Message:   p.Message,
			Timestamp: ts,
		},
	})
}

func decode(payload interface{}, dst interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

// wsConn пишет только из writePump: исходящие уходят в буферизованный канал,
// что сохраняет порядок доставки в пределах соединения.
type wsConn struct {
	id   string
	conn *websocket.Conn

	out    chan Message
	closed chan struct{}
	once   sync.Once
}

func newWSConn(c *websocket.Conn, id string) *wsConn {
	return &wsConn{
		id:     id,
		conn:   c,
		out:    make(chan Message, 64),
		closed: make(chan struct{}),
	}
}

func (c *wsConn) ID() string { return c.id }

func (c *wsConn) Send(msg Message) error {
	select {
	case <-c.closed:
		return errConnClosed
	default:
	}

	select {
	case c.out <- msg:
		return nil
	default:
		// переполненный буфер = мёртвый или безнадёжно медленный клиент
		_ = c.Close()
		return errSendBufferFull
	}
}

func (c *wsConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return c.conn.Close()
}

func (c *wsConn) writePump(pingEvery time.Duration) {
	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.out:
			c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				_ = c.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-c.closed:
			return
		}
	}
}
