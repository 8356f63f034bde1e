package ws

import (
	"encoding/json"
	"log/slog"
	"sort"
	"sync"

	"github.com/Justparthi/meeting-backend/internal/domain"
)

type Conn interface {
	ID() string
	Send(msg Message) error
	Close() error
}

// Identity — то, что соединение заявило о себе в join-room.
type Identity struct {
	UserID   string          `json:"userId"`
	UserData json.RawMessage `json:"userData,omitempty"`
}

type entry struct {
	conn     Conn
	roomID   string
	userID   string
	userData json.RawMessage
	seq      uint64 // порядок привязки, для стабильного снапшота
}

func (e *entry) identified() bool {
	return e.userID != "" && e.roomID != ""
}

// Registry — реестр живых соединений и room-индекс поверх него. Чисто
// процессное состояние: ничего не переживает дисконнект.
type Registry struct {
	mu    sync.RWMutex
	seq   uint64
	conns map[string]*entry            // connectionID -> entry
	rooms map[string]map[string]*entry // roomID -> connectionID -> entry
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*entry),
		rooms: make(map[string]map[string]*entry),
	}
}

// Register создаёт неидентифицированное соединение.
func (r *Registry) Register(c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c.ID()] = &entry{conn: c}
}

// JoinRoom привязывает identity к соединению и кладёт его в room-индекс.
// Повторный вызов перепривязывает молча: last write wins, это осознанная
// идемпотентность, а не ошибка.
func (r *Registry) JoinRoom(connID, roomID, userID string, userData json.RawMessage) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.conns[connID]
	if !ok {
		return false
	}

	if e.roomID != "" && e.roomID != roomID {
		r.removeFromRoom(e.roomID, connID)
	}

	e.roomID = roomID
	e.userID = userID
	e.userData = userData
	r.seq++
	e.seq = r.seq

	rm, ok := r.rooms[roomID]
	if !ok {
		rm = make(map[string]*entry)
		r.rooms[roomID] = rm
	}
	rm[connID] = e
	return true
}

// IdentityOf возвращает привязку соединения; ok=false до завершения join-room.
func (r *Registry) IdentityOf(connID string) (Identity, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.conns[connID]
	if !ok || !e.identified() {
		return Identity{}, "", false
	}
	return Identity{UserID: e.userID, UserData: e.userData}, e.roomID, true
}

// MembersOf — снапшот остальных идентифицированных соединений комнаты.
// Соединения, не завершившие join-room, не видны (eventually-consistent
// presence).
func (r *Registry) MembersOf(roomID, excludeConnID string) []Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm := r.rooms[roomID]
	ordered := make([]*entry, 0, len(rm))
	for connID, e := range rm {
		if connID == excludeConnID || !e.identified() {
			continue
		}
		ordered = append(ordered, e)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].seq < ordered[j].seq })

	out := make([]Identity, 0, len(ordered))
	for _, e := range ordered {
		out = append(out, Identity{UserID: e.userID, UserData: e.userData})
	}
	return out
}

// Relay доставляет opaque payload ровно одному адресату в комнате.
// Отсутствующая цель — не ошибка: лог и drop, без ретраев и очередей.
func (r *Registry) Relay(env domain.SignalEnvelope) bool {
	r.mu.RLock()
	var target Conn
	for _, e := range r.rooms[env.RoomID] {
		if e.identified() && e.userID == env.TargetUserID {
			target = e.conn
			break
		}
	}
	r.mu.RUnlock()

	if target == nil {
		slog.Debug("signal target not connected",
			"room", env.RoomID, "target", env.TargetUserID, "source", env.SourceUserID)
		return false
	}

	_ = target.Send(Message{
		Type:    EventSignal,
		Payload: SignalOutPayload{UserID: env.SourceUserID, Signal: env.Payload},
	})
	return true
}

// Broadcast рассылает msg всем живым соединениям комнаты, кроме excludeConnID.
func (r *Registry) Broadcast(roomID, excludeConnID string, msg Message) {
	r.mu.RLock()
	targets := make([]Conn, 0, len(r.rooms[roomID]))
	for connID, e := range r.rooms[roomID] {
		if connID == excludeConnID {
			continue
		}
		targets = append(targets, e.conn)
	}
	r.mu.RUnlock()

	for _, c := range targets {
		_ = c.Send(msg) // best-effort
	}
}

// Unregister убирает соединение из реестра и room-индекса на транспортный
// дисконнект. Leave в жизненном цикле митинга отсюда не вызывается:
// дисконнект и leave — разные события.
func (r *Registry) Unregister(connID string) (Identity, string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.conns[connID]
	if !ok {
		return Identity{}, "", false
	}
	delete(r.conns, connID)
	if e.roomID != "" {
		r.removeFromRoom(e.roomID, connID)
	}
	if !e.identified() {
		return Identity{}, "", false
	}
	return Identity{UserID: e.userID, UserData: e.userData}, e.roomID, true
}

func (r *Registry) removeFromRoom(roomID, connID string) {
	if rm, ok := r.rooms[roomID]; ok {
		delete(rm, connID)
		if len(rm) == 0 {
			delete(r.rooms, roomID)
		}
	}
}
