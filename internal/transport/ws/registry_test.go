package ws

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/Justparthi/meeting-backend/internal/domain"
)

type fakeConn struct {
	id string

	mu   sync.Mutex
	msgs []Message
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
	return nil
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) sent() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.msgs...)
}

func join(t *testing.T, r *Registry, c *fakeConn, roomID, userID string) {
	t.Helper()
	if !r.JoinRoom(c.id, roomID, userID, json.RawMessage(`{"name":"`+userID+`"}`)) {
		t.Fatalf("join-room failed for %s", c.id)
	}
}

func TestMembersOf_ExcludesQuerierAndUnidentified(t *testing.T) {
	r := NewRegistry()
	a := &fakeConn{id: "conn-a"}
	b := &fakeConn{id: "conn-b"}
	c := &fakeConn{id: "conn-c"}
	r.Register(a)
	r.Register(b)
	r.Register(c) // регистрируется, но join-room не завершает

	join(t, r, a, "room-1", "alice")
	join(t, r, b, "room-1", "bob")

	members := r.MembersOf("room-1", a.id)
	if len(members) != 1 {
		t.Fatalf("members = %d, want 1 (no querier, no unidentified)", len(members))
	}
	if members[0].UserID != "bob" {
		t.Fatalf("member = %q, want bob", members[0].UserID)
	}
}

func TestMembersOf_OrderedByBindTime(t *testing.T) {
	r := NewRegistry()
	conns := []*fakeConn{{id: "c1"}, {id: "c2"}, {id: "c3"}}
	for _, c := range conns {
		r.Register(c)
	}
	join(t, r, conns[0], "room-1", "first")
	join(t, r, conns[1], "room-1", "second")
	join(t, r, conns[2], "room-1", "third")

	members := r.MembersOf("room-1", "")
	if len(members) != 3 {
		t.Fatalf("members = %d, want 3", len(members))
	}
	for i, want := range []string{"first", "second", "third"} {
		if members[i].UserID != want {
			t.Fatalf("members[%d] = %q, want %q", i, members[i].UserID, want)
		}
	}
}

func TestRelay_DeliversToExactlyOneTarget(t *testing.T) {
	r := NewRegistry()
	a := &fakeConn{id: "conn-a"}
	b := &fakeConn{id: "conn-b"}
	c := &fakeConn{id: "conn-c"}
	for _, cc := range []*fakeConn{a, b, c} {
		r.Register(cc)
	}
	join(t, r, a, "room-1", "alice")
	join(t, r, b, "room-1", "bob")
	join(t, r, c, "room-1", "carol")

	payload := json.RawMessage(`{"sdp":"offer"}`)
	ok := r.Relay(domain.SignalEnvelope{
		RoomID:       "room-1",
		SourceUserID: "alice",
		TargetUserID: "bob",
		Payload:      payload,
	})
	if !ok {
		t.Fatal("relay must find the target")
	}

	if got := b.sent(); len(got) != 1 {
		t.Fatalf("target received %d messages, want 1", len(got))
	} else {
		out, _ := got[0].Payload.(SignalOutPayload)
		if got[0].Type != EventSignal || out.UserID != "alice" || string(out.Signal) != string(payload) {
			t.Fatalf("unexpected relayed message: %+v", got[0])
		}
	}
	if len(a.sent()) != 0 || len(c.sent()) != 0 {
		t.Fatal("relay must not leak to other connections")
	}
}

func TestRelay_MissingTargetDropsSilently(t *testing.T) {
	r := NewRegistry()
	a := &fakeConn{id: "conn-a"}
	r.Register(a)
	join(t, r, a, "room-1", "alice")

	ok := r.Relay(domain.SignalEnvelope{
		RoomID:       "room-1",
		SourceUserID: "alice",
		TargetUserID: "nobody",
		Payload:      json.RawMessage(`{}`),
	})
	if ok {
		t.Fatal("relay to a missing target must report false")
	}
	if len(a.sent()) != 0 {
		t.Fatal("nothing may be delivered on a dropped relay")
	}
}

func TestBroadcast_ExcludesSender(t *testing.T) {
	r := NewRegistry()
	a := &fakeConn{id: "conn-a"}
	b := &fakeConn{id: "conn-b"}
	c := &fakeConn{id: "conn-c"}
	for _, cc := range []*fakeConn{a, b, c} {
		r.Register(cc)
	}
	join(t, r, a, "room-1", "alice")
	join(t, r, b, "room-1", "bob")
	join(t, r, c, "room-2", "carol") // другая комната

	r.Broadcast("room-1", a.id, Message{Type: EventReceiveMessage})

	if len(a.sent()) != 0 {
		t.Fatal("sender must not receive its own broadcast")
	}
	if len(b.sent()) != 1 {
		t.Fatalf("room member received %d, want 1", len(b.sent()))
	}
	if len(c.sent()) != 0 {
		t.Fatal("broadcast must not cross rooms")
	}
}

func TestJoinRoom_RebindMovesRooms(t *testing.T) {
	r := NewRegistry()
	a := &fakeConn{id: "conn-a"}
	r.Register(a)

	join(t, r, a, "room-1", "alice")
	join(t, r, a, "room-2", "alice") // last write wins

	if got := r.MembersOf("room-1", ""); len(got) != 0 {
		t.Fatalf("room-1 still lists %d members after rebind", len(got))
	}
	if got := r.MembersOf("room-2", ""); len(got) != 1 {
		t.Fatalf("room-2 lists %d members, want 1", len(got))
	}
}

func TestUnregister(t *testing.T) {
	r := NewRegistry()
	a := &fakeConn{id: "conn-a"}
	b := &fakeConn{id: "conn-b"}
	r.Register(a)
	r.Register(b)
	join(t, r, a, "room-1", "alice")

	id, roomID, identified := r.Unregister(a.id)
	if !identified || id.UserID != "alice" || roomID != "room-1" {
		t.Fatalf("unregister identity = %+v room=%q identified=%v", id, roomID, identified)
	}
	if got := r.MembersOf("room-1", ""); len(got) != 0 {
		t.Fatalf("room still lists %d members after unregister", len(got))
	}

	// неидентифицированное соединение уходит без presence
	if _, _, identified := r.Unregister(b.id); identified {
		t.Fatal("unidentified connection must not report identity")
	}
}
