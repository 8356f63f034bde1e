package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Justparthi/meeting-backend/internal/domain"
	"github.com/Justparthi/meeting-backend/internal/store"
)

// stubStore — управляемый авторитетный бекенд для проверки fallback-пути.
type stubStore struct {
	meeting *domain.Meeting
	state   store.State

	createErr error
	getErr    error
	addErr    error
	leftErr   error
	termErr   error

	createCalls int
	addCalls    int
}

func (s *stubStore) Create(ctx context.Context, m *domain.Meeting) error {
	s.createCalls++
	return s.createErr
}

func (s *stubStore) GetByCode(ctx context.Context, roomCode string) (*domain.Meeting, store.State, error) {
	if s.getErr != nil {
		return nil, store.StateAbsent, s.getErr
	}
	return s.meeting, s.state, nil
}

func (s *stubStore) AddParticipant(ctx context.Context, roomCode string, p domain.Participant) error {
	s.addCalls++
	return s.addErr
}

func (s *stubStore) MarkLeft(ctx context.Context, roomCode, userID string, leftAt time.Time) (int, error) {
	return 0, s.leftErr
}

func (s *stubStore) Terminate(ctx context.Context, roomCode string, endTime time.Time) error {
	return s.termErr
}

func newFallbackOnly() *MeetingService {
	return NewMeetingService(nil, store.NewMemoryStore(), time.Second)
}

func TestCreateMeeting_GeneratedCodes(t *testing.T) {
	svc := newFallbackOnly()

	m, userID, err := svc.CreateMeeting(context.Background(), "Standup", "Alice", "", false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(m.RoomCode) != 10 {
		t.Fatalf("room code length = %d, want 10", len(m.RoomCode))
	}
	if len(m.MeetingID) != 9 {
		t.Fatalf("meeting id length = %d, want 9", len(m.MeetingID))
	}
	for _, code := range []string{m.RoomCode, m.MeetingID} {
		for _, r := range code {
			if !strings.ContainsRune("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789", r) {
				t.Fatalf("code %q contains %q outside [A-Z0-9]", code, r)
			}
		}
	}
	if userID != m.HostUserID {
		t.Fatalf("returned user id %q != host user id %q", userID, m.HostUserID)
	}
	if !m.IsActive {
		t.Fatal("created meeting must be active")
	}
	if len(m.Participants) != 1 || !m.Participants[0].IsHost {
		t.Fatalf("creator must be the single host participant, got %+v", m.Participants)
	}
	if m.Settings.MaxParticipants != domain.DefaultMaxParticipants {
		t.Fatalf("maxParticipants = %d, want %d", m.Settings.MaxParticipants, domain.DefaultMaxParticipants)
	}
}

func TestCreateThenJoin(t *testing.T) {
	svc := newFallbackOnly()
	ctx := context.Background()

	created, _, err := svc.CreateMeeting(ctx, "Standup", "Alice", "", false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	joined, bobID, err := svc.Join(ctx, created.RoomCode, "Bob", "")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if bobID == "" || bobID == created.HostUserID {
		t.Fatalf("joiner must get a fresh user id, got %q", bobID)
	}
	if joined.Settings != created.Settings {
		t.Fatalf("settings echo mismatch: %+v vs %+v", joined.Settings, created.Settings)
	}

	got, err := svc.Get(ctx, created.RoomCode)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ActiveCount() != 2 {
		t.Fatalf("active count = %d, want 2", got.ActiveCount())
	}
}

func TestJoin_WrongPassword(t *testing.T) {
	svc := newFallbackOnly()
	ctx := context.Background()

	created, _, err := svc.CreateMeeting(ctx, "Private", "Alice", "s3cret", false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, _, err := svc.Join(ctx, created.RoomCode, "Bob", "wrong"); !errors.Is(err, domain.ErrWrongPassword) {
		t.Fatalf("err = %v, want ErrWrongPassword", err)
	}

	got, err := svc.Get(ctx, created.RoomCode)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Participants) != 1 {
		t.Fatalf("failed join must not mutate participants, got %d", len(got.Participants))
	}
}

func TestJoin_CapacityExceeded(t *testing.T) {
	mem := store.NewMemoryStore()
	svc := NewMeetingService(nil, mem, time.Second)
	ctx := context.Background()

	m := &domain.Meeting{
		RoomCode:   "CAP2ROOM00",
		MeetingID:  "CAP2MEET0",
		RoomName:   "Tiny",
		HostUserID: "host",
		HostName:   "Alice",
		Participants: []domain.Participant{
			{UserID: "host", UserName: "Alice", JoinedAt: time.Now(), IsHost: true},
		},
		Settings:  domain.Settings{MaxParticipants: 2},
		IsActive:  true,
		StartTime: time.Now(),
		CreatedAt: time.Now(),
	}
	if err := mem.Create(ctx, m); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, _, err := svc.Join(ctx, m.RoomCode, "Bob", ""); err != nil {
		t.Fatalf("second seat: %v", err)
	}
	if _, _, err := svc.Join(ctx, m.RoomCode, "Carol", ""); !errors.Is(err, domain.ErrMeetingFull) {
		t.Fatalf("err = %v, want ErrMeetingFull", err)
	}

	got, err := svc.Get(ctx, m.RoomCode)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Participants) != 2 {
		t.Fatalf("rejected join must not append, got %d participants", len(got.Participants))
	}
}

func TestLeave_LastParticipantEndsMeeting(t *testing.T) {
	svc := newFallbackOnly()
	ctx := context.Background()

	created, hostID, err := svc.CreateMeeting(ctx, "Solo", "Alice", "", true)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Leave(ctx, created.RoomCode, hostID); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if _, err := svc.Get(ctx, created.RoomCode); !errors.Is(err, domain.ErrMeetingNotFound) {
		t.Fatalf("after last leave get err = %v, want ErrMeetingNotFound", err)
	}
}

func TestLeave_OthersRemain(t *testing.T) {
	svc := newFallbackOnly()
	ctx := context.Background()

	created, _, err := svc.CreateMeeting(ctx, "Standup", "Alice", "", false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, bobID, err := svc.Join(ctx, created.RoomCode, "Bob", "")
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := svc.Leave(ctx, created.RoomCode, bobID); err != nil {
		t.Fatalf("leave: %v", err)
	}

	got, err := svc.Get(ctx, created.RoomCode)
	if err != nil {
		t.Fatalf("meeting must stay active: %v", err)
	}
	if got.ActiveCount() != 1 {
		t.Fatalf("active count = %d, want 1", got.ActiveCount())
	}
	// участник не удаляется, только закрывается через leftAt
	if len(got.Participants) != 2 {
		t.Fatalf("participants = %d, want 2", len(got.Participants))
	}
	if p := got.FindParticipant(bobID); p == nil || p.LeftAt == nil {
		t.Fatalf("left participant must keep a closed record, got %+v", p)
	}
}

func TestEnd_HostOnly(t *testing.T) {
	svc := newFallbackOnly()
	ctx := context.Background()

	created, hostID, err := svc.CreateMeeting(ctx, "Standup", "Alice", "", false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, bobID, err := svc.Join(ctx, created.RoomCode, "Bob", "")
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := svc.End(ctx, created.RoomCode, bobID); !errors.Is(err, domain.ErrNotHost) {
		t.Fatalf("non-host end err = %v, want ErrNotHost", err)
	}

	// хост завершает даже при живых участниках
	if err := svc.End(ctx, created.RoomCode, hostID); err != nil {
		t.Fatalf("host end: %v", err)
	}
	if _, err := svc.Get(ctx, created.RoomCode); !errors.Is(err, domain.ErrMeetingNotFound) {
		t.Fatalf("ended meeting get err = %v, want ErrMeetingNotFound", err)
	}
}

func TestCreate_PrimaryFailureFallsBack(t *testing.T) {
	primary := &stubStore{createErr: errors.New("connection refused"), getErr: errors.New("connection refused")}
	svc := NewMeetingService(primary, store.NewMemoryStore(), 100*time.Millisecond)
	ctx := context.Background()

	created, _, err := svc.CreateMeeting(ctx, "Resilient", "Alice", "", false)
	if err != nil {
		t.Fatalf("create must survive primary failure: %v", err)
	}
	if primary.createCalls != 1 {
		t.Fatalf("primary create calls = %d, want 1", primary.createCalls)
	}

	// lookup также деградирует в fallback
	got, err := svc.Get(ctx, created.RoomCode)
	if err != nil {
		t.Fatalf("get after fallback create: %v", err)
	}
	if !got.IsActive || got.StartTime.IsZero() {
		t.Fatalf("fallback record must carry explicit isActive/startTime, got %+v", got)
	}
}

func TestJoin_PrimaryUpdateFailureCopiesToFallback(t *testing.T) {
	meeting := &domain.Meeting{
		RoomCode:   "PRIMROOM00",
		MeetingID:  "PRIMMEET0",
		RoomName:   "Flaky",
		HostUserID: "host",
		HostName:   "Alice",
		Participants: []domain.Participant{
			{UserID: "host", UserName: "Alice", JoinedAt: time.Now(), IsHost: true},
		},
		Settings:  domain.Settings{MaxParticipants: 10},
		IsActive:  true,
		StartTime: time.Now(),
		CreatedAt: time.Now(),
	}
	primary := &stubStore{meeting: meeting, state: store.StateActive, addErr: errors.New("io timeout")}
	mem := store.NewMemoryStore()
	svc := NewMeetingService(primary, mem, 100*time.Millisecond)
	ctx := context.Background()

	joined, _, err := svc.Join(ctx, meeting.RoomCode, "Bob", "")
	if err != nil {
		t.Fatalf("join must survive primary update failure: %v", err)
	}
	if len(joined.Participants) != 2 {
		t.Fatalf("joined participants = %d, want 2", len(joined.Participants))
	}

	m, state, err := mem.GetByCode(ctx, meeting.RoomCode)
	if err != nil || state != store.StateActive {
		t.Fatalf("fallback copy missing: state=%v err=%v", state, err)
	}
	if len(m.Participants) != 2 {
		t.Fatalf("fallback copy participants = %d, want 2", len(m.Participants))
	}
}

func TestJoin_PrimaryDomainErrorsPassThrough(t *testing.T) {
	meeting := &domain.Meeting{
		RoomCode:   "FULLROOM00",
		HostUserID: "host",
		Participants: []domain.Participant{
			{UserID: "host", IsHost: true},
		},
		Settings: domain.Settings{MaxParticipants: 10},
		IsActive: true,
	}
	primary := &stubStore{meeting: meeting, state: store.StateActive, addErr: domain.ErrMeetingFull}
	svc := NewMeetingService(primary, store.NewMemoryStore(), 100*time.Millisecond)

	_, _, err := svc.Join(context.Background(), meeting.RoomCode, "Bob", "")
	if !errors.Is(err, domain.ErrMeetingFull) {
		t.Fatalf("err = %v, want ErrMeetingFull (no fallback on domain errors)", err)
	}
}

func TestGet_TerminatedPrimaryRecordIsNotFound(t *testing.T) {
	end := time.Now()
	meeting := &domain.Meeting{
		RoomCode: "DEADROOM00",
		IsActive: false,
		EndTime:  &end,
	}
	primary := &stubStore{meeting: meeting, state: store.StateTerminated}
	svc := NewMeetingService(primary, store.NewMemoryStore(), 100*time.Millisecond)

	if _, err := svc.Get(context.Background(), meeting.RoomCode); !errors.Is(err, domain.ErrMeetingNotFound) {
		t.Fatalf("terminated record get err = %v, want ErrMeetingNotFound", err)
	}
}
