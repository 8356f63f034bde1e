package store

import (
	"context"
	"sync"
	"time"

	"github.com/Justparthi/meeting-backend/internal/domain"

	"github.com/samber/lo"
)

// MemoryStore — волатильный fallback. Живёт только в процессе; завершённый
// митинг удаляется целиком, поэтому его терминальное состояние — StateAbsent.
type MemoryStore struct {
	mu       sync.RWMutex
	meetings map[string]*domain.Meeting
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{meetings: make(map[string]*domain.Meeting)}
}

func (s *MemoryStore) Create(ctx context.Context, m *domain.Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := cloneMeeting(m)
	s.meetings[m.RoomCode] = cp
	return nil
}

func (s *MemoryStore) GetByCode(ctx context.Context, roomCode string) (*domain.Meeting, State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.meetings[roomCode]
	if !ok {
		return nil, StateAbsent, nil
	}
	return cloneMeeting(m), StateActive, nil
}

func (s *MemoryStore) AddParticipant(ctx context.Context, roomCode string, p domain.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.meetings[roomCode]
	if !ok {
		return domain.ErrMeetingNotFound
	}
	if activeCount(m) >= m.Settings.MaxParticipants {
		return domain.ErrMeetingFull
	}
	m.Participants = append(m.Participants, p)
	return nil
}

func (s *MemoryStore) MarkLeft(ctx context.Context, roomCode, userID string, leftAt time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.meetings[roomCode]
	if !ok {
		return 0, domain.ErrMeetingNotFound
	}
	p := m.FindParticipant(userID)
	if p == nil || p.LeftAt != nil {
		return 0, domain.ErrNotParticipant
	}
	t := leftAt
	p.LeftAt = &t
	return activeCount(m), nil
}

func (s *MemoryStore) Terminate(ctx context.Context, roomCode string, endTime time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.meetings[roomCode]; !ok {
		return domain.ErrMeetingNotFound
	}
	delete(s.meetings, roomCode)
	return nil
}

func activeCount(m *domain.Meeting) int {
	return lo.CountBy(m.Participants, func(p domain.Participant) bool {
		return p.LeftAt == nil
	})
}

func cloneMeeting(m *domain.Meeting) *domain.Meeting {
	cp := *m
	cp.Participants = append([]domain.Participant(nil), m.Participants...)
	if m.EndTime != nil {
		t := *m.EndTime
		cp.EndTime = &t
	}
	return &cp
}
