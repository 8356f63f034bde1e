package store

import (
	"context"
	"time"

	"github.com/Justparthi/meeting-backend/internal/domain"
)

// State — итог lookup-а по коду комнаты. Бекенды представляют завершённый
// митинг по-разному (мёртвая запись либо отсутствие записи), наружу уходит
// только тег.
type State int

const (
	StateAbsent State = iota
	StateActive
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateTerminated:
		return "terminated"
	default:
		return "absent"
	}
}

// MeetingStore — граница persistence-адаптера; реализуется авторитетным
// postgres-бекендом и волатильным in-memory fallback-ом.
type MeetingStore interface {
	Create(ctx context.Context, m *domain.Meeting) error
	GetByCode(ctx context.Context, roomCode string) (*domain.Meeting, State, error)
	AddParticipant(ctx context.Context, roomCode string, p domain.Participant) error
	// MarkLeft ставит leftAt участнику и возвращает число оставшихся активных.
	MarkLeft(ctx context.Context, roomCode, userID string, leftAt time.Time) (int, error)
	Terminate(ctx context.Context, roomCode string, endTime time.Time) error
}
