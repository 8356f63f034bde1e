package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Justparthi/meeting-backend/internal/domain"
	"github.com/Justparthi/meeting-backend/internal/store"

	"github.com/google/uuid"
)

// MeetingService владеет жизненным циклом Meeting: new → active → inactive.
// Все операции идут через авторитетный store с деградацией в волатильный
// fallback; ошибка авторитетного бекенда наружу не поднимается.
type MeetingService struct {
	primary  store.MeetingStore // nil, если авторитетный store не сконфигурирован
	fallback store.MeetingStore
	timeout  time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per-room-code: capacity check + append должны быть атомарны
}

func NewMeetingService(primary, fallback store.MeetingStore, primaryTimeout time.Duration) *MeetingService {
	if primaryTimeout <= 0 {
		primaryTimeout = 3 * time.Second
	}
	return &MeetingService{
		primary:  primary,
		fallback: fallback,
		timeout:  primaryTimeout,
		locks:    make(map[string]*sync.Mutex),
	}
}

// CreateMeeting генерирует коды, собирает настройки и хоста-участника и
// сохраняет митинг. При недоступности авторитетного store запись уходит в
// fallback с явными isActive=true и startTime=now. Возвращает митинг и
// userId создателя независимо от сработавшего бекенда.
func (s *MeetingService) CreateMeeting(ctx context.Context, roomName, hostName, password string, isInstant bool) (*domain.Meeting, string, error) {
	roomCode, err := randomCode(roomCodeLength)
	if err != nil {
		return nil, "", fmt.Errorf("generate room code: %w", err)
	}
	meetingID, err := randomCode(meetingIDLength)
	if err != nil {
		return nil, "", fmt.Errorf("generate meeting id: %w", err)
	}

	now := time.Now().UTC()
	hostUserID := uuid.New().String()
	settings := domain.DefaultSettings(password)

	m := &domain.Meeting{
		RoomCode:   roomCode,
		MeetingID:  meetingID,
		RoomName:   roomName,
		HostUserID: hostUserID,
		HostName:   hostName,
		Participants: []domain.Participant{{
			UserID:   hostUserID,
			UserName: hostName,
			JoinedAt: now,
			IsHost:   true,
			CameraOn: settings.VideoOnJoin,
			MicOn:    !settings.MuteOnJoin,
		}},
		Settings:  settings,
		IsActive:  true,
		IsInstant: isInstant,
		StartTime: now,
		CreatedAt: now,
	}

	if s.primary != nil {
		pctx, cancel := context.WithTimeout(ctx, s.timeout)
		err = s.primary.Create(pctx, m)
		cancel()
		if err == nil {
			return m, hostUserID, nil
		}
		slog.Warn("authoritative store unavailable, using fallback",
			"op", "create", "room", roomCode, "err", err)
	}

	if err := s.fallback.Create(ctx, m); err != nil {
		return nil, "", fmt.Errorf("%w: fallback create: %v", domain.ErrStoreUnavailable, err)
	}
	return m, hostUserID, nil
}

// Join добавляет участника в активный митинг. Обновление уходит в тот
// бекенд, который выдал запись; если авторитетный update не прошёл,
// мутированный митинг копируется в fallback.
func (s *MeetingService) Join(ctx context.Context, roomCode, username, password string) (*domain.Meeting, string, error) {
	unlock := s.lockRoom(roomCode)
	defer unlock()

	m, src, err := s.lookup(ctx, roomCode)
	if err != nil {
		return nil, "", err
	}

	if m.Settings.Password != "" && m.Settings.Password != password {
		return nil, "", domain.ErrWrongPassword
	}
	if m.ActiveCount() >= m.Settings.MaxParticipants {
		return nil, "", domain.ErrMeetingFull
	}

	p := domain.Participant{
		UserID:   uuid.New().String(),
		UserName: username,
		JoinedAt: time.Now().UTC(),
		IsHost:   false,
		CameraOn: m.Settings.VideoOnJoin,
		MicOn:    !m.Settings.MuteOnJoin,
	}

	if err := s.storeParticipant(ctx, src, m, p); err != nil {
		return nil, "", err
	}

	m.Participants = append(m.Participants, p)
	return m, p.UserID, nil
}

func (s *MeetingService) storeParticipant(ctx context.Context, src store.MeetingStore, m *domain.Meeting, p domain.Participant) error {
	if src == s.primary && s.primary != nil {
		pctx, cancel := context.WithTimeout(ctx, s.timeout)
		err := s.primary.AddParticipant(pctx, m.RoomCode, p)
		cancel()
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrMeetingFull) || errors.Is(err, domain.ErrMeetingNotFound) {
			return err
		}
		slog.Warn("authoritative store unavailable, using fallback",
			"op", "join", "room", m.RoomCode, "err", err)
		cp := *m
		cp.Participants = append(append([]domain.Participant(nil), m.Participants...), p)
		return s.fallback.Create(ctx, &cp)
	}
	return s.fallback.AddParticipant(ctx, m.RoomCode, p)
}

// Leave закрывает запись участника через leftAt. Когда активных не
// остаётся, митинг завершается со семантикой end своего бекенда.
func (s *MeetingService) Leave(ctx context.Context, roomCode, userID string) error {
	unlock := s.lockRoom(roomCode)
	defer unlock()

	m, src, err := s.lookup(ctx, roomCode)
	if err != nil {
		return err
	}
	if m.FindParticipant(userID) == nil {
		return domain.ErrNotParticipant
	}

	now := time.Now().UTC()
	remaining, err := s.markLeft(ctx, src, roomCode, userID, now)
	if err != nil {
		return err
	}
	if remaining == 0 {
		if err := s.terminate(ctx, src, roomCode, now); err != nil {
			return err
		}
		s.dropLock(roomCode)
	}
	return nil
}

// End завершает митинг безусловно; доступно только хосту.
func (s *MeetingService) End(ctx context.Context, roomCode, userID string) error {
	unlock := s.lockRoom(roomCode)
	defer unlock()

	m, src, err := s.lookup(ctx, roomCode)
	if err != nil {
		return err
	}
	if userID != m.HostUserID {
		return domain.ErrNotHost
	}

	if err := s.terminate(ctx, src, roomCode, time.Now().UTC()); err != nil {
		return err
	}
	s.dropLock(roomCode)
	return nil
}

// Get — read-only проекция; завершённый или отсутствующий митинг
// неразличимы для вызывающего.
func (s *MeetingService) Get(ctx context.Context, roomCode string) (*domain.Meeting, error) {
	m, _, err := s.lookup(ctx, roomCode)
	return m, err
}

// lookup ищет активный митинг: авторитетный store первым, fallback вторым.
// Возвращает бекенд, выдавший запись, — обновления должны идти туда же.
func (s *MeetingService) lookup(ctx context.Context, roomCode string) (*domain.Meeting, store.MeetingStore, error) {
	if s.primary != nil {
		pctx, cancel := context.WithTimeout(ctx, s.timeout)
		m, state, err := s.primary.GetByCode(pctx, roomCode)
		cancel()
		switch {
		case err != nil:
			slog.Warn("authoritative store unavailable, using fallback",
				"op", "lookup", "room", roomCode, "err", err)
		case state == store.StateActive:
			return m, s.primary, nil
		case state == store.StateTerminated:
			return nil, nil, domain.ErrMeetingNotFound
		}
	}

	m, state, err := s.fallback.GetByCode(ctx, roomCode)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: fallback lookup: %v", domain.ErrStoreUnavailable, err)
	}
	if state != store.StateActive {
		return nil, nil, domain.ErrMeetingNotFound
	}
	return m, s.fallback, nil
}

func (s *MeetingService) markLeft(ctx context.Context, src store.MeetingStore, roomCode, userID string, t time.Time) (int, error) {
	if src == s.primary && s.primary != nil {
		pctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return s.primary.MarkLeft(pctx, roomCode, userID, t)
	}
	return s.fallback.MarkLeft(ctx, roomCode, userID, t)
}

func (s *MeetingService) terminate(ctx context.Context, src store.MeetingStore, roomCode string, t time.Time) error {
	if src == s.primary && s.primary != nil {
		pctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return s.primary.Terminate(pctx, roomCode, t)
	}
	return s.fallback.Terminate(ctx, roomCode, t)
}

func (s *MeetingService) lockRoom(code string) func() {
	s.mu.Lock()
	l, ok := s.locks[code]
	if !ok {
		l = &sync.Mutex{}
		s.locks[code] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// dropLock освобождает запись после завершения митинга; код уже не активен,
// поэтому гонка со свежесозданным мьютексом безвредна.
func (s *MeetingService) dropLock(code string) {
	s.mu.Lock()
	delete(s.locks, code)
	s.mu.Unlock()
}
