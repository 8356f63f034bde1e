package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/Justparthi/meeting-backend/internal/domain"
	"github.com/Justparthi/meeting-backend/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MeetingRepository — авторитетный store.MeetingStore поверх postgres.
// Завершённый митинг остаётся мёртвой строкой (is_active=false), в отличие
// от fallback-а, который запись удаляет.
type MeetingRepository struct {
	db *pgxpool.Pool
}

func NewMeetingRepository(db *pgxpool.Pool) *MeetingRepository {
	return &MeetingRepository{db: db}
}

var _ store.MeetingStore = (*MeetingRepository)(nil)

func (r *MeetingRepository) Create(ctx context.Context, m *domain.Meeting) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const insertMeeting = `
		INSERT INTO meetings (
			room_code, meeting_id, room_name, host_user_id, host_name,
			password, max_participants, recording_enabled, waiting_room,
			mute_on_join, video_on_join, chat_enabled, screen_share_enabled,
			is_active, is_instant, start_time, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`

	if _, err := tx.Exec(ctx, insertMeeting,
		m.RoomCode, m.MeetingID, m.RoomName, m.HostUserID, m.HostName,
		m.Settings.Password, m.Settings.MaxParticipants, m.Settings.RecordingEnabled,
		m.Settings.WaitingRoom, m.Settings.MuteOnJoin, m.Settings.VideoOnJoin,
		m.Settings.ChatEnabled, m.Settings.ScreenShareEnabled,
		m.IsActive, m.IsInstant, m.StartTime, m.CreatedAt,
	); err != nil {
		return err
	}

	for _, p := range m.Participants {
		if err := insertParticipant(ctx, tx, m.RoomCode, p); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *MeetingRepository) GetByCode(ctx context.Context, roomCode string) (*domain.Meeting, store.State, error) {
	const q = `
		SELECT room_code, meeting_id, room_name, host_user_id, host_name,
		       password, max_participants, recording_enabled, waiting_room,
		       mute_on_join, video_on_join, chat_enabled, screen_share_enabled,
		       is_active, is_instant, start_time, end_time, created_at
		FROM meetings WHERE room_code=$1`

	var m domain.Meeting
	err := r.db.QueryRow(ctx, q, roomCode).Scan(
		&m.RoomCode, &m.MeetingID, &m.RoomName, &m.HostUserID, &m.HostName,
		&m.Settings.Password, &m.Settings.MaxParticipants, &m.Settings.RecordingEnabled,
		&m.Settings.WaitingRoom, &m.Settings.MuteOnJoin, &m.Settings.VideoOnJoin,
		&m.Settings.ChatEnabled, &m.Settings.ScreenShareEnabled,
		&m.IsActive, &m.IsInstant, &m.StartTime, &m.EndTime, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.StateAbsent, nil
		}
		return nil, store.StateAbsent, err
	}

	parts, err := r.listParticipants(ctx, roomCode)
	if err != nil {
		return nil, store.StateAbsent, err
	}
	m.Participants = parts

	if !m.IsActive {
		return &m, store.StateTerminated, nil
	}
	return &m, store.StateActive, nil
}

// AddParticipant защищён от гонок по max_participants: строка митинга
// блокируется, параллельные join-ы по тому же коду ждут.
func (r *MeetingRepository) AddParticipant(ctx context.Context, roomCode string, p domain.Participant) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var maxParticipants int
	var isActive bool
	err = tx.QueryRow(ctx,
		`SELECT max_participants, is_active FROM meetings WHERE room_code=$1 FOR UPDATE`,
		roomCode).Scan(&maxParticipants, &isActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrMeetingNotFound
		}
		return err
	}
	if !isActive {
		return domain.ErrMeetingNotFound
	}

	var active int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM meeting_participants WHERE room_code=$1 AND left_at IS NULL`,
		roomCode).Scan(&active); err != nil {
		return err
	}
	if active >= maxParticipants {
		return domain.ErrMeetingFull
	}

	if err := insertParticipant(ctx, tx, roomCode, p); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *MeetingRepository) MarkLeft(ctx context.Context, roomCode, userID string, leftAt time.Time) (int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx,
		`UPDATE meeting_participants SET left_at=$3
		 WHERE room_code=$1 AND user_id=$2 AND left_at IS NULL`,
		roomCode, userID, leftAt)
	if err != nil {
		return 0, err
	}
	if cmd.RowsAffected() == 0 {
		return 0, domain.ErrNotParticipant
	}

	var remaining int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM meeting_participants WHERE room_code=$1 AND left_at IS NULL`,
		roomCode).Scan(&remaining); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return remaining, nil
}

func (r *MeetingRepository) Terminate(ctx context.Context, roomCode string, endTime time.Time) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE meetings SET is_active=false, end_time=$2 WHERE room_code=$1`,
		roomCode, endTime)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrMeetingNotFound
	}
	return nil
}

func (r *MeetingRepository) listParticipants(ctx context.Context, roomCode string) ([]domain.Participant, error) {
	rows, err := r.db.Query(ctx,
		`SELECT user_id, user_name, joined_at, left_at, is_host, camera_on, mic_on
		 FROM meeting_participants WHERE room_code=$1 ORDER BY joined_at ASC`,
		roomCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []domain.Participant
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.UserID, &p.UserName, &p.JoinedAt, &p.LeftAt, &p.IsHost, &p.CameraOn, &p.MicOn); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func insertParticipant(ctx context.Context, tx pgx.Tx, roomCode string, p domain.Participant) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO meeting_participants (room_code, user_id, user_name, joined_at, left_at, is_host, camera_on, mic_on)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		roomCode, p.UserID, p.UserName, p.JoinedAt, p.LeftAt, p.IsHost, p.CameraOn, p.MicOn)
	return err
}
