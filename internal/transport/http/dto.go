package http

import (
	"time"

	"github.com/Justparthi/meeting-backend/internal/domain"
)

type CreateMeetingRequest struct {
	RoomName  string `json:"roomName"`
	HostName  string `json:"hostName"`
	Password  string `json:"password,omitempty"`
	IsInstant bool   `json:"isInstant,omitempty"`
}

type CreateMeetingResponse struct {
	RoomCode  string          `json:"roomCode"`
	MeetingID string          `json:"meetingId"`
	UserID    string          `json:"userId"`
	Settings  domain.Settings `json:"settings"`
}

type JoinMeetingRequest struct {
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
}

type JoinMeetingResponse struct {
	UserID   string          `json:"userId"`
	RoomName string          `json:"roomName"`
	Settings domain.Settings `json:"settings"`
}

type UserActionRequest struct {
	UserID string `json:"userId"`
}

// MeetingSummaryResponse — публичная проекция митинга: без списка
// участников и без пароля.
type MeetingSummaryResponse struct {
	RoomCode          string          `json:"roomCode"`
	MeetingID         string          `json:"meetingId"`
	RoomName          string          `json:"roomName"`
	ParticipantCount  int             `json:"participantCount"`
	PasswordProtected bool            `json:"passwordProtected"`
	Settings          domain.Settings `json:"settings"`
	IsInstant         bool            `json:"isInstant"`
	StartTime         time.Time       `json:"startTime"`
}

type SummarizeRequest struct {
	Text string `json:"text"`
}

type SummarizeResponse struct {
	Summary string `json:"summary"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	// Received эхо-дублирует полученный payload при ошибках валидации.
	Received interface{} `json:"received,omitempty"`
}

type StatusResponse struct {
	Status string `json:"status"`
}
