package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Justparthi/meeting-backend/internal/domain"
	"github.com/Justparthi/meeting-backend/internal/service"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	meetingSvc *service.MeetingService
	summarizer service.Summarizer
}

func NewHandler(meeting *service.MeetingService, summarizer service.Summarizer) *Handler {
	return &Handler{
		meetingSvc: meeting,
		summarizer: summarizer,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// POST /api/meetings
func (h *Handler) CreateMeeting(w http.ResponseWriter, r *http.Request) {
	var req CreateMeetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	if req.RoomName == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "roomName is required", Received: req})
		return
	}
	if req.HostName == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "hostName is required", Received: req})
		return
	}

	m, userID, err := h.meetingSvc.CreateMeeting(r.Context(), req.RoomName, req.HostName, req.Password, req.IsInstant)
	if err != nil {
		slog.Error("handler.CreateMeeting:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	writeJSON(w, http.StatusCreated, CreateMeetingResponse{
		RoomCode:  m.RoomCode,
		MeetingID: m.MeetingID,
		UserID:    userID,
		Settings:  m.Settings,
	})
}

// POST /api/meetings/{code}/join
func (h *Handler) JoinMeeting(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req JoinMeetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	if req.Username == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "username is required", Received: req})
		return
	}

	m, userID, err := h.meetingSvc.Join(r.Context(), code, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMeetingNotFound):
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "meeting not found"})
		case errors.Is(err, domain.ErrWrongPassword):
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "wrong password"})
		case errors.Is(err, domain.ErrMeetingFull):
			writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "meeting is full"})
		default:
			slog.Error("handler.JoinMeeting:", slog.Any("err", err))
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, JoinMeetingResponse{
		UserID:   userID,
		RoomName: m.RoomName,
		Settings: m.Settings,
	})
}

// POST /api/meetings/{code}/leave
func (h *Handler) LeaveMeeting(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req UserActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "userId is required", Received: req})
		return
	}

	if err := h.meetingSvc.Leave(r.Context(), code, req.UserID); err != nil {
		switch {
		case errors.Is(err, domain.ErrMeetingNotFound), errors.Is(err, domain.ErrNotParticipant):
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "meeting or participant not found"})
		default:
			slog.Error("handler.LeaveMeeting:", slog.Any("err", err))
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Status: "left"})
}

// POST /api/meetings/{code}/end
func (h *Handler) EndMeeting(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req UserActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "userId is required", Received: req})
		return
	}

	if err := h.meetingSvc.End(r.Context(), code, req.UserID); err != nil {
		switch {
		case errors.Is(err, domain.ErrMeetingNotFound):
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "meeting not found"})
		case errors.Is(err, domain.ErrNotHost):
			writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "only the host can end the meeting"})
		default:
			slog.Error("handler.EndMeeting:", slog.Any("err", err))
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Status: "ended"})
}

// GET /api/meetings/{code}
func (h *Handler) GetMeeting(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	m, err := h.meetingSvc.Get(r.Context(), code)
	if err != nil {
		if errors.Is(err, domain.ErrMeetingNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "meeting not found"})
			return
		}
		slog.Error("handler.GetMeeting:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	settings := m.Settings
	settings.Password = ""

	writeJSON(w, http.StatusOK, MeetingSummaryResponse{
		RoomCode:          m.RoomCode,
		MeetingID:         m.MeetingID,
		RoomName:          m.RoomName,
		ParticipantCount:  m.ActiveCount(),
		PasswordProtected: m.Settings.Password != "",
		Settings:          settings,
		IsInstant:         m.IsInstant,
		StartTime:         m.StartTime,
	})
}

// POST /api/meetings/{code}/summary
func (h *Handler) SummarizeMeeting(w http.ResponseWriter, r *http.Request) {
	var req SummarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	if req.Text == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "text is required", Received: req})
		return
	}

	summary, err := h.summarizer.Summarize(r.Context(), req.Text)
	if err != nil {
		if errors.Is(err, service.ErrSummaryDisabled) {
			writeJSON(w, http.StatusNotImplemented, ErrorResponse{Error: "summary provider disabled"})
			return
		}
		slog.Error("handler.SummarizeMeeting:", slog.Any("err", err))
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "summary provider error"})
		return
	}

	writeJSON(w, http.StatusOK, SummarizeResponse{Summary: summary})
}
