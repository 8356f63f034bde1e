package http

import (
	"net/http"
	"time"

	"github.com/Justparthi/meeting-backend/internal/transport/ws"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *Handler, wsServer *ws.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)

	// WS endpoint — вне Timeout: соединение долгоживущее
	r.Get("/ws", wsServer.HandleWS)

	r.Group(func(pr chi.Router) {
		pr.Use(loggingMiddleware)
		pr.Use(middlewareChi.Timeout(30 * time.Second))

		pr.Route("/api/meetings", func(rm chi.Router) {
			rm.Post("/", h.CreateMeeting)

			rm.Route("/{code}", func(rr chi.Router) {
				rr.Get("/", h.GetMeeting)
				rr.Post("/join", h.JoinMeeting)
				rr.Post("/leave", h.LeaveMeeting)
				rr.Post("/end", h.EndMeeting)
				rr.Post("/summary", h.SummarizeMeeting)
			})
		})
	})

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
