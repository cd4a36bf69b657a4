package http

import (
	"net/http"
	"time"

	"github.com/deckforge/collab-service/internal/transport/ws"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *Handler, wsServer *ws.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)

	// WS endpoint; session membership is negotiated on the socket
	r.Get("/ws", wsServer.HandleWS)

	r.Group(func(pr chi.Router) {
		pr.Use(middlewareChi.Timeout(30 * time.Second))

		pr.Route("/presentations", func(pm chi.Router) {
			pm.Post("/", h.CreatePresentation)
			pm.Get("/", h.ListPresentations)

			pm.Route("/{id}", func(pp chi.Router) {
				pp.Get("/", h.GetPresentation)
				pp.Delete("/", h.DeletePresentation)
			})
		})

		pr.Get("/stats", h.Stats)
	})

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
