package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/deckforge/collab-service/internal/collab"
	"github.com/deckforge/collab-service/internal/domain"
	"github.com/deckforge/collab-service/internal/postgres"
	"github.com/deckforge/collab-service/internal/service"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	presentationSvc *service.PresentationService
	relay           *collab.Relay
}

func NewHandler(presentation *service.PresentationService, relay *collab.Relay) *Handler {
	return &Handler{
		presentationSvc: presentation,
		relay:           relay,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// POST /presentations
func (h *Handler) CreatePresentation(w http.ResponseWriter, r *http.Request) {
	var req CreatePresentationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	p, err := h.presentationSvc.Create(r.Context(), req.Title)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyTitle) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "title is required"})
			return
		}
		slog.Error("handler.CreatePresentation:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, PresentationItem{
		ID:        p.ID,
		Title:     p.Title,
		CreatedAt: p.CreatedAt,
	})
}

// GET /presentations?limit=&cursor=
func (h *Handler) ListPresentations(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}
	cursor := r.URL.Query().Get("cursor")

	items, next, err := h.presentationSvc.List(r.Context(), limit, cursor)
	if err != nil {
		if errors.Is(err, postgres.ErrInvalidCursor) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_cursor"})
			return
		}
		slog.Error("handler.ListPresentations:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	resp := PresentationsListResponse{Items: make([]PresentationItem, 0, len(items)), NextCursor: next}
	for _, p := range items {
		resp.Items = append(resp.Items, PresentationItem{
			ID:        p.ID,
			Title:     p.Title,
			CreatedAt: p.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// GET /presentations/{id}
func (h *Handler) GetPresentation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := h.presentationSvc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrPresentationNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "presentation not found"})
			return
		}
		slog.Error("handler.GetPresentation:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, PresentationItem{
		ID:        p.ID,
		Title:     p.Title,
		CreatedAt: p.CreatedAt,
	})
}

// DELETE /presentations/{id}
func (h *Handler) DeletePresentation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.presentationSvc.Delete(r.Context(), id); err != nil {
		slog.Error("handler.DeletePresentation:", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GET /stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	rooms, clients := h.relay.Stats()
	writeJSON(w, http.StatusOK, StatsResponse{Rooms: rooms, Clients: clients})
}
