package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/seohyun-lab/maum-counsel/backend/internal/model/chat"
	chatservice "github.com/seohyun-lab/maum-counsel/backend/internal/service/chat"
	"github.com/seohyun-lab/maum-counsel/backend/internal/service/export"
	"github.com/seohyun-lab/maum-counsel/backend/pkg/utils"
)

// Responder produces a model reply for an utterance; it never fails, only
// degrades to a fallback string.
type Responder interface {
	Respond(ctx context.Context, model string, transcript []chat.Turn, utterance string) string
}

// Handler serves session lifecycle, messaging, and export routes.
type Handler struct {
	sessions  *chatservice.Service
	responder Responder

	// inflight serializes respond calls per session: the front-end blocks
	// on one exchange at a time, so a concurrent second call is a client
	// bug and gets 409.
	inflight sync.Map
}

// New creates the chat handler.
func New(sessions *chatservice.Service, responder Responder) *Handler {
	return &Handler{
		sessions:  sessions,
		responder: responder,
	}
}

// RegisterRoutes mounts the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Get("/session/{sessionID}", h.handleGetSession)
	r.Post("/session/{sessionID}/messages", h.handleSendMessage)
	r.Post("/session/{sessionID}/reset", h.handleReset)
	r.Put("/session/{sessionID}/model", h.handleSelectModel)
	r.Get("/session/{sessionID}/transcript", h.handleTranscript)
	r.Get("/session/{sessionID}/export", h.handleExport)
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Model string `json:"model"`
	}

	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	session, err := h.sessions.CreateSession(r.Context(), payload.Model)
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.sessions.Session(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}

	turns, err := h.sessions.Transcript(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"session":   session,
		"exchanges": len(turns) / 2,
	})
}

func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message := strings.TrimSpace(payload.Message)
	if message == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}

	if _, busy := h.inflight.LoadOrStore(sessionID, struct{}{}); busy {
		utils.RespondError(w, http.StatusConflict, "another exchange is in progress for this session")
		return
	}
	defer h.inflight.Delete(sessionID)

	session, err := h.sessions.Session(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}

	transcript, err := h.sessions.Transcript(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}

	reply := h.responder.Respond(r.Context(), session.Model, transcript, message)

	// If the client vanished mid-call there is nobody to show the reply to;
	// recording it would leave a model turn the user never saw.
	if r.Context().Err() != nil {
		log.Warn().Str("session", sessionID).Msg("client gone before reply, exchange dropped")
		return
	}

	if err := h.sessions.AppendExchange(r.Context(), sessionID, message, reply); err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"reply":   reply,
		"session": session,
	})
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.sessions.Reset(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, session)
}

func (h *Handler) handleSelectModel(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var payload struct {
		Model string `json:"model"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Model == "" {
		utils.RespondError(w, http.StatusBadRequest, "model is required")
		return
	}

	session, err := h.sessions.SelectModel(r.Context(), sessionID, payload.Model)
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, session)
}

func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	turns, err := h.sessions.Transcript(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{"turns": turns})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	records, err := h.sessions.ExportLog(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(sessionID)))
	if err := export.WriteCSV(w, records); err != nil {
		// Headers are already out; nothing useful left to send.
		log.Error().Err(err).Str("session", sessionID).Msg("failed to stream export")
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, chatservice.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, chatservice.ErrUnknownModel), errors.Is(err, chatservice.ErrNoModels):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
