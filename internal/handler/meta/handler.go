package meta

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/seohyun-lab/maum-counsel/backend/internal/persona"
	"github.com/seohyun-lab/maum-counsel/backend/pkg/utils"
)

// Handler exposes the selectable model set and the counselor presentation
// strings the front-end renders.
type Handler struct {
	models    []string
	counselor persona.Counselor
}

// New creates the meta handler. The first model is the default.
func New(models []string, counselor persona.Counselor) *Handler {
	return &Handler{
		models:    append([]string(nil), models...),
		counselor: counselor,
	}
}

// RegisterRoutes mounts the meta routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/meta", h.handleMeta)
}

func (h *Handler) handleMeta(w http.ResponseWriter, r *http.Request) {
	defaultModel := ""
	if len(h.models) > 0 {
		defaultModel = h.models[0]
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"models":       h.models,
		"defaultModel": defaultModel,
		"counselor":    h.counselor,
	})
}
