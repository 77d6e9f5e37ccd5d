package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	chathandler "github.com/seohyun-lab/maum-counsel/backend/internal/handler/chat"
	metahandler "github.com/seohyun-lab/maum-counsel/backend/internal/handler/meta"
	middlewarePkg "github.com/seohyun-lab/maum-counsel/backend/internal/middleware"
	"github.com/seohyun-lab/maum-counsel/backend/internal/persona"
	chatservice "github.com/seohyun-lab/maum-counsel/backend/internal/service/chat"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(sessions *chatservice.Service, responder chathandler.Responder, counselor persona.Counselor) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	chatHandler := chathandler.New(sessions, responder)
	metaHandler := metahandler.New(sessions.Models(), counselor)

	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
		metaHandler.RegisterRoutes(api)
	})

	return r
}
