package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	chathandler "github.com/dinedesk/backend/internal/handler/chat"
	streamhandler "github.com/dinedesk/backend/internal/handler/stream"
	voicehandler "github.com/dinedesk/backend/internal/handler/voice"
	"github.com/dinedesk/backend/internal/middleware"
	"github.com/dinedesk/backend/pkg/utils"
)

// Handlers collects everything the router mounts.
type Handlers struct {
	Chat   *chathandler.Handler
	Stream *streamhandler.Handler
	Voice  *voicehandler.Handler
}

// NewRouter assembles the HTTP surface: chat endpoints under /api, the SSE
// reveal stream, and the voice WebSocket.
func NewRouter(h Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		h.Chat.RegisterRoutes(api)
		h.Stream.RegisterRoutes(api)
		h.Voice.RegisterRoutes(api)
	})

	// Kept for clients that still post to the root path.
	r.Post("/new-chat", h.Chat.HandleNewChat)

	return r
}
