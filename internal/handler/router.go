package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/persona-chat/backend/internal/handler/chat"
	"github.com/zhouzirui/persona-chat/backend/internal/handler/persona"
	"github.com/zhouzirui/persona-chat/backend/internal/handler/ws"
	middlewarePkg "github.com/zhouzirui/persona-chat/backend/internal/middleware"
	chatService "github.com/zhouzirui/persona-chat/backend/internal/service/chat"
	"github.com/zhouzirui/persona-chat/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(chatSvc *chatService.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	personaHandler := persona.New(chatSvc.Personas())
	chatHandler := chat.New(chatSvc)
	wsHandler := ws.New(chatSvc)

	r.Route("/api", func(api chi.Router) {
		personaHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)
	})

	return r
}
