package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/zhouzirui/z-salon/backend/internal/handler/chat"
	"github.com/zhouzirui/z-salon/backend/internal/handler/live"
	"github.com/zhouzirui/z-salon/backend/internal/handler/persona"
	"github.com/zhouzirui/z-salon/backend/internal/handler/stream"
	middlewarePkg "github.com/zhouzirui/z-salon/backend/internal/middleware"
	personaModel "github.com/zhouzirui/z-salon/backend/internal/model/persona"
	chatService "github.com/zhouzirui/z-salon/backend/internal/service/chat"
	"github.com/zhouzirui/z-salon/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(personas personaModel.Store, chatSvc *chatService.Service, logger *zap.Logger, corsOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(corsOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":    "ok",
			"generator": chatSvc.GeneratorEnabled(),
		})
	})

	personaHandler := persona.New(personas)
	chatHandler := chat.New(chatSvc, logger)
	streamHandler := stream.New(chatSvc, logger)
	liveHandler := live.NewWebSocketHandler(chatSvc, logger)

	r.Route("/api", func(api chi.Router) {
		personaHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
		streamHandler.RegisterRoutes(api)
		liveHandler.RegisterRoutes(api)
	})

	return r
}
