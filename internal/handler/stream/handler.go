package stream

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/z-salon/backend/internal/apperr"
	chatService "github.com/zhouzirui/z-salon/backend/internal/service/chat"
	"github.com/zhouzirui/z-salon/backend/pkg/utils"
)

const defaultHeartbeat = 8 * time.Second

// Handler delivers a send-message exchange over Server-Sent Events, with heartbeats
// while the generator is working.
type Handler struct {
	chatSvc   *chatService.Service
	logger    *zap.Logger
	heartbeat time.Duration
}

// New creates a new stream handler
func New(chatSvc *chatService.Service, logger *zap.Logger) *Handler {
	return &Handler{
		chatSvc:   chatSvc,
		logger:    logger,
		heartbeat: defaultHeartbeat,
	}
}

// RegisterRoutes mounts GET /sessions/{sessionID}/stream?message=.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/{sessionID}/stream", h.handleStream)
}

// StreamEvent is the payload of status events.
type StreamEvent struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message,omitempty"`
	Status    int    `json:"status,omitempty"`
	Time      string `json:"time,omitempty"`
}

type result struct {
	exchange chatService.Exchange
	err      error
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	content := r.URL.Query().Get("message")

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	// Input and session problems are reported as plain JSON before the stream opens.
	if _, err := h.chatSvc.GetSession(r.Context(), sessionID); err != nil {
		utils.RespondAppError(w, err)
		return
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	ctx := r.Context()
	h.logger.Debug("opening stream", zap.String("session", sessionID))
	utils.SendSSEEvent(w, flusher, "start", StreamEvent{SessionID: sessionID, Message: "message received"})

	done := make(chan result, 1)
	go func() {
		exchange, err := h.chatSvc.SendMessage(ctx, sessionID, content)
		done <- result{exchange: exchange, err: err}
	}()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case res := <-done:
			h.finish(ctx, w, flusher, sessionID, res)
			return
		case t := <-ticker.C:
			utils.SendSSEEvent(w, flusher, "heartbeat", StreamEvent{
				SessionID: sessionID,
				Message:   "awaiting response",
				Time:      t.UTC().Format(time.RFC3339),
			})
		}
	}
}

func (h *Handler) finish(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, sessionID string, res result) {
	if res.err != nil {
		if ctx.Err() != nil {
			h.logger.Debug("client went away", zap.String("session", sessionID))
			return
		}
		if apperr.KindOf(res.err) == apperr.Internal {
			h.logger.Error("stream send failed", zap.String("session", sessionID), zap.Error(res.err))
		}
		status, body := utils.ErrorBodyFor(res.err)
		utils.SendSSEEvent(w, flusher, "error", StreamEvent{
			SessionID: sessionID,
			Message:   body.Message,
			Status:    status,
		})
	} else {
		utils.SendSSEEvent(w, flusher, "user", res.exchange.UserMessage)
		utils.SendSSEEvent(w, flusher, "assistant", res.exchange.AssistantMessage)
	}
	utils.SendSSEEvent(w, flusher, "end", StreamEvent{SessionID: sessionID})
}
