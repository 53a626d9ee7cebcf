package live

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zhouzirui/z-salon/backend/internal/apperr"
	chatService "github.com/zhouzirui/z-salon/backend/internal/service/chat"
	"github.com/zhouzirui/z-salon/backend/pkg/utils"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// WebSocketHandler WebSocket会话处理器
type WebSocketHandler struct {
	chatSvc     *chatService.Service
	logger      *zap.Logger
	upgrader    websocket.Upgrader
	readTimeout time.Duration
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(chatSvc *chatService.Service, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		chatSvc:     chatSvc,
		logger:      logger,
		readTimeout: readTimeout,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/{sessionID}/ws", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string `json:"type"`
	Content   string `json:"content,omitempty"`
	PersonaID *int   `json:"personaId,omitempty"`
}

type outgoingMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// conn serializes writes; gorilla allows one concurrent writer.
type conn struct {
	ws        *websocket.Conn
	sessionID string
	logger    *zap.Logger
	mu        sync.Mutex
}

func (c *conn) write(msgType string, data any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	msg := outgoingMessage{
		Type:      msgType,
		SessionID: c.sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	if err := c.ws.WriteJSON(msg); err != nil {
		c.logger.Debug("websocket write failed", zap.String("type", msgType), zap.Error(err))
	}
}

func (c *conn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

// handleWebSocket 处理WebSocket连接
func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		utils.RespondAppError(w, err)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.String("session", sessionID), zap.Error(err))
		return
	}
	defer ws.Close()

	c := &conn{ws: ws, sessionID: sessionID, logger: h.logger}
	h.logger.Info("websocket connected", zap.String("session", sessionID))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	_ = ws.SetReadDeadline(time.Now().Add(h.readTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(h.readTimeout))
	})

	go h.pingLoop(ctx, c)

	c.write("connected", session)

	for {
		var msg inboundMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read failed", zap.String("session", sessionID), zap.Error(err))
			}
			return
		}
		// Pongs are not read while a message is handled, so a send may run up to the generator timeout.
		_ = ws.SetReadDeadline(time.Now().Add(h.chatSvc.GeneratorTimeout() + h.readTimeout))
		h.handleMessage(ctx, c, msg)
		_ = ws.SetReadDeadline(time.Now().Add(h.readTimeout))
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, c *conn, msg inboundMessage) {
	switch msg.Type {
	case "send":
		exchange, err := h.chatSvc.SendMessage(ctx, c.sessionID, msg.Content)
		if err != nil {
			h.sendError(c, err)
			return
		}
		c.write("messages", exchange)
	case "persona":
		if msg.PersonaID == nil {
			h.sendError(c, apperr.NewValidation("personaId is required", map[string]string{"personaId": "is required"}))
			return
		}
		change, err := h.chatSvc.ChangePersona(ctx, c.sessionID, *msg.PersonaID)
		if err != nil {
			h.sendError(c, err)
			return
		}
		c.write("persona", change)
	case "history":
		messages, err := h.chatSvc.ListMessages(ctx, c.sessionID)
		if err != nil {
			h.sendError(c, err)
			return
		}
		c.write("history", messages)
	case "clear":
		if err := h.chatSvc.ClearMessages(ctx, c.sessionID); err != nil {
			h.sendError(c, err)
			return
		}
		c.write("cleared", map[string]bool{"success": true})
	default:
		h.sendError(c, apperr.NewValidation("unsupported message type: "+msg.Type, nil))
	}
}

type errorPayload struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func (h *WebSocketHandler) sendError(c *conn, err error) {
	status, body := utils.ErrorBodyFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("websocket request failed", zap.String("session", c.sessionID), zap.Error(err))
	}
	c.write("error", errorPayload{Status: status, Message: body.Message, Errors: body.Errors})
}

func (h *WebSocketHandler) pingLoop(ctx context.Context, c *conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}
