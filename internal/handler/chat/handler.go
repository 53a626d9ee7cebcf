package chat

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/z-salon/backend/internal/apperr"
	chatService "github.com/zhouzirui/z-salon/backend/internal/service/chat"
	"github.com/zhouzirui/z-salon/backend/pkg/utils"
)

// Handler 聊天服务的HTTP处理器
type Handler struct {
	chatSvc *chatService.Service
	logger  *zap.Logger
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service, logger *zap.Logger) *Handler {
	return &Handler{
		chatSvc: chatSvc,
		logger:  logger,
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.handleCreateSession)
	r.Get("/sessions/{sessionID}", h.handleGetSession)
	r.Put("/sessions/{sessionID}/persona", h.handleChangePersona)
	r.Get("/sessions/{sessionID}/messages", h.handleListMessages)
	r.Post("/sessions/{sessionID}/messages", h.handleSendMessage)
	r.Delete("/sessions/{sessionID}/messages", h.handleClearMessages)
}

// handleCreateSession 创建或恢复会话
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
		PersonaID *int   `json:"personaId"`
	}
	if !decodeBody(w, r, &payload, true) {
		return
	}

	session, created, err := h.chatSvc.CreateSession(r.Context(), payload.SessionID, payload.PersonaID)
	if err != nil {
		h.respondErr(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	utils.RespondJSON(w, status, session)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

// handleChangePersona 切换会话角色
func (h *Handler) handleChangePersona(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		PersonaID *int `json:"personaId"`
	}
	if !decodeBody(w, r, &payload, false) {
		return
	}
	if payload.PersonaID == nil {
		utils.RespondValidation(w, "personaId is required", map[string]string{"personaId": "is required"})
		return
	}

	change, err := h.chatSvc.ChangePersona(r.Context(), chi.URLParam(r, "sessionID"), *payload.PersonaID)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, change)
}

func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.chatSvc.ListMessages(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, messages)
}

// handleSendMessage 发送消息并返回用户消息与角色回复
func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Content string `json:"content"`
	}
	if !decodeBody(w, r, &payload, false) {
		return
	}

	exchange, err := h.chatSvc.SendMessage(r.Context(), chi.URLParam(r, "sessionID"), payload.Content)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, exchange)
}

func (h *Handler) handleClearMessages(w http.ResponseWriter, r *http.Request) {
	if err := h.chatSvc.ClearMessages(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		h.respondErr(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	if apperr.KindOf(err) == apperr.Internal {
		h.logger.Error("chat request failed", zap.Error(err))
	}
	utils.RespondAppError(w, err)
}

// decodeBody reads a JSON body into dst. allowEmpty accepts a missing body.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || (allowEmpty && errors.Is(err, io.EOF)) {
		return true
	}
	utils.RespondValidation(w, "invalid request body", map[string]string{"body": err.Error()})
	return false
}
