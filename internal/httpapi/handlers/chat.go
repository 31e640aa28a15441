package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/keyword-chatbot/internal/chat"
	"github.com/suPer8Hu/keyword-chatbot/internal/common"
	"github.com/suPer8Hu/keyword-chatbot/internal/httpapi/middleware"
)

const (
	msgEmpty      = "Mensagem vazia"
	msgBadJSON    = "JSON inválido"
	msgInternal   = "Erro interno do servidor"
	msgCleared    = "Chat limpo com sucesso"
	msgClearError = "Erro ao limpar chat"
)

type chatReq struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

func decodeChatRequest(c *gin.Context) (chatReq, error) {
	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return chatReq{}, fmt.Errorf("%w: %v", chat.ErrMalformedRequest, err)
	}
	if strings.TrimSpace(req.Message) == "" {
		return chatReq{}, chat.ErrEmptyMessage
	}
	return req, nil
}

// SendChat answers one message. A body session_id is used as given;
// otherwise the session bound to the browser cookie is continued, and a
// freshly minted session gets bound to it.
func (h *Handler) SendChat(c *gin.Context) {
	req, err := decodeChatRequest(c)
	if err != nil {
		h.chatError(c, err)
		return
	}

	ctx := c.Request.Context()
	explicit := strings.TrimSpace(req.SessionID)
	key := h.bindingKey(c)
	sid := explicit
	if sid == "" && key != "" {
		sid = h.lookup(c, key)
	}

	res, err := h.ChatSvc.Reply(ctx, chat.ReplyInput{Message: req.Message, SessionID: sid})
	if err != nil {
		h.chatError(c, err)
		return
	}

	if res.NewSession && explicit == "" {
		h.bind(c, key, res.SessionID)
	}

	common.OK(c, gin.H{
		"response":   res.Response,
		"session_id": res.SessionID,
		"timestamp":  unixSeconds(res.Timestamp),
	})
}

func (h *Handler) chatError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, chat.ErrMalformedRequest):
		common.Fail(c, http.StatusBadRequest, msgBadJSON)
	case errors.Is(err, chat.ErrEmptyMessage):
		common.Fail(c, http.StatusBadRequest, msgEmpty)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// the client is gone; the status is only seen by the access log
		common.Fail(c, http.StatusServiceUnavailable, msgInternal)
	default:
		_ = c.Error(err)
		common.Fail(c, http.StatusInternalServerError, msgInternal)
	}
}

// ClearChat deletes the transcript of the session bound to the browser
// cookie and drops the binding. Clearing when nothing is bound succeeds.
// Other sessions are reachable only through the admin API.
func (h *Handler) ClearChat(c *gin.Context) {
	ctx := c.Request.Context()
	key := h.bindingKey(c)

	sid := ""
	if key != "" {
		sid = h.lookup(c, key)
	}

	if sid != "" {
		if err := h.ChatSvc.Clear(ctx, sid); err != nil {
			h.Log.Error("clear chat failed", "session_id", sid, "err", err, "request_id", c.GetString(middleware.RequestIDKey))
			_ = c.Error(err)
			common.Fail(c, http.StatusInternalServerError, msgClearError)
			return
		}
		if err := h.Binder.Unbind(ctx, key); err != nil {
			h.Log.Warn("unbind session failed", "err", err)
		}
		h.clearCookie(c)
	}

	common.OK(c, gin.H{"message": msgCleared})
}

type historyItem struct {
	UserMessage string `json:"user_message"`
	BotResponse string `json:"bot_response"`
	Timestamp   string `json:"timestamp"`
}

// History lists the cookie-bound session's transcript, oldest first.
func (h *Handler) History(c *gin.Context) {
	sid := ""
	if key := h.bindingKey(c); key != "" {
		sid = h.lookup(c, key)
	}
	items := []historyItem{}
	if sid == "" {
		common.OK(c, gin.H{"messages": items})
		return
	}

	entries, err := h.ChatSvc.History(c.Request.Context(), sid)
	if err != nil {
		h.Log.Error("load history failed", "session_id", sid, "err", err, "request_id", c.GetString(middleware.RequestIDKey))
		_ = c.Error(err)
		common.Fail(c, http.StatusInternalServerError, msgInternal)
		return
	}
	for _, e := range entries {
		items = append(items, historyItem{
			UserMessage: e.UserMessage,
			BotResponse: e.BotResponse,
			Timestamp:   e.Timestamp.Format(time.RFC3339Nano),
		})
	}
	common.OK(c, gin.H{"messages": items})
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// Cookie binding

func (h *Handler) bindingKey(c *gin.Context) string {
	if h.Binder == nil {
		return ""
	}
	key, err := c.Cookie(h.Cfg.Chat.CookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(key)
}

// lookup resolves a binding key. Store failures degrade to "not bound".
func (h *Handler) lookup(c *gin.Context, key string) string {
	sid, ok, err := h.Binder.Lookup(c.Request.Context(), key)
	if err != nil {
		h.Log.Warn("session binding lookup failed", "err", err, "request_id", c.GetString(middleware.RequestIDKey))
		return ""
	}
	if !ok {
		return ""
	}
	return sid
}

func (h *Handler) bind(c *gin.Context, key, sessionID string) {
	if h.Binder == nil {
		return
	}
	if key == "" {
		id, err := common.NewULID()
		if err != nil {
			h.Log.Warn("binding key", "err", err)
			return
		}
		key = id
	}
	if err := h.Binder.Bind(c.Request.Context(), key, sessionID); err != nil {
		h.Log.Warn("bind session failed", "session_id", sessionID, "err", err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.Cfg.Chat.CookieName, key, int(h.Cfg.Redis.SessionTTL/time.Second), "/", "", c.Request.TLS != nil, true)
}

func (h *Handler) clearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.Cfg.Chat.CookieName, "", -1, "/", "", c.Request.TLS != nil, true)
}
