package handlers

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/keyword-chatbot/internal/auth"
	"github.com/suPer8Hu/keyword-chatbot/internal/chat"
	"github.com/suPer8Hu/keyword-chatbot/internal/common"
	"github.com/suPer8Hu/keyword-chatbot/internal/httpapi/middleware"
)

type loginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) AdminLogin(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, "invalid json")
		return
	}

	cfg := h.Cfg.Admin
	if !h.Cfg.AdminEnabled() {
		common.Fail(c, http.StatusForbidden, "admin login disabled")
		return
	}
	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(cfg.Username)) == 1
	if !auth.CheckPassword(cfg.PasswordHash, req.Password) || !userOK {
		h.Log.Warn("admin login rejected", "username", req.Username, "ip", c.ClientIP())
		common.Fail(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.SignJWT(cfg.JWTSecret, cfg.Username, cfg.TokenTTL)
	if err != nil {
		h.Log.Error("sign admin token", "err", err)
		common.Fail(c, http.StatusInternalServerError, "failed to sign token")
		return
	}
	common.OK(c, gin.H{
		"token":      token,
		"expires_in": int64(cfg.TokenTTL.Seconds()),
	})
}

func (h *Handler) ListRules(c *gin.Context) {
	rows, err := h.ChatSvc.ListRules(c.Request.Context())
	if err != nil {
		h.adminError(c, err, "failed to list rules")
		return
	}
	common.OK(c, gin.H{"rules": rows, "active": h.ChatSvc.ActiveRuleCount()})
}

func (h *Handler) CreateRule(c *gin.Context) {
	var in chat.RuleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		common.Fail(c, http.StatusBadRequest, "invalid json")
		return
	}
	row, err := h.ChatSvc.CreateRule(c.Request.Context(), in)
	if err != nil {
		h.adminError(c, err, "failed to create rule")
		return
	}
	h.Log.Info("rule created", "id", row.ID, "category", row.Category, "admin", c.GetString(middleware.AdminKey))
	c.JSON(http.StatusCreated, gin.H{"rule": row})
}

func (h *Handler) UpdateRule(c *gin.Context) {
	id, ok := ruleID(c)
	if !ok {
		return
	}
	var in chat.RuleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		common.Fail(c, http.StatusBadRequest, "invalid json")
		return
	}
	row, err := h.ChatSvc.UpdateRule(c.Request.Context(), id, in)
	if err != nil {
		h.adminError(c, err, "failed to update rule")
		return
	}
	h.Log.Info("rule updated", "id", row.ID, "category", row.Category, "admin", c.GetString(middleware.AdminKey))
	common.OK(c, gin.H{"rule": row})
}

func (h *Handler) DeleteRule(c *gin.Context) {
	id, ok := ruleID(c)
	if !ok {
		return
	}
	if err := h.ChatSvc.DeleteRule(c.Request.Context(), id); err != nil {
		h.adminError(c, err, "failed to delete rule")
		return
	}
	h.Log.Info("rule deleted", "id", id, "admin", c.GetString(middleware.AdminKey))
	common.OK(c, gin.H{"deleted": id})
}

type sessionItem struct {
	chat.SessionSummary
	SessionIDShort string `json:"session_id_short"`
}

func (h *Handler) ListSessions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	sessions, err := h.ChatSvc.ListSessions(c.Request.Context(), limit, offset)
	if err != nil {
		h.adminError(c, err, "failed to list sessions")
		return
	}
	items := make([]sessionItem, 0, len(sessions))
	for _, s := range sessions {
		items = append(items, sessionItem{SessionSummary: s, SessionIDShort: chat.ShortSessionID(s.SessionID)})
	}
	common.OK(c, gin.H{"sessions": items})
}

// SessionDetail is the admin view of one session: its row and the full
// transcript. Sessions without a row (ids supplied by clients) are 404.
func (h *Handler) SessionDetail(c *gin.Context) {
	sid := c.Param("session_id")
	sess, hist, err := h.ChatSvc.SessionDetail(c.Request.Context(), sid)
	if err != nil {
		h.adminError(c, err, "failed to load session")
		return
	}
	common.OK(c, gin.H{
		"session":          sess,
		"session_id_short": chat.ShortSessionID(sess.SessionID),
		"messages":         hist,
	})
}

func (h *Handler) SearchMessages(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	msgs, err := h.ChatSvc.SearchMessages(c.Request.Context(), chat.MessageFilter{
		SessionID: c.Query("session_id"),
		Query:     c.Query("q"),
		Limit:     limit,
	})
	if err != nil {
		h.adminError(c, err, "failed to search messages")
		return
	}
	common.OK(c, gin.H{"messages": msgs})
}

func (h *Handler) Stats(c *gin.Context) {
	hits, err := h.ChatSvc.RuleHits(c.Request.Context())
	if err != nil {
		h.adminError(c, err, "failed to load stats")
		return
	}
	common.OK(c, gin.H{
		"rule_hits":    hits,
		"active_rules": h.ChatSvc.ActiveRuleCount(),
	})
}

func ruleID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		common.Fail(c, http.StatusBadRequest, "invalid rule id")
		return 0, false
	}
	return id, true
}

func (h *Handler) adminError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, chat.ErrInvalidRule):
		common.Fail(c, http.StatusBadRequest, err.Error())
	case chat.IsNotFound(err):
		common.Fail(c, http.StatusNotFound, "not found")
	default:
		h.Log.Error(msg, "err", err, "request_id", c.GetString(middleware.RequestIDKey))
		_ = c.Error(err)
		common.Fail(c, http.StatusInternalServerError, msg)
	}
}
