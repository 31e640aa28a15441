package handlers

import (
	"context"

	"github.com/suPer8Hu/keyword-chatbot/internal/chat"
	"github.com/suPer8Hu/keyword-chatbot/internal/config"
	"github.com/suPer8Hu/keyword-chatbot/internal/logger"
)

// SessionBinder maps the opaque cookie key to a chat session id.
// Implemented by redisstore.Store and memstore.Store.
type SessionBinder interface {
	Lookup(ctx context.Context, key string) (sessionID string, ok bool, err error)
	Bind(ctx context.Context, key, sessionID string) error
	Unbind(ctx context.Context, key string) error
}

type Handler struct {
	Cfg     config.Config
	Log     *logger.Logger
	ChatSvc *chat.Service
	Binder  SessionBinder
}

func NewHandler(cfg config.Config, log *logger.Logger, svc *chat.Service, binder SessionBinder) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{Cfg: cfg, Log: log, ChatSvc: svc, Binder: binder}
}
