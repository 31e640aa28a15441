package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/suPer8Hu/keyword-chatbot/internal/common"
	"github.com/suPer8Hu/keyword-chatbot/internal/httpapi/handlers"
	"github.com/suPer8Hu/keyword-chatbot/internal/httpapi/middleware"
)

func NewRouter(h *handlers.Handler) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(h.Log))
	r.Use(middleware.Recovery(h.Log))
	if len(h.Cfg.Server.CORSOrigins) > 0 {
		r.Use(middleware.CORS(h.Cfg.Server.CORSOrigins))
	}

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.GET("/", h.Index)
	r.GET("/ping", h.Ping)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.POST("/chat", h.SendChat)
	api.POST("/clear", h.ClearChat)
	api.GET("/history", h.History)

	// without a password hash and a signing secret every admin route,
	// login included, answers 403
	secret := ""
	if h.Cfg.AdminEnabled() {
		secret = h.Cfg.Admin.JWTSecret
	}
	r.POST("/admin/login", h.AdminLogin)
	admin := r.Group("/admin")
	admin.Use(middleware.AuthRequired(secret))
	admin.GET("/rules", h.ListRules)
	admin.POST("/rules", h.CreateRule)
	admin.PUT("/rules/:id", h.UpdateRule)
	admin.DELETE("/rules/:id", h.DeleteRule)
	admin.GET("/sessions", h.ListSessions)
	admin.GET("/sessions/:session_id", h.SessionDetail)
	admin.GET("/messages", h.SearchMessages)
	admin.GET("/stats", h.Stats)
	return r
}
