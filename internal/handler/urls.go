package handlers

import (
	"time"

	"GuardianLink/internal/chat"
	"GuardianLink/internal/contacts"
	"GuardianLink/internal/emitter"
	"GuardianLink/internal/models"
	"GuardianLink/internal/safety"
	"GuardianLink/internal/settings"
	"GuardianLink/pkg/config"
	"GuardianLink/pkg/i18n"
	"GuardianLink/pkg/metrics"
	"GuardianLink/pkg/middleware"
	"GuardianLink/pkg/sse"
	"GuardianLink/pkg/websocket"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type Deps struct {
	Config    *config.Config
	Emitter   *emitter.Emitter
	Alerter   *safety.Alerter
	Disguise  *safety.Disguise
	StatusLog *safety.StatusLog
	Packets   *safety.PacketLogger
	Chat      *chat.Service
	Contacts  *contacts.Service
	Settings  *settings.Settings
	I18n      *i18n.I18nSupport
	Metrics   *metrics.Metrics
	Stream    *sse.Hub
	Hub       *websocket.Hub
}

type Handlers struct {
	Deps
	startedAt time.Time
}

func NewHandlers(d Deps) *Handlers {
	if d.Config == nil {
		d.Config = config.FromEnv()
	}
	return &Handlers{Deps: d, startedAt: time.Now()}
}

func (h *Handlers) Register(engine *gin.Engine) {
	engine.Use(sessions.Sessions("guardianlink", cookie.NewStore([]byte(h.Config.SessionSecret))))
	engine.Use(middleware.AccessLogMiddleware())
	if h.Metrics != nil {
		engine.Use(metrics.MonitorMiddleware(h.Metrics))
	}
	if h.I18n != nil {
		engine.Use(middleware.LanguageMiddleware(h.I18n))
	}

	r := engine.Group(h.Config.APIPrefix)
	if h.Config.RateLimitAPI != "" {
		r.Use(h.limiter(h.Config.RateLimitAPI, "api", middleware.ByClient).Middleware())
	}
	h.registerSystemRoutes(r)
	h.registerSOSRoutes(r)
	h.registerChatRoutes(r)
	h.registerRoomRoutes(r)
	h.registerDirectoryRoutes(r)
	h.registerContactRoutes(r)
	h.registerSettingsRoutes(r)
	h.registerStreamRoutes(r)
}

// limiter 按 by 指定的维度限流；Metrics 存在时上报 allow/deny
func (h *Handlers) limiter(rate, name, by string) *middleware.RateLimiter {
	l := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:        rate,
		Identifier:  by,
		AddHeaders:  true,
		DenyMessage: "too many requests",
		SkipPaths:   []string{h.Config.APIPrefix + "/health", h.Config.APIPrefix + "/metrics"},
	}, nil)
	if h.Metrics != nil {
		l.WithObserver(middleware.NewPrometheusObserver(
			prometheus.WrapRegistererWithPrefix("guardianlink_"+name+"_", h.Metrics.Registry())))
	}
	return l
}

func idempotent() gin.HandlerFunc {
	return middleware.IdempotencyMiddleware(middleware.IdempotencyConfig{TTL: time.Minute})
}

func (h *Handlers) registerSystemRoutes(r *gin.RouterGroup) {
	r.GET("/health", h.HealthCheck)
	if h.Metrics != nil {
		r.GET("/metrics", gin.WrapH(h.Metrics.Handler()))
	}
}

func (h *Handlers) registerSOSRoutes(r *gin.RouterGroup) {
	sos := r.Group("sos")
	{
		sos.GET("/session", h.handleSession)

		sos.POST("/activate", h.handleActivate)

		sos.POST("/deactivate", h.handleDeactivate)

		sos.PUT("/config", h.handleConfigure)

		sos.POST("/alert", idempotent(), h.handleAlert)

		sos.POST("/disguise", h.handleOpenDisguise)

		sos.DELETE("/disguise", h.handleCloseDisguise)
	}
}

func (h *Handlers) registerChatRoutes(r *gin.RouterGroup) {
	chats := r.Group("chats")
	reply := func(c *gin.Context) { c.Next() }
	if h.Config.RateLimitReply != "" {
		reply = h.limiter(h.Config.RateLimitReply, "reply", middleware.ByIPRoute).Middleware()
	}
	{
		chats.GET("", h.handleListChats)

		chats.GET("/public", h.handlePublicChat)

		chats.GET("/:id", h.handleGetChat)

		chats.POST("/:id/messages", reply, h.handleSendMessage)

		chats.POST("/:id/reply", reply, h.handleRequestReply)

		chats.POST("/:id/messages/:mid/reactions", h.handleReact)

		chats.GET("/:id/search", h.handleSearch)
	}
}

func (h *Handlers) registerRoomRoutes(r *gin.RouterGroup) {
	rooms := r.Group("rooms")
	{
		rooms.GET("", h.handleListRooms)

		rooms.POST("", idempotent(), h.handleCreateRoom)

		rooms.POST("/join", h.handleJoinRoom)

		rooms.POST("/:id/leave", h.handleLeaveRoom)

		rooms.DELETE("/:id", h.handleDeleteRoom)
	}
}

func (h *Handlers) registerDirectoryRoutes(r *gin.RouterGroup) {
	r.GET("/quick-messages", h.handleQuickMessages)

	users := r.Group("users")
	{
		users.GET("", h.handleListUsers)

		users.GET("/:id", h.handleGetUser)

		users.POST("/:id/chat-request", h.handleRequestChat)

		users.GET("/:id/chat", h.handleOpenPrivateChat)
	}
}

func (h *Handlers) registerContactRoutes(r *gin.RouterGroup) {
	group := r.Group("contacts")
	{
		group.GET("", h.handleListContacts)

		group.POST("", idempotent(), h.handleAddContact)

		group.PUT("/:id", h.handleUpdateContact)

		group.DELETE("/:id", h.handleDeleteContact)
	}
}

func (h *Handlers) registerSettingsRoutes(r *gin.RouterGroup) {
	group := r.Group("settings")
	{
		group.GET("", h.handleSettings)

		group.PUT("/anonymity", h.handleSetAnonymity)

		group.PUT("/status", h.handleSetStatus)
	}
}

func (h *Handlers) registerStreamRoutes(r *gin.RouterGroup) {
	if h.Stream != nil {
		r.GET("/notifications/stream", h.handleStream)
	}
	if h.Hub != nil {
		websocket.NewHandler(h.Hub, func(*gin.Context) string { return models.CurrentUserID }).RegisterRoutes(r)
	}
}
