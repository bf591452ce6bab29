package main

import (
	"context"
	"fmt"

	"GuardianLink/internal/chat"
	"GuardianLink/internal/contacts"
	"GuardianLink/internal/emitter"
	handlers "GuardianLink/internal/handler"
	"GuardianLink/internal/listeners"
	"GuardianLink/internal/safety"
	"GuardianLink/internal/settings"
	"GuardianLink/pkg/backup"
	"GuardianLink/pkg/config"
	"GuardianLink/pkg/i18n"
	"GuardianLink/pkg/kv"
	"GuardianLink/pkg/llm"
	"GuardianLink/pkg/logger"
	"GuardianLink/pkg/metrics"
	"GuardianLink/pkg/notification"
	"GuardianLink/pkg/scheduler"
	"GuardianLink/pkg/search"
	"GuardianLink/pkg/sse"
	"GuardianLink/pkg/websocket"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
)

// App owns every long-lived component of the server.
type App struct {
	cfg     *config.Config
	store   kv.Store
	index   search.Engine
	sched   *scheduler.Scheduler
	cron    *scheduler.Cron
	emitter *emitter.Emitter
	alerter *safety.Alerter
	chat    *chat.Service
	stream  *sse.Hub
	hub     *websocket.Hub
	engine  *gin.Engine
}

func buildApp(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := kv.New(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	app := &App{cfg: cfg, store: store}

	sup, err := i18n.NewI18nSupport(cfg.Language)
	if err != nil {
		logger.Warn("unsupported language, falling back to en", zap.String("lang", cfg.Language), zap.Error(err))
		if sup, err = i18n.NewI18nSupport("en"); err != nil {
			return nil, err
		}
	}
	t := sup.Translator(sup.DefaultLang())

	m := metrics.NewMetrics()
	app.stream = sse.NewHub(0, sse.WithClientGauge(func(n int) { m.StreamClients("sse").Set(float64(n)) }))
	app.hub = websocket.NewHub(cfg.WebSocket, websocket.WithConnectionGauge(func(n int) { m.StreamClients("ws").Set(float64(n)) }))
	notifier := listeners.NoticeMetrics(m, notification.Multi{notification.LogNotifier{}, app.stream})

	app.sched = scheduler.New()
	app.emitter = emitter.New(notifier,
		emitter.WithScheduler(app.sched),
		emitter.WithInterval(cfg.SOS.Interval),
		emitter.WithDisplayCap(cfg.SOS.DisplayCap),
		emitter.WithFormatter(safety.NewFormatter(t)))
	app.alerter = safety.NewAlerter(app.sched, notifier, t, cfg.SOS.AlertDelay)
	disguise := safety.NewDisguise(app.sched, app.emitter, notifier, t, cfg.SOS.DisguiseDelay)
	statusLog := safety.NewStatusLog(nil, t, 0)
	packets := safety.NewPacketLogger(nil, "")
	listeners.InitSafetyListeners(listeners.SafetyDeps{
		Emitter: app.emitter,
		Alerter: app.alerter,
		Packets: packets,
		Log:     statusLog,
		Metrics: m,
		Stream:  app.stream,
	})

	st := settings.Load(ctx, store)
	replier, err := llm.New(ctx, cfg.LLM, logrus.StandardLogger())
	if err != nil {
		logger.Warn("llm provider unavailable, replies disabled", zap.String("provider", cfg.LLM.Provider), zap.Error(err))
		replier = nil
	}
	if cfg.Search.Enabled {
		if app.index, err = search.New(search.Config{IndexPath: cfg.Search.Path}, nil); err != nil {
			logger.Warn("search index unavailable, using substring search", zap.Error(err))
			app.index = nil
		}
	}
	app.chat = chat.New(ctx, chat.Options{
		Store:      store,
		Notifier:   notifier,
		Translator: t,
		Replier:    replier,
		Publishers: []chat.Publisher{
			app.hub,
			chat.PublisherFunc(func(group, typ string, data interface{}) error {
				return app.stream.Publish(typ, group, data)
			}),
		},
		Search:       app.index,
		Settings:     st,
		Metrics:      m,
		ReplyTimeout: cfg.LLM.Timeout,
	})

	if cfg.BackupEnabled {
		app.cron = scheduler.NewCron(nil, nil)
		if _, err := backup.StartBackupScheduler(app.cron, cfg.BackupSchedule, store, cfg.BackupPath, 7); err != nil {
			return nil, fmt.Errorf("schedule backup: %w", err)
		}
	}

	gin.SetMode(ginMode(cfg.Mode))
	app.engine = gin.New()
	app.engine.Use(gin.Recovery())
	handlers.NewHandlers(handlers.Deps{
		Config:    cfg,
		Emitter:   app.emitter,
		Alerter:   app.alerter,
		Disguise:  disguise,
		StatusLog: statusLog,
		Packets:   packets,
		Chat:      app.chat,
		Contacts:  contacts.New(ctx, store, notifier, t),
		Settings:  st,
		I18n:      sup,
		Metrics:   m,
		Stream:    app.stream,
		Hub:       app.hub,
	}).Register(app.engine)
	return app, nil
}

func (a *App) Start() {
	if a.cron != nil {
		a.cron.Start()
	}
}

// Close stops the schedules first so nothing writes to the store while it
// is closing.
func (a *App) Close() {
	if a.cron != nil {
		a.cron.Stop()
	}
	a.alerter.Cancel()
	a.emitter.Close()
	a.chat.Close()
	a.sched.Stop()
	a.hub.Close()
	if a.index != nil {
		if err := a.index.Close(); err != nil {
			logger.Warn("close search index failed", zap.Error(err))
		}
	}
	if err := a.store.Close(); err != nil {
		logger.Warn("close store failed", zap.Error(err))
	}
}

func ginMode(mode string) string {
	switch mode {
	case gin.DebugMode, gin.TestMode:
		return mode
	case "development":
		return gin.DebugMode
	}
	return gin.ReleaseMode
}
