package bot

import (
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/salarysms/salary-bot/internal/bot/handlers"
	"github.com/salarysms/salary-bot/internal/bot/keyboard"
	"github.com/salarysms/salary-bot/internal/errs"
	"github.com/salarysms/salary-bot/internal/i18n"
	"github.com/salarysms/salary-bot/internal/idempotency"
	"github.com/salarysms/salary-bot/internal/middleware"
	"github.com/salarysms/salary-bot/internal/tracker"
	"github.com/salarysms/salary-bot/pkg/config"
)

// Bot wraps telebot.Bot with application dependencies required for handling updates.
type Bot struct {
	telebot            *telebot.Bot
	log                *slog.Logger
	cfg                config.Config
	tracker            *tracker.Service
	rateLimitMw        *middleware.RateLimitMiddleware
	router             *Router
	keyboard           *keyboard.Builder
	errHandler         *errs.Handler
	idempotencyManager idempotency.Manager
	translator         i18n.Translator
}

// New builds a telegram bot instance configured according to the application settings.
func New(
	cfg config.Config,
	log *slog.Logger,
	svc *tracker.Service,
	idempotencyManager idempotency.Manager,
	rateLimitMw *middleware.RateLimitMiddleware,
	translator i18n.Translator,
) (*Bot, error) {
	settings := telebot.Settings{
		Token: cfg.Bot.Token,
	}

	if cfg.Bot.Mode == "webhook" {
		settings.Poller = &telebot.Webhook{
			Listen: cfg.Server.Port,
		}
	} else {
		settings.Poller = &telebot.LongPoller{
			Timeout: cfg.Bot.Timeout,
		}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	b := &Bot{
		telebot:            tb,
		log:                log,
		cfg:                cfg,
		tracker:            svc,
		rateLimitMw:        rateLimitMw,
		router:             NewRouter(log),
		keyboard:           keyboard.NewBuilder(log),
		errHandler:         errs.NewHandler(log, cfg.Sentry.Enabled),
		idempotencyManager: idempotencyManager,
		translator:         translator,
	}

	b.setupRouter()

	if b.rateLimitMw != nil {
		b.telebot.Use(b.rateLimitMw.Handle)
	}

	b.registerTelebotHandlers()

	return b, nil
}

// Start runs the telegram bot event loop.
func (b *Bot) Start() {
	if b.telebot != nil {
		b.telebot.Start()
	}
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	if b.log != nil {
		b.log.Info("stopping telegram bot...")
	}

	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations such as health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

func (b *Bot) setupRouter() {
	r := b.router

	r.Use(RecoveryMiddleware(b.log, b.errHandler))
	r.Use(middleware.Idempotency(b.idempotencyManager, b.log))
	r.Use(ErrorHandlingMiddleware(b.errHandler))
	r.Use(LoggingMiddleware(b.log))
	r.Use(middleware.Metrics)

	adminOnly := AdminOnly(b.cfg.Bot, b.log)

	r.RegisterCommand(CommandStart, handlers.NewStartHandler(b.translator))
	r.RegisterCommand(CommandHelp, handlers.NewHelpHandler())
	r.RegisterCommand(CommandWage, handlers.NewWageHandler(b.tracker, b.log))
	r.RegisterCommand(CommandUserInfo, handlers.NewUserInfoHandler(b.tracker, b.log))
	r.RegisterCommand(CommandUserData, handlers.NewUserDataHandler(b.tracker, b.keyboard, b.translator, b.log))
	r.RegisterCommand(CommandFormCSV, handlers.NewFormCSVHandler(b.tracker, b.log))
	r.RegisterCommand(CommandIgnore, handlers.NewIgnoreHandler(b.tracker, b.log))
	r.RegisterCommand(CommandUnignore, handlers.NewUnignoreHandler(b.tracker, b.log))
	r.RegisterCommand(CommandIgnored, handlers.NewIgnoredHandler(b.tracker))
	r.RegisterCommand(CommandNotify, handlers.NewNotifyHandler(b.tracker, b.log))
	r.RegisterCommand(CommandDenotify, handlers.NewDenotifyHandler(b.tracker, b.log))

	r.RegisterCommand(CommandAllData, adminOnly(handlers.NewAllDataHandler(b.tracker, b.log)))
	r.RegisterCommand(CommandDumpDB, adminOnly(handlers.NewDumpDBHandler(b.tracker, b.log)))
	r.RegisterCommand(CommandPurge, handlers.NewPurgeHandler(b.tracker, b.keyboard, b.translator, b.cfg.Bot))
	r.RegisterCommand(CommandPurgeDB, adminOnly(handlers.NewPurgeDBHandler(b.keyboard, b.translator)))

	r.RegisterCallback(CallbackPurgeDBConfirm, callbackAdminOnly(adminOnly, handlers.HandlePurgeDBConfirm(b.tracker, b.log)))
	r.RegisterCallback(CallbackPurgeDBCancel, handlers.HandlePurgeCancel())
	r.RegisterCallback(CallbackPurgeConfirm, handlers.HandlePurgeConfirm(b.tracker, b.cfg.Bot, b.log))
	r.RegisterCallback(CallbackPurgeCancel, handlers.HandlePurgeCancel())
	r.RegisterCallback(CallbackUserDataPage, handlers.HandleUserDataPage(b.tracker, b.keyboard, b.translator, CallbackUserDataPage, b.log))

	r.SetDocumentHandler(handlers.NewDocumentHandler(b.tracker, b.log))
	r.SetDefault(handlers.NewSMSHandler(b.tracker, b.log))
}

func (b *Bot) registerTelebotHandlers() {
	if b.telebot == nil || b.router == nil {
		return
	}

	b.telebot.Handle(telebot.OnText, b.router.Route)
	b.telebot.Handle(telebot.OnDocument, b.router.Route)
	b.telebot.Handle(telebot.OnCallback, b.router.Route)
}

// callbackAdminOnly gates a callback handler behind the admin middleware.
func callbackAdminOnly(adminOnly handlers.Middleware, h handlers.CallbackHandler) handlers.CallbackHandler {
	wrapped := adminOnly(handlers.Handler(h))
	return func(c telebot.Context) error {
		if wrapped == nil {
			return nil
		}
		return wrapped(c)
	}
}
