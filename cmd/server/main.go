// Command server runs the Islam Kids Zone API.
//
// main only wires things together: configuration, logger, content, database,
// third-party clients, services, handlers and finally the HTTP server.
package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/islamkidszone/kidszone-api/internal/ai"
	"github.com/islamkidszone/kidszone-api/internal/auth"
	"github.com/islamkidszone/kidszone-api/internal/config"
	"github.com/islamkidszone/kidszone-api/internal/content"
	"github.com/islamkidszone/kidszone-api/internal/handler"
	"github.com/islamkidszone/kidszone-api/internal/middleware"
	"github.com/islamkidszone/kidszone-api/internal/notify"
	"github.com/islamkidszone/kidszone-api/internal/repository/sqldb"
	"github.com/islamkidszone/kidszone-api/internal/server"
	"github.com/islamkidszone/kidszone-api/internal/service"
	"github.com/islamkidszone/kidszone-api/internal/tts"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	// === content ===
	contentFS := content.Embedded()
	if cfg.ContentDir != "" {
		contentFS = os.DirFS(cfg.ContentDir)
	}
	catalog, err := content.Load(contentFS, logger)
	if err != nil {
		return err
	}

	// === database ===
	dsn, err := cfg.DB.DSN()
	if err != nil {
		return err
	}
	if cfg.DB.Driver == sqldb.DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	db, err := sqldb.Open(ctx, cfg.DB.Driver, dsn)
	cancel()
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("database ready", slog.String("driver", db.Driver()))

	// === auth ===
	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
	if err != nil {
		return err
	}
	admins := auth.NewAdminPolicy(cfg.Auth.AdminEmail, cfg.Auth.AdminEmailDomain)
	if admins.Email == "" && admins.Domain == "" {
		logger.Warn("no admin email or domain configured, admin routes will refuse everyone")
	}

	var google *auth.GoogleProvider
	if cfg.Google.Enabled() {
		google = auth.NewGoogleProvider(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.CallbackURL)
	} else {
		logger.Info("Google sign-in disabled")
	}

	// === third-party clients ===
	var senders []notify.Sender
	if cfg.Email.ResendAPIKey != "" {
		senders = append(senders, notify.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.From))
	}
	if cfg.Email.SendGridAPIKey != "" {
		senders = append(senders, notify.NewSendGridSender(cfg.Email.SendGridAPIKey, cfg.Email.From))
	}
	notifier := notify.NewNotifier(logger, cfg.Email.NotifyTo, senders...)
	if !notifier.Enabled() {
		logger.Info("admin email notifications disabled")
	}

	chat := ai.NewChatClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
	if !chat.Enabled() {
		logger.Info("AI chat disabled")
	}
	speech := tts.NewSynthesizer(cfg.Azure.TTSKey, cfg.Azure.TTSRegion, cfg.Azure.TTSVoice)
	if !speech.Enabled() {
		logger.Info("text to speech disabled")
	}

	// === services ===
	users, scores, progress := db.Users(), db.Scores(), db.Progress()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	accounts := service.NewAccounts(users, admins, logger)
	authSvc := service.NewAuthService(users, tokens, auth.NewPasswordService(), admins, logger)
	scoreSvc := service.NewScoreService(users, scores, progress, accounts, logger)
	quizSvc := service.NewQuizService(catalog, scoreSvc)
	storySvc := service.NewStoryService(catalog, scores, scoreSvc, logger)
	gameSvc := service.NewGameService(catalog, rand.New(rand.NewSource(rng.Int63())))
	spinSvc := service.NewSpinService(db.Spins(), users, accounts, rand.New(rand.NewSource(rng.Int63())), logger)
	messageSvc := service.NewMessageService(db.Messages(), notifier, logger)
	adminSvc := service.NewAdminService(users, scores, admins, logger)

	// === metrics ===
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// === handlers ===
	deps := server.Deps{
		Tokens:    tokens,
		Admins:    admins,
		Auth:      handler.NewAuthHandler(authSvc, google, !cfg.IsLocal(), logger),
		Content:   handler.NewContentHandler(quizSvc, storySvc, gameSvc, logger),
		Play:      handler.NewPlayHandler(quizSvc, storySvc, scoreSvc, spinSvc, logger),
		Messages:  handler.NewMessageHandler(messageSvc, logger),
		Admin:     handler.NewAdminHandler(adminSvc, messageSvc, logger),
		Assistant: handler.NewAssistantHandler(chat, speech, logger),
		Health:    handler.NewHealthHandler(db, logger),
		Metrics:   middleware.NewMetrics(reg),
		Gatherer:  reg,
	}

	if cfg.StaticDir != "" {
		static, err := handler.NewStaticHandler(os.DirFS(cfg.StaticDir), logger)
		switch {
		case err == nil:
			deps.Static = static
		case errors.Is(err, fs.ErrNotExist):
			logger.Warn("STATIC_DIR has no index.html, not serving the web client", slog.String("dir", cfg.StaticDir))
		default:
			return err
		}
	}

	return server.New(server.Config{Port: cfg.Port}, deps, logger).Start()
}

// newLogger prints readable text locally and JSON everywhere else.
func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.IsLocal() {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
