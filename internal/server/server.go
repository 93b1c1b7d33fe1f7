// Package server is the composition root for HTTP: it owns the router, the
// middleware chain and graceful shutdown. Handlers arrive fully built from
// cmd/server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/islamkidszone/kidszone-api/internal/auth"
	"github.com/islamkidszone/kidszone-api/internal/handler"
	"github.com/islamkidszone/kidszone-api/internal/middleware"
)

// ShutdownTimeout is how long in-flight requests get after SIGINT/SIGTERM.
const ShutdownTimeout = 30 * time.Second

type Config struct {
	Port int
}

// Deps is everything the router wires together. Static may be nil when no
// web client is hosted.
type Deps struct {
	Tokens *auth.TokenService
	Admins auth.AdminPolicy

	Auth      *handler.AuthHandler
	Content   *handler.ContentHandler
	Play      *handler.PlayHandler
	Messages  *handler.MessageHandler
	Admin     *handler.AdminHandler
	Assistant *handler.AssistantHandler
	Health    *handler.HealthHandler
	Static    *handler.StaticHandler

	Metrics  *middleware.Metrics
	Gatherer prometheus.Gatherer
}

type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
}

func New(cfg Config, deps Deps, logger *slog.Logger) *Server {
	s := &Server{router: chi.NewRouter(), config: cfg, logger: logger}
	s.routes(deps)
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// routes registers middleware and every endpoint. Order of Use matters:
// request id first so the logger can print it, Recoverer last so a panic
// is still logged and counted as a 500.
func (s *Server) routes(d Deps) {
	r := s.router

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	if d.Metrics != nil {
		r.Use(d.Metrics.Handler)
	}
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", d.Health.HandleHealth)
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", d.Auth.HandleSignUp)
		r.Post("/login", d.Auth.HandleLogin)
		r.Post("/logout", d.Auth.HandleLogout)
		r.Get("/google/login", d.Auth.HandleGoogleLogin)
		r.Get("/google/callback", d.Auth.HandleGoogleCallback)
	})

	r.Route("/api", func(r chi.Router) {
		// public
		r.Get("/quizzes", d.Content.HandleListQuizzes)
		r.Get("/quizzes/{slug}", d.Content.HandleGetQuiz)
		r.Get("/stories", d.Content.HandleListStories)
		r.Get("/stories/{id}/start", d.Content.HandleStartStory)
		r.Post("/stories/{id}/choose", d.Content.HandleChoose)
		r.Get("/dictionary", d.Content.HandleDictionary)
		r.Get("/dictionary/surahs", d.Content.HandleSurahs)
		r.Get("/dictionary/surah/{n}", d.Content.HandleSurah)
		r.Get("/games/themes", d.Content.HandleThemes)
		r.Get("/games/wordsearch", d.Content.HandleWordSearch)
		r.With(auth.OptionalAuth(d.Tokens)).Get("/leaderboard", d.Play.HandleLeaderboard)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(d.Tokens))

			r.Get("/me", d.Auth.HandleMe)
			r.Post("/quizzes/{slug}/submit", d.Play.HandleSubmitQuiz)
			r.Post("/stories/{id}/answers", d.Play.HandleStoryAnswers)
			r.Post("/scores", d.Play.HandleSubmitScore)
			r.Get("/scores/me", d.Play.HandleMyScores)
			r.Get("/progress", d.Play.HandleProgress)
			r.Get("/spin", d.Play.HandleSpinStatus)
			r.Post("/spin", d.Play.HandleSpin)
			r.Post("/messages", d.Messages.HandleSend)
			r.Post("/chat", d.Assistant.HandleChat)
			r.Post("/tts", d.Assistant.HandleTTS)

			r.Route("/admin", func(r chi.Router) {
				r.Use(auth.RequireAdmin(d.Admins))

				r.Get("/users", d.Admin.HandleListUsers)
				r.Patch("/users/{id}/role", d.Admin.HandleSetRole)
				r.Post("/users/{id}/reset-points", d.Admin.HandleResetPoints)
				r.Delete("/users/{id}", d.Admin.HandleDeleteUser)
				r.Get("/messages", d.Admin.HandleListMessages)
				r.Patch("/messages/{id}", d.Admin.HandleMarkMessage)
				r.Delete("/messages/{id}", d.Admin.HandleDeleteMessage)
				r.Get("/quiz-answers", d.Admin.HandleQuizAnswers)
				r.Get("/scores", d.Admin.HandleRecentScores)
			})
		})
	})

	if d.Static != nil {
		r.Handle("/*", d.Static)
	}
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests for
// up to ShutdownTimeout.
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// chat and speech wait on upstream APIs
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", slog.Int("port", s.config.Port))
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
