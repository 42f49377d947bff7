package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	logger "github.com/sirupsen/logrus"

	"errorcentral/src/auth"
	"errorcentral/src/handler"
	"errorcentral/src/repository"
)

// Dependencies are the services behind the API routes.
type Dependencies struct {
	Tokens     *auth.Manager
	Users      *repository.GormUserRepository
	ErrorLogs  *repository.ErrorLogRepository
	Summaries  *repository.SummaryRepository
	Exceptions *repository.AppExceptionRepository
	Agents     *repository.AgentRepository
	PageSize   int
}

// DefaultDependencies wires the repositories to the process-wide database connections.
func DefaultDependencies(tokens *auth.Manager, pageSize int) Dependencies {
	return Dependencies{
		Tokens:     tokens,
		Users:      repository.NewUserRepository(),
		ErrorLogs:  repository.NewErrorLogRepository(),
		Summaries:  repository.NewSummaryRepository(),
		Exceptions: repository.NewAppExceptionRepository(),
		Agents:     repository.NewAgentRepository(),
		PageSize:   pageSize,
	}
}

// NewRouter builds the HTTP API. Every /api route requires a bearer token and is
// served with or without the trailing slash.
func NewRouter(d Dependencies) http.Handler {
	r := chi.NewRouter()

	// === Global Middleware ===
	r.Use(RequestID)
	r.Use(AccessLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	// Public routes
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error("healthcheck write failed")
		}
	})

	// Protected routes
	r.Route("/api", func(api chi.Router) {
		api.Use(auth.RequireUser(d.Tokens, d.Users))

		api.Get("/logs", handler.ListErrorLogsHandler(d.ErrorLogs, d.PageSize))
		api.Post("/logs", handler.CreateErrorLogHandler(d.ErrorLogs))
		api.Get("/logs/{id}", handler.GetErrorLogHandler(d.ErrorLogs))
		api.Delete("/logs/{id}", handler.DeleteErrorLogHandler(d.ErrorLogs))

		api.Get("/summaries", handler.ListSummariesHandler(d.Summaries, d.PageSize))

		api.Get("/exceptions", handler.ListExceptionsHandler(d.Exceptions, d.PageSize))
		api.Post("/exceptions", handler.CreateExceptionHandler(d.Exceptions))

		api.Get("/agents", handler.ListAgentsHandler(d.Agents, d.PageSize))
		api.Post("/agents", handler.CreateAgentHandler(d.Agents))
	})

	return r
}

// StartServer serves h until SIGINT or SIGTERM and then shuts down gracefully.
func StartServer(cfg *Config, h http.Handler) {
	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:    addr,
		Handler: h,
	}

	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}
