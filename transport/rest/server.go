package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

const shutdownTimeout = 5 * time.Second

// NewRouter - registers the ping and session routes.
func NewRouter(ping PingHandler, sessions SessionHandlers) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/ping", ping.PingHandler).Methods(http.MethodGet, http.MethodHead)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/sessions", sessions.CreateSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}", sessions.GetSession).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", sessions.EndSession).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{id}/moves", sessions.MakeMove).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/jump", sessions.JumpTo).Methods(http.MethodPost)

	return router
}

// Start - serves handler on port until ctx is canceled.
func Start(ctx context.Context, logger *slog.Logger, port string, handler http.Handler) error {
	log := logger.With("component", "rest")

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to shut down server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
