package rest

import (
	"io"
	"log/slog"
	"net/http"
)

type PingHandler interface {
	PingHandler(w http.ResponseWriter, r *http.Request)
}

type pingHandler struct {
	logger *slog.Logger
}

// NewPingHandler - liveness check answering "pong".
func NewPingHandler(logger *slog.Logger) PingHandler {
	return &pingHandler{
		logger: logger.With("component", "rest", "method", "PingHandler"),
	}
}

func (that *pingHandler) PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	if r.Method == http.MethodHead {
		return
	}

	if _, err := io.WriteString(w, "pong"); err != nil {
		that.logger.Error("failed to write pong", "error", err)
	}
}
