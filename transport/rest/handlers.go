package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/repository"
)

type SessionHandlers interface {
	CreateSession(w http.ResponseWriter, r *http.Request)
	GetSession(w http.ResponseWriter, r *http.Request)
	MakeMove(w http.ResponseWriter, r *http.Request)
	JumpTo(w http.ResponseWriter, r *http.Request)
	EndSession(w http.ResponseWriter, r *http.Request)
}

type sessionUseCase interface {
	CreateSession(ctx context.Context) (*entity.GameView, error)
	GetSession(ctx context.Context, id string) (*entity.GameView, error)
	MakeMove(ctx context.Context, id string, cell int) (*entity.GameView, error)
	JumpTo(ctx context.Context, id string, move int) (*entity.GameView, error)
	EndSession(ctx context.Context, id string) error
}

type moveRequest struct {
	Cell *int `json:"cell"`
}

type jumpRequest struct {
	Move *int `json:"move"`
}

type errorResponse struct {
	Error   string           `json:"error"`
	Session *entity.GameView `json:"session,omitempty"`
}

type sessionHandlers struct {
	logger   *slog.Logger
	sessions sessionUseCase
}

func NewSessionHandlers(logger *slog.Logger, sessions sessionUseCase) SessionHandlers {
	return &sessionHandlers{
		logger:   logger.With("component", "rest"),
		sessions: sessions,
	}
}

func (that *sessionHandlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	view, err := that.sessions.CreateSession(r.Context())
	if err != nil {
		that.writeError(w, "CreateSession", nil, err)
		return
	}

	that.writeJSON(w, http.StatusCreated, view)
}

func (that *sessionHandlers) GetSession(w http.ResponseWriter, r *http.Request) {
	view, err := that.sessions.GetSession(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		that.writeError(w, "GetSession", nil, err)
		return
	}

	that.writeJSON(w, http.StatusOK, view)
}

func (that *sessionHandlers) MakeMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Cell == nil {
		that.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "cell is required"})
		return
	}

	view, err := that.sessions.MakeMove(r.Context(), mux.Vars(r)["id"], *req.Cell)
	if err != nil {
		that.writeError(w, "MakeMove", view, err)
		return
	}

	that.writeJSON(w, http.StatusOK, view)
}

func (that *sessionHandlers) JumpTo(w http.ResponseWriter, r *http.Request) {
	var req jumpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Move == nil {
		that.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "move is required"})
		return
	}

	view, err := that.sessions.JumpTo(r.Context(), mux.Vars(r)["id"], *req.Move)
	if err != nil {
		that.writeError(w, "JumpTo", view, err)
		return
	}

	that.writeJSON(w, http.StatusOK, view)
}

func (that *sessionHandlers) EndSession(w http.ResponseWriter, r *http.Request) {
	if err := that.sessions.EndSession(r.Context(), mux.Vars(r)["id"]); err != nil {
		that.writeError(w, "EndSession", nil, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeError maps error kinds to status codes. Rejections carry the unchanged session.
func (that *sessionHandlers) writeError(w http.ResponseWriter, method string, view *entity.GameView, err error) {
	log := that.logger.With("method", method)

	switch {
	case apperror.IsRejected(err):
		log.Debug("operation rejected", "error", err)
		that.writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Session: view})
	case apperror.IsInvalidIndex(err):
		log.Warn("invalid index", "error", err)
		that.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Session: view})
	case errors.Is(err, repository.ErrSessionNotFound):
		that.writeJSON(w, http.StatusNotFound, errorResponse{Error: repository.ErrSessionNotFound.Error()})
	default:
		log.Error("request failed", "error", err)
		that.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal Server Error"})
	}
}

func (that *sessionHandlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}
