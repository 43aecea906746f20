package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/pkg"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/tictactoe"
)

type sessionRepo interface {
	CreateOrUpdate(ctx context.Context, session *entity.Session) error
	GetByID(ctx context.Context, id string) (*entity.Session, error)
	Update(ctx context.Context, id string, fn func(session *entity.Session) error) error
	DeleteByID(ctx context.Context, id string) error
}

// SessionManager runs engine operations against stored sessions.
// Every call restores a fresh engine, so nothing is shared between requests.
type SessionManager struct {
	logger      *slog.Logger
	sessionRepo sessionRepo
}

func NewSessionManager(logger *slog.Logger, sessionRepo sessionRepo) *SessionManager {
	return &SessionManager{
		logger:      logger.With("component", "session_manager"),
		sessionRepo: sessionRepo,
	}
}

func (that *SessionManager) CreateSession(ctx context.Context) (*entity.GameView, error) {
	sessionID := pkg.GenerateSessionID()
	engine := tictactoe.NewEngine()

	if err := that.sessionRepo.CreateOrUpdate(ctx, engine.Session(sessionID)); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	that.logger.Info("session created", "sessionID", sessionID)

	return engine.View(sessionID), nil
}

func (that *SessionManager) GetSession(ctx context.Context, id string) (*entity.GameView, error) {
	engine, err := that.restore(ctx, id)
	if err != nil {
		return nil, err
	}

	return engine.View(id), nil
}

// MakeMove - a rejected move returns the unchanged view together with the error.
func (that *SessionManager) MakeMove(ctx context.Context, id string, cell int) (*entity.GameView, error) {
	log := that.logger.With("method", "MakeMove", "sessionID", id, "cell", cell)

	view, err := that.update(ctx, id, func(engine *tictactoe.Engine) error {
		if _, err := engine.ApplyMove(cell); err != nil {
			return fmt.Errorf("failed to apply move: %w", err)
		}

		return nil
	})
	if err != nil {
		log.Debug("move refused", "error", err)
		return view, err
	}

	if view.IsFinished() {
		log.Info("game decided", "winner", view.Winner, "draw", view.Draw)
	}

	return view, nil
}

func (that *SessionManager) JumpTo(ctx context.Context, id string, move int) (*entity.GameView, error) {
	return that.update(ctx, id, func(engine *tictactoe.Engine) error {
		if err := engine.JumpTo(move); err != nil {
			return fmt.Errorf("failed to jump: %w", err)
		}

		return nil
	})
}

func (that *SessionManager) EndSession(ctx context.Context, id string) error {
	if err := that.sessionRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}

	that.logger.Info("session ended", "sessionID", id)

	return nil
}

func (that *SessionManager) restore(ctx context.Context, id string) (*tictactoe.Engine, error) {
	session, err := that.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return that.restoreSession(session)
}

func (that *SessionManager) restoreSession(session *entity.Session) (*tictactoe.Engine, error) {
	engine, err := tictactoe.Restore(session.History, session.CurrentMove)
	if err != nil {
		that.logger.Error("stored session is corrupt", "sessionID", session.ID, "error", err)
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}

	return engine, nil
}

// update runs op on the stored engine and saves the result atomically. When the
// session changes underneath, op is applied again to the newer state. Refused
// operations return the unchanged view and are not saved.
func (that *SessionManager) update(ctx context.Context, id string, op func(engine *tictactoe.Engine) error) (*entity.GameView, error) {
	var view *entity.GameView

	err := that.sessionRepo.Update(ctx, id, func(session *entity.Session) error {
		view = nil

		engine, err := that.restoreSession(session)
		if err != nil {
			return err
		}

		if err = op(engine); err != nil {
			view = engine.View(id)
			return err
		}

		*session = *engine.Session(id)
		view = engine.View(id)

		return nil
	})

	switch {
	case err == nil:
		return view, nil
	case apperror.IsRejected(err), apperror.IsInvalidIndex(err):
		return view, err
	default:
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
}
