package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
)

// Engine owns the snapshots of one game and the index of the active one.
// The player to move is always derived from currentMove, never stored.
// An Engine is not safe for concurrent use.
type Engine struct {
	history     []entity.Board
	currentMove int
}

func NewEngine() *Engine {
	return &Engine{
		history: []entity.Board{{}},
	}
}

// Restore rebuilds an engine from stored snapshots after checking that they
// form a legal chain of moves starting from the empty board.
func Restore(history []entity.Board, currentMove int) (*Engine, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: no snapshots", apperror.ErrCorruptHistory)
	}

	if history[0] != (entity.Board{}) {
		return nil, fmt.Errorf("%w: first snapshot is not empty", apperror.ErrCorruptHistory)
	}

	if currentMove < 0 || currentMove >= len(history) {
		return nil, fmt.Errorf("%w: current move %d of %d", apperror.ErrCorruptHistory, currentMove, len(history))
	}

	for i := 1; i < len(history); i++ {
		if err := validateTransition(history[i-1], history[i], i-1); err != nil {
			return nil, fmt.Errorf("%w: snapshot %d: %w", apperror.ErrCorruptHistory, i, err)
		}
	}

	restored := make([]entity.Board, len(history))
	copy(restored, history)

	return &Engine{
		history:     restored,
		currentMove: currentMove,
	}, nil
}

// ApplyMove places the mark of the player to move on the active snapshot.
// Snapshots after the active one are discarded before the new one is appended.
func (that *Engine) ApplyMove(cell int) (entity.Board, error) {
	if cell < 0 || cell >= entity.BoardSize {
		return that.CurrentBoard(), fmt.Errorf("%w %d", apperror.ErrInvalidCell, cell)
	}

	current := that.CurrentBoard()

	if current.Winner() != entity.EmptyCell {
		return current, apperror.ErrGameFinished
	}

	if !current.IsEmptyCell(cell) {
		return current, apperror.ErrCellOccupied
	}

	next := current
	next[cell] = that.NextPlayer()

	that.history = append(that.history[:that.currentMove+1], next)
	that.currentMove = len(that.history) - 1

	return next, nil
}

// JumpTo makes the snapshot at move active. History is left untouched.
func (that *Engine) JumpTo(move int) error {
	if err := that.checkMove(move); err != nil {
		return err
	}

	that.currentMove = move

	return nil
}

func (that *Engine) CurrentBoard() entity.Board {
	return that.history[that.currentMove]
}

func (that *Engine) CurrentMove() int {
	return that.currentMove
}

func (that *Engine) HistoryLength() int {
	return len(that.history)
}

// History returns a copy of all snapshots.
func (that *Engine) History() []entity.Board {
	history := make([]entity.Board, len(that.history))
	copy(history, that.history)

	return history
}

func (that *Engine) NextPlayer() entity.Mark {
	return entity.NextPlayer(that.currentMove)
}

func (that *Engine) Winner(board entity.Board) entity.Mark {
	return board.Winner()
}

func (that *Engine) StatusText(board entity.Board) string {
	return entity.StatusText(board, that.currentMove)
}

func (that *Engine) MoveLabel(move int) (string, error) {
	if err := that.checkMove(move); err != nil {
		return "", err
	}

	return entity.MoveLabel(move), nil
}

// View builds the read model of the active snapshot.
func (that *Engine) View(sessionID string) *entity.GameView {
	board := that.CurrentBoard()

	view := &entity.GameView{
		SessionID:     sessionID,
		Board:         board,
		CurrentMove:   that.currentMove,
		HistoryLength: len(that.history),
		Winner:        board.Winner(),
		Draw:          board.IsDraw(),
		Status:        that.StatusText(board),
		Moves:         make([]string, len(that.history)),
	}

	if !view.IsFinished() {
		view.NextPlayer = that.NextPlayer()
	}

	for i := range that.history {
		view.Moves[i] = entity.MoveLabel(i)
	}

	return view
}

// Session exports the engine state for storage.
func (that *Engine) Session(id string) *entity.Session {
	return &entity.Session{
		ID:          id,
		History:     that.History(),
		CurrentMove: that.currentMove,
	}
}

func (that *Engine) checkMove(move int) error {
	if move < 0 || move >= len(that.history) {
		return fmt.Errorf("%w %d: history has %d snapshots", apperror.ErrInvalidMove, move, len(that.history))
	}

	return nil
}

// validateTransition - next must be prev plus exactly one mark of the player to move at index move.
func validateTransition(prev, next entity.Board, move int) error {
	if prev.Winner() != entity.EmptyCell {
		return fmt.Errorf("move after %s won", prev.Winner())
	}

	placed := 0
	for cell := range prev {
		if prev[cell] == next[cell] {
			continue
		}

		if prev[cell] != entity.EmptyCell {
			return fmt.Errorf("cell %d overwritten", cell)
		}

		if next[cell] != entity.NextPlayer(move) {
			return fmt.Errorf("cell %d holds %q, expected %q", cell, next[cell], entity.NextPlayer(move))
		}

		placed++
	}

	if placed != 1 {
		return fmt.Errorf("%d marks placed in one move", placed)
	}

	return nil
}
