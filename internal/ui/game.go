package ui

import (
	"fmt"
	"log/slog"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/tictactoe"
)

const boardSide = 3

// GameUI renders one engine: the board, its status and the move list.
// Selecting a cell plays it, selecting a move list entry jumps to it.
type GameUI struct {
	app    *tview.Application
	logger *slog.Logger
	engine *tictactoe.Engine

	flex   *tview.Flex
	board  *tview.Table
	status *tview.TextView
	moves  *tview.List
	hint   *tview.TextView
}

func NewGameUI(app *tview.Application, logger *slog.Logger) *GameUI {
	gui := &GameUI{
		app:    app,
		logger: logger.With("component", "ui"),
		engine: tictactoe.NewEngine(),
	}

	gui.board = tview.NewTable()
	gui.board.SetBorder(true)
	gui.board.SetTitle(" Board ")
	gui.board.SetSelectable(true, true)
	gui.board.SetSelectedStyle(tcell.StyleDefault.Background(Colors.Highlight))
	gui.board.SetSelectedFunc(func(row, column int) {
		gui.PlayCell(row*boardSide + column)
	})

	gui.status = tview.NewTextView()
	gui.status.SetTextAlign(tview.AlignCenter)
	gui.status.SetTextColor(Colors.Status)

	gui.moves = tview.NewList()
	gui.moves.SetBorder(true)
	gui.moves.SetTitle(" Moves ")
	gui.moves.ShowSecondaryText(false)
	gui.moves.SetHighlightFullLine(true)
	gui.moves.SetSelectedFunc(func(index int, _, _ string, _ rune) {
		gui.JumpTo(index)
	})

	gui.hint = tview.NewTextView()
	gui.hint.SetDynamicColors(true)
	gui.hint.SetText("  [dimgray]enter[-] play/jump  [dimgray]tab[-] switch  [dimgray]n[-] new game  [dimgray]q[-] quit")

	boardColumn := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(gui.status, 1, 0, false).
		AddItem(gui.board, 2*boardSide+3, 0, true)

	topRow := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(boardColumn, 4*boardSide+7, 0, true).
		AddItem(gui.moves, 0, 1, false)

	gui.flex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(topRow, 0, 1, true).
		AddItem(gui.hint, 1, 0, false)
	gui.flex.SetInputCapture(gui.handleInput)

	gui.refresh()

	return gui
}

func (that *GameUI) Root() tview.Primitive {
	return that.flex
}

// PlayCell applies a move. Refused moves are ignored.
func (that *GameUI) PlayCell(cell int) {
	if _, err := that.engine.ApplyMove(cell); err != nil {
		that.logger.Debug("move ignored", "cell", cell, "error", err)
		return
	}

	that.refresh()
}

func (that *GameUI) JumpTo(move int) {
	if err := that.engine.JumpTo(move); err != nil {
		that.logger.Debug("jump ignored", "move", move, "error", err)
		return
	}

	that.refresh()
}

func (that *GameUI) NewGame() {
	that.engine = tictactoe.NewEngine()
	that.refresh()
	that.app.SetFocus(that.board)
}

func (that *GameUI) handleInput(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyEscape:
		that.app.Stop()
		return nil
	case tcell.KeyTab, tcell.KeyBacktab:
		if that.board.HasFocus() {
			that.app.SetFocus(that.moves)
		} else {
			that.app.SetFocus(that.board)
		}
		return nil
	case tcell.KeyRune:
		switch event.Rune() {
		case 'q':
			that.app.Stop()
			return nil
		case 'n':
			that.NewGame()
			return nil
		}
	}

	return event
}

func (that *GameUI) refresh() {
	board := that.engine.CurrentBoard()

	for cell, mark := range board {
		that.board.SetCell(cell/boardSide, cell%boardSide, markCell(mark))
	}

	that.renderStatus(board)
	that.renderMoves()
}

func (that *GameUI) renderStatus(board entity.Board) {
	status := that.engine.StatusText(board)
	color := Colors.Status

	switch {
	case that.engine.Winner(board) != entity.EmptyCell:
		color = Colors.Winner
	case board.IsDraw():
		status = "Draw"
	}

	that.status.SetTextColor(color)
	that.status.SetText(status)
}

func (that *GameUI) renderMoves() {
	that.moves.Clear()

	for move := 0; move < that.engine.HistoryLength(); move++ {
		label, err := that.engine.MoveLabel(move)
		if err != nil {
			that.logger.Error("failed to label move", "move", move, "error", err)
			continue
		}

		if move == that.engine.CurrentMove() {
			label = fmt.Sprintf("%s  ◀", label)
		}

		that.moves.AddItem(label, "", 0, nil)
	}

	that.moves.SetCurrentItem(that.engine.CurrentMove())
}

func markCell(mark entity.Mark) *tview.TableCell {
	switch mark {
	case entity.PlayerX:
		return tview.NewTableCell("  X  ").SetTextColor(Colors.MarkX).SetAlign(tview.AlignCenter)
	case entity.PlayerO:
		return tview.NewTableCell("  O  ").SetTextColor(Colors.MarkO).SetAlign(tview.AlignCenter)
	default:
		return tview.NewTableCell("  ·  ").SetTextColor(Colors.Empty).SetAlign(tview.AlignCenter)
	}
}
