// terminal is a local two-player tic-tac-toe front end with move history.
package main

import (
	"fmt"
	"os"

	"github.com/rivo/tview"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/config"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/logger"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/ui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "terminal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	conf, err := config.LoadUser()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logPath, err := config.StateFile("terminal.log")
	if err != nil {
		return err
	}

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	log := logger.New(logFile, conf.LogLevel)

	app := tview.NewApplication()
	game := ui.NewGameUI(app, log)

	log.Info("terminal started")

	if err = app.SetRoot(game.Root(), true).EnableMouse(true).Run(); err != nil {
		return fmt.Errorf("terminal app failed: %w", err)
	}

	return nil
}
