package main

import (
	"fmt"
	"os"
	"path/filepath"

	app "github.com/rocketscienceinc/tictactoe-timetravel/internal"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/config"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/logger"
)

// main - is the entry point of the game server. It initializes the configuration, logger, and runs the application.
func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	conf := initConfig()
	log := logger.New(os.Stdout, conf.LogLevel)

	if err := app.RunApp(log, conf); err != nil {
		panic(fmt.Errorf("app run failed: %w", err))
	}
}

// initialize config.
func initConfig() *config.Config {
	baseDir, err := os.Getwd()
	if err != nil {
		panic(fmt.Errorf("failed to get current directory: %w", err))
	}

	return config.MustLoad(filepath.Join(baseDir, "./config.yml"))
}

