package main

import (
	"fmt"
	"os"

	"github.com/boddenberg/comptes-soap-go/internal/config"
	"github.com/boddenberg/comptes-soap-go/internal/infra/client"
	"github.com/boddenberg/comptes-soap-go/internal/infra/observability"
	"github.com/boddenberg/comptes-soap-go/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

func main() {
	_ = config.LoadDotEnv(".env")
	cfg := config.Load()

	// stderr belongs to the terminal UI
	logger, err := observability.NewFileLogger(cfg.LogLevel, cfg.TUILogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("tui starting", zap.String("soap_url", cfg.SOAPURL))

	remote := client.NewFromConfig(cfg, observability.NewMetrics(), logger)
	m := tui.New(remote, cfg.HTTPTimeout, cfg.TUIAutoFetch, logger)

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		logger.Error("tui exited with error", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
