package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"cryptoalert/api"
	"cryptoalert/auth"
	"cryptoalert/config"
	"cryptoalert/logger"
	"cryptoalert/models"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logFile, err := logger.OpenFile(cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	log := logger.Init(logger.Options{Level: cfg.LogLevel, Output: logFile})
	log.Info().Str("api", cfg.BaseURL()).Str("env", cfg.Env).Msg("starting")

	model := models.NewAppModel(models.Options{
		Store:        auth.NewStore(cfg.ConfigDir),
		Client:       api.NewClient(cfg.BaseURL(), cfg.RequestTimeout),
		Log:          log,
		PollInterval: cfg.PollInterval,
		StrictLogin:  cfg.StrictLogin,
		BaseContext:  ctx,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	if _, err := p.Run(); err != nil {
		log.Error().Err(err).Msg("program exited")
		fmt.Printf("Error running program: %v", err)
		os.Exit(1)
	}
}
