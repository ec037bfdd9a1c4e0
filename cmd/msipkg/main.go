package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/quantmind-br/msipkg/internal/cmd"
	"github.com/quantmind-br/msipkg/internal/config"
	"github.com/quantmind-br/msipkg/internal/logging"
	"github.com/quantmind-br/msipkg/internal/provider"
	"github.com/quantmind-br/msipkg/internal/ui"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}

	noColor := logging.NoColor(cfg.Logging.Color)
	ui.InitColors(noColor)

	log := logging.NewLogger(logging.Config{
		Level:   cfg.Logging.Level,
		LogFile: cfg.Paths.LogFile,
		NoColor: noColor,
	})

	host := provider.NewHost()
	app, err := cmd.NewApp(cfg, log, host)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize provider")
		return 1
	}
	defer host.Unregister(provider.ID)

	rootCmd := cmd.NewRootCmd(app, version)
	err = rootCmd.ExecuteContext(ctx)
	switch {
	case err == nil:
	case errors.Is(err, cmd.ErrRebootRequired):
		ui.PrintWarning(os.Stderr, "%v", err)
	default:
		ui.PrintError(os.Stderr, "%v", err)
		log.Debug().Err(err).Msg("command failed")
	}
	return cmd.ExitCode(err)
}
