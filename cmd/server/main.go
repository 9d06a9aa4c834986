package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-relay/internal/app"
	"github.com/vovakirdan/wirechat-relay/internal/config"
	"github.com/vovakirdan/wirechat-relay/internal/console"
	"github.com/vovakirdan/wirechat-relay/internal/log"
)

type flags struct {
	configPath string
	port       int
	httpAddr   string
	logLevel   string
	noConsole  bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:           "relay",
		Short:         "Single-room TCP chat relay",
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, f)
		},
	}

	cmd.Flags().StringVar(&f.configPath, "config", "", "path to config file")
	cmd.Flags().IntVar(&f.port, "port", 0, "TCP listen port (overrides config)")
	cmd.Flags().StringVar(&f.httpAddr, "http-addr", "", "admin HTTP listen address, empty disables it")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	cmd.Flags().BoolVar(&f.noConsole, "no-console", false, "disable the operator console on stdin")

	return cmd
}

func run(cmd *cobra.Command, f flags) error {
	bootLog := log.New(config.Default().LogLevel)

	cfg, path, err := config.Load(bootLog, f.configPath)
	if err != nil {
		return err
	}

	flagSet := cmd.Flags()
	cfg.UpdateFrom(config.Config{
		Port:     f.port,
		HTTPAddr: f.httpAddr,
		LogLevel: f.logLevel,
	})
	if flagSet.Changed("no-console") {
		cfg.Console = !f.noConsole
	}

	logger := log.New(cfg.LogLevel)
	logger.Info().Str("config", path).Msg("configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(&cfg, logger)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}

	if cfg.Console {
		con := console.New(os.Stdin, os.Stdout, application, logger)
		go func() {
			if err := con.Run(ctx); err != nil {
				logger.Warn().Err(err).Msg("console stopped")
			}
		}()
	}

	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
