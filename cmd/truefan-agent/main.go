// truefan-agent is the privileged half of truefan. It is the only process
// that writes PWM files and it only does so for requests carrying the shared
// bearer secret.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	httpadapter "github.com/restartfu/truefan/internal/adapters/http"
	"github.com/restartfu/truefan/internal/app"
	"github.com/restartfu/truefan/internal/config"
	"github.com/restartfu/truefan/internal/observability"
	"github.com/restartfu/truefan/internal/pwm"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath, addr string
	flagSet := pflag.NewFlagSet("truefan-agent", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to a YAML config file")
	flagSet.StringVar(&addr, "addr", "", "listen address (default from config, 127.0.0.1:5088)")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Agent.Listen = addr
	}

	logger := observability.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format).With("process", "agent")
	slog.SetDefault(logger)

	if err := cfg.RequireAgentSecret(); err != nil {
		return err
	}

	flushSentry, _, err := observability.InitSentry("truefan-agent")
	if err != nil {
		return fmt.Errorf("sentry init: %w", err)
	}
	defer flushSentry()

	controller := pwm.NewController(cfg.HwmonRoot, cfg.DeviceRoots, logger)
	service := app.NewAgentService(controller, logger)

	echoServer := httpadapter.NewEcho("agent")
	httpadapter.NewAgentServer(service, cfg.Agent.Secret, logger).Register(echoServer)

	server := &http.Server{
		Addr:              cfg.Agent.Listen,
		Handler:           echoServer,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "error", err)
		}
	}()

	logger.Info("control agent listening", "addr", cfg.Agent.Listen, "hwmon_root", cfg.HwmonRoot)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}
