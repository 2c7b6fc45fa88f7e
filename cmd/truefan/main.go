// truefan is the unprivileged half: it reads sensors, picks a duty value from
// the active profile and asks truefan-agent to apply it. It also serves the
// dashboard JSON API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/restartfu/truefan/internal/adapters/agentclient"
	httpadapter "github.com/restartfu/truefan/internal/adapters/http"
	systemadapter "github.com/restartfu/truefan/internal/adapters/system"
	"github.com/restartfu/truefan/internal/app"
	"github.com/restartfu/truefan/internal/config"
	"github.com/restartfu/truefan/internal/domain"
	"github.com/restartfu/truefan/internal/hwmon"
	"github.com/restartfu/truefan/internal/observability"
	"github.com/restartfu/truefan/internal/profile"
	"github.com/restartfu/truefan/internal/smart"
	"github.com/restartfu/truefan/internal/temperature"
)

const usage = `usage: truefan [flags] <command> [args]

commands:
  status               print the read model as JSON
  control              apply the profile once (--loop to keep polling)
  set <pwm>            ask the agent to apply a duty value 0..255
  set-profile <name>   store the active profile (quiet, cool, aggressive)
  get-profile          print the active profile
  serve                run the dashboard JSON API (--control to also poll)

flags:
`

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		addr       string
		loop       bool
		control    bool
	)
	flagSet := pflag.NewFlagSet("truefan", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to a YAML config file")
	flagSet.StringVar(&addr, "addr", "", "dashboard listen address for serve (default from config, :5002)")
	flagSet.BoolVar(&loop, "loop", false, "keep polling with control")
	flagSet.BoolVar(&control, "control", false, "run the control loop alongside serve")
	flagSet.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flagSet.PrintDefaults()
	}
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	args := flagSet.Args()
	if len(args) == 0 {
		flagSet.Usage()
		return errors.New("missing command")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Dashboard.Listen = addr
	}

	logger := observability.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format).With("process", "caller")
	slog.SetDefault(logger)

	flushSentry, _, err := observability.InitSentry("truefan")
	if err != nil {
		return fmt.Errorf("sentry init: %w", err)
	}
	defer flushSentry()

	service := newService(cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	switch command := args[0]; command {
	case "status":
		status, err := service.Status(ctx)
		if err != nil {
			return err
		}
		return printJSON(status)
	case "control":
		if loop {
			service.Run(ctx, cfg.PollInterval)
			return nil
		}
		decision, err := service.ControlOnce(ctx)
		if err != nil {
			return err
		}
		return printJSON(decision)
	case "set":
		if len(args) != 2 {
			return errors.New("usage: truefan set <pwm>")
		}
		value, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("pwm %q: %w", args[1], domain.ErrInvalidDuty)
		}
		result, err := service.SetPWM(ctx, value)
		if err != nil {
			return err
		}
		return printJSON(result)
	case "set-profile":
		if len(args) != 2 {
			return errors.New("usage: truefan set-profile <name>")
		}
		if err := service.SetProfile(domain.Profile(args[1])); err != nil {
			return err
		}
		fmt.Println(args[1])
		return nil
	case "get-profile":
		fmt.Println(service.Profile())
		return nil
	case "serve":
		return serve(ctx, cfg, service, control, logger)
	default:
		flagSet.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func newService(cfg config.Config, logger *slog.Logger) *app.Service {
	hwmonReader := hwmon.NewReader(cfg.HwmonRoot, logger)
	sensors := temperature.NewAggregator(
		hwmonReader,
		smart.NewReader(smart.Config{Binary: cfg.Smart.Binary, Timeout: cfg.Smart.Timeout}, logger),
		temperature.DefaultSensors(temperature.Devices{NVMe: cfg.Smart.NVMeDevice, HDD: cfg.Smart.HDDDevice}),
		logger,
	)
	client := agentclient.New(cfg.Agent.URL, cfg.Agent.Token, cfg.Agent.Timeout, logger)

	return app.NewService(
		sensors,
		hwmonReader,
		systemadapter.NewReader(),
		profile.NewStore(cfg.ProfileFile, logger),
		client,
		agentclient.NewHealthCache(client, cfg.Agent.HealthTTL),
		app.Options{
			ReadOnly:   cfg.ReadOnly(),
			IncludeHDD: cfg.IncludeHDD,
			Logger:     logger,
		},
	)
}

func serve(ctx context.Context, cfg config.Config, service *app.Service, control bool, logger *slog.Logger) error {
	echoServer := httpadapter.NewEcho("dashboard")
	httpadapter.NewDashboardServer(service, logger).Register(echoServer)

	server := &http.Server{
		Addr:              cfg.Dashboard.Listen,
		Handler:           echoServer,
		ReadHeaderTimeout: 5 * time.Second,
	}

	if control {
		go service.Run(ctx, cfg.PollInterval)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "error", err)
		}
	}()

	logger.Info("dashboard API listening", "addr", cfg.Dashboard.Listen, "agent", cfg.Agent.URL, "read_only", cfg.ReadOnly())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
