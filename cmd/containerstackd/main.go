// Command containerstackd wires logging, configuration, the lock store,
// the runtime adapter, the stack engine, the observer, and the stack
// directory watcher, then dispatches one facade operation per invocation
// as a subcommand.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cfilipov/containerstack/internal/config"
	"github.com/cfilipov/containerstack/internal/engine"
	"github.com/cfilipov/containerstack/internal/facade"
	"github.com/cfilipov/containerstack/internal/lockstore"
	"github.com/cfilipov/containerstack/internal/observer"
	"github.com/cfilipov/containerstack/internal/runtime"
	"github.com/cfilipov/containerstack/internal/runtimecli"
	"github.com/cfilipov/containerstack/internal/watcher"
)

func main() {
	cfg := config.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	slog.Info("starting containerstackd",
		"stacksDir", cfg.StacksDir,
		"dataDir", cfg.DataDir,
		"runtimeBin", cfg.RuntimeBin,
		"mock", cfg.Mock,
		"pollInterval", cfg.PollInterval,
	)

	if err := os.MkdirAll(cfg.StacksDir, 0o755); err != nil {
		slog.Error("create stacks dir", "err", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		slog.Error("create data dir", "err", err)
		os.Exit(1)
	}

	var driver runtimecli.Driver
	if cfg.Mock {
		driver = runtimecli.NewFakeDriver()
	} else {
		driver = &runtimecli.Exec{Bin: cfg.RuntimeBin}
	}

	locks := lockstore.New(cfg.DataDir)
	adapter := runtime.New(driver, locks)
	eng := engine.New(cfg.StacksDir, cfg.DataDir, adapter, locks, nil)
	f := facade.New(eng)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs := observer.New(adapter, cfg.PollInterval, func(ev observer.PollEvent) {
		if ev.Kind == observer.PollError {
			slog.Warn("observer poll error", "err", ev.Err)
		}
	})
	obs.Start(ctx)
	defer obs.Stop()

	w := watcher.New(cfg.StacksDir, eng.Invalidate)
	if err := w.Start(ctx); err != nil {
		slog.Warn("stack directory watcher failed to start", "err", err)
	}

	if err := dispatch(ctx, f, os.Args[1:]); err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}

// dispatch runs one Façade operation named by args[0], printing its Result
// as JSON to stdout.
func dispatch(ctx context.Context, f *facade.Facade, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: containerstackd <command> [args...]")
	}

	cmd := args[0]
	rest := args[1:]

	var (
		res facade.Result
		err error
	)

	switch cmd {
	case "deploy":
		res, err = f.DeployStack(ctx, arg(rest, 0))
	case "save":
		res, err = f.SaveStack(ctx, arg(rest, 0), arg(rest, 1), arg(rest, 2), arg(rest, 3) == "true")
	case "delete":
		res, err = f.DeleteStack(ctx, arg(rest, 0))
	case "get":
		res, err = f.GetStack(ctx, arg(rest, 0), arg(rest, 1))
	case "list":
		res, err = f.RequestStackList(ctx)
	case "start":
		res, err = f.StartStack(ctx, arg(rest, 0), arg(rest, 1))
	case "stop":
		res, err = f.StopStack(ctx, arg(rest, 0), arg(rest, 1))
	case "restart":
		res, err = f.RestartStack(ctx, arg(rest, 0), arg(rest, 1))
	case "update":
		res, err = f.UpdateStack(ctx, arg(rest, 0))
	case "down":
		res, err = f.DownStack(ctx, arg(rest, 0), arg(rest, 1) == "true")
	case "status":
		res, err = f.ServiceStatusList(ctx, arg(rest, 0))
	case "networks":
		res, err = f.GetDockerNetworkList(ctx)
	case "images":
		res, err = f.GetContainerImageList(ctx)
	case "rmi":
		res, err = f.DeleteContainerImage(ctx, arg(rest, 0))
	case "check":
		res, err = f.CheckComposeCompat(ctx, arg(rest, 0))
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(res); encErr != nil {
		return encErr
	}
	if !res.OK {
		return fmt.Errorf("%s", res.Msg)
	}
	return nil
}

func arg(args []string, i int) string {
	if i >= len(args) {
		return ""
	}
	return args[i]
}
