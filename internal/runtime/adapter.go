// Package runtime translates Plan operations into ordered runtime CLI
// invocations via a runtimecli.Driver and parses the CLI's JSON/JSONL
// output into the typed records the stack engine consumes.
package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/cfilipov/containerstack/internal/lockstore"
	"github.com/cfilipov/containerstack/internal/rollup"
	"github.com/cfilipov/containerstack/internal/runtimecli"
)

// reservedStackName is filtered out of every status listing.
const reservedStackName = "dockge"

// Adapter drives the runtime CLI on behalf of the Stack Engine.
type Adapter struct {
	Driver runtimecli.Driver
	Locks  *lockstore.Store
}

// New returns an Adapter using driver for CLI invocations and locks for
// container-ownership bookkeeping.
func New(driver runtimecli.Driver, locks *lockstore.Store) *Adapter {
	return &Adapter{Driver: driver, Locks: locks}
}

// RuntimeError wraps a non-zero CLI exit with the captured stderr.
type RuntimeError struct {
	Op     string
	Stderr string
}

func (e *RuntimeError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Stderr)
	}
	return e.Op + ": runtime command failed"
}

func (a *Adapter) run(ctx context.Context, op string, args ...string) (runtimecli.Result, error) {
	res, err := a.Driver.Run(ctx, args...)
	if err != nil {
		return res, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// Available probes `container system status`; exit 0 means available.
func (a *Adapter) Available(ctx context.Context) bool {
	res, err := a.run(ctx, "status", "system", "status")
	return err == nil && res.ExitCode == 0
}

// Version returns the runtime's version string.
func (a *Adapter) Version(ctx context.Context) (string, error) {
	res, err := a.run(ctx, "version", "--version")
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", &RuntimeError{Op: "version", Stderr: res.Stderr}
	}
	return strings.TrimSpace(res.Stdout), nil
}

// ListContainers runs `container list --all --format json` and parses it.
// Exported for the observer, which polls the full inventory directly
// rather than through a stack's LockRecord.
func (a *Adapter) ListContainers(ctx context.Context) ([]ContainerStatus, error) {
	return a.listAll(ctx)
}

// listAll runs `container list --all --format json` and parses it.
func (a *Adapter) listAll(ctx context.Context) ([]ContainerStatus, error) {
	res, err := a.run(ctx, "list", "list", "--all", "--format", "json")
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, &RuntimeError{Op: "list", Stderr: res.Stderr}
	}
	return ParseContainerList([]byte(res.Stdout)), nil
}

// statusByName indexes a container status slice by name.
func statusByName(list []ContainerStatus) map[string]ContainerStatus {
	m := make(map[string]ContainerStatus, len(list))
	for _, c := range list {
		m[c.Name] = c
	}
	return m
}

// ToRollupState maps a raw container state string to the closed rollup.State
// enum. Exported so the observer can classify states the same way the
// adapter does.
func ToRollupState(s string) rollup.State {
	switch s {
	case "running":
		return rollup.StateRunning
	case "stopped", "exited":
		return rollup.StateStopped
	case "created":
		return rollup.StateCreated
	default:
		return rollup.StateUnknown
	}
}
