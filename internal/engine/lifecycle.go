package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/cfilipov/containerstack/internal/compose"
	"github.com/cfilipov/containerstack/internal/lockstore"
	"github.com/cfilipov/containerstack/internal/rollup"
	"golang.org/x/sync/errgroup"
)

var notFoundRE = regexp.MustCompile(`(?i)not found`)

// Save persists a stack's compose and env text to disk. If isAdd, the
// stack directory must not already exist; otherwise it must.
func (e *Engine) Save(name, yamlText, envText string, isAdd bool) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := validateYAML(yamlText); err != nil {
		return err
	}
	if err := validateEnv(envText); err != nil {
		return err
	}

	mu := e.mutexFor(name)
	mu.Lock()
	defer mu.Unlock()

	dir := e.stackDir(name)
	_, err := os.Stat(dir)
	exists := err == nil
	if isAdd && exists {
		return newError(ValidationError, fmt.Sprintf("Stack %q already exists", name))
	}
	if !isAdd && !exists {
		return newError(NotFound, fmt.Sprintf("Stack %q does not exist", name))
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return wrapError(IOError, "create stack directory", err)
	}

	composeFile, found := composeFileExists(dir)
	if !found {
		composeFile = acceptedComposeFileNames[0]
	}
	if err := os.WriteFile(filepath.Join(dir, composeFile), []byte(yamlText), 0o644); err != nil {
		return wrapError(IOError, "write compose file", err)
	}

	envPath := filepath.Join(dir, ".env")
	_, envExisted := os.Stat(envPath)
	if envText != "" || envExisted == nil {
		if err := os.WriteFile(envPath, []byte(envText), 0o644); err != nil {
			return wrapError(IOError, "write env file", err)
		}
	}

	e.Invalidate(name)
	return nil
}

// compile applies env substitution and compiles the stack's current
// on-disk compose text, returning the plan result and the raw yaml text
// used (needed by callers to compute the fingerprint).
func (e *Engine) compile(name string) (compose.CompileResult, string, error) {
	dir := e.stackDir(name)
	composeFile, found := composeFileExists(dir)
	if !found {
		return compose.CompileResult{}, "", newError(NotFound, fmt.Sprintf("Stack %q has no compose file", name))
	}
	yamlText := readFileOrEmpty(filepath.Join(dir, composeFile))
	envText := readFileOrEmpty(filepath.Join(dir, ".env"))

	env := compose.ParseDotEnv(envText)
	substituted := compose.Substitute(yamlText, env)
	result := compose.Compile(substituted, name)
	return result, yamlText, nil
}

// Deploy substitutes env into the stack's compose YAML, compiles it, and
// (if the plan is error-free) asks the adapter to realise it. On success
// the LockRecord's fingerprint is rewritten to sha256 of the compose text.
func (e *Engine) Deploy(ctx context.Context, name string) error {
	mu := e.mutexFor(name)
	mu.Lock()
	defer mu.Unlock()
	return e.deployLocked(ctx, name)
}

func (e *Engine) deployLocked(ctx context.Context, name string) error {
	result, yamlText, err := e.compile(name)
	if err != nil {
		return err
	}
	if !result.OK() {
		return newError(PreflightError, result.ErrorString())
	}

	if err := e.Adapter.Deploy(ctx, result.Plan); err != nil {
		return wrapError(RuntimeError, "deploy stack "+name, err)
	}

	rec := e.Locks.Read(name)
	if rec != nil {
		rec.Fingerprint = lockstore.Fingerprint(yamlText)
		if err := e.Locks.Write(name, *rec); err != nil {
			return wrapError(IOError, "write lock record", err)
		}
	}

	e.Invalidate(name)
	return nil
}

// Start starts the named service (or every service if serviceName is
// empty). If the stack is file-managed with no LockRecord, it deploys
// instead; if adapter.Start fails with a "not found" message and the
// stack is file-managed, it falls back to deploy.
func (e *Engine) Start(ctx context.Context, name, serviceName string) error {
	mu := e.mutexFor(name)
	mu.Lock()
	defer mu.Unlock()

	_, fileManaged := composeFileExists(e.stackDir(name))

	if fileManaged && !e.Locks.Exists(name) {
		return e.deployLocked(ctx, name)
	}

	err := e.Adapter.Start(ctx, name, serviceName)
	if err != nil && fileManaged && notFoundRE.MatchString(err.Error()) {
		return e.deployLocked(ctx, name)
	}
	if err != nil {
		return wrapError(RuntimeError, "start stack "+name, err)
	}
	e.Invalidate(name)
	return nil
}

// Stop stops the named service (or every service).
func (e *Engine) Stop(ctx context.Context, name, serviceName string) error {
	mu := e.mutexFor(name)
	mu.Lock()
	defer mu.Unlock()

	if err := e.Adapter.Stop(ctx, name, serviceName); err != nil {
		return wrapError(RuntimeError, "stop stack "+name, err)
	}
	e.Invalidate(name)
	return nil
}

// Restart stops then starts the named service (or every service).
func (e *Engine) Restart(ctx context.Context, name, serviceName string) error {
	mu := e.mutexFor(name)
	mu.Lock()
	defer mu.Unlock()

	if err := e.Adapter.Restart(ctx, name, serviceName); err != nil {
		return wrapError(RuntimeError, "restart stack "+name, err)
	}
	e.Invalidate(name)
	return nil
}

// Down stops and removes the stack's containers, optionally its declared
// volumes, and deletes its LockRecord.
func (e *Engine) Down(ctx context.Context, name string, removeVolumes bool) error {
	mu := e.mutexFor(name)
	mu.Lock()
	defer mu.Unlock()

	if err := e.Adapter.Down(ctx, name, removeVolumes); err != nil {
		return wrapError(RuntimeError, "down stack "+name, err)
	}
	e.Invalidate(name)
	return nil
}

// Update pulls every declared image, and if the stack is currently RUNNING,
// recompiles and performs a down-then-deploy cycle, rewriting the
// fingerprint.
func (e *Engine) Update(ctx context.Context, name string) error {
	mu := e.mutexFor(name)
	mu.Lock()
	defer mu.Unlock()

	result, _, err := e.compile(name)
	if err != nil {
		return err
	}
	if !result.OK() {
		return newError(PreflightError, result.ErrorString())
	}

	// Unlike a fresh deploy, updates have no dependency ordering to
	// respect: every service's image is already running, so pulls fan
	// out concurrently.
	eg, egCtx := errgroup.WithContext(ctx)
	for _, svc := range result.Plan.Services {
		image := svc.Image
		eg.Go(func() error {
			if err := e.Adapter.PullImage(egCtx, image); err != nil {
				return fmt.Errorf("pull image %s: %w", image, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return wrapError(RuntimeError, "pull images", err)
	}

	statuses, err := e.Adapter.GetAllStackStatus(ctx)
	if err != nil {
		return wrapError(RuntimeError, "refresh status", err)
	}
	if code, ok := statuses[name]; !ok || code != rollup.Running {
		return nil
	}

	result2, _, err := e.compile(name)
	if err != nil {
		return err
	}
	if !result2.OK() {
		return newError(PreflightError, result2.ErrorString())
	}

	if err := e.Adapter.Down(ctx, name, false); err != nil {
		return wrapError(RuntimeError, "down stack "+name, err)
	}
	if err := e.deployLocked(ctx, name); err != nil {
		return err
	}
	return nil
}

// Delete attempts a down (errors are logged, not fatal) and then removes
// the stack directory recursively.
func (e *Engine) Delete(ctx context.Context, name string) error {
	mu := e.mutexFor(name)
	mu.Lock()
	defer mu.Unlock()

	if err := e.Adapter.Down(ctx, name, false); err != nil {
		slog.Warn("delete: down failed, continuing", "stack", name, "err", err)
	}

	if err := os.RemoveAll(e.stackDir(name)); err != nil {
		return wrapError(IOError, "remove stack directory", err)
	}

	e.registryMu.Lock()
	delete(e.registry, name)
	e.registryMu.Unlock()
	return nil
}
