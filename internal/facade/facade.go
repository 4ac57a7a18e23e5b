// Package facade exposes validated, transport-agnostic entry points over
// the stack engine. Every operation is a plain method taking typed Go
// arguments and returning a Result, so any transport can marshal it.
package facade

import (
	"context"

	"github.com/cfilipov/containerstack/internal/compose"
	"github.com/cfilipov/containerstack/internal/engine"
)

// Result is the {ok, ...}/{ok:false, msg} shape returned by every
// operation.
type Result struct {
	OK   bool
	Msg  string
	Data any
}

func ok(data any) (Result, error) {
	return Result{OK: true, Data: data}, nil
}

func fail(err error) (Result, error) {
	return Result{OK: false, Msg: err.Error()}, nil
}

// Facade wraps the engine's operations with argument validation and the
// Result response shape.
type Facade struct {
	Engine *engine.Engine
}

// New constructs a Facade wrapping eng.
func New(eng *engine.Engine) *Facade {
	return &Facade{Engine: eng}
}

func requireName(name string) error {
	if name == "" {
		return engine.NewValidationError("Stack name required")
	}
	return nil
}

// SaveStack persists a stack's compose and env text (isAdd distinguishes
// create from update).
func (f *Facade) SaveStack(ctx context.Context, name, yamlText, envText string, isAdd bool) (Result, error) {
	if err := requireName(name); err != nil {
		return fail(err)
	}
	if yamlText == "" {
		return fail(engine.NewValidationError("Compose YAML required"))
	}
	if err := f.Engine.Save(name, yamlText, envText, isAdd); err != nil {
		return fail(err)
	}
	return ok(nil)
}

// DeployStack compiles and deploys the named stack.
func (f *Facade) DeployStack(ctx context.Context, name string) (Result, error) {
	if err := requireName(name); err != nil {
		return fail(err)
	}
	if err := f.Engine.Deploy(ctx, name); err != nil {
		return fail(err)
	}
	return ok(nil)
}

// DeleteStack removes a stack's containers and its on-disk directory.
func (f *Facade) DeleteStack(ctx context.Context, name string) (Result, error) {
	if err := requireName(name); err != nil {
		return fail(err)
	}
	if err := f.Engine.Delete(ctx, name); err != nil {
		return fail(err)
	}
	return ok(nil)
}

// GetStack returns the full presentation object for one stack.
func (f *Facade) GetStack(ctx context.Context, name, endpoint string) (Result, error) {
	if err := requireName(name); err != nil {
		return fail(err)
	}
	view, err := f.Engine.ToJSON(ctx, name, endpoint)
	if err != nil {
		return fail(err)
	}
	return ok(view)
}

// RequestStackList returns every known stack's presentation view.
func (f *Facade) RequestStackList(ctx context.Context) (Result, error) {
	list, err := f.Engine.GetStackList(ctx)
	if err != nil {
		return fail(err)
	}
	return ok(list)
}

// StartStack starts the named service, or every service if serviceName is
// empty.
func (f *Facade) StartStack(ctx context.Context, name, serviceName string) (Result, error) {
	if err := requireName(name); err != nil {
		return fail(err)
	}
	if err := f.Engine.Start(ctx, name, serviceName); err != nil {
		return fail(err)
	}
	return ok(nil)
}

// StopStack stops the named service, or every service if serviceName is
// empty.
func (f *Facade) StopStack(ctx context.Context, name, serviceName string) (Result, error) {
	if err := requireName(name); err != nil {
		return fail(err)
	}
	if err := f.Engine.Stop(ctx, name, serviceName); err != nil {
		return fail(err)
	}
	return ok(nil)
}

// RestartStack restarts the named service, or every service if serviceName
// is empty.
func (f *Facade) RestartStack(ctx context.Context, name, serviceName string) (Result, error) {
	if err := requireName(name); err != nil {
		return fail(err)
	}
	if err := f.Engine.Restart(ctx, name, serviceName); err != nil {
		return fail(err)
	}
	return ok(nil)
}

// UpdateStack pulls every declared image and, if running, redeploys.
func (f *Facade) UpdateStack(ctx context.Context, name string) (Result, error) {
	if err := requireName(name); err != nil {
		return fail(err)
	}
	if err := f.Engine.Update(ctx, name); err != nil {
		return fail(err)
	}
	return ok(nil)
}

// DownStack stops and removes a stack's containers, optionally its
// declared volumes.
func (f *Facade) DownStack(ctx context.Context, name string, removeVolumes bool) (Result, error) {
	if err := requireName(name); err != nil {
		return fail(err)
	}
	if err := f.Engine.Down(ctx, name, removeVolumes); err != nil {
		return fail(err)
	}
	return ok(nil)
}

// ServiceStatusList reports per-container status for a stack.
func (f *Facade) ServiceStatusList(ctx context.Context, name string) (Result, error) {
	if err := requireName(name); err != nil {
		return fail(err)
	}
	list, err := f.Engine.Adapter.GetServiceStatusList(ctx, name)
	if err != nil {
		return fail(err)
	}
	return ok(list)
}

// GetDockerNetworkList reports every runtime-visible network name.
func (f *Facade) GetDockerNetworkList(ctx context.Context) (Result, error) {
	list, err := f.Engine.Adapter.GetNetworkList(ctx)
	if err != nil {
		return fail(err)
	}
	return ok(list)
}

// GetContainerImageList reports every locally known image.
func (f *Facade) GetContainerImageList(ctx context.Context) (Result, error) {
	list, err := f.Engine.Adapter.GetImageList(ctx)
	if err != nil {
		return fail(err)
	}
	return ok(list)
}

// DeleteContainerImage removes an image by reference, refusing if in use.
func (f *Facade) DeleteContainerImage(ctx context.Context, imageRef string) (Result, error) {
	if imageRef == "" {
		return fail(engine.NewValidationError("Image reference required"))
	}
	if err := f.Engine.Adapter.DeleteImage(ctx, imageRef); err != nil {
		return fail(err)
	}
	return ok(nil)
}

// CheckComposeCompat validates compose YAML without deploying it, invoking
// the compiler's validate-only entry point.
func (f *Facade) CheckComposeCompat(ctx context.Context, yamlText string) (Result, error) {
	if yamlText == "" {
		return fail(engine.NewValidationError("Compose YAML required"))
	}
	errs, warnings := compose.Validate(yamlText, "")
	return ok(compatResult{Errors: errs, Warnings: warnings})
}

type compatResult struct {
	Errors   []compose.Diagnostic
	Warnings []compose.Diagnostic
}
