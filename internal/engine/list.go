package engine

import (
	"context"
	"net/url"
	"os"

	"github.com/cfilipov/containerstack/internal/rollup"
)

// StackView is the presentation shape returned by ToJSON and GetStackList.
type StackView struct {
	Name              string
	Status            rollup.Code
	Tags              []string
	IsManagedByDockge bool
	ComposeFileName   string
	Endpoint          string
	ComposeYAML       string
	ComposeENV        string
	PrimaryHostname   string
}

// reservedStackName mirrors the adapter's filtered name; duplicated here
// (rather than imported) since it is part of the external contract, not an
// implementation detail of either package.
const reservedStackName = "dockge"

// resolveHostname picks the stack's primary hostname: the settings lookup,
// then the endpoint's hostname, then "localhost".
func (e *Engine) resolveHostname(endpoint string) string {
	if e.PrimaryHostname != nil {
		if h := e.PrimaryHostname("primaryHostname"); h != "" {
			return h
		}
	}
	if endpoint != "" {
		if u, err := url.Parse(endpoint); err == nil && u.Hostname() != "" {
			return u.Hostname()
		}
	}
	return "localhost"
}

// ToJSON builds the full presentation object for one stack, including its
// compose text.
func (e *Engine) ToJSON(ctx context.Context, name, endpoint string) (StackView, error) {
	entity, err := e.loadEntity(name)
	if err != nil {
		return StackView{}, err
	}

	composeFile, isManaged := composeFileExists(e.stackDir(name))

	statuses, err := e.Adapter.GetAllStackStatus(ctx)
	if err != nil {
		return StackView{}, wrapError(RuntimeError, "get stack status", err)
	}
	code, ok := statuses[name]
	if !ok {
		if isManaged {
			code = rollup.CreatedFile
		} else {
			code = rollup.Unknown
		}
	}

	return StackView{
		Name:              name,
		Status:            code,
		Tags:              []string{},
		IsManagedByDockge: isManaged,
		ComposeFileName:   composeFile,
		Endpoint:          endpoint,
		ComposeYAML:       entity.ComposeYAML,
		ComposeENV:        entity.ComposeEnv,
		PrimaryHostname:   e.resolveHostname(endpoint),
	}, nil
}

// GetStackList scans the stacks directory for file-managed stacks, then
// overlays adapter-reported statuses; adapter entries with no on-disk
// directory are included as externally-managed stacks. The reserved stack
// name is always skipped.
func (e *Engine) GetStackList(ctx context.Context) (map[string]StackView, error) {
	out := make(map[string]StackView)

	entries, err := os.ReadDir(e.StacksDir)
	if err != nil {
		return nil, wrapError(IOError, "scan stacks directory", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == reservedStackName {
			continue
		}
		dir := e.stackDir(entry.Name())
		composeFile, found := composeFileExists(dir)
		if !found {
			continue
		}
		out[entry.Name()] = StackView{
			Name:              entry.Name(),
			Status:            rollup.CreatedFile,
			Tags:              []string{},
			IsManagedByDockge: true,
			ComposeFileName:   composeFile,
		}
	}

	statuses, err := e.Adapter.GetAllStackStatus(ctx)
	if err != nil {
		return nil, wrapError(RuntimeError, "get stack status", err)
	}
	for name, code := range statuses {
		if name == reservedStackName {
			continue
		}
		v, exists := out[name]
		if !exists {
			v = StackView{Name: name, Tags: []string{}, IsManagedByDockge: false}
		}
		v.Status = code
		out[name] = v
	}

	return out, nil
}
