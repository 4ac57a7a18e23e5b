package engine

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/cfilipov/containerstack/internal/lockstore"
	"github.com/cfilipov/containerstack/internal/rollup"
	"github.com/cfilipov/containerstack/internal/runtime"
	"gopkg.in/yaml.v3"
)

// acceptedComposeFileNames are checked in order; the first match wins for
// an existing stack, and new stacks default to the first entry.
var acceptedComposeFileNames = []string{
	"compose.yaml",
	"docker-compose.yaml",
	"docker-compose.yml",
	"compose.yml",
}

var nameRE = regexp.MustCompile(`^[a-z0-9_-]+$`)

// StackEntity is the in-memory, per-process representation of a stack.
// It is created lazily and discarded on delete; the registry that holds it
// is invalidated on every mutation.
type StackEntity struct {
	Name        string
	ComposeYAML string
	ComposeEnv  string
	StatusCode  rollup.Code
}

// Engine is the per-process owner of the stack registry, the per-stack
// mutex map, and the wiring between the lock store and the runtime
// adapter.
type Engine struct {
	StacksDir string
	DataDir   string
	Adapter   *runtime.Adapter
	Locks     *lockstore.Store

	// PrimaryHostname looks up a settings value by key. The settings store
	// lives outside this module; the engine only consumes the one key it
	// needs through an injected lookup.
	PrimaryHostname func(key string) string

	registryMu sync.RWMutex
	registry   map[string]*StackEntity

	locksMu      sync.Mutex
	stackMutexes map[string]*sync.Mutex
}

// New constructs an Engine. primaryHostname may be nil, in which case the
// "localhost" fallback always applies.
func New(stacksDir, dataDir string, adapter *runtime.Adapter, locks *lockstore.Store, primaryHostname func(string) string) *Engine {
	return &Engine{
		StacksDir:       stacksDir,
		DataDir:         dataDir,
		Adapter:         adapter,
		Locks:           locks,
		PrimaryHostname: primaryHostname,
		registry:        make(map[string]*StackEntity),
		stackMutexes:    make(map[string]*sync.Mutex),
	}
}

// mutexFor returns the lazily-created per-stack mutex, taken around every
// mutating operation so two concurrent deploys of the same stack cannot
// race on its lock file.
func (e *Engine) mutexFor(name string) *sync.Mutex {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()
	m, ok := e.stackMutexes[name]
	if !ok {
		m = &sync.Mutex{}
		e.stackMutexes[name] = m
	}
	return m
}

// Invalidate discards the registry entry for name, forcing the next read to
// reload it from disk/runtime. Called after every mutation and by the
// stack directory watcher.
func (e *Engine) Invalidate(name string) {
	e.registryMu.Lock()
	delete(e.registry, name)
	e.registryMu.Unlock()
}

func (e *Engine) stackDir(name string) string {
	return filepath.Join(e.StacksDir, name)
}

// composeFileExists reports whether the stack directory dir has any
// accepted compose file on disk, and if so, which one.
func composeFileExists(dir string) (string, bool) {
	for _, fname := range acceptedComposeFileNames {
		if _, err := os.Stat(filepath.Join(dir, fname)); err == nil {
			return fname, true
		}
	}
	return "", false
}

// validateName enforces the stack-name character set.
func validateName(name string) error {
	if !nameRE.MatchString(name) {
		return newError(ValidationError, "Stack name can only contain [a-z][0-9] _ - only")
	}
	return nil
}

// validateEnv rejects a single-line env file with no '=' — almost always a
// pasted value rather than KEY=VALUE content.
func validateEnv(envText string) error {
	if envText == "" {
		return nil
	}
	lines := strings.Split(strings.TrimRight(envText, "\n"), "\n")
	if len(lines) == 1 && !strings.Contains(lines[0], "=") {
		return newError(ValidationError, "Invalid .env file: expected KEY=VALUE lines")
	}
	return nil
}

// validateYAML requires yamlText to round-trip through the YAML parser.
func validateYAML(yamlText string) error {
	var doc any
	if err := yaml.Unmarshal([]byte(yamlText), &doc); err != nil {
		return wrapError(ValidationError, "Invalid compose YAML", err)
	}
	return nil
}

func readFileOrEmpty(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}

// loadEntity reads a stack's compose and .env text off disk, populating the
// registry. It does not query the runtime; StatusCode is left unset.
func (e *Engine) loadEntity(name string) (*StackEntity, error) {
	e.registryMu.RLock()
	cached, ok := e.registry[name]
	e.registryMu.RUnlock()
	if ok {
		return cached, nil
	}

	dir := e.stackDir(name)
	composeFile, found := composeFileExists(dir)
	entity := &StackEntity{Name: name}
	if found {
		entity.ComposeYAML = readFileOrEmpty(filepath.Join(dir, composeFile))
		entity.ComposeEnv = readFileOrEmpty(filepath.Join(dir, ".env"))
	}

	e.registryMu.Lock()
	e.registry[name] = entity
	e.registryMu.Unlock()
	return entity, nil
}
