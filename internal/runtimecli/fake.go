package runtimecli

import (
	"context"
	"io"
	"strings"
	"sync"
)

// FakeDriver is a test double returning prerecorded (stdout, stderr, exitCode)
// triples keyed by the joined argument list. Invocations are recorded in
// order for assertions.
type FakeDriver struct {
	mu sync.Mutex
	// Responses maps a space-joined argv (e.g. "run -d --name foo nginx") to
	// the Result the driver returns for any invocation with that exact
	// argument list. Use Default for anything not matched.
	Responses map[string]Result
	Default   Result

	Calls [][]string

	// StreamContent, if set, is returned as the stream body for any Stream call.
	StreamContent string
}

// NewFakeDriver returns a FakeDriver that succeeds (exit 0, empty output)
// for anything not explicitly stubbed.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{Responses: make(map[string]Result)}
}

// Stub records the Result to return for an exact argument list.
func (f *FakeDriver) Stub(result Result, args ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Responses[strings.Join(args, " ")] = result
}

func (f *FakeDriver) Run(_ context.Context, args ...string) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, append([]string(nil), args...))

	if r, ok := f.Responses[strings.Join(args, " ")]; ok {
		return r, nil
	}
	return f.Default, nil
}

func (f *FakeDriver) Stream(_ context.Context, args ...string) (io.ReadCloser, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, append([]string(nil), args...))
	content := f.StreamContent
	f.mu.Unlock()
	return io.NopCloser(strings.NewReader(content)), nil
}
