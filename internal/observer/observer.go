// Package observer periodically polls the runtime's container inventory,
// diffs it against the previous snapshot, and emits typed events.
package observer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cfilipov/containerstack/internal/rollup"
	"github.com/cfilipov/containerstack/internal/runtime"
)

// EventKind discriminates a PollEvent's payload.
type EventKind int

const (
	ContainerCreated EventKind = iota
	ContainerRemoved
	StateChanged
	StatusUpdate
	PollError
)

// PollEvent is one event emitted by a poll cycle.
type PollEvent struct {
	Kind EventKind

	// ContainerCreated / ContainerRemoved / StateChanged
	Name string

	// ContainerCreated
	Status runtime.ContainerStatus

	// StateChanged
	OldState rollup.State
	NewState rollup.State

	// StatusUpdate
	Snapshot map[string]runtime.ContainerStatus

	// PollError
	Err error
}

// Observer polls the runtime adapter at a fixed interval, diffs against
// the previous poll's snapshot, and delivers typed events to Handler.
type Observer struct {
	Adapter  *runtime.Adapter
	Interval time.Duration
	Handler  func(PollEvent)

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	snapshot map[string]runtime.ContainerStatus

	pollMu sync.Mutex
}

// New constructs an Observer. A zero interval defaults to 5 seconds.
func New(adapter *runtime.Adapter, interval time.Duration, handler func(PollEvent)) *Observer {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Observer{Adapter: adapter, Interval: interval, Handler: handler}
}

// Start begins polling. Calling Start while already running is a no-op. An
// immediate poll runs synchronously before the ticker loop begins, so the
// first snapshot is available as soon as Start returns.
func (o *Observer) Start(ctx context.Context) {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.running = true
	o.mu.Unlock()

	o.poll(runCtx)

	go func() {
		ticker := time.NewTicker(o.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				o.poll(runCtx)
			}
		}
	}()
}

// Stop cancels the scheduled tick. Calling Stop while not running is a
// no-op.
func (o *Observer) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.running {
		return
	}
	o.cancel()
	o.running = false
}

// poll runs one poll cycle. Overlapping ticks are suppressed: if a poll is
// already in flight, this call returns immediately.
func (o *Observer) poll(ctx context.Context) {
	if !o.pollMu.TryLock() {
		return
	}
	defer o.pollMu.Unlock()

	statuses, err := o.Adapter.ListContainers(ctx)
	if err != nil {
		slog.Warn("observer poll failed", "err", err)
		o.emit(PollEvent{Kind: PollError, Err: err})
		return
	}

	next := make(map[string]runtime.ContainerStatus, len(statuses))
	for _, s := range statuses {
		next[s.Name] = s
	}

	prev := o.snapshot
	o.snapshot = next

	for name, cur := range next {
		old, existed := prev[name]
		if !existed {
			o.emit(PollEvent{Kind: ContainerCreated, Name: name, Status: cur})
			continue
		}
		if old.State != cur.State {
			o.emit(PollEvent{Kind: StateChanged, Name: name, OldState: runtime.ToRollupState(old.State), NewState: runtime.ToRollupState(cur.State)})
		}
	}
	for name := range prev {
		if _, stillThere := next[name]; !stillThere {
			o.emit(PollEvent{Kind: ContainerRemoved, Name: name})
		}
	}

	o.emit(PollEvent{Kind: StatusUpdate, Snapshot: next})
}

func (o *Observer) emit(ev PollEvent) {
	if o.Handler != nil {
		o.Handler(ev)
	}
}
