package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestWatcherInvalidatesOnComposeFileWrite(t *testing.T) {
	stacksDir := t.TempDir()
	stackDir := filepath.Join(stacksDir, "mystack")
	if err := os.MkdirAll(stackDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	composePath := filepath.Join(stackDir, "compose.yaml")
	if err := os.WriteFile(composePath, []byte("services: {}\n"), 0o644); err != nil {
		t.Fatalf("write initial compose: %v", err)
	}

	var mu sync.Mutex
	var got []string
	w := New(stacksDir, func(name string) {
		mu.Lock()
		got = append(got, name)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(composePath, []byte("services:\n  web:\n    image: nginx\n"), 0o644); err != nil {
		t.Fatalf("rewrite compose: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		name := ""
		if n > 0 {
			name = got[0]
		}
		mu.Unlock()
		if n > 0 {
			if name != "mystack" {
				t.Fatalf("expected invalidation for mystack, got %q", name)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for invalidation callback")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestWatcherStartFailsOnMissingDir(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "does-not-exist"), nil)
	if err := w.Start(context.Background()); err == nil {
		t.Fatal("expected error for missing stacks directory")
	}
}
