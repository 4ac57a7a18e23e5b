package lockstore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteThenRead(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	s := New(dir)

	rec := LockRecord{
		StackName:   "e2e-test",
		Fingerprint: Fingerprint("yaml text"),
		Services: map[string]ServiceRecord{
			"web": {ContainerName: "dockgeac_e2e-test_web_1", Image: "nginx:latest", CreatedAt: Now()},
		},
		LastDeployed: Now(),
	}
	if err := s.Write("e2e-test", rec); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got := s.Read("e2e-test")
	if got == nil {
		t.Fatal("expected non-nil record")
	}
	if got.Services["web"].ContainerName != "dockgeac_e2e-test_web_1" {
		t.Errorf("containerName = %q", got.Services["web"].ContainerName)
	}
	if got.Fingerprint != rec.Fingerprint {
		t.Errorf("fingerprint mismatch")
	}
}

func TestReadMissingReturnsNil(t *testing.T) {
	t.Parallel()
	s := New(t.TempDir())
	if got := s.Read("nope"); got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestReadCorruptReturnsNil(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	s := New(dir)
	if err := os.MkdirAll(filepath.Join(dir, "locks"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "locks", "bad.lock.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := s.Read("bad"); got != nil {
		t.Errorf("expected nil for corrupt file, got %+v", got)
	}
}

func TestDeleteMissingIsNotError(t *testing.T) {
	t.Parallel()
	s := New(t.TempDir())
	if err := s.Delete("nope"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestExistsAndListAll(t *testing.T) {
	t.Parallel()
	s := New(t.TempDir())
	if s.Exists("a") {
		t.Error("expected Exists(a) = false before write")
	}
	s.Write("a", LockRecord{StackName: "a"})
	s.Write("b", LockRecord{StackName: "b"})
	if !s.Exists("a") {
		t.Error("expected Exists(a) = true after write")
	}
	names := s.ListAll()
	if len(names) != 2 {
		t.Fatalf("ListAll = %v", names)
	}
}

func TestFingerprintStability(t *testing.T) {
	t.Parallel()
	if Fingerprint("x") != Fingerprint("x") {
		t.Error("fingerprint not stable")
	}
	if Fingerprint("x") == Fingerprint("y") {
		t.Error("fingerprint collided for distinct inputs")
	}
}

func TestHasChanged(t *testing.T) {
	t.Parallel()
	s := New(t.TempDir())
	if !s.HasChanged("new-stack", "text") {
		t.Error("expected changed=true with no lock record")
	}
	s.Write("new-stack", LockRecord{StackName: "new-stack", Fingerprint: Fingerprint("text")})
	if s.HasChanged("new-stack", "text") {
		t.Error("expected changed=false when fingerprint matches")
	}
	if !s.HasChanged("new-stack", "other text") {
		t.Error("expected changed=true when fingerprint differs")
	}
}
