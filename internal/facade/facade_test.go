package facade

import (
	"context"
	"testing"

	"github.com/cfilipov/containerstack/internal/engine"
	"github.com/cfilipov/containerstack/internal/lockstore"
	"github.com/cfilipov/containerstack/internal/runtime"
	"github.com/cfilipov/containerstack/internal/runtimecli"
)

func newTestFacade(t *testing.T) (*Facade, *runtimecli.FakeDriver) {
	t.Helper()
	driver := runtimecli.NewFakeDriver()
	driver.Default = runtimecli.Result{ExitCode: 0, Stdout: "[]"}
	locks := lockstore.New(t.TempDir())
	adapter := runtime.New(driver, locks)
	eng := engine.New(t.TempDir(), t.TempDir(), adapter, locks, nil)
	return New(eng), driver
}

func TestSaveStackRejectsMissingName(t *testing.T) {
	f, _ := newTestFacade(t)
	res, err := f.SaveStack(context.Background(), "", "services: {}", "", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.OK {
		t.Fatal("expected OK=false for missing name")
	}
}

func TestSaveStackRejectsMissingYAML(t *testing.T) {
	f, _ := newTestFacade(t)
	res, err := f.SaveStack(context.Background(), "mystack", "", "", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.OK {
		t.Fatal("expected OK=false for missing yaml")
	}
}

func TestSaveStackThenDeployHappyPath(t *testing.T) {
	f, driver := newTestFacade(t)
	yamlText := "services:\n  web:\n    image: nginx:latest\n"

	res, err := f.SaveStack(context.Background(), "mystack", yamlText, "", true)
	if err != nil || !res.OK {
		t.Fatalf("SaveStack: ok=%v err=%v msg=%s", res.OK, err, res.Msg)
	}

	driver.Default = runtimecli.Result{ExitCode: 0}
	res, err = f.DeployStack(context.Background(), "mystack")
	if err != nil || !res.OK {
		t.Fatalf("DeployStack: ok=%v err=%v msg=%s", res.OK, err, res.Msg)
	}
}

func TestCheckComposeCompatReportsErrors(t *testing.T) {
	f, _ := newTestFacade(t)
	res, err := f.CheckComposeCompat(context.Background(), "services:\n  web:\n    build: .\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.OK {
		t.Fatalf("expected OK=true envelope with diagnostics inside, got msg=%s", res.Msg)
	}
	cr, ok := res.Data.(compatResult)
	if !ok {
		t.Fatalf("expected compatResult payload, got %T", res.Data)
	}
	if len(cr.Errors) == 0 {
		t.Fatal("expected at least one diagnostic for an unsupported 'build' key")
	}
}

func TestDeleteContainerImageRejectsMissingRef(t *testing.T) {
	f, _ := newTestFacade(t)
	res, err := f.DeleteContainerImage(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.OK {
		t.Fatal("expected OK=false for missing image reference")
	}
}

func TestGetDockerNetworkList(t *testing.T) {
	f, driver := newTestFacade(t)
	driver.Default = runtimecli.Result{ExitCode: 0, Stdout: `[{"name":"bridge"}]`}
	res, err := f.GetDockerNetworkList(context.Background())
	if err != nil || !res.OK {
		t.Fatalf("GetDockerNetworkList: ok=%v err=%v msg=%s", res.OK, err, res.Msg)
	}
	names, ok := res.Data.([]string)
	if !ok || len(names) != 1 || names[0] != "bridge" {
		t.Fatalf("unexpected data: %#v", res.Data)
	}
}
