package compose

import (
	"strings"
	"testing"
)

func TestCompileEmptyInput(t *testing.T) {
	t.Parallel()
	r := Compile("", "stack")
	if r.OK() {
		t.Fatal("expected error for empty input")
	}
	if r.Errors[0].Message != "Empty compose file" {
		t.Errorf("message = %q", r.Errors[0].Message)
	}
}

func TestCompileWhitespaceOnlyInput(t *testing.T) {
	t.Parallel()
	r := Compile("   \n\t\n", "stack")
	if r.OK() {
		t.Fatal("expected error for whitespace-only input")
	}
}

func TestCompileInvalidYAML(t *testing.T) {
	t.Parallel()
	r := Compile("services: [this is not", "stack")
	if r.OK() {
		t.Fatal("expected parse error")
	}
}

func TestCompileRootNotObject(t *testing.T) {
	t.Parallel()
	r := Compile("- a\n- b\n", "stack")
	if r.OK() {
		t.Fatal("expected 'not an object' error")
	}
	if !strings.Contains(r.Errors[0].Message, "not an object") {
		t.Errorf("message = %q", r.Errors[0].Message)
	}
}

func TestCompileUnknownTopLevelKey(t *testing.T) {
	t.Parallel()
	r := Compile("bogus: 1\nservices:\n  web:\n    image: nginx\n", "stack")
	found := false
	for _, e := range r.Errors {
		if e.Path == "bogus" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected error for unknown top-level key, got %+v", r.Errors)
	}
}

func TestCompileNoServices(t *testing.T) {
	t.Parallel()
	r := Compile("version: \"3\"\n", "stack")
	if r.OK() {
		t.Fatal("expected 'No services defined'")
	}
	if r.Errors[0].Message != "No services defined" {
		t.Errorf("message = %q", r.Errors[0].Message)
	}
}

func TestCompileBlockedKeyRejection(t *testing.T) {
	t.Parallel()
	yaml := "services:\n  web:\n    image: nginx:latest\n    deploy:\n      replicas: 3\n"
	r := Compile(yaml, "stack")
	if r.OK() {
		t.Fatal("expected blocked-key error")
	}
	found := false
	for _, e := range r.Errors {
		if e.Path == "services.web.deploy" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected error at services.web.deploy, got %+v", r.Errors)
	}
}

func TestCompileBlockSetEnforcementForEveryBlockedKey(t *testing.T) {
	t.Parallel()
	for key := range blockedServiceKeys {
		yaml := "services:\n  svc:\n    image: nginx\n    " + key + ": anything\n"
		r := Compile(yaml, "stack")
		hit := false
		for _, e := range r.Errors {
			if e.Path == "services.svc."+key {
				hit = true
			}
		}
		if !hit {
			t.Errorf("blocked key %q did not produce an error at services.svc.%s: %+v", key, key, r.Errors)
		}
	}
}

func TestCompileUnknownServiceKeyWarns(t *testing.T) {
	t.Parallel()
	r := Compile("services:\n  web:\n    image: nginx\n    foobar: 1\n", "stack")
	if !r.OK() {
		t.Fatalf("unexpected errors: %+v", r.Errors)
	}
	found := false
	for _, w := range r.Warnings {
		if w.Path == "services.web.foobar" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected warning for unknown key, got %+v", r.Warnings)
	}
}

func TestCompileMissingImage(t *testing.T) {
	t.Parallel()
	r := Compile("services:\n  web:\n    ports:\n      - \"80:80\"\n", "stack")
	if r.OK() {
		t.Fatal("expected missing-image error")
	}
}

func TestCompileRestartWarns(t *testing.T) {
	t.Parallel()
	r := Compile("services:\n  web:\n    image: nginx\n    restart: unless-stopped\n", "stack")
	if !r.OK() {
		t.Fatalf("unexpected errors: %+v", r.Errors)
	}
	if len(r.Warnings) != 1 || !strings.Contains(r.Warnings[0].Message, "not enforced") {
		t.Errorf("warnings = %+v", r.Warnings)
	}
}

func TestCompileEnvironmentMappingForm(t *testing.T) {
	t.Parallel()
	yaml := "services:\n  web:\n    image: nginx\n    environment:\n      FOO: bar\n      BAZ:\n"
	r := Compile(yaml, "stack")
	env := r.Plan.Services["web"].Environment
	if env["FOO"] != "bar" {
		t.Errorf("FOO = %q", env["FOO"])
	}
	if v, ok := env["BAZ"]; !ok || v != "" {
		t.Errorf("BAZ = %q, ok=%v", v, ok)
	}
}

func TestCompileEnvironmentSequenceForm(t *testing.T) {
	t.Parallel()
	yaml := "services:\n  web:\n    image: nginx\n    environment:\n      - FOO=bar\n      - NOEQUALS\n"
	r := Compile(yaml, "stack")
	env := r.Plan.Services["web"].Environment
	if env["FOO"] != "bar" {
		t.Errorf("FOO = %q", env["FOO"])
	}
	if v, ok := env["NOEQUALS"]; !ok || v != "" {
		t.Errorf("NOEQUALS = %q, ok=%v", v, ok)
	}
}

func TestCompileDependsOnSequenceForm(t *testing.T) {
	t.Parallel()
	yaml := "services:\n  web:\n    image: nginx\n    depends_on:\n      - db\n  db:\n    image: postgres\n"
	r := Compile(yaml, "stack")
	deps := r.Plan.Services["web"].DependsOn
	if len(deps) != 1 || deps[0] != "db" {
		t.Errorf("DependsOn = %v", deps)
	}
}

func TestCompileDependsOnMappingFormWarns(t *testing.T) {
	t.Parallel()
	yaml := "services:\n  web:\n    image: nginx\n    depends_on:\n      db:\n        condition: service_healthy\n  db:\n    image: postgres\n"
	r := Compile(yaml, "stack")
	deps := r.Plan.Services["web"].DependsOn
	if len(deps) != 1 || deps[0] != "db" {
		t.Errorf("DependsOn = %v", deps)
	}
	found := false
	for _, w := range r.Warnings {
		if strings.Contains(w.Message, "conditions are ignored") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected conditions-ignored warning, got %+v", r.Warnings)
	}
}

func TestCompileTopLevelNetworksAndVolumes(t *testing.T) {
	t.Parallel()
	yaml := "services:\n  web:\n    image: nginx\nnetworks:\n  front:\n  back:\nvolumes:\n  data:\n"
	r := Compile(yaml, "stack")
	if len(r.Plan.Networks) != 2 {
		t.Errorf("Networks = %v", r.Plan.Networks)
	}
	if len(r.Plan.Volumes) != 1 || r.Plan.Volumes[0] != "data" {
		t.Errorf("Volumes = %v", r.Plan.Volumes)
	}
}

func TestCompileDeterminism(t *testing.T) {
	t.Parallel()
	yaml := "services:\n  web:\n    image: nginx\n    environment:\n      - A=1\n      - B=2\n    depends_on:\n      - db\n  db:\n    image: postgres\n"
	r1 := Compile(yaml, "stack")
	r2 := Compile(yaml, "stack")
	if r1.ErrorString() != r2.ErrorString() {
		t.Fatalf("non-deterministic errors: %q vs %q", r1.ErrorString(), r2.ErrorString())
	}
	if len(r1.Plan.Services) != len(r2.Plan.Services) {
		t.Fatalf("non-deterministic plan service count")
	}
}

func TestCompilePortsVolumesNetworksOnlySequences(t *testing.T) {
	t.Parallel()
	yaml := "services:\n  web:\n    image: nginx\n    ports: not-a-list\n"
	r := Compile(yaml, "stack")
	if r.Plan.Services["web"].Ports != nil {
		t.Errorf("expected nil Ports for non-sequence value, got %v", r.Plan.Services["web"].Ports)
	}
}
