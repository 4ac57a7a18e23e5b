package reference

import (
	"reflect"
	"testing"
)

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestCandidatesBareName(t *testing.T) {
	t.Parallel()
	got := Candidates("nginx")
	if !contains(got, "nginx") {
		t.Errorf("expected nginx in %v", got)
	}
	if !contains(got, "docker.io/library/nginx") {
		t.Errorf("expected docker.io/library/nginx in %v", got)
	}
}

func TestCandidatesDigest(t *testing.T) {
	t.Parallel()
	got := Candidates("nginx@sha256:abc")
	if !contains(got, "nginx") {
		t.Errorf("expected digest stripped to nginx in %v", got)
	}
}

func TestCandidatesNamespaced(t *testing.T) {
	t.Parallel()
	got := Candidates("library/nginx")
	if !contains(got, "docker.io/library/nginx") {
		t.Errorf("expected docker.io/library/nginx in %v", got)
	}
}

func TestCandidatesRegistryHostNotExpanded(t *testing.T) {
	t.Parallel()
	got := Candidates("ghcr.io/org/app")
	if contains(got, "docker.io/ghcr.io/org/app") {
		t.Errorf("should not prepend docker.io to a host-qualified ref: %v", got)
	}
}

func TestCandidatesDeduplicated(t *testing.T) {
	t.Parallel()
	got := Candidates("nginx")
	seen := map[string]int{}
	for _, c := range got {
		seen[c]++
	}
	for c, n := range seen {
		if n > 1 {
			t.Errorf("candidate %q duplicated", c)
		}
	}
}

func TestIsLocalOnly(t *testing.T) {
	t.Parallel()
	cases := map[string]bool{
		"app:local":        true,
		"localhost/app":    true,
		"localhost/app:v1": true,
		"nginx:latest":     false,
		"nginx":            false,
	}
	for ref, want := range cases {
		if got := IsLocalOnly(ref); got != want {
			t.Errorf("IsLocalOnly(%q) = %v, want %v", ref, got, want)
		}
	}
}

func TestEqualAcrossCandidateForms(t *testing.T) {
	t.Parallel()
	if !Equal("nginx", "docker.io/library/nginx") {
		t.Error("expected nginx == docker.io/library/nginx")
	}
	if !Equal("nginx@sha256:abc", "nginx") {
		t.Error("expected digest-qualified ref to equal its bare name")
	}
	if Equal("nginx", "redis") {
		t.Error("unrelated images should not be equal")
	}
}

func TestCandidatesOrderStable(t *testing.T) {
	t.Parallel()
	a := Candidates("nginx")
	b := Candidates("nginx")
	if !reflect.DeepEqual(a, b) {
		t.Errorf("Candidates is not deterministic: %v vs %v", a, b)
	}
}
