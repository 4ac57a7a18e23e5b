package runtime

import (
	"encoding/json"
	"strings"
)

// ContainerStatus is the parsed, typed form of one runtime container record.
type ContainerStatus struct {
	Name      string
	Image     string
	State     string // running, stopped, created, unknown
	ExitCode  *int
	StartedAt *string
}

// parseJSONOrJSONL tolerates both output shapes the runtime emits: try one
// full json.Unmarshal; if that fails or yields a non-array, treat the
// output as newline-delimited JSON, parsing each non-empty line and
// dropping lines that fail to parse. A single top-level object is wrapped
// as a one-element array.
func parseJSONOrJSONL(raw []byte) []map[string]any {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil
	}

	var asArray []map[string]any
	if err := json.Unmarshal([]byte(trimmed), &asArray); err == nil {
		return asArray
	}

	var asObject map[string]any
	if err := json.Unmarshal([]byte(trimmed), &asObject); err == nil {
		return []map[string]any{asObject}
	}

	var out []map[string]any
	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			continue
		}
		out = append(out, obj)
	}
	return out
}

// field reads a key from obj, tolerating casing variance across the given
// alternatives, and falling back to a nested "configuration" object that
// carries the same fields.
func field(obj map[string]any, names ...string) (any, bool) {
	for _, n := range names {
		if v, ok := obj[n]; ok {
			return v, true
		}
	}
	if cfg, ok := obj["configuration"].(map[string]any); ok {
		for _, n := range names {
			if v, ok := cfg[n]; ok {
				return v, true
			}
		}
	}
	return nil, false
}

func stringField(obj map[string]any, names ...string) string {
	v, ok := field(obj, names...)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case []any:
		// "Names" can be a list; take the first entry.
		if len(t) > 0 {
			if s, ok := t[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

// imageField reads the container's image reference, tolerating both a
// plain string and an object carrying a nested reference field.
func imageField(obj map[string]any) string {
	v, ok := field(obj, "image", "Image")
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		if ref, ok := t["reference"].(string); ok {
			return ref
		}
		if ref, ok := t["Reference"].(string); ok {
			return ref
		}
	}
	return ""
}

func intField(obj map[string]any, names ...string) *int {
	v, ok := field(obj, names...)
	if !ok {
		return nil
	}
	if f, ok := v.(float64); ok {
		n := int(f)
		return &n
	}
	return nil
}

// isBuilderContainer reports whether obj carries the runtime-internal
// builder role label and should be filtered out of every listing.
func isBuilderContainer(obj map[string]any) bool {
	labels, ok := field(obj, "labels", "Labels")
	if !ok {
		if cfg, ok := obj["configuration"].(map[string]any); ok {
			labels, ok = cfg["labels"]
			if !ok {
				return false
			}
		} else {
			return false
		}
	}
	m, ok := labels.(map[string]any)
	if !ok {
		return false
	}
	role, _ := m["com.apple.container.resource.role"].(string)
	return role == "builder"
}

// ParseContainerList parses `container list [--all] --format json` output
// into typed ContainerStatus records, filtering out builder containers.
func ParseContainerList(raw []byte) []ContainerStatus {
	objs := parseJSONOrJSONL(raw)
	out := make([]ContainerStatus, 0, len(objs))
	for _, obj := range objs {
		if isBuilderContainer(obj) {
			continue
		}
		name := stringField(obj, "name", "Name", "Names", "id", "ID")
		if name == "" {
			continue
		}
		state := strings.ToLower(stringField(obj, "state", "State", "status", "Status"))
		if state == "" {
			state = "unknown"
		}
		startedAt := stringField(obj, "startedAt", "StartedAt", "startedDate")
		cs := ContainerStatus{Name: name, Image: imageField(obj), State: state, ExitCode: intField(obj, "exitCode", "ExitCode")}
		if startedAt != "" {
			cs.StartedAt = &startedAt
		}
		out = append(out, cs)
	}
	return out
}

// ImageRecord is one parsed `container image list --format json` entry.
type ImageRecord struct {
	Reference  string
	Digest     string
	InUseCount int
}

// ParseImageList parses `container image list --format json` output.
func ParseImageList(raw []byte) []ImageRecord {
	objs := parseJSONOrJSONL(raw)
	out := make([]ImageRecord, 0, len(objs))
	for _, obj := range objs {
		ref := stringField(obj, "reference", "Reference", "name", "Name")
		digest := stringField(obj, "digest", "Digest")
		if ref == "" && digest == "" {
			continue
		}
		out = append(out, ImageRecord{Reference: ref, Digest: digest})
	}
	return out
}

// ParseNetworkList parses `container network list --format json` output,
// projecting the "name" field.
func ParseNetworkList(raw []byte) []string {
	objs := parseJSONOrJSONL(raw)
	out := make([]string, 0, len(objs))
	for _, obj := range objs {
		if name := stringField(obj, "name", "Name"); name != "" {
			out = append(out, name)
		}
	}
	return out
}
