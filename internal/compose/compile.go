package compose

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var supportedServiceKeys = map[string]struct{}{
	"image": {}, "command": {}, "entrypoint": {}, "environment": {}, "env_file": {},
	"ports": {}, "volumes": {}, "networks": {}, "working_dir": {}, "user": {},
	"depends_on": {}, "container_name": {}, "stdin_open": {}, "tty": {}, "restart": {},
}

var blockedServiceKeys = map[string]struct{}{
	"deploy": {}, "profiles": {}, "secrets": {}, "configs": {}, "healthcheck": {}, "build": {},
	"cap_add": {}, "cap_drop": {}, "cgroup_parent": {}, "devices": {}, "dns": {}, "dns_search": {},
	"domainname": {}, "external_links": {}, "extra_hosts": {}, "init": {}, "ipc": {}, "isolation": {},
	"labels": {}, "links": {}, "logging": {}, "network_mode": {}, "pid": {}, "platform": {},
	"privileged": {}, "read_only": {}, "security_opt": {}, "shm_size": {}, "sysctls": {},
	"tmpfs": {}, "ulimits": {}, "userns_mode": {},
}

var supportedTopLevelKeys = map[string]struct{}{
	"services": {}, "networks": {}, "volumes": {}, "version": {}, "name": {},
}

// Compile parses raw compose YAML for stackName and produces a CompileResult.
// A Plan is always returned, even when Errors is non-empty; callers decide
// whether to proceed with a Plan that failed compilation.
func Compile(yamlText, stackName string) CompileResult {
	c := &compiler{result: CompileResult{Plan: Plan{StackName: stackName, Services: map[string]ServicePlan{}}}}
	c.run(yamlText)
	return c.result
}

// Validate runs Compile and discards the plan, returning only diagnostics.
func Validate(yamlText, stackName string) ([]Diagnostic, []Diagnostic) {
	r := Compile(yamlText, stackName)
	return r.Errors, r.Warnings
}

type compiler struct {
	result CompileResult
}

func (c *compiler) addError(key, path, message string) {
	c.result.Errors = append(c.result.Errors, Diagnostic{Key: key, Path: path, Message: message})
}

func (c *compiler) addWarning(key, path, message string) {
	c.result.Warnings = append(c.result.Warnings, Diagnostic{Key: key, Path: path, Message: message})
}

func (c *compiler) run(yamlText string) {
	// Rule 1: empty/whitespace-only input.
	if strings.TrimSpace(yamlText) == "" {
		c.addError("", "", "Empty compose file")
		return
	}

	// Rule 2: parse as YAML.
	var doc any
	if err := yaml.Unmarshal([]byte(yamlText), &doc); err != nil {
		c.addError("", "", err.Error())
		return
	}

	// Rule 3: root must be a mapping.
	root, ok := doc.(map[string]any)
	if !ok {
		c.addError("", "", "Invalid compose file: not an object")
		return
	}

	// Rule 4: reject unknown top-level keys.
	for _, key := range sortedKeys(root) {
		if _, known := supportedTopLevelKeys[key]; !known {
			c.addError(key, key, fmt.Sprintf("Unknown top-level key %q", key))
		}
	}

	// Rule 5: services must exist and be a mapping.
	rawServices, hasServices := root["services"]
	if !hasServices {
		c.addError("services", "services", "No services defined")
		return
	}
	servicesMap, ok := rawServices.(map[string]any)
	if !ok {
		c.addError("services", "services", "No services defined")
		return
	}

	for _, name := range sortedKeys(servicesMap) {
		c.compileService(name, servicesMap[name])
	}

	// Rule 12: top-level networks/volumes, when object-valued, surface as
	// their key list.
	c.result.Plan.Networks = topLevelNameList(root, "networks")
	c.result.Plan.Volumes = topLevelNameList(root, "volumes")
}

func (c *compiler) compileService(name string, raw any) {
	svcMap, ok := raw.(map[string]any)
	if !ok {
		c.addError("", "services."+name, "Service must be an object")
		return
	}

	sp := ServicePlan{}

	for _, key := range sortedKeys(svcMap) {
		path := "services." + name + "." + key
		if _, blocked := blockedServiceKeys[key]; blocked {
			c.addError(key, path, fmt.Sprintf("Key %q is not supported by this runtime", key))
			continue
		}
		if _, known := supportedServiceKeys[key]; !known {
			c.addWarning(key, path, fmt.Sprintf("Unknown key %q ignored", key))
		}
	}

	// Rule 7: image required and truthy.
	image, _ := svcMap["image"].(string)
	if strings.TrimSpace(image) == "" {
		c.addError("image", "services."+name+".image", "Service is missing a required image")
		return
	}
	sp.Image = image

	// Rule 8: restart parsed but not enforced.
	if _, present := svcMap["restart"]; present {
		c.addWarning("restart", "services."+name+".restart", "restart is parsed but not enforced")
	}

	// Rule 9: normalise environment.
	if raw, present := svcMap["environment"]; present {
		sp.Environment = normaliseEnvironment(raw)
	}

	// Rule 10: normalise depends_on.
	if raw, present := svcMap["depends_on"]; present {
		sp.DependsOn = c.normaliseDependsOn(name, raw)
	}

	// Rule 11: stringified scalars and sequence-only list fields.
	sp.Command = stringify(svcMap["command"])
	sp.WorkingDir = stringify(svcMap["working_dir"])
	sp.User = stringify(svcMap["user"])
	sp.Ports = stringifySequence(svcMap["ports"])
	sp.Volumes = stringifySequence(svcMap["volumes"])
	sp.Networks = stringifySequence(svcMap["networks"])

	c.result.Plan.Services[name] = sp
}

func normaliseEnvironment(raw any) map[string]string {
	out := map[string]string{}
	switch v := raw.(type) {
	case map[string]any:
		for _, k := range sortedKeys(v) {
			val := v[k]
			if val == nil {
				out[k] = ""
				continue
			}
			out[k] = fmt.Sprintf("%v", val)
		}
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				continue
			}
			if idx := strings.Index(s, "="); idx >= 0 {
				out[s[:idx]] = s[idx+1:]
			} else {
				out[s] = ""
			}
		}
	}
	return out
}

func (c *compiler) normaliseDependsOn(serviceName string, raw any) []string {
	switch v := raw.(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case map[string]any:
		keys := sortedKeys(v)
		c.addWarning("depends_on", "services."+serviceName+".depends_on",
			"depends_on conditions are ignored")
		return keys
	default:
		return nil
	}
}

func stringify(raw any) string {
	if raw == nil {
		return ""
	}
	return fmt.Sprintf("%v", raw)
}

func stringifySequence(raw any) []string {
	seq, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(seq))
	for _, item := range seq {
		out = append(out, fmt.Sprintf("%v", item))
	}
	return out
}

func topLevelNameList(root map[string]any, key string) []string {
	raw, ok := root[key]
	if !ok {
		return nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	return sortedKeys(obj)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
