// Package compose compiles user-authored compose YAML into a validated
// Plan, and applies .env substitution ahead of compilation.
package compose

import "fmt"

// Plan is the immutable, normalised output of a successful (or
// partially-successful — see CompileResult) compile.
type Plan struct {
	StackName string
	Services  map[string]ServicePlan
	Networks  []string
	Volumes   []string
}

// ServicePlan is the normalised form of one compose service.
type ServicePlan struct {
	Image       string
	Command     string
	Environment map[string]string
	Ports       []string
	Volumes     []string
	Networks    []string
	WorkingDir  string
	User        string
	DependsOn   []string
}

// Diagnostic is one compiler error or warning.
type Diagnostic struct {
	Key     string
	Path    string
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Path, d.Message)
}

// CompileResult is the full output of Compile: a plan (possibly unusable),
// plus the errors and warnings accumulated while building it.
type CompileResult struct {
	Plan     Plan
	Errors   []Diagnostic
	Warnings []Diagnostic
}

// OK reports whether the plan is free of blocking errors.
func (r CompileResult) OK() bool {
	return len(r.Errors) == 0
}

// ErrorString concatenates every "path: message" diagnostic, in order, for
// surfacing as a single PreflightError message.
func (r CompileResult) ErrorString() string {
	s := ""
	for i, d := range r.Errors {
		if i > 0 {
			s += "; "
		}
		s += d.String()
	}
	return s
}
