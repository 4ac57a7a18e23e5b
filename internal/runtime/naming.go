package runtime

import (
	"strconv"
	"strings"
)

// namePrefix is the contract prefix external tooling relies on to recover
// stack membership from a container name.
const namePrefix = "dockgeac_"

// ContainerName returns the conventional name for a service instance:
// dockgeac_<stack>_<service>_<index>.
func ContainerName(stack, service string, index int) string {
	if index <= 0 {
		index = 1
	}
	return namePrefix + stack + "_" + service + "_" + strconv.Itoa(index)
}

// InferStack extracts the stack name from a container name by stripping
// the prefix and taking the first underscore-delimited segment. Used only
// as a fallback when no lock record exists for the container.
func InferStack(containerName string) (string, bool) {
	tail, ok := strings.CutPrefix(containerName, namePrefix)
	if !ok {
		return "", false
	}
	idx := strings.Index(tail, "_")
	if idx < 0 {
		return tail, tail != ""
	}
	return tail[:idx], true
}
