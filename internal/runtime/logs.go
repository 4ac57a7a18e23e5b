package runtime

import (
	"context"
	"fmt"
	"io"
	"strconv"
)

// Logs returns a lazy, potentially unbounded stream of log bytes for the
// service's container. tail <= 0 omits --tail entirely. The caller is
// responsible for closing the returned reader, which terminates the
// underlying process; re-invoking Logs restarts the stream.
func (a *Adapter) Logs(ctx context.Context, stackName, serviceName string, tail int, follow bool) (io.ReadCloser, error) {
	targets := a.targetContainers(stackName, serviceName)
	if len(targets) == 0 {
		return nil, fmt.Errorf("no container found for %s/%s", stackName, serviceName)
	}

	args := []string{"logs"}
	if tail > 0 {
		args = append(args, "--tail", strconv.Itoa(tail))
	}
	if follow {
		args = append(args, "--follow")
	}
	args = append(args, targets[0])
	return a.Driver.Stream(ctx, args...)
}

// ExecDescription is the invocation description for an interactive exec
// session: the argv the caller should hand to the runtime CLI. Spawning and
// attaching the terminal is the caller's concern.
type ExecDescription struct {
	ContainerName string
	Args          []string
}

// Exec resolves the container and argv for an exec invocation against a
// service, without spawning it.
func (a *Adapter) Exec(ctx context.Context, stackName, serviceName string, command []string) (ExecDescription, error) {
	targets := a.targetContainers(stackName, serviceName)
	if len(targets) == 0 {
		return ExecDescription{}, fmt.Errorf("no container found for %s/%s", stackName, serviceName)
	}
	if len(command) == 0 {
		command = []string{"/bin/sh"}
	}
	args := append([]string{"exec", "-it", targets[0]}, command...)
	return ExecDescription{ContainerName: targets[0], Args: args}, nil
}
