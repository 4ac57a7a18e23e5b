package runtime

import (
	"context"

	"github.com/cfilipov/containerstack/internal/rollup"
)

// ServiceStatus pairs a service name with its rolled-up runtime state,
// as reported for one container instance.
type ServiceStatus struct {
	ServiceName   string
	ContainerName string
	State         rollup.State
	ExitCode      *int
}

// GetServiceStatusList reports per-container status for a stack. With a
// LockRecord, every listed service is reported — a service whose container
// has vanished is reported as rollup.StateUnknown. Without a LockRecord,
// every live container whose name equals stackName, or whose inferred
// stack prefix matches, is reported.
func (a *Adapter) GetServiceStatusList(ctx context.Context, stackName string) ([]ServiceStatus, error) {
	live, err := a.listAll(ctx)
	if err != nil {
		return nil, err
	}

	rec := a.Locks.Read(stackName)
	if rec == nil {
		out := make([]ServiceStatus, 0)
		for _, c := range live {
			if c.Name == stackName {
				out = append(out, ServiceStatus{ServiceName: c.Name, ContainerName: c.Name, State: ToRollupState(c.State), ExitCode: c.ExitCode})
				continue
			}
			if stack, ok := InferStack(c.Name); ok && stack == stackName {
				out = append(out, ServiceStatus{ServiceName: c.Name, ContainerName: c.Name, State: ToRollupState(c.State), ExitCode: c.ExitCode})
			}
		}
		return out, nil
	}

	byName := statusByName(live)
	out := make([]ServiceStatus, 0, len(rec.Services))
	for svcName, svc := range rec.Services {
		st, ok := byName[svc.ContainerName]
		if !ok {
			out = append(out, ServiceStatus{ServiceName: svcName, ContainerName: svc.ContainerName, State: rollup.StateUnknown})
			continue
		}
		out = append(out, ServiceStatus{
			ServiceName:   svcName,
			ContainerName: svc.ContainerName,
			State:         ToRollupState(st.State),
			ExitCode:      st.ExitCode,
		})
	}
	return out, nil
}

// GetAllStackStatus groups every observed container by stack — authoritative
// LockRecord ownership first, falling back to the naming-convention prefix,
// then to the container's own name as its stack — rolls up each group's
// states, and reports UNKNOWN for any locked stack that produced no
// observed containers. The reserved stack name is dropped throughout.
func (a *Adapter) GetAllStackStatus(ctx context.Context) (map[string]rollup.Code, error) {
	live, err := a.listAll(ctx)
	if err != nil {
		return nil, err
	}

	containerStack := make(map[string]string)
	lockedNames := a.Locks.ListAll()
	for _, name := range lockedNames {
		rec := a.Locks.Read(name)
		if rec == nil {
			continue
		}
		for _, svc := range rec.Services {
			containerStack[svc.ContainerName] = name
		}
	}

	grouped := make(map[string][]rollup.State)
	for _, c := range live {
		stack, ok := containerStack[c.Name]
		if !ok {
			stack, ok = InferStack(c.Name)
		}
		if !ok {
			stack = c.Name
		}
		if stack == reservedStackName {
			continue
		}
		grouped[stack] = append(grouped[stack], ToRollupState(c.State))
	}

	out := make(map[string]rollup.Code, len(grouped))
	for stack, states := range grouped {
		out[stack] = rollup.Rollup(states)
	}
	for _, name := range lockedNames {
		if name == reservedStackName {
			continue
		}
		if _, ok := out[name]; !ok {
			out[name] = rollup.Unknown
		}
	}
	return out, nil
}
