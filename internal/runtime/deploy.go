package runtime

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cfilipov/containerstack/internal/compose"
	"github.com/cfilipov/containerstack/internal/lockstore"
	"github.com/cfilipov/containerstack/internal/reference"
)

// topoOrder orders service names by dependsOn, ignoring edges to missing
// services. Cycles are broken by visitation order and are not reported.
func topoOrder(plan compose.Plan) []string {
	names := make([]string, 0, len(plan.Services))
	for name := range plan.Services {
		names = append(names, name)
	}
	// Deterministic starting order, independent of map iteration.
	sort.Strings(names)

	visited := make(map[string]bool, len(names))
	visiting := make(map[string]bool, len(names))
	var order []string

	var visit func(name string)
	visit = func(name string) {
		if visited[name] {
			return
		}
		if visiting[name] {
			return // cycle: stop descending, let the caller's order stand
		}
		visiting[name] = true
		if svc, ok := plan.Services[name]; ok {
			for _, dep := range svc.DependsOn {
				if _, exists := plan.Services[dep]; exists {
					visit(dep)
				}
			}
		}
		visiting[name] = false
		visited[name] = true
		order = append(order, name)
	}

	for _, name := range names {
		visit(name)
	}
	return order
}

// PullImage pulls image, honoring local-only references: if the reference
// is local-only, it fails fast unless the image is already present
// locally. Otherwise it invokes `image pull`; on failure it falls back to
// a local presence check and treats presence as success.
func (a *Adapter) PullImage(ctx context.Context, image string) error {
	if reference.IsLocalOnly(image) {
		if a.imagePresentLocally(ctx, image) {
			return nil
		}
		return fmt.Errorf("Local image %q not found", image)
	}

	res, err := a.run(ctx, "pull", "image", "pull", image)
	if err != nil {
		return err
	}
	if res.ExitCode == 0 {
		return nil
	}
	if a.imagePresentLocally(ctx, image) {
		return nil
	}
	return &RuntimeError{Op: "pull " + image, Stderr: res.Stderr}
}

func (a *Adapter) imagePresentLocally(ctx context.Context, image string) bool {
	images, err := a.listImages(ctx)
	if err != nil {
		return false
	}
	for _, img := range images {
		if reference.Equal(img.Reference, image) || img.Digest == image {
			return true
		}
	}
	return false
}

// Deploy realises plan as named containers, in dependsOn order, and writes
// a fresh LockRecord. Already-created containers from earlier services are
// not rolled back if a later service fails.
func (a *Adapter) Deploy(ctx context.Context, plan compose.Plan) error {
	order := topoOrder(plan)
	services := make(map[string]lockstore.ServiceRecord, len(order))

	for _, name := range order {
		svc := plan.Services[name]
		containerName := ContainerName(plan.StackName, name, 1)

		if err := a.PullImage(ctx, svc.Image); err != nil {
			return fmt.Errorf("service %s: %w", name, err)
		}

		args := []string{"run", "-d", "--name", containerName}
		for _, p := range svc.Ports {
			args = append(args, "-p", p)
		}
		for _, k := range envKeys(svc.Environment) {
			args = append(args, "-e", k+"="+svc.Environment[k])
		}
		for _, v := range svc.Volumes {
			args = append(args, "-v", v)
		}
		for _, n := range svc.Networks {
			args = append(args, "--network", n)
		}
		if svc.WorkingDir != "" {
			args = append(args, "-w", svc.WorkingDir)
		}
		if svc.User != "" {
			args = append(args, "--user", svc.User)
		}
		args = append(args, svc.Image)
		if svc.Command != "" {
			args = append(args, strings.Fields(svc.Command)...)
		}

		res, err := a.run(ctx, "run "+name, args...)
		if err != nil {
			return fmt.Errorf("service %s: %w", name, err)
		}
		if res.ExitCode != 0 {
			return fmt.Errorf("service %s: %w", name, &RuntimeError{Op: "run " + name, Stderr: res.Stderr})
		}

		services[name] = lockstore.ServiceRecord{
			ContainerName: containerName,
			Image:         svc.Image,
			CreatedAt:     lockstore.Now(),
		}
	}

	rec := lockstore.LockRecord{
		StackName:    plan.StackName,
		Fingerprint:  "",
		Services:     services,
		Networks:     plan.Networks,
		Volumes:      plan.Volumes,
		LastDeployed: lockstore.Now(),
	}
	return a.Locks.Write(plan.StackName, rec)
}

// envKeys returns env's keys in sorted order so -e flags are emitted
// deterministically despite Environment being a Go map.
func envKeys(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// targetContainers resolves the set of container names addressed by an
// operation against stackName and an optional serviceName. With a
// LockRecord the listed containers are targeted (narrowed to serviceName
// if given); without one, the single name stackName covers a legacy
// external container, and a named service resolves to nothing.
func (a *Adapter) targetContainers(stackName, serviceName string) []string {
	rec := a.Locks.Read(stackName)
	if rec != nil {
		if serviceName != "" {
			if svc, ok := rec.Services[serviceName]; ok {
				return []string{svc.ContainerName}
			}
			return nil
		}
		names := make([]string, 0, len(rec.Services))
		for _, svc := range rec.Services {
			names = append(names, svc.ContainerName)
		}
		return names
	}
	if serviceName == "" {
		return []string{stackName}
	}
	return nil
}

// Start starts every target container for stackName (optionally narrowed
// to serviceName).
func (a *Adapter) Start(ctx context.Context, stackName, serviceName string) error {
	return a.forEachTarget(ctx, "start", stackName, serviceName)
}

// Stop stops every target container.
func (a *Adapter) Stop(ctx context.Context, stackName, serviceName string) error {
	return a.forEachTarget(ctx, "stop", stackName, serviceName)
}

// Restart stops then starts every target container.
func (a *Adapter) Restart(ctx context.Context, stackName, serviceName string) error {
	if err := a.Stop(ctx, stackName, serviceName); err != nil {
		return err
	}
	return a.Start(ctx, stackName, serviceName)
}

func (a *Adapter) forEachTarget(ctx context.Context, verb, stackName, serviceName string) error {
	for _, name := range a.targetContainers(stackName, serviceName) {
		res, err := a.run(ctx, verb+" "+name, verb, name)
		if err != nil {
			return err
		}
		if res.ExitCode != 0 {
			return &RuntimeError{Op: verb + " " + name, Stderr: res.Stderr}
		}
	}
	return nil
}

// Down stops and removes every container the stack owns, optionally
// removing its declared volumes, then deletes the LockRecord. Without a
// LockRecord, it attempts to stop/delete a container literally named
// stackName, covering externally created singletons.
func (a *Adapter) Down(ctx context.Context, stackName string, removeVolumes bool) error {
	rec := a.Locks.Read(stackName)
	if rec == nil {
		_, _ = a.run(ctx, "stop "+stackName, "stop", stackName)
		res, err := a.run(ctx, "delete "+stackName, "delete", stackName)
		if err != nil {
			return err
		}
		if res.ExitCode != 0 {
			return &RuntimeError{Op: "delete " + stackName, Stderr: res.Stderr}
		}
		return nil
	}

	for _, svc := range rec.Services {
		_, _ = a.run(ctx, "stop "+svc.ContainerName, "stop", svc.ContainerName)
	}
	for _, svc := range rec.Services {
		res, err := a.run(ctx, "delete "+svc.ContainerName, "delete", svc.ContainerName)
		if err != nil {
			return err
		}
		if res.ExitCode != 0 {
			return &RuntimeError{Op: "delete " + svc.ContainerName, Stderr: res.Stderr}
		}
	}
	if removeVolumes {
		for _, vol := range rec.Volumes {
			res, err := a.run(ctx, "volume delete "+vol, "volume", "delete", vol)
			if err != nil {
				return err
			}
			if res.ExitCode != 0 {
				return &RuntimeError{Op: "volume delete " + vol, Stderr: res.Stderr}
			}
		}
	}
	return a.Locks.Delete(stackName)
}
