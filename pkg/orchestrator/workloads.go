// Copyright 2025 The Aspire Orchestrator Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package orchestrator

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/ks1990cn/aspire/api/v1alpha1"
	"github.com/ks1990cn/aspire/pkg/appmodel"
	"github.com/ks1990cn/aspire/pkg/notifications"
)

// createWorkloads materializes every workload descriptor. Executables and
// containers run as two concurrent groups; within each group every
// resource is created on its own goroutine. A failing resource is logged
// and reported, never propagated: the rest of the application still comes
// up.
func (o *Orchestrator) createWorkloads(ctx context.Context) {
	var executables, containers []*workloadEntry
	for _, we := range o.index.workloads {
		if we.container != nil {
			containers = append(containers, we)
		} else {
			executables = append(executables, we)
		}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		o.createExecutableGroup(ctx, executables)
	}()
	go func() {
		defer wg.Done()
		o.createGroup(ctx, containers)
	}()
	wg.Wait()
}

// createExecutableGroup starts the dashboard, when present, before the
// rest of the group: other executables may want its address on their
// first log line.
func (o *Orchestrator) createExecutableGroup(ctx context.Context, entries []*workloadEntry) {
	rest := entries
	for i, we := range entries {
		if we.resource.Name == o.opts.DashboardName {
			o.createWorkload(ctx, we)
			rest = append(append([]*workloadEntry{}, entries[:i]...), entries[i+1:]...)
			break
		}
	}
	o.createGroup(ctx, rest)
}

func (o *Orchestrator) createGroup(ctx context.Context, entries []*workloadEntry) {
	var wg sync.WaitGroup
	for _, we := range entries {
		wg.Add(1)
		go func(we *workloadEntry) {
			defer wg.Done()
			o.createWorkload(ctx, we)
		}(we)
	}
	wg.Wait()
}

// createWorkload publishes the Starting state, assembles the workload's
// environment and arguments, and creates the descriptor. Errors stop this
// resource only.
func (o *Orchestrator) createWorkload(ctx context.Context, we *workloadEntry) {
	log := o.resourceLogger(we.resource)
	o.notifier.PublishUpdate(we.resource.Name, func(s *notifications.Snapshot) {
		s.ResourceType = we.resourceType()
		s.State = notifications.StateStarting
	})
	if err := o.materialize(ctx, we); err != nil {
		log.Error(err, "failed to start resource")
		o.metrics.recordStartFailure(we.resourceType())
		o.notifier.PublishUpdate(we.resource.Name, func(s *notifications.Snapshot) {
			s.State = notifications.StateFailedToStart
		})
		return
	}
	o.metrics.recordCreated(we.resourceType())
	log.V(1).Info("workload created", "object", we.objectName())
}

func (o *Orchestrator) materialize(ctx context.Context, we *workloadEntry) error {
	env, err := o.buildEnvironment(ctx, we)
	if err != nil {
		return err
	}
	args, err := o.buildArgs(ctx, we)
	if err != nil {
		return err
	}

	switch {
	case we.executable != nil:
		we.executable.Spec.Env = envVarList(env)
		we.executable.Spec.Args = args
		_, err = o.cp.CreateExecutable(ctx, we.executable)
	case we.replicaSet != nil:
		we.replicaSet.Spec.Template.Spec.Env = envVarList(env)
		we.replicaSet.Spec.Template.Spec.Args = args
		_, err = o.cp.CreateExecutableReplicaSet(ctx, we.replicaSet)
	case we.container != nil:
		ports, perr := o.buildContainerPorts(we)
		if perr != nil {
			return perr
		}
		mounts, merr := buildVolumeMounts(we.resource)
		if merr != nil {
			return merr
		}
		we.container.Spec.Env = envVarList(env)
		we.container.Spec.Args = args
		we.container.Spec.Ports = ports
		we.container.Spec.VolumeMounts = mounts
		_, err = o.cp.CreateContainer(ctx, we.container)
	}
	return err
}

// buildContainerPorts maps every produced endpoint to a port mapping. A
// container endpoint must pin the in-container port; there is no runtime
// mechanism to tell the containerized process which port it was given.
func (o *Orchestrator) buildContainerPorts(we *workloadEntry) ([]v1alpha1.ContainerPort, error) {
	var ports []v1alpha1.ContainerPort
	for _, se := range we.produces {
		if se.endpoint.ContainerPort == nil {
			return nil, &ConfigurationError{
				Resource: we.resource.Name,
				Endpoint: se.endpoint.Name,
				Reason:   "container endpoints must declare a container port",
			}
		}
		p := v1alpha1.ContainerPort{
			ContainerPort: *se.endpoint.ContainerPort,
			HostIP:        o.opts.BindAddress,
			Protocol:      descriptorProtocol(se.endpoint.Protocol),
		}
		if !se.endpoint.Proxied {
			p.HostPort = se.endpoint.Port
		}
		ports = append(ports, p)
	}
	return ports, nil
}

func buildVolumeMounts(res *appmodel.Resource) ([]v1alpha1.VolumeMount, error) {
	var mounts []v1alpha1.VolumeMount
	for _, m := range res.VolumeMounts() {
		out := v1alpha1.VolumeMount{
			Target:   m.Target,
			ReadOnly: m.ReadOnly,
		}
		switch m.Type {
		case appmodel.MountTypeBind:
			if m.Source == "" {
				return nil, &ConfigurationError{
					Resource: res.Name,
					Reason:   "bind mounts require a source path",
				}
			}
			abs, err := filepath.Abs(m.Source)
			if err != nil {
				return nil, err
			}
			out.Type = v1alpha1.VolumeMountTypeBind
			out.Source = abs
		case appmodel.MountTypeVolume:
			// Anonymous volumes leave Source empty.
			out.Type = v1alpha1.VolumeMountTypeVolume
			out.Source = m.Source
		}
		mounts = append(mounts, out)
	}
	return mounts, nil
}
