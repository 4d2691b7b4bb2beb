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
	"path/filepath"

	"k8s.io/utils/ptr"

	"github.com/ks1990cn/aspire/api/v1alpha1"
	"github.com/ks1990cn/aspire/pkg/appmodel"
	"github.com/ks1990cn/aspire/pkg/metadata"
)

// prepare walks the declared model and fills the resource index: one
// Service entry per declared endpoint, then one workload entry per
// resource. Service entries are computed before the workload entry of the
// same resource so later stages can join on them. Single-threaded; the
// only phase that writes the index or the name set.
func (o *Orchestrator) prepare() error {
	for _, res := range o.model.Resources() {
		produced, err := o.prepareServices(res)
		if err != nil {
			return err
		}

		var we *workloadEntry
		switch res.Kind {
		case appmodel.KindProject, appmodel.KindExecutable:
			we, err = o.prepareExecutable(res, produced)
		case appmodel.KindContainer:
			we, err = o.prepareContainer(res, produced)
		default:
			err = &ConfigurationError{Resource: res.Name, Reason: "unknown resource kind"}
		}
		if err != nil {
			return err
		}
		o.index.addWorkload(we)
	}
	return nil
}

// prepareServices creates one Service descriptor per declared endpoint and
// registers the entries in the index.
func (o *Orchestrator) prepareServices(res *appmodel.Resource) ([]*serviceEntry, error) {
	endpoints := res.Endpoints()
	if len(endpoints) == 0 {
		return nil, nil
	}
	replicas := res.ReplicaCount()

	var produced []*serviceEntry
	for _, ep := range endpoints {
		if !ep.Proxied {
			if ep.Port == nil {
				return nil, &ConfigurationError{
					Resource: res.Name,
					Endpoint: ep.Name,
					Reason:   "non-proxied endpoints require an explicit port",
				}
			}
			if replicas > 1 {
				return nil, &ConfigurationError{
					Resource: res.Name,
					Endpoint: ep.Name,
					Reason:   "replicated resources cannot declare non-proxied endpoints",
				}
			}
		}

		base := res.Name
		if len(endpoints) > 1 {
			base = res.Name + "-" + ep.Name
		}
		name, err := uniqueServiceName(o.usedNames, base)
		if err != nil {
			return nil, err
		}

		svc := v1alpha1.NewService(name)
		svc.Spec.Protocol = descriptorProtocol(ep.Protocol)
		if ep.Port != nil {
			svc.Spec.Port = ptr.To(*ep.Port)
		}
		if !ep.Proxied {
			svc.Spec.AddressAllocationMode = v1alpha1.AddressAllocationModeProxyless
			svc.Spec.Address = ptr.To("localhost")
		}
		o.labelerFor(res).ApplyLabels(&svc.ObjectMeta)

		producer := v1alpha1.ServiceProducer{ServiceName: name}
		switch {
		case res.Kind == appmodel.KindContainer && ep.ContainerPort != nil:
			producer.Port = ptr.To(*ep.ContainerPort)
		case ep.Port != nil:
			producer.Port = ptr.To(*ep.Port)
		}

		se := &serviceEntry{resource: res, endpoint: ep, service: svc, producer: producer}
		o.index.addService(se)
		produced = append(produced, se)
	}
	return produced, nil
}

// prepareExecutable builds the Executable (or ExecutableReplicaSet)
// descriptor for a project or plain-executable resource.
func (o *Orchestrator) prepareExecutable(res *appmodel.Resource, produced []*serviceEntry) (*workloadEntry, error) {
	var spec v1alpha1.ExecutableSpec

	switch res.Kind {
	case appmodel.KindProject:
		meta, ok := appmodel.FirstOfType[appmodel.ProjectMetadata](&res.Annotations)
		if !ok {
			return nil, &ConfigurationError{Resource: res.Name, Reason: "project resource is missing project metadata"}
		}
		if res.Name == o.opts.DashboardName {
			if o.opts.DashboardPath == "" {
				return nil, &ConfigurationError{Resource: res.Name, Reason: "dashboard executable path is not configured"}
			}
			spec.ExecutablePath = o.opts.DashboardPath
			spec.WorkingDirectory = filepath.Dir(o.opts.DashboardPath)
			spec.ExecutionType = v1alpha1.ExecutionTypeProcess
		} else if o.lookupEnv(o.opts.DebugSessionEnvVar) != "" {
			// Interactive debug session: the IDE starts the process. The
			// selected launch profile is applied during environment
			// assembly; there is no command line to disable the runtime's
			// own profile handling on, so the assembled environment is
			// the profile.
			spec.ExecutionType = v1alpha1.ExecutionTypeIDE
			spec.ExecutablePath = meta.Path
			spec.WorkingDirectory = filepath.Dir(meta.Path)
		} else {
			// Direct-process execution. The model's environment must win
			// over any project-level launch profile, so the runner's own
			// profile handling is force-disabled during args assembly.
			spec.ExecutionType = v1alpha1.ExecutionTypeProcess
			spec.ExecutablePath = o.opts.ProjectRunnerPath
			spec.WorkingDirectory = filepath.Dir(meta.Path)
			verb := "run"
			if o.opts.Watch {
				verb = "watch"
			}
			spec.Args = []string{verb, "--project", meta.Path}
		}

	case appmodel.KindExecutable:
		meta, ok := appmodel.FirstOfType[appmodel.ExecutableMetadata](&res.Annotations)
		if !ok {
			return nil, &ConfigurationError{Resource: res.Name, Reason: "executable resource is missing executable metadata"}
		}
		spec.ExecutionType = v1alpha1.ExecutionTypeProcess
		spec.ExecutablePath = meta.Command
		spec.WorkingDirectory = meta.WorkingDirectory
		spec.Args = append([]string(nil), meta.Args...)
	}

	spec.ServiceProducers = producersOf(produced)

	we := &workloadEntry{resource: res, produces: produced}
	if replicas := res.ReplicaCount(); replicas > 1 {
		ers := v1alpha1.NewExecutableReplicaSet(res.Name)
		ers.Spec.Replicas = ptr.To(replicas)
		ers.Spec.Template = v1alpha1.ExecutableTemplate{Spec: spec}
		o.labelerFor(res).ApplyLabels(&ers.ObjectMeta)
		we.replicaSet = ers
	} else {
		exe := v1alpha1.NewExecutable(res.Name)
		exe.Spec = spec
		o.labelerFor(res).ApplyLabels(&exe.ObjectMeta)
		we.executable = exe
	}
	return we, nil
}

// prepareContainer builds the Container descriptor for a container
// resource. Port mappings and volume mounts are materialized later, at
// creation time.
func (o *Orchestrator) prepareContainer(res *appmodel.Resource, produced []*serviceEntry) (*workloadEntry, error) {
	meta, ok := appmodel.FirstOfType[appmodel.ContainerMetadata](&res.Annotations)
	if !ok {
		return nil, &ConfigurationError{Resource: res.Name, Reason: "container resource is missing container metadata"}
	}
	ctr := v1alpha1.NewContainer(res.Name)
	ctr.Spec.Image = meta.Image
	ctr.Spec.ServiceProducers = producersOf(produced)
	o.labelerFor(res).ApplyLabels(&ctr.ObjectMeta)
	return &workloadEntry{resource: res, container: ctr, produces: produced}, nil
}

func (o *Orchestrator) labelerFor(res *appmodel.Resource) metadata.Labeler {
	return metadata.NewResourceLabeler(o.opts.Application, res.Name, string(res.Kind))
}

func producersOf(produced []*serviceEntry) []v1alpha1.ServiceProducer {
	if len(produced) == 0 {
		return nil
	}
	out := make([]v1alpha1.ServiceProducer, 0, len(produced))
	for _, se := range produced {
		out = append(out, se.producer)
	}
	return out
}

func descriptorProtocol(p appmodel.Protocol) v1alpha1.PortProtocol {
	if p == appmodel.ProtocolUDP {
		return v1alpha1.ProtocolUDP
	}
	return v1alpha1.ProtocolTCP
}
