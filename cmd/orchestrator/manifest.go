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

package main

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"

	"github.com/ks1990cn/aspire/pkg/appmodel"
)

// manifest is the YAML surface of an application model.
type manifest struct {
	Application string             `json:"application,omitempty"`
	Resources   []manifestResource `json:"resources"`
}

type manifestResource struct {
	Name       string              `json:"name"`
	Project    *manifestProject    `json:"project,omitempty"`
	Executable *manifestExecutable `json:"executable,omitempty"`
	Container  *manifestContainer  `json:"container,omitempty"`

	Replicas  int32              `json:"replicas,omitempty"`
	Endpoints []manifestEndpoint `json:"endpoints,omitempty"`
	Env       map[string]string  `json:"env,omitempty"`
	Args      []string           `json:"args,omitempty"`

	ConnectionString string              `json:"connectionString,omitempty"`
	References       []manifestReference `json:"references,omitempty"`
}

type manifestProject struct {
	Path                  string                            `json:"path"`
	LaunchProfiles        map[string]appmodel.LaunchProfile `json:"launchProfiles,omitempty"`
	SelectedLaunchProfile string                            `json:"selectedLaunchProfile,omitempty"`
}

type manifestExecutable struct {
	Command          string   `json:"command"`
	WorkingDirectory string   `json:"workingDirectory,omitempty"`
	Args             []string `json:"args,omitempty"`
}

type manifestContainer struct {
	Image        string          `json:"image"`
	VolumeMounts []manifestMount `json:"volumeMounts,omitempty"`
}

type manifestMount struct {
	Type     string `json:"type,omitempty"`
	Source   string `json:"source,omitempty"`
	Target   string `json:"target"`
	ReadOnly bool   `json:"readOnly,omitempty"`
}

type manifestEndpoint struct {
	Name          string `json:"name"`
	Scheme        string `json:"scheme,omitempty"`
	Protocol      string `json:"protocol,omitempty"`
	Port          *int32 `json:"port,omitempty"`
	Proxied       bool   `json:"proxied,omitempty"`
	ContainerPort *int32 `json:"containerPort,omitempty"`
	EnvVar        string `json:"envVar,omitempty"`
}

// manifestReference wires one resource's environment to another resource.
// Endpoints listed mean service discovery variables; connectionString
// means the target's connection string.
type manifestReference struct {
	Target           string   `json:"target"`
	Endpoints        []string `json:"endpoints,omitempty"`
	ConnectionString bool     `json:"connectionString,omitempty"`
	Optional         bool     `json:"optional,omitempty"`
}

// loadManifest reads and validates a manifest file and builds the
// application model from it. References are wired in a second pass so a
// resource can point at one declared later in the file.
func loadManifest(path string) (*appmodel.Application, string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading manifest: %w", err)
	}
	var m manifest
	if err := yaml.UnmarshalStrict(raw, &m); err != nil {
		return nil, "", fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	app, err := buildModel(&m)
	if err != nil {
		return nil, "", err
	}
	name := m.Application
	if name == "" {
		name = "app"
	}
	return app, name, nil
}

func buildModel(m *manifest) (*appmodel.Application, error) {
	app := appmodel.NewApplication()

	for i := range m.Resources {
		res, err := buildResource(&m.Resources[i])
		if err != nil {
			return nil, err
		}
		if err := app.Add(res); err != nil {
			return nil, err
		}
	}

	// Second pass: references, now that every target exists.
	for i := range m.Resources {
		mr := &m.Resources[i]
		res, _ := app.Resource(mr.Name)
		for _, ref := range mr.References {
			target, ok := app.Resource(ref.Target)
			if !ok {
				return nil, fmt.Errorf("resource %q references unknown resource %q", mr.Name, ref.Target)
			}
			if ref.ConnectionString {
				res.WithConnectionStringReference(target, ref.Optional)
			}
			if len(ref.Endpoints) > 0 {
				res.WithServiceReference(target, ref.Endpoints...)
			}
		}
	}
	return app, nil
}

func buildResource(mr *manifestResource) (*appmodel.Resource, error) {
	var res *appmodel.Resource
	switch {
	case mr.Project != nil:
		res = appmodel.NewProject(mr.Name, mr.Project.Path)
		if len(mr.Project.LaunchProfiles) > 0 {
			res.WithLaunchProfiles(mr.Project.LaunchProfiles)
		}
		if mr.Project.SelectedLaunchProfile != "" {
			res.WithSelectedLaunchProfile(mr.Project.SelectedLaunchProfile)
		}
	case mr.Executable != nil:
		res = appmodel.NewExecutable(mr.Name, mr.Executable.Command,
			mr.Executable.WorkingDirectory, mr.Executable.Args...)
	case mr.Container != nil:
		res = appmodel.NewContainer(mr.Name, mr.Container.Image)
		for _, vm := range mr.Container.VolumeMounts {
			res.WithVolumeMount(appmodel.VolumeMount{
				Type:     appmodel.MountType(vm.Type),
				Source:   vm.Source,
				Target:   vm.Target,
				ReadOnly: vm.ReadOnly,
			})
		}
	default:
		return nil, fmt.Errorf("resource %q declares no project, executable or container", mr.Name)
	}

	if mr.Replicas > 1 {
		res.Annotations.Add(appmodel.Replicas{Count: mr.Replicas})
	}
	for _, ep := range mr.Endpoints {
		res.WithEndpoint(appmodel.Endpoint{
			Name:          ep.Name,
			Scheme:        ep.Scheme,
			Protocol:      appmodel.Protocol(ep.Protocol),
			Port:          ep.Port,
			Proxied:       ep.Proxied,
			ContainerPort: ep.ContainerPort,
			EnvVar:        ep.EnvVar,
		})
	}
	for k, v := range mr.Env {
		res.WithEnvValue(k, appmodel.Literal(v))
	}
	if len(mr.Args) > 0 {
		values := make([]appmodel.Value, 0, len(mr.Args))
		for _, a := range mr.Args {
			values = append(values, appmodel.Literal(a))
		}
		res.WithArgs(values...)
	}
	if mr.ConnectionString != "" {
		res.WithConnectionString(appmodel.Literal(mr.ConnectionString))
	}
	return res, nil
}
