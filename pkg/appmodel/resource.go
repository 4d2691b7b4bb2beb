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

// Package appmodel holds the read side of the declarative application
// model: named resources carrying an open-ended set of typed facts
// (endpoints, environment and argument producers, volume mounts, launch
// profiles). The orchestrator reads existing facts and appends allocated
// endpoints; it never removes anything.
package appmodel

import "fmt"

// ResourceKind distinguishes the three declared unit kinds.
type ResourceKind string

const (
	// KindProject is a runnable project: built and launched through the
	// project runner, with optional launch-profile handling.
	KindProject ResourceKind = "Project"
	// KindExecutable is a plain executable started as-is.
	KindExecutable ResourceKind = "Executable"
	// KindContainer is a container workload.
	KindContainer ResourceKind = "Container"
)

// Resource is a declared unit of the application model. Identity is the
// name, unique within the model.
type Resource struct {
	Name        string
	Kind        ResourceKind
	Annotations AnnotationSet
}

// ProjectMetadata locates a runnable project on disk.
type ProjectMetadata struct {
	Path string
}

// ExecutableMetadata describes how to start a plain executable.
type ExecutableMetadata struct {
	Command          string
	WorkingDirectory string
	Args             []string
}

// ContainerMetadata names the image of a container resource.
type ContainerMetadata struct {
	Image string
}

// Replicas sets the desired replica count of an executable or project
// resource. Absent means one.
type Replicas struct {
	Count int32
}

// NewProject declares a runnable project resource.
func NewProject(name, path string) *Resource {
	r := &Resource{Name: name, Kind: KindProject}
	r.Annotations.Add(ProjectMetadata{Path: path})
	return r
}

// NewExecutable declares a plain executable resource.
func NewExecutable(name, command, workingDirectory string, args ...string) *Resource {
	r := &Resource{Name: name, Kind: KindExecutable}
	r.Annotations.Add(ExecutableMetadata{
		Command:          command,
		WorkingDirectory: workingDirectory,
		Args:             args,
	})
	return r
}

// NewContainer declares a container resource.
func NewContainer(name, image string) *Resource {
	r := &Resource{Name: name, Kind: KindContainer}
	r.Annotations.Add(ContainerMetadata{Image: image})
	return r
}

// ReplicaCount returns the desired replica count, defaulting to one.
func (r *Resource) ReplicaCount() int32 {
	if rep, ok := FirstOfType[Replicas](&r.Annotations); ok && rep.Count > 0 {
		return rep.Count
	}
	return 1
}

// Application is the declared model: an ordered set of resources with
// unique names.
type Application struct {
	resources []*Resource
	byName    map[string]*Resource
}

// NewApplication returns an empty application model.
func NewApplication() *Application {
	return &Application{byName: make(map[string]*Resource)}
}

// Add registers a resource. Duplicate names are a modeling error.
func (a *Application) Add(r *Resource) error {
	if _, exists := a.byName[r.Name]; exists {
		return fmt.Errorf("duplicate resource name %q", r.Name)
	}
	a.resources = append(a.resources, r)
	a.byName[r.Name] = r
	return nil
}

// Resources returns the resources in declaration order.
func (a *Application) Resources() []*Resource {
	return a.resources
}

// Resource looks a resource up by name.
func (a *Application) Resource(name string) (*Resource, bool) {
	r, ok := a.byName[name]
	return r, ok
}
