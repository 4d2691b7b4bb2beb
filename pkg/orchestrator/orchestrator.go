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

// Package orchestrator materializes a declarative application model as
// live workloads through the control-plane API: it prepares descriptors,
// creates services and waits for address allocation, binds allocated
// endpoints back onto the model, assembles environments and arguments, and
// creates executables and containers concurrently with per-resource
// failure isolation.
//
// A run proceeds through strictly ordered phases: prepare, create
// services (with a watch loop), bind endpoints, create workloads, and, on
// shutdown, teardown. The resource index and the service-name set are
// written only during the single-threaded preparation phase and read-only
// afterwards, so the later concurrent phases need no locking.
package orchestrator

import (
	"context"
	"os"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/ks1990cn/aspire/pkg/appmodel"
	"github.com/ks1990cn/aspire/pkg/controlplane"
	"github.com/ks1990cn/aspire/pkg/notifications"
)

// Options configures one orchestrator run.
type Options struct {
	// Application names the model in descriptor labels.
	Application string
	// ContainerHostName replaces localhost in values handed to
	// containers. Defaults to host.docker.internal.
	ContainerHostName string
	// DebugSessionEnvVar names the environment variable whose presence
	// switches projects to IDE-attached execution. Defaults to
	// DEBUG_SESSION_PORT.
	DebugSessionEnvVar string
	// DashboardName is the well-known resource name of the dashboard.
	// Defaults to "dashboard".
	DashboardName string
	// DashboardPath is the dashboard executable. Required only when the
	// model declares the dashboard as a runnable project, which has no
	// command of its own; a plain-executable dashboard already names one.
	DashboardPath string
	// ProjectRunnerPath is the launcher binary for runnable projects.
	// Defaults to "project-runner".
	ProjectRunnerPath string
	// Watch selects the watch variant of the project invocation.
	Watch bool
	// BindAddress optionally pins container host ports to one address.
	BindAddress string
}

func (o Options) withDefaults() Options {
	if o.Application == "" {
		o.Application = "app"
	}
	if o.ContainerHostName == "" {
		o.ContainerHostName = "host.docker.internal"
	}
	if o.DebugSessionEnvVar == "" {
		o.DebugSessionEnvVar = "DEBUG_SESSION_PORT"
	}
	if o.DashboardName == "" {
		o.DashboardName = "dashboard"
	}
	if o.ProjectRunnerPath == "" {
		o.ProjectRunnerPath = "project-runner"
	}
	return o
}

// Orchestrator coordinates one run of an application model against the
// control plane.
type Orchestrator struct {
	log      logr.Logger
	cp       controlplane.Interface
	notifier *notifications.Publisher
	metrics  *PhaseMetrics
	opts     Options

	model     *appmodel.Application
	index     *resourceIndex
	usedNames sets.Set[string]

	// lookupEnv is an indirection over os.Getenv for tests.
	lookupEnv func(string) string
}

// New builds an orchestrator for the given model. The metrics handle may
// be nil to disable recording.
func New(log logr.Logger, cp controlplane.Interface, notifier *notifications.Publisher,
	model *appmodel.Application, metrics *PhaseMetrics, opts Options) *Orchestrator {
	return &Orchestrator{
		log:       log.WithName("orchestrator"),
		cp:        cp,
		notifier:  notifier,
		metrics:   metrics,
		opts:      opts.withDefaults(),
		model:     model,
		index:     newResourceIndex(),
		usedNames: sets.New[string](),
		lookupEnv: os.Getenv,
	}
}

// Run executes the orchestration pipeline. Per-resource workload failures
// are isolated and reported via notifications; only configuration errors,
// invariant violations and name exhaustion abort the run.
func (o *Orchestrator) Run(ctx context.Context) error {
	start := time.Now()
	if err := o.prepare(); err != nil {
		return err
	}
	o.metrics.observePhase("prepare", start)

	start = time.Now()
	if err := o.createServices(ctx); err != nil {
		return err
	}
	o.metrics.observePhase("create_services", start)
	if ctx.Err() != nil {
		// Interrupted during service creation; nothing downstream to do.
		return nil
	}

	start = time.Now()
	if err := o.bindAllocatedEndpoints(); err != nil {
		return err
	}
	o.metrics.observePhase("bind_endpoints", start)

	start = time.Now()
	o.createWorkloads(ctx)
	o.metrics.observePhase("create_workloads", start)

	return nil
}

// Stop tears down everything the run created, tolerating individual
// delete failures.
func (o *Orchestrator) Stop(ctx context.Context) {
	start := time.Now()
	o.teardown(ctx)
	o.metrics.observePhase("teardown", start)
}

func (o *Orchestrator) resourceLogger(r *appmodel.Resource) logr.Logger {
	return o.log.WithValues("resource", r.Name)
}
