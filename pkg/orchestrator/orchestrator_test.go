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
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/utils/ptr"

	"github.com/ks1990cn/aspire/pkg/appmodel"
	"github.com/ks1990cn/aspire/pkg/notifications"
)

func newTestOrchestrator(t *testing.T, app *appmodel.Application, cp *fakeControlPlane, opts Options) *Orchestrator {
	t.Helper()
	notifier := notifications.NewPublisher(logr.Discard())
	o := New(logr.Discard(), cp, notifier, app, nil, opts)
	o.lookupEnv = func(string) string { return "" }
	return o
}

func mustAdd(t *testing.T, app *appmodel.Application, resources ...*appmodel.Resource) {
	t.Helper()
	for _, r := range resources {
		require.NoError(t, app.Add(r))
	}
}

func TestRunEndToEnd(t *testing.T) {
	app := appmodel.NewApplication()
	api := appmodel.NewProject("api", "/src/api/api.csproj").
		WithEndpoint(appmodel.Endpoint{Name: "http", Scheme: "http", Proxied: true})
	db := appmodel.NewContainer("db", "postgres:16").
		WithEndpoint(appmodel.Endpoint{Name: "tcp", Scheme: "tcp", Proxied: true, ContainerPort: ptr.To(int32(5432))}).
		WithConnectionString(appmodel.Literal("Host=localhost;Port=5432"))
	api.WithConnectionStringReference(db, false)
	mustAdd(t, app, api, db)

	cp := newFakeControlPlane()
	o := newTestOrchestrator(t, app, cp, Options{})

	require.NoError(t, o.Run(context.Background()))

	assert.Len(t, cp.services, 2)
	assert.Len(t, cp.executables, 1)
	assert.Len(t, cp.containers, 1)

	// Both endpoints got realized addresses.
	_, ok := api.AllocatedEndpoint("http")
	assert.True(t, ok)
	_, ok = db.AllocatedEndpoint("tcp")
	assert.True(t, ok)

	// The project resolved the container's connection string.
	var found bool
	for _, ev := range cp.executables[0].Spec.Env {
		if ev.Name == "CONNECTION_STRINGS__DB" {
			found = true
			assert.Equal(t, "Host=localhost;Port=5432", ev.Value)
		}
	}
	assert.True(t, found, "connection string env var missing")
}

func TestRunStopDeletesEverything(t *testing.T) {
	app := appmodel.NewApplication()
	mustAdd(t, app,
		appmodel.NewProject("web", "/src/web/web.csproj"),
		appmodel.NewContainer("cache", "redis:7"),
	)

	cp := newFakeControlPlane()
	o := newTestOrchestrator(t, app, cp, Options{})

	ctx := context.Background()
	require.NoError(t, o.Run(ctx))
	o.Stop(ctx)

	assert.ElementsMatch(t, []string{"executables/web", "containers/cache"}, cp.deleted)
	assert.Empty(t, o.index.workloads)
	assert.Empty(t, o.index.services)
}

func TestStopAfterFailedRunDeletesCreatedServices(t *testing.T) {
	app := appmodel.NewApplication()
	api := appmodel.NewProject("api", "/src/api/api.csproj").
		WithEndpoint(appmodel.Endpoint{Name: "http", Scheme: "http", Proxied: true})
	mustAdd(t, app, api)

	cp := newFakeControlPlane()
	// The allocator never assigns an address and the change-event stream
	// ends immediately, so the run fails after the service descriptor
	// already exists on the control plane.
	cp.allocatePorts = false
	cp.watcher = watch.NewFake()
	cp.watcher.Stop()

	o := newTestOrchestrator(t, app, cp, Options{})
	err := o.Run(context.Background())
	var invErr *InvariantError
	require.ErrorAs(t, err, &invErr)
	require.Equal(t, []string{"api"}, cp.createdServiceNames())

	// Teardown after a failed run still removes the partial state, or
	// the next run collides on the descriptor name.
	o.Stop(context.Background())
	assert.Contains(t, cp.deleted, "services/api")
}
