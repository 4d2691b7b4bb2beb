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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/ptr"

	"github.com/ks1990cn/aspire/api/v1alpha1"
	"github.com/ks1990cn/aspire/pkg/appmodel"
	"github.com/ks1990cn/aspire/pkg/notifications"
)

func TestContainerFailureIsIsolated(t *testing.T) {
	app := appmodel.NewApplication()
	mustAdd(t, app,
		appmodel.NewContainer("bad", "missing:latest"),
		appmodel.NewContainer("good", "redis:7"),
	)

	cp := newFakeControlPlane()
	cp.failContainer = func(ctr *v1alpha1.Container) error {
		if ctr.Name == "bad" {
			return errors.New("image pull failed")
		}
		return nil
	}
	o := newTestOrchestrator(t, app, cp, Options{})
	require.NoError(t, o.Run(context.Background()))

	// The healthy container was still created.
	require.Len(t, cp.containers, 1)
	assert.Equal(t, "good", cp.containers[0].Name)

	snap, ok := o.notifier.Latest("bad")
	require.True(t, ok)
	assert.Equal(t, notifications.StateFailedToStart, snap.State)

	snap, ok = o.notifier.Latest("good")
	require.True(t, ok)
	assert.Equal(t, notifications.StateStarting, snap.State)
}

func TestContainerPortMappings(t *testing.T) {
	app := appmodel.NewApplication()
	ctr := appmodel.NewContainer("db", "postgres:16").
		WithEndpoint(appmodel.Endpoint{
			Name: "proxied", Scheme: "tcp", Proxied: true,
			ContainerPort: ptr.To(int32(5432)),
		}).
		WithEndpoint(appmodel.Endpoint{
			Name: "direct", Scheme: "tcp",
			Port: ptr.To(int32(9100)), ContainerPort: ptr.To(int32(9100)),
		})
	mustAdd(t, app, ctr)

	cp := newFakeControlPlane()
	o := newTestOrchestrator(t, app, cp, Options{BindAddress: "127.0.0.1"})
	require.NoError(t, o.Run(context.Background()))

	require.Len(t, cp.containers, 1)
	ports := cp.containers[0].Spec.Ports
	require.Len(t, ports, 2)

	assert.Equal(t, int32(5432), ports[0].ContainerPort)
	assert.Nil(t, ports[0].HostPort, "proxied endpoints get their host port from the proxy")
	assert.Equal(t, "127.0.0.1", ports[0].HostIP)

	assert.Equal(t, int32(9100), ports[1].ContainerPort)
	require.NotNil(t, ports[1].HostPort)
	assert.Equal(t, int32(9100), *ports[1].HostPort)
}

func TestContainerEndpointWithoutContainerPortFails(t *testing.T) {
	app := appmodel.NewApplication()
	mustAdd(t, app, appmodel.NewContainer("db", "postgres:16").
		WithEndpoint(appmodel.Endpoint{Name: "tcp", Scheme: "tcp", Proxied: true}))

	cp := newFakeControlPlane()
	o := newTestOrchestrator(t, app, cp, Options{})
	require.NoError(t, o.Run(context.Background()))

	// The run succeeds; the broken container is reported, not created.
	assert.Empty(t, cp.containers)
	snap, ok := o.notifier.Latest("db")
	require.True(t, ok)
	assert.Equal(t, notifications.StateFailedToStart, snap.State)
}

func TestContainerVolumeMounts(t *testing.T) {
	app := appmodel.NewApplication()
	ctr := appmodel.NewContainer("db", "postgres:16").
		WithVolumeMount(appmodel.VolumeMount{Source: "/data/pg", Target: "/var/lib/postgresql/data"}).
		WithVolumeMount(appmodel.VolumeMount{Type: appmodel.MountTypeVolume, Target: "/scratch"})
	mustAdd(t, app, ctr)

	cp := newFakeControlPlane()
	o := newTestOrchestrator(t, app, cp, Options{})
	require.NoError(t, o.Run(context.Background()))

	require.Len(t, cp.containers, 1)
	mounts := cp.containers[0].Spec.VolumeMounts
	require.Len(t, mounts, 2)

	assert.Equal(t, v1alpha1.VolumeMountTypeBind, mounts[0].Type)
	assert.Equal(t, "/data/pg", mounts[0].Source)
	assert.Equal(t, "/var/lib/postgresql/data", mounts[0].Target)

	assert.Equal(t, v1alpha1.VolumeMountTypeVolume, mounts[1].Type)
	assert.Empty(t, mounts[1].Source)
}

func TestBindMountWithoutSourceFails(t *testing.T) {
	app := appmodel.NewApplication()
	mustAdd(t, app, appmodel.NewContainer("db", "postgres:16").
		WithVolumeMount(appmodel.VolumeMount{Type: appmodel.MountTypeBind, Target: "/data"}))

	cp := newFakeControlPlane()
	o := newTestOrchestrator(t, app, cp, Options{})
	require.NoError(t, o.Run(context.Background()))

	assert.Empty(t, cp.containers)
	snap, ok := o.notifier.Latest("db")
	require.True(t, ok)
	assert.Equal(t, notifications.StateFailedToStart, snap.State)
}

func TestDashboardStartsBeforeOtherExecutables(t *testing.T) {
	app := appmodel.NewApplication()
	mustAdd(t, app,
		appmodel.NewProject("api", "/src/api/api.csproj"),
		appmodel.NewProject("dashboard", "/src/dash/dash.csproj"),
	)

	cp := newFakeControlPlane()
	o := newTestOrchestrator(t, app, cp, Options{DashboardPath: "/usr/bin/dashboard"})
	require.NoError(t, o.Run(context.Background()))

	require.Len(t, cp.executables, 2)
	assert.Equal(t, "dashboard", cp.executables[0].Name)
	assert.Equal(t, "/usr/bin/dashboard", cp.executables[0].Spec.ExecutablePath)
}

func TestExecutableDashboardNeedsNoConfiguredPath(t *testing.T) {
	app := appmodel.NewApplication()
	mustAdd(t, app,
		appmodel.NewProject("api", "/src/api/api.csproj"),
		appmodel.NewExecutable("dashboard", "/opt/dash/dash", "/opt/dash"),
	)

	cp := newFakeControlPlane()
	// A plain-executable dashboard names its own command, so the
	// configured path only backs project-declared dashboards.
	o := newTestOrchestrator(t, app, cp, Options{})
	require.NoError(t, o.Run(context.Background()))

	require.Len(t, cp.executables, 2)
	assert.Equal(t, "dashboard", cp.executables[0].Name)
	assert.Equal(t, "/opt/dash/dash", cp.executables[0].Spec.ExecutablePath)
}
