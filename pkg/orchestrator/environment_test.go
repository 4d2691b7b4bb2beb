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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ks1990cn/aspire/pkg/appmodel"
)

// prepareAndBind runs the pipeline up to endpoint binding and returns the
// workload entry of the named resource.
func prepareAndBind(t *testing.T, o *Orchestrator, name string) *workloadEntry {
	t.Helper()
	require.NoError(t, o.prepare())
	require.NoError(t, o.createServices(context.Background()))
	require.NoError(t, o.bindAllocatedEndpoints())
	for _, we := range o.index.workloads {
		if we.resource.Name == name {
			return we
		}
	}
	t.Fatalf("workload %q not prepared", name)
	return nil
}

func TestProjectURLSynthesis(t *testing.T) {
	app := appmodel.NewApplication()
	proj := appmodel.NewProject("api", "/src/api/api.csproj").
		WithEndpoint(appmodel.Endpoint{Name: "http", Scheme: "http", Proxied: true})
	mustAdd(t, app, proj)

	o := newTestOrchestrator(t, app, newFakeControlPlane(), Options{})
	we := prepareAndBind(t, o, "api")

	env, err := o.buildEnvironment(context.Background(), we)
	require.NoError(t, err)

	// A proxied endpoint's port is only known at launch, so the URL
	// carries a template the control plane substitutes per process.
	assert.Equal(t, "http://localhost:$(portFor:api)", env[envAppURLs])
	assert.NotContains(t, env, envAppHTTPSPort)
}

func TestProjectHTTPSPortAndNamedPortVariables(t *testing.T) {
	app := appmodel.NewApplication()
	proj := appmodel.NewProject("api", "/src/api/api.csproj").
		WithEndpoint(appmodel.Endpoint{Name: "https", Scheme: "https", Proxied: true}).
		WithEndpoint(appmodel.Endpoint{Name: "grpc", Scheme: "http", Proxied: true, EnvVar: "GRPC_PORT"})
	mustAdd(t, app, proj)

	o := newTestOrchestrator(t, app, newFakeControlPlane(), Options{})
	we := prepareAndBind(t, o, "api")

	env, err := o.buildEnvironment(context.Background(), we)
	require.NoError(t, err)

	assert.Equal(t, "$(portFor:api-https)", env[envAppHTTPSPort])
	assert.Equal(t, "$(portFor:api-grpc)", env["GRPC_PORT"])
	// Endpoints surfaced through a named variable stay out of the URL list.
	assert.Equal(t, "https://localhost:$(portFor:api-https)", env[envAppURLs])
}

func TestLaunchProfileEnvironment(t *testing.T) {
	app := appmodel.NewApplication()
	proj := appmodel.NewProject("api", "/src/api/api.csproj").
		WithLaunchProfiles(map[string]appmodel.LaunchProfile{
			"dev": {
				ApplicationURL: "http://localhost:5000",
				Env: map[string]string{
					"ASPNETCORE_ENVIRONMENT": "Development",
					"CACHE_DIR":              "$HOME/.cache",
				},
			},
		}).
		WithSelectedLaunchProfile("dev")
	mustAdd(t, app, proj)

	o := newTestOrchestrator(t, app, newFakeControlPlane(), Options{})
	o.lookupEnv = func(key string) string {
		switch key {
		case "HOME":
			return "/home/dev"
		case o.opts.DebugSessionEnvVar:
			return "34567"
		}
		return ""
	}
	we := prepareAndBind(t, o, "api")

	env, err := o.buildEnvironment(context.Background(), we)
	require.NoError(t, err)

	// Under IDE-attached execution the profile is the process's
	// environment: name key, literal URL, and the profile env expanded
	// against the parent process environment.
	assert.Equal(t, "dev", env[envLaunchProfile])
	assert.Equal(t, "http://localhost:5000", env[envAppURLs])
	assert.Equal(t, "Development", env["ASPNETCORE_ENVIRONMENT"])
	assert.Equal(t, "/home/dev/.cache", env["CACHE_DIR"])
}

func TestDirectProcessIgnoresLaunchProfile(t *testing.T) {
	app := appmodel.NewApplication()
	proj := appmodel.NewProject("api", "/src/api/api.csproj").
		WithEndpoint(appmodel.Endpoint{Name: "http", Scheme: "http", Proxied: true}).
		WithLaunchProfiles(map[string]appmodel.LaunchProfile{
			"dev": {
				ApplicationURL: "http://localhost:5000",
				Env:            map[string]string{"PROFILE_ONLY": "yes"},
			},
		}).
		WithSelectedLaunchProfile("dev")
	mustAdd(t, app, proj)

	o := newTestOrchestrator(t, app, newFakeControlPlane(), Options{})
	we := prepareAndBind(t, o, "api")

	env, err := o.buildEnvironment(context.Background(), we)
	require.NoError(t, err)

	// A directly-run project gets the runner's profile handling disabled
	// on its command line, and the assembler must not reapply the
	// profile: the URL list is synthesized from the model's endpoints.
	assert.NotContains(t, env, envLaunchProfile)
	assert.NotContains(t, env, "PROFILE_ONLY")
	assert.Equal(t, "http://localhost:$(portFor:api)", env[envAppURLs])
}

func TestLaunchProfileURLTemplate(t *testing.T) {
	app := appmodel.NewApplication()
	proj := appmodel.NewProject("api", "/src/api/api.csproj").
		WithEndpoint(appmodel.Endpoint{Name: "http", Scheme: "http", Proxied: true}).
		WithEndpoint(appmodel.Endpoint{Name: "https", Scheme: "https", Proxied: true}).
		WithLaunchProfiles(map[string]appmodel.LaunchProfile{
			"dev": {ApplicationURL: "https://localhost:$(port);http://localhost:$(port)"},
		}).
		WithSelectedLaunchProfile("dev")
	mustAdd(t, app, proj)

	o := newTestOrchestrator(t, app, newFakeControlPlane(), Options{})
	o.lookupEnv = func(key string) string {
		if key == o.opts.DebugSessionEnvVar {
			return "34567"
		}
		return ""
	}
	we := prepareAndBind(t, o, "api")

	env, err := o.buildEnvironment(context.Background(), we)
	require.NoError(t, err)

	// Each URL's placeholder resolves against the endpoint of the same
	// scheme, so every replica binds its own proxied port.
	assert.Equal(t, "https://localhost:$(portFor:api-https);http://localhost:$(portFor:api-http)", env[envAppURLs])
}

func TestCallbacksOverrideProfileEnv(t *testing.T) {
	app := appmodel.NewApplication()
	proj := appmodel.NewProject("api", "/src/api/api.csproj").
		WithLaunchProfiles(map[string]appmodel.LaunchProfile{
			"dev": {Env: map[string]string{"LOG_LEVEL": "debug"}},
		}).
		WithSelectedLaunchProfile("dev").
		WithEnvValue("LOG_LEVEL", appmodel.Literal("warn"))
	mustAdd(t, app, proj)

	o := newTestOrchestrator(t, app, newFakeControlPlane(), Options{})
	o.lookupEnv = func(key string) string {
		if key == o.opts.DebugSessionEnvVar {
			return "34567"
		}
		return ""
	}
	we := prepareAndBind(t, o, "api")

	env, err := o.buildEnvironment(context.Background(), we)
	require.NoError(t, err)
	assert.Equal(t, "warn", env["LOG_LEVEL"])
}

func TestEnvironmentAssemblyIsDeterministic(t *testing.T) {
	build := func() []string {
		app := appmodel.NewApplication()
		target := appmodel.NewProject("backend", "/src/b/b.csproj").
			WithEndpoint(appmodel.Endpoint{Name: "http", Scheme: "http", Proxied: true}).
			WithEndpoint(appmodel.Endpoint{Name: "grpc", Scheme: "http", Proxied: true})
		front := appmodel.NewProject("frontend", "/src/f/f.csproj").
			WithServiceReference(target, "http", "grpc").
			WithEnvValue("FEATURE_X", appmodel.Literal("on"))
		require.NoError(t, app.Add(target))
		require.NoError(t, app.Add(front))

		o := newTestOrchestrator(t, app, newFakeControlPlane(), Options{})
		we := prepareAndBind(t, o, "frontend")
		env, err := o.buildEnvironment(context.Background(), we)
		require.NoError(t, err)

		var flat []string
		for _, ev := range envVarList(env) {
			flat = append(flat, ev.Name+"="+ev.Value)
		}
		return flat
	}

	first := build()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, build())
	}
}

func TestServiceReferencesProduceOneVarPerEndpoint(t *testing.T) {
	app := appmodel.NewApplication()
	target := appmodel.NewProject("backend", "/src/b/b.csproj").
		WithEndpoint(appmodel.Endpoint{Name: "http", Scheme: "http", Proxied: true}).
		WithEndpoint(appmodel.Endpoint{Name: "admin", Scheme: "http", Proxied: true})
	front := appmodel.NewProject("frontend", "/src/f/f.csproj").
		WithServiceReference(target, "http", "admin")
	mustAdd(t, app, target, front)

	o := newTestOrchestrator(t, app, newFakeControlPlane(), Options{})
	we := prepareAndBind(t, o, "frontend")

	env, err := o.buildEnvironment(context.Background(), we)
	require.NoError(t, err)

	// Same scheme twice still yields two discovery variables.
	assert.Contains(t, env, "SERVICES__BACKEND__0")
	assert.Contains(t, env, "SERVICES__BACKEND__1")
	assert.NotEqual(t, env["SERVICES__BACKEND__0"], env["SERVICES__BACKEND__1"])
}

func TestConnectionStringResolution(t *testing.T) {
	t.Run("required missing fails", func(t *testing.T) {
		app := appmodel.NewApplication()
		db := appmodel.NewContainer("db", "postgres:16")
		api := appmodel.NewProject("api", "/src/api/api.csproj").
			WithConnectionStringReference(db, false)
		mustAdd(t, app, db, api)

		o := newTestOrchestrator(t, app, newFakeControlPlane(), Options{})
		we := prepareAndBind(t, o, "api")

		_, err := o.buildEnvironment(context.Background(), we)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no connection string")
	})

	t.Run("optional missing omits the key", func(t *testing.T) {
		app := appmodel.NewApplication()
		db := appmodel.NewContainer("db", "postgres:16")
		api := appmodel.NewProject("api", "/src/api/api.csproj").
			WithConnectionStringReference(db, true)
		mustAdd(t, app, db, api)

		o := newTestOrchestrator(t, app, newFakeControlPlane(), Options{})
		we := prepareAndBind(t, o, "api")

		env, err := o.buildEnvironment(context.Background(), we)
		require.NoError(t, err)
		assert.NotContains(t, env, "CONNECTION_STRINGS__DB")
	})
}

func TestContainerLoopbackRewrite(t *testing.T) {
	app := appmodel.NewApplication()
	api := appmodel.NewProject("api", "/src/api/api.csproj").
		WithEndpoint(appmodel.Endpoint{Name: "http", Scheme: "http", Proxied: true})
	consumer := appmodel.NewContainer("proxy", "envoyproxy/envoy:v1.30").
		WithServiceReference(api, "http").
		WithEnvValue("STATIC_HOST", appmodel.Literal("http://localhost:9999"))
	mustAdd(t, app, api, consumer)

	o := newTestOrchestrator(t, app, newFakeControlPlane(), Options{})
	we := prepareAndBind(t, o, "proxy")

	env, err := o.buildEnvironment(context.Background(), we)
	require.NoError(t, err)

	// Endpoint references are rewritten for the container network;
	// plain literals pass through untouched.
	assert.Equal(t, "http://host.docker.internal:50001", env["SERVICES__API__0"])
	assert.Equal(t, "http://localhost:9999", env["STATIC_HOST"])
}
