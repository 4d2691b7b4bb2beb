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
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ks1990cn/aspire/api/v1alpha1"
	"github.com/ks1990cn/aspire/pkg/appmodel"
)

const (
	// envLaunchProfile records the launch profile picked for a project.
	envLaunchProfile = "LAUNCH_PROFILE"
	// envAppURLs is the semicolon-joined list of URLs a project listens on.
	envAppURLs = "APP_URLS"
	// envAppHTTPSPort carries the secure port of an HTTPS-producing project.
	envAppHTTPSPort = "APP_HTTPS_PORT"
)

// buildEnvironment assembles the effective environment of one workload.
// Ordering matters: profile-derived keys and port variables are laid down
// first, the profile's own environment is copied over them, and model
// callbacks run last so declarative settings always win.
func (o *Orchestrator) buildEnvironment(ctx context.Context, we *workloadEntry) (map[string]string, error) {
	res := we.resource
	values := make(map[string]appmodel.Value)

	isProject := appmodel.HasType[appmodel.ProjectMetadata](&res.Annotations)
	var profile *appmodel.LaunchProfile
	if isProject {
		// Under IDE-attached execution the process is started by the IDE
		// and never sees a profile flag, so the selected profile is folded
		// into the environment here. A directly-run process is launched
		// with the profile disabled on its command line and gets a
		// synthesized URL list instead: the model stays the single source
		// of truth for what the process binds.
		if we.executionType() == v1alpha1.ExecutionTypeIDE {
			if name, p, ok := res.SelectedLaunchProfile(); ok {
				profile = p
				values[envLaunchProfile] = appmodel.Literal(name)
				if p.ApplicationURL != "" {
					values[envAppURLs] = appmodel.Literal(o.expandProfileURLs(we, p.ApplicationURL))
				}
			}
		}
		if profile == nil {
			if urls := o.defaultProjectURLs(we); urls != "" {
				values[envAppURLs] = appmodel.Literal(urls)
			}
		}
		for _, se := range we.produces {
			if se.endpoint.Scheme == "https" {
				values[envAppHTTPSPort] = appmodel.Literal(o.portExpression(we, se))
				break
			}
		}
	}

	for _, se := range we.produces {
		if se.endpoint.EnvVar != "" {
			values[se.endpoint.EnvVar] = appmodel.Literal(o.portExpression(we, se))
		}
	}

	if profile != nil {
		for k, v := range profile.Env {
			values[k] = appmodel.Literal(os.Expand(v, o.lookupEnv))
		}
	}

	for _, cb := range appmodel.OfType[appmodel.EnvironmentCallback](&res.Annotations) {
		if err := cb.Fn(ctx, &appmodel.EnvironmentContext{Resource: res, Env: values}); err != nil {
			return nil, fmt.Errorf("environment callback of %q: %w", res.Name, err)
		}
	}

	return o.resolveValues(ctx, we, values)
}

// defaultProjectURLs synthesizes the listen-URL list for a project without
// a profile-supplied one: every produced HTTP(S) endpoint that is not
// already surfaced through a named port variable contributes one URL.
func (o *Orchestrator) defaultProjectURLs(we *workloadEntry) string {
	var urls []string
	for _, se := range we.produces {
		if !se.endpoint.IsHTTP() || se.endpoint.EnvVar != "" {
			continue
		}
		urls = append(urls, fmt.Sprintf("%s://localhost:%s", se.endpoint.Scheme, o.portExpression(we, se)))
	}
	return strings.Join(urls, ";")
}

// expandProfileURLs fills the port placeholder of a profile's
// application-URL list. Each semicolon-separated URL may carry a
// "$(port)" token, replaced with the port expression of the produced
// endpoint matching the URL's scheme, so every replica of a replicated
// executable resolves its own proxied port at start time. URLs without
// the token pass through literally.
func (o *Orchestrator) expandProfileURLs(we *workloadEntry, urls string) string {
	const token = "$(port)"
	parts := strings.Split(urls, ";")
	for i, u := range parts {
		if !strings.Contains(u, token) {
			continue
		}
		scheme, _, found := strings.Cut(u, "://")
		for _, se := range we.produces {
			if found && se.endpoint.Scheme != scheme {
				continue
			}
			parts[i] = strings.ReplaceAll(u, token, o.portExpression(we, se))
			break
		}
	}
	return strings.Join(parts, ";")
}

// portExpression is the textual port a workload should bind for one of
// its produced services. Proxied executable ports are only known to the
// control plane at launch time (each replica gets its own), so those stay
// a template the control plane substitutes.
func (o *Orchestrator) portExpression(we *workloadEntry, se *serviceEntry) string {
	if we.container != nil {
		if se.endpoint.ContainerPort != nil {
			return fmt.Sprintf("%d", *se.endpoint.ContainerPort)
		}
		return fmt.Sprintf("%d", se.service.EffectivePort())
	}
	if se.endpoint.Proxied {
		return fmt.Sprintf("$(portFor:%s)", se.service.Name)
	}
	if se.endpoint.Port != nil {
		return fmt.Sprintf("%d", *se.endpoint.Port)
	}
	return fmt.Sprintf("%d", se.service.EffectivePort())
}

// resolveValues collapses the mixed literal/deferred map to strings. A
// nil resolution omits the key. Deferred values that point at another
// resource's address are host-rewritten for container consumers, which
// cannot reach the host loopback by its usual names.
func (o *Orchestrator) resolveValues(ctx context.Context, we *workloadEntry, values map[string]appmodel.Value) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for key, val := range values {
		if val.IsDeferred() {
			if rc, ok := val.Provider().(appmodel.ResolutionChecker); ok && !rc.Resolved() {
				o.log.Info("waiting for a value", "key", key, "source", describeSource(val.Provider()))
			}
		}
		resolved, err := val.Resolve(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolving %q of %q: %w", key, we.resource.Name, err)
		}
		if resolved == nil {
			continue
		}
		s := *resolved
		if we.container != nil && referencesAnotherResource(val.Provider()) {
			s = rewriteLoopbackHost(s, o.opts.ContainerHostName)
		}
		out[key] = s
	}
	return out, nil
}

func describeSource(p appmodel.ValueProvider) string {
	if sd, ok := p.(appmodel.SourceDescriber); ok {
		return sd.ValueSource()
	}
	return "deferred value"
}

// referencesAnotherResource reports whether the provider yields an
// address or connection string of another resource, the only values that
// need loopback rewriting inside containers.
func referencesAnotherResource(p appmodel.ValueProvider) bool {
	switch p.(type) {
	case *appmodel.EndpointReference, *appmodel.ConnectionStringReference:
		return true
	}
	return false
}

func rewriteLoopbackHost(s, containerHost string) string {
	s = strings.ReplaceAll(s, "localhost", containerHost)
	s = strings.ReplaceAll(s, "127.0.0.1", containerHost)
	return s
}

// envVarList flattens a resolved environment into the descriptor form,
// sorted by name so repeated runs produce identical descriptors.
func envVarList(env map[string]string) []v1alpha1.EnvVar {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]v1alpha1.EnvVar, 0, len(keys))
	for _, k := range keys {
		out = append(out, v1alpha1.EnvVar{Name: k, Value: env[k]})
	}
	return out
}
