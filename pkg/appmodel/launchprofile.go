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

package appmodel

// LaunchProfile is a named bundle of startup configuration associated with
// a runnable project. The orchestrator deliberately overrides profile
// settings with declarative-model settings where they overlap.
type LaunchProfile struct {
	// ApplicationURL is a template for the URLs the project listens on.
	ApplicationURL string `json:"applicationUrl,omitempty"`
	// CommandLineArgs is a whitespace-separated extra argument string.
	CommandLineArgs string `json:"commandLineArgs,omitempty"`
	// Env is the profile's own environment, possibly with embedded
	// process-environment references ($VAR / ${VAR}).
	Env map[string]string `json:"environmentVariables,omitempty"`
}

// LaunchProfiles carries a project's profile set.
type LaunchProfiles struct {
	Profiles map[string]LaunchProfile `json:"profiles,omitempty"`
}

// SelectedLaunchProfileName marks the profile picked for a project.
type SelectedLaunchProfileName struct {
	Name string
}

// SuppressLaunchProfile is an explicit override fact: when present, the
// project's launch profile is not applied during environment assembly.
type SuppressLaunchProfile struct{}

// WithLaunchProfiles attaches the profile set to a project resource.
func (r *Resource) WithLaunchProfiles(profiles map[string]LaunchProfile) *Resource {
	r.Annotations.Add(LaunchProfiles{Profiles: profiles})
	return r
}

// WithSelectedLaunchProfile selects the named profile for a project.
func (r *Resource) WithSelectedLaunchProfile(name string) *Resource {
	r.Annotations.Add(SelectedLaunchProfileName{Name: name})
	return r
}

// SelectedLaunchProfile returns the name and data of the selected profile,
// unless profile handling is suppressed or nothing is selected.
func (r *Resource) SelectedLaunchProfile() (string, *LaunchProfile, bool) {
	if HasType[SuppressLaunchProfile](&r.Annotations) {
		return "", nil, false
	}
	sel, ok := FirstOfType[SelectedLaunchProfileName](&r.Annotations)
	if !ok {
		return "", nil, false
	}
	set, ok := FirstOfType[LaunchProfiles](&r.Annotations)
	if !ok {
		return "", nil, false
	}
	profile, ok := set.Profiles[sel.Name]
	if !ok {
		return "", nil, false
	}
	return sel.Name, &profile, true
}
