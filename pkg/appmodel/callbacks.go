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

import "context"

// EnvironmentContext is handed to environment producer callbacks. Callbacks
// mutate Env in place; later callbacks may overwrite earlier keys.
type EnvironmentContext struct {
	Resource *Resource
	Env      map[string]Value
}

// EnvironmentCallback produces environment variables for a resource.
// Callbacks run in declaration order during environment assembly.
type EnvironmentCallback struct {
	Fn func(ctx context.Context, ec *EnvironmentContext) error
}

// ArgsContext is handed to argument producer callbacks. Callbacks append
// to Args in place.
type ArgsContext struct {
	Resource *Resource
	Args     *[]Value
}

// ArgsCallback produces command-line arguments for a resource.
type ArgsCallback struct {
	Fn func(ctx context.Context, ac *ArgsContext) error
}

// WithEnvironment registers an environment producer callback.
func (r *Resource) WithEnvironment(fn func(ctx context.Context, ec *EnvironmentContext) error) *Resource {
	r.Annotations.Add(EnvironmentCallback{Fn: fn})
	return r
}

// WithEnvValue registers a callback that sets a single variable.
func (r *Resource) WithEnvValue(key string, value Value) *Resource {
	return r.WithEnvironment(func(_ context.Context, ec *EnvironmentContext) error {
		ec.Env[key] = value
		return nil
	})
}

// WithArgs registers an argument producer callback appending the given
// values.
func (r *Resource) WithArgs(values ...Value) *Resource {
	r.Annotations.Add(ArgsCallback{Fn: func(_ context.Context, ac *ArgsContext) error {
		*ac.Args = append(*ac.Args, values...)
		return nil
	}})
	return r
}
