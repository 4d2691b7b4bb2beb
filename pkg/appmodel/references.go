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

import (
	"context"
	"fmt"
	"strings"
)

// WithServiceReference wires the consumer's environment with one service
// discovery variable per referenced endpoint of the target, of the form
// SERVICES__<TARGET>__<N>. Entries are not deduplicated: two endpoints with
// the same scheme still yield two variables.
func (r *Resource) WithServiceReference(target *Resource, endpointNames ...string) *Resource {
	return r.WithEnvironment(func(_ context.Context, ec *EnvironmentContext) error {
		for i, name := range endpointNames {
			key := fmt.Sprintf("SERVICES__%s__%d", envSegment(target.Name), i)
			ec.Env[key] = Deferred(&EndpointReference{Resource: target, EndpointName: name})
		}
		return nil
	})
}

// WithConnectionStringReference wires the consumer's environment with the
// target's connection string under CONNECTION_STRINGS__<TARGET>. When
// optional and the target declares no connection string, the key is
// omitted from the assembled environment.
func (r *Resource) WithConnectionStringReference(target *Resource, optional bool) *Resource {
	key := fmt.Sprintf("CONNECTION_STRINGS__%s", envSegment(target.Name))
	return r.WithEnvValue(key, Deferred(&ConnectionStringReference{
		Resource: target,
		Optional: optional,
	}))
}

func envSegment(name string) string {
	s := strings.ToUpper(name)
	s = strings.ReplaceAll(s, "-", "_")
	return strings.ReplaceAll(s, ".", "_")
}
