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

import "fmt"

// ConfigurationError reports an invalid application model: a missing port,
// an illegal replica/endpoint combination, or missing executable metadata.
// It aborts the affected phase or resource, never the whole batch.
type ConfigurationError struct {
	Resource string
	Endpoint string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("invalid configuration for resource %q endpoint %q: %s", e.Resource, e.Endpoint, e.Reason)
	}
	return fmt.Sprintf("invalid configuration for resource %q: %s", e.Resource, e.Reason)
}

// InvariantError indicates an internal orchestrator bug, such as a proxied
// service without a complete address after the watch loop finished. Never
// retried.
type InvariantError struct {
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("orchestrator invariant violated: %s", e.Reason)
}

// NameExhaustedError is returned when service-name collision resolution
// gives up. Pathological; should not occur in practice.
type NameExhaustedError struct {
	Base string
}

func (e *NameExhaustedError) Error() string {
	return fmt.Sprintf("could not derive a unique service name from %q after %d attempts", e.Base, maxNameAttempts)
}
