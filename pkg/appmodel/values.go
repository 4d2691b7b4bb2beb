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
)

// ValueProvider resolves a value that may not be available immediately,
// such as a connection string of another resource. A nil result with no
// error means the value is deliberately absent.
type ValueProvider interface {
	GetValue(ctx context.Context) (*string, error)
}

// SourceDescriber is optionally implemented by providers to describe where
// a value comes from, for log messages.
type SourceDescriber interface {
	ValueSource() string
}

// ResolutionChecker is optionally implemented by providers that can report
// whether their value is already available without blocking.
type ResolutionChecker interface {
	Resolved() bool
}

// Value is either a literal string or a deferred provider. Environment and
// argument maps mix both; a uniform resolution step collapses them.
type Value struct {
	literal  string
	provider ValueProvider
}

// Literal wraps a plain string value.
func Literal(s string) Value {
	return Value{literal: s}
}

// Deferred wraps a provider whose value resolves asynchronously.
func Deferred(p ValueProvider) Value {
	return Value{provider: p}
}

// IsDeferred reports whether the value needs provider resolution.
func (v Value) IsDeferred() bool {
	return v.provider != nil
}

// Provider returns the deferred provider, or nil for literals.
func (v Value) Provider() ValueProvider {
	return v.provider
}

// Resolve collapses the value to a string. Literal values resolve to
// themselves; deferred values are awaited. A nil result means the value is
// absent and its key should be omitted.
func (v Value) Resolve(ctx context.Context) (*string, error) {
	if v.provider == nil {
		s := v.literal
		return &s, nil
	}
	return v.provider.GetValue(ctx)
}

// EndpointReference resolves to the URL of another resource's allocated
// endpoint.
type EndpointReference struct {
	Resource     *Resource
	EndpointName string
}

var _ ValueProvider = (*EndpointReference)(nil)
var _ SourceDescriber = (*EndpointReference)(nil)
var _ ResolutionChecker = (*EndpointReference)(nil)

func (er *EndpointReference) GetValue(_ context.Context) (*string, error) {
	alloc, ok := er.Resource.AllocatedEndpoint(er.EndpointName)
	if !ok {
		return nil, fmt.Errorf("endpoint %q of resource %q has no allocated address yet",
			er.EndpointName, er.Resource.Name)
	}
	url := fmt.Sprintf("%s://%s:%d", alloc.Scheme, alloc.Address, alloc.Port)
	return &url, nil
}

func (er *EndpointReference) Resolved() bool {
	_, ok := er.Resource.AllocatedEndpoint(er.EndpointName)
	return ok
}

func (er *EndpointReference) ValueSource() string {
	return fmt.Sprintf("endpoint reference %s/%s", er.Resource.Name, er.EndpointName)
}

// ConnectionStringAnnotation carries a resource's connection string. The
// value may itself be deferred.
type ConnectionStringAnnotation struct {
	Value Value
}

// WithConnectionString sets the resource's connection string.
func (r *Resource) WithConnectionString(v Value) *Resource {
	r.Annotations.Add(ConnectionStringAnnotation{Value: v})
	return r
}

// ConnectionStringReference resolves to another resource's connection
// string. When Optional is set and the target declares none, the value is
// absent rather than an error.
type ConnectionStringReference struct {
	Resource *Resource
	Optional bool
}

var _ ValueProvider = (*ConnectionStringReference)(nil)
var _ SourceDescriber = (*ConnectionStringReference)(nil)

func (cr *ConnectionStringReference) GetValue(ctx context.Context) (*string, error) {
	ann, ok := FirstOfType[ConnectionStringAnnotation](&cr.Resource.Annotations)
	if !ok {
		if cr.Optional {
			return nil, nil
		}
		return nil, fmt.Errorf("resource %q has no connection string", cr.Resource.Name)
	}
	val, err := ann.Value.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if val == nil && !cr.Optional {
		return nil, fmt.Errorf("connection string of resource %q resolved to nothing", cr.Resource.Name)
	}
	return val, nil
}

func (cr *ConnectionStringReference) ValueSource() string {
	return fmt.Sprintf("connection string reference %s", cr.Resource.Name)
}
