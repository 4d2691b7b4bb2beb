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

// Protocol is the transport protocol of a declared endpoint.
type Protocol string

const (
	ProtocolTCP Protocol = "tcp"
	ProtocolUDP Protocol = "udp"
)

// Endpoint is a named network endpoint a resource wants. Declared before
// orchestration starts; read-only to the orchestrator.
type Endpoint struct {
	// Name is unique among the endpoints of one resource.
	Name string
	// Scheme is the URI scheme, e.g. "http", "https", "tcp".
	Scheme string
	// Protocol defaults to tcp.
	Protocol Protocol
	// Port is the desired host port. Required when Proxied is false.
	Port *int32
	// Proxied means the control plane intermediates the connection and
	// allocates the externally visible address/port.
	Proxied bool
	// ContainerPort is the fixed port inside the container, for container
	// resources.
	ContainerPort *int32
	// EnvVar optionally names an environment variable that receives the
	// resolved port.
	EnvVar string
}

// IsHTTP reports whether the endpoint speaks HTTP or HTTPS.
func (e Endpoint) IsHTTP() bool {
	return e.Scheme == "http" || e.Scheme == "https"
}

// AllocatedEndpoint is a realized endpoint, appended to the owning
// resource once the corresponding service has a complete address.
type AllocatedEndpoint struct {
	// Name matches the declared endpoint's name.
	Name     string
	Scheme   string
	Protocol Protocol
	Address  string
	Port     int32
}

// Endpoints returns the resource's declared endpoints in declaration order.
func (r *Resource) Endpoints() []Endpoint {
	return OfType[Endpoint](&r.Annotations)
}

// AllocatedEndpoints returns the endpoints realized so far.
func (r *Resource) AllocatedEndpoints() []AllocatedEndpoint {
	return OfType[AllocatedEndpoint](&r.Annotations)
}

// AllocatedEndpoint returns the realized endpoint with the given declared
// name, if the allocation has happened.
func (r *Resource) AllocatedEndpoint(name string) (AllocatedEndpoint, bool) {
	for _, a := range r.AllocatedEndpoints() {
		if a.Name == name {
			return a, true
		}
	}
	return AllocatedEndpoint{}, false
}

// WithEndpoint declares an endpoint on the resource.
func (r *Resource) WithEndpoint(e Endpoint) *Resource {
	if e.Protocol == "" {
		e.Protocol = ProtocolTCP
	}
	r.Annotations.Add(e)
	return r
}
