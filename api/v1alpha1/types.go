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

package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// PortProtocol is the transport protocol of a service or container port.
type PortProtocol string

const (
	ProtocolTCP PortProtocol = "TCP"
	ProtocolUDP PortProtocol = "UDP"
)

// AddressAllocationMode controls who picks the address for a Service.
type AddressAllocationMode string

const (
	// AddressAllocationModeLocalhost lets the control plane allocate a
	// localhost address and proxy connections through it.
	AddressAllocationModeLocalhost AddressAllocationMode = "Localhost"
	// AddressAllocationModeProxyless uses the declared address/port
	// directly; the control plane does not intermediate traffic.
	AddressAllocationModeProxyless AddressAllocationMode = "Proxyless"
)

// EnvVar is a single environment variable on an executable or container.
type EnvVar struct {
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
}

// ServiceProducer records that a workload object produces a named service
// on a given port. The control plane joins producers to Service objects by
// service name.
type ServiceProducer struct {
	ServiceName string `json:"serviceName"`
	Address     string `json:"address,omitempty"`
	Port        *int32 `json:"port,omitempty"`
}

// Service is a named network endpoint whose concrete address is allocated
// by the control plane (unless proxyless).
type Service struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   ServiceSpec   `json:"spec,omitempty"`
	Status ServiceStatus `json:"status,omitempty"`
}

type ServiceSpec struct {
	// Address is the requested listen address. Usually empty; the control
	// plane picks one unless the allocation mode is proxyless.
	Address *string `json:"address,omitempty"`
	// Port is the requested port. Required for proxyless services.
	Port     *int32       `json:"port,omitempty"`
	Protocol PortProtocol `json:"protocol,omitempty"`
	// AddressAllocationMode defaults to Localhost (proxied).
	AddressAllocationMode AddressAllocationMode `json:"addressAllocationMode,omitempty"`
}

type ServiceStatus struct {
	State string `json:"state,omitempty"`
	// EffectiveAddress and EffectivePort are filled in by the control
	// plane once the service address has been allocated.
	EffectiveAddress *string `json:"effectiveAddress,omitempty"`
	EffectivePort    *int32  `json:"effectivePort,omitempty"`
}

// NewService returns a Service descriptor with its type metadata set.
func NewService(name string) *Service {
	return &Service{
		TypeMeta: metav1.TypeMeta{
			APIVersion: GroupVersion.String(),
			Kind:       ServiceKind,
		},
		ObjectMeta: metav1.ObjectMeta{Name: name},
	}
}

// Proxyless reports whether the service uses the declared address/port
// directly instead of a control-plane-allocated proxy address.
func (s *Service) Proxyless() bool {
	return s.Spec.AddressAllocationMode == AddressAllocationModeProxyless
}

// EffectiveAddress returns the allocated address, falling back to the
// requested one. Empty when neither is known.
func (s *Service) EffectiveAddress() string {
	if s.Status.EffectiveAddress != nil {
		return *s.Status.EffectiveAddress
	}
	if s.Spec.Address != nil {
		return *s.Spec.Address
	}
	return ""
}

// EffectivePort returns the allocated port, falling back to the requested
// one. Zero when neither is known.
func (s *Service) EffectivePort() int32 {
	if s.Status.EffectivePort != nil {
		return *s.Status.EffectivePort
	}
	if s.Spec.Port != nil {
		return *s.Spec.Port
	}
	return 0
}

// HasCompleteAddress reports whether both the address and the port of the
// service are known.
func (s *Service) HasCompleteAddress() bool {
	return s.EffectiveAddress() != "" && s.EffectivePort() > 0
}

// ExecutionType selects how an Executable is started.
type ExecutionType string

const (
	// ExecutionTypeProcess starts the executable as a plain OS process.
	ExecutionTypeProcess ExecutionType = "Process"
	// ExecutionTypeIDE defers the start to an attached debug session.
	ExecutionTypeIDE ExecutionType = "IDE"
)

// Executable is a single process the control plane starts and supervises.
type Executable struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   ExecutableSpec   `json:"spec,omitempty"`
	Status ExecutableStatus `json:"status,omitempty"`
}

type ExecutableSpec struct {
	ExecutablePath   string        `json:"executablePath,omitempty"`
	WorkingDirectory string        `json:"workingDirectory,omitempty"`
	Args             []string      `json:"args,omitempty"`
	Env              []EnvVar      `json:"env,omitempty"`
	ExecutionType    ExecutionType `json:"executionType,omitempty"`
	// ServiceProducers lists the services this executable listens for,
	// joined to Service objects by name.
	ServiceProducers []ServiceProducer `json:"serviceProducers,omitempty"`
}

type ExecutableStatus struct {
	State    string `json:"state,omitempty"`
	PID      int64  `json:"pid,omitempty"`
	ExitCode *int32 `json:"exitCode,omitempty"`
}

// NewExecutable returns an Executable descriptor with its type metadata set.
func NewExecutable(name string) *Executable {
	return &Executable{
		TypeMeta: metav1.TypeMeta{
			APIVersion: GroupVersion.String(),
			Kind:       ExecutableKind,
		},
		ObjectMeta: metav1.ObjectMeta{Name: name},
	}
}

// ExecutableTemplate is the per-replica template of an ExecutableReplicaSet.
type ExecutableTemplate struct {
	Labels      map[string]string `json:"labels,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty"`
	Spec        ExecutableSpec    `json:"spec,omitempty"`
}

// ExecutableReplicaSet runs N replicas of an executable template. Each
// replica resolves its own service ports at start time.
type ExecutableReplicaSet struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   ExecutableReplicaSetSpec   `json:"spec,omitempty"`
	Status ExecutableReplicaSetStatus `json:"status,omitempty"`
}

type ExecutableReplicaSetSpec struct {
	Replicas *int32             `json:"replicas,omitempty"`
	Template ExecutableTemplate `json:"template,omitempty"`
}

type ExecutableReplicaSetStatus struct {
	ObservedReplicas int32 `json:"observedReplicas,omitempty"`
}

// NewExecutableReplicaSet returns an ExecutableReplicaSet descriptor with
// its type metadata set.
func NewExecutableReplicaSet(name string) *ExecutableReplicaSet {
	return &ExecutableReplicaSet{
		TypeMeta: metav1.TypeMeta{
			APIVersion: GroupVersion.String(),
			Kind:       ExecutableReplicaSetKind,
		},
		ObjectMeta: metav1.ObjectMeta{Name: name},
	}
}

// ContainerPort is a single port mapping between a container and its host.
type ContainerPort struct {
	ContainerPort int32        `json:"containerPort"`
	HostPort      *int32       `json:"hostPort,omitempty"`
	HostIP        string       `json:"hostIP,omitempty"`
	Protocol      PortProtocol `json:"protocol,omitempty"`
}

// VolumeMountType distinguishes bind mounts from named/anonymous volumes.
type VolumeMountType string

const (
	VolumeMountTypeBind   VolumeMountType = "Bind"
	VolumeMountTypeVolume VolumeMountType = "Volume"
)

// VolumeMount mounts a host path or volume into a container. Bind mounts
// require Source; anonymous volumes leave it empty.
type VolumeMount struct {
	Type     VolumeMountType `json:"type,omitempty"`
	Source   string          `json:"source,omitempty"`
	Target   string          `json:"target"`
	ReadOnly bool            `json:"readOnly,omitempty"`
}

// Container is a container workload the control plane creates through the
// container runtime.
type Container struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   ContainerSpec   `json:"spec,omitempty"`
	Status ContainerStatus `json:"status,omitempty"`
}

type ContainerSpec struct {
	Image            string            `json:"image"`
	Args             []string          `json:"args,omitempty"`
	Env              []EnvVar          `json:"env,omitempty"`
	Ports            []ContainerPort   `json:"ports,omitempty"`
	VolumeMounts     []VolumeMount     `json:"volumeMounts,omitempty"`
	ServiceProducers []ServiceProducer `json:"serviceProducers,omitempty"`
}

type ContainerStatus struct {
	State       string `json:"state,omitempty"`
	ContainerID string `json:"containerID,omitempty"`
	ExitCode    *int32 `json:"exitCode,omitempty"`
}

// NewContainer returns a Container descriptor with its type metadata set.
func NewContainer(name string) *Container {
	return &Container{
		TypeMeta: metav1.TypeMeta{
			APIVersion: GroupVersion.String(),
			Kind:       ContainerKind,
		},
		ObjectMeta: metav1.ObjectMeta{Name: name},
	}
}
