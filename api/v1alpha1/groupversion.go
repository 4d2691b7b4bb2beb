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

// Package v1alpha1 defines the descriptor types of the application
// control-plane API: services, executables, replica sets and containers.
package v1alpha1

import (
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// GroupName is the API group of all descriptor objects.
const GroupName = "usvc-dev.aspire.dev"

// Version is the API version of this package's types.
const Version = "v1alpha1"

// GroupVersion is the group/version of the descriptor API.
var GroupVersion = schema.GroupVersion{Group: GroupName, Version: Version}

// Descriptor kinds.
const (
	ServiceKind              = "Service"
	ExecutableKind           = "Executable"
	ExecutableReplicaSetKind = "ExecutableReplicaSet"
	ContainerKind            = "Container"
)

// GroupVersionResources of the descriptor objects, for the dynamic client.
var (
	ServicesGVR              = GroupVersion.WithResource("services")
	ExecutablesGVR           = GroupVersion.WithResource("executables")
	ExecutableReplicaSetsGVR = GroupVersion.WithResource("executablereplicasets")
	ContainersGVR            = GroupVersion.WithResource("containers")
)

// GroupVersionKinds of the descriptor objects.
var (
	ServiceGVK              = GroupVersion.WithKind(ServiceKind)
	ExecutableGVK           = GroupVersion.WithKind(ExecutableKind)
	ExecutableReplicaSetGVK = GroupVersion.WithKind(ExecutableReplicaSetKind)
	ContainerGVK            = GroupVersion.WithKind(ContainerKind)
)
