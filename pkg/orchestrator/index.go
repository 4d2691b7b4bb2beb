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
	"github.com/ks1990cn/aspire/api/v1alpha1"
	"github.com/ks1990cn/aspire/pkg/appmodel"
)

// serviceEntry pairs one declared endpoint with the Service descriptor
// created for it, plus the producer fact forwarded to the control plane.
type serviceEntry struct {
	resource *appmodel.Resource
	endpoint appmodel.Endpoint
	service  *v1alpha1.Service
	producer v1alpha1.ServiceProducer
}

// workloadEntry pairs one declared resource with the workload descriptor
// created for it. Exactly one of executable, replicaSet or container is
// set; consumption sites switch over the three exhaustively. Only workload
// entries carry produced-service lists.
type workloadEntry struct {
	resource   *appmodel.Resource
	executable *v1alpha1.Executable
	replicaSet *v1alpha1.ExecutableReplicaSet
	container  *v1alpha1.Container
	produces   []*serviceEntry
}

// objectName is the control-plane object name of the workload descriptor.
func (we *workloadEntry) objectName() string {
	switch {
	case we.executable != nil:
		return we.executable.Name
	case we.replicaSet != nil:
		return we.replicaSet.Name
	case we.container != nil:
		return we.container.Name
	}
	return ""
}

// executionType is the execution mode of executable-backed workloads,
// empty for containers.
func (we *workloadEntry) executionType() v1alpha1.ExecutionType {
	switch {
	case we.executable != nil:
		return we.executable.Spec.ExecutionType
	case we.replicaSet != nil:
		return we.replicaSet.Spec.Template.Spec.ExecutionType
	}
	return ""
}

// resourceType is the declared kind published in state notifications.
func (we *workloadEntry) resourceType() string {
	return string(we.resource.Kind)
}

// resourceIndex is the append-only registry pairing declared resources
// with their control-plane descriptors. Written only during the
// single-threaded preparation phase, read-only afterwards; cleared
// atomically once teardown completes.
type resourceIndex struct {
	services  []*serviceEntry
	workloads []*workloadEntry
}

func newResourceIndex() *resourceIndex {
	return &resourceIndex{}
}

func (ix *resourceIndex) addService(se *serviceEntry) {
	ix.services = append(ix.services, se)
}

func (ix *resourceIndex) addWorkload(we *workloadEntry) {
	ix.workloads = append(ix.workloads, we)
}

func (ix *resourceIndex) clear() {
	ix.services = nil
	ix.workloads = nil
}
