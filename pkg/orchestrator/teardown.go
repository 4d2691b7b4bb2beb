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
	"errors"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/ks1990cn/aspire/api/v1alpha1"
)

// teardown deletes everything the run created, most-derived first:
// replica sets before their executables, workloads before the services
// they produce. Individual delete failures are logged and skipped so one
// stuck object never strands the rest.
func (o *Orchestrator) teardown(ctx context.Context) {
	for _, we := range o.index.workloads {
		if we.replicaSet != nil {
			o.deleteObject(ctx, v1alpha1.ExecutableReplicaSetsGVR, we.replicaSet.Name)
		}
	}
	for _, we := range o.index.workloads {
		if we.executable != nil {
			o.deleteObject(ctx, v1alpha1.ExecutablesGVR, we.executable.Name)
		}
	}
	for _, we := range o.index.workloads {
		if we.container != nil {
			o.deleteObject(ctx, v1alpha1.ContainersGVR, we.container.Name)
		}
	}
	for _, se := range o.index.services {
		o.deleteObject(ctx, v1alpha1.ServicesGVR, se.service.Name)
	}
	o.index.clear()
}

func (o *Orchestrator) deleteObject(ctx context.Context, gvr schema.GroupVersionResource, name string) {
	err := o.cp.Delete(ctx, gvr, name)
	if err == nil {
		return
	}
	// Already gone is the outcome we wanted.
	var status *apierrors.StatusError
	if errors.As(err, &status) && apierrors.IsNotFound(status) {
		o.log.V(2).Info("object already deleted", "resource", gvr.Resource, "name", name)
		return
	}
	o.log.Error(err, "deleting object", "resource", gvr.Resource, "name", name)
}
