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
	"fmt"

	"github.com/ks1990cn/aspire/pkg/appmodel"
)

// bindAllocatedEndpoints projects every service's effective address
// back onto its model resource as an AllocatedEndpoint annotation.
// After this phase, deferred endpoint references resolve without
// touching the control plane again.
func (o *Orchestrator) bindAllocatedEndpoints() error {
	for _, se := range o.index.services {
		svc := se.service
		if svc.Proxyless() {
			if svc.Spec.Port == nil {
				return &ConfigurationError{
					Resource: se.resource.Name,
					Endpoint: se.endpoint.Name,
					Reason:   "non-proxied endpoint has no port",
				}
			}
			se.resource.Annotations.Add(appmodel.AllocatedEndpoint{
				Name:     se.endpoint.Name,
				Scheme:   se.endpoint.Scheme,
				Protocol: se.endpoint.Protocol,
				Address:  svc.EffectiveAddress(),
				Port:     *svc.Spec.Port,
			})
			continue
		}
		if !svc.HasCompleteAddress() {
			// The watch phase ended without this service being
			// allocated; nothing downstream can be trusted.
			return &InvariantError{
				Reason: fmt.Sprintf("service %q has no allocated address", svc.Name),
			}
		}
		se.resource.Annotations.Add(appmodel.AllocatedEndpoint{
			Name:     se.endpoint.Name,
			Scheme:   se.endpoint.Scheme,
			Protocol: se.endpoint.Protocol,
			Address:  svc.EffectiveAddress(),
			Port:     svc.EffectivePort(),
		})
	}
	return nil
}
