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
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/watch"

	"github.com/ks1990cn/aspire/api/v1alpha1"
)

// createServices creates every Service descriptor, then drives a watch
// loop until each pending (proxied, address-incomplete) service has a
// complete address. The watch subscribes without an initial
// resourceVersion, so it only observes updates made after subscription;
// the creates above have already been issued by then. An update racing
// into the gap between create and subscribe is a known, unguarded hole.
func (o *Orchestrator) createServices(ctx context.Context) error {
	pending := make(map[string]*serviceEntry, len(o.index.services))

	for _, se := range o.index.services {
		created, err := o.cp.CreateService(ctx, se.service)
		if err != nil {
			if ctx.Err() != nil {
				// User-initiated interrupt, not a failure.
				o.log.V(1).Info("cancelled while creating services")
				return nil
			}
			return fmt.Errorf("creating service %q: %w", se.service.Name, err)
		}
		se.service = created
		if !created.Proxyless() && !created.HasCompleteAddress() {
			pending[created.Name] = se
		}
	}

	if len(pending) == 0 {
		return nil
	}
	return o.watchServiceAddresses(ctx, pending)
}

// watchServiceAddresses consumes the Service change-event stream until
// every pending entry has a complete address. Bookmark events carry no
// payload and are skipped. Observing the same update twice is harmless:
// the first observation removes the entry from the pending set.
func (o *Orchestrator) watchServiceAddresses(ctx context.Context, pending map[string]*serviceEntry) error {
	w, err := o.cp.WatchServices(ctx)
	if err != nil {
		if ctx.Err() != nil {
			o.log.V(1).Info("cancelled before watching services")
			return nil
		}
		return err
	}
	defer w.Stop()

	o.log.V(1).Info("waiting for service address allocation", "pending", len(pending))

	for len(pending) > 0 {
		select {
		case <-ctx.Done():
			o.log.V(1).Info("service watch cancelled")
			return nil
		case ev, ok := <-w.ResultChan():
			if !ok {
				// Stream ended; the binder will flag anything still
				// incomplete as an invariant violation.
				return nil
			}
			if ev.Type == watch.Bookmark {
				continue
			}
			u, ok := ev.Object.(*unstructured.Unstructured)
			if !ok {
				continue
			}
			svc := &v1alpha1.Service{}
			if err := v1alpha1.FromUnstructured(u, svc); err != nil {
				o.log.Error(err, "malformed service event", "name", u.GetName())
				continue
			}
			se, ok := pending[svc.Name]
			if !ok {
				continue
			}
			if svc.HasCompleteAddress() || svc.Proxyless() {
				se.service = svc
				delete(pending, svc.Name)
				o.log.V(2).Info("service address allocated",
					"service", svc.Name, "address", svc.EffectiveAddress(), "port", svc.EffectivePort())
			}
		}
	}
	return nil
}
