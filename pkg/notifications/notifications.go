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

// Package notifications publishes per-resource lifecycle-state snapshots to
// subscribers (dashboards, tests, the surrounding process).
package notifications

import (
	"sync"

	"github.com/go-logr/logr"
)

// ResourceState is the lifecycle state of one application resource.
type ResourceState string

const (
	StateStarting      ResourceState = "Starting"
	StateRunning       ResourceState = "Running"
	StateFailedToStart ResourceState = "FailedToStart"
	StateExited        ResourceState = "Exited"
	StateFinished      ResourceState = "Finished"
)

// Snapshot is the published view of one resource. Mutators receive a copy
// of the last snapshot and the publisher stores and fans out the result.
type Snapshot struct {
	Name         string
	ResourceType string
	State        ResourceState
	Properties   map[string]string
}

func (s Snapshot) clone() Snapshot {
	out := s
	if s.Properties != nil {
		out.Properties = make(map[string]string, len(s.Properties))
		for k, v := range s.Properties {
			out.Properties[k] = v
		}
	}
	return out
}

// Publisher fans resource snapshots out to subscriber channels. Slow
// subscribers drop updates rather than blocking the orchestrator.
type Publisher struct {
	log logr.Logger

	mu     sync.RWMutex
	latest map[string]Snapshot
	subs   map[chan Snapshot]struct{}
}

// NewPublisher returns an empty publisher.
func NewPublisher(log logr.Logger) *Publisher {
	return &Publisher{
		log:    log.WithName("notifications"),
		latest: make(map[string]Snapshot),
		subs:   make(map[chan Snapshot]struct{}),
	}
}

// PublishUpdate applies the mutator to the resource's last snapshot and
// publishes the result.
func (p *Publisher) PublishUpdate(resourceName string, mutate func(*Snapshot)) {
	p.mu.Lock()
	snap, ok := p.latest[resourceName]
	if !ok {
		snap = Snapshot{Name: resourceName}
	}
	next := snap.clone()
	mutate(&next)
	next.Name = resourceName
	p.latest[resourceName] = next

	for ch := range p.subs {
		select {
		case ch <- next.clone():
		default:
			p.log.V(1).Info("dropping notification for slow subscriber",
				"resource", resourceName, "state", next.State)
		}
	}
	p.mu.Unlock()
}

// Latest returns a copy of the last published snapshot for a resource.
func (p *Publisher) Latest(resourceName string) (Snapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	snap, ok := p.latest[resourceName]
	return snap.clone(), ok
}

// Subscribe returns a buffered channel receiving every subsequent update.
func (p *Publisher) Subscribe() chan Snapshot {
	ch := make(chan Snapshot, 64)
	p.mu.Lock()
	p.subs[ch] = struct{}{}
	p.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (p *Publisher) Unsubscribe(ch chan Snapshot) {
	p.mu.Lock()
	if _, ok := p.subs[ch]; ok {
		delete(p.subs, ch)
		close(ch)
	}
	p.mu.Unlock()
}
