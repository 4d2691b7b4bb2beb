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
	"sync"

	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/watch"

	"github.com/ks1990cn/aspire/api/v1alpha1"
	"github.com/ks1990cn/aspire/pkg/controlplane"
)

// fakeControlPlane records created and deleted objects and allows tests
// to inject per-call failures and a scripted watch stream.
type fakeControlPlane struct {
	mu sync.Mutex

	services    []*v1alpha1.Service
	executables []*v1alpha1.Executable
	replicaSets []*v1alpha1.ExecutableReplicaSet
	containers  []*v1alpha1.Container
	deleted     []string

	// allocatePorts assigns sequential effective addresses to created
	// proxied services immediately, standing in for the address allocator.
	allocatePorts bool
	nextPort      int32

	failService    func(*v1alpha1.Service) error
	failExecutable func(*v1alpha1.Executable) error
	failContainer  func(*v1alpha1.Container) error

	watcher *watch.FakeWatcher
}

var _ controlplane.Interface = (*fakeControlPlane)(nil)

func newFakeControlPlane() *fakeControlPlane {
	return &fakeControlPlane{allocatePorts: true, nextPort: 50001}
}

func (f *fakeControlPlane) CreateService(_ context.Context, svc *v1alpha1.Service) (*v1alpha1.Service, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failService != nil {
		if err := f.failService(svc); err != nil {
			return nil, err
		}
	}
	copied := *svc
	out := &copied
	if f.allocatePorts && !out.Proxyless() {
		addr := "localhost"
		port := f.nextPort
		f.nextPort++
		out.Status.EffectiveAddress = &addr
		out.Status.EffectivePort = &port
	}
	f.services = append(f.services, out)
	return out, nil
}

func (f *fakeControlPlane) CreateExecutable(_ context.Context, exe *v1alpha1.Executable) (*v1alpha1.Executable, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failExecutable != nil {
		if err := f.failExecutable(exe); err != nil {
			return nil, err
		}
	}
	f.executables = append(f.executables, exe)
	return exe, nil
}

func (f *fakeControlPlane) CreateExecutableReplicaSet(_ context.Context, ers *v1alpha1.ExecutableReplicaSet) (*v1alpha1.ExecutableReplicaSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replicaSets = append(f.replicaSets, ers)
	return ers, nil
}

func (f *fakeControlPlane) CreateContainer(_ context.Context, ctr *v1alpha1.Container) (*v1alpha1.Container, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failContainer != nil {
		if err := f.failContainer(ctr); err != nil {
			return nil, err
		}
	}
	f.containers = append(f.containers, ctr)
	return ctr, nil
}

func (f *fakeControlPlane) WatchServices(_ context.Context) (watch.Interface, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.watcher == nil {
		f.watcher = watch.NewFake()
	}
	return f.watcher, nil
}

func (f *fakeControlPlane) Delete(_ context.Context, gvr schema.GroupVersionResource, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, gvr.Resource+"/"+name)
	return nil
}

func (f *fakeControlPlane) createdServiceNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.services))
	for _, s := range f.services {
		names = append(names, s.Name)
	}
	return names
}
