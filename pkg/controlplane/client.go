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

// Package controlplane wraps the dynamic client of the Kubernetes-style
// control-plane API the orchestrator creates, deletes and watches
// descriptor objects through.
package controlplane

import (
	"context"
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/rest"

	"github.com/ks1990cn/aspire/api/v1alpha1"
)

// Interface is the control-plane surface the orchestrator consumes.
// Create is not assumed idempotent: duplicate names are a control-plane
// error. Delete errors are the caller's to log, not to propagate.
type Interface interface {
	CreateService(ctx context.Context, svc *v1alpha1.Service) (*v1alpha1.Service, error)
	CreateExecutable(ctx context.Context, exe *v1alpha1.Executable) (*v1alpha1.Executable, error)
	CreateExecutableReplicaSet(ctx context.Context, ers *v1alpha1.ExecutableReplicaSet) (*v1alpha1.ExecutableReplicaSet, error)
	CreateContainer(ctx context.Context, ctr *v1alpha1.Container) (*v1alpha1.Container, error)

	// WatchServices subscribes to Service change events from the moment
	// of subscription onward. The stream includes Bookmark events that
	// carry no payload.
	WatchServices(ctx context.Context) (watch.Interface, error)

	Delete(ctx context.Context, gvr schema.GroupVersionResource, name string) error
}

// Client implements Interface over a dynamic client.
type Client struct {
	dyn       dynamic.Interface
	namespace string
}

var _ Interface = (*Client)(nil)

// New builds a client from a REST config.
func New(cfg *rest.Config, namespace string) (*Client, error) {
	dyn, err := dynamic.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating dynamic client: %w", err)
	}
	return NewWithDynamic(dyn, namespace), nil
}

// NewWithDynamic wraps an existing dynamic client. Used by tests with the
// fake dynamic client.
func NewWithDynamic(dyn dynamic.Interface, namespace string) *Client {
	if namespace == "" {
		namespace = metav1.NamespaceDefault
	}
	return &Client{dyn: dyn, namespace: namespace}
}

// Namespace returns the namespace all descriptor objects live in.
func (c *Client) Namespace() string {
	return c.namespace
}

func (c *Client) CreateService(ctx context.Context, svc *v1alpha1.Service) (*v1alpha1.Service, error) {
	out := &v1alpha1.Service{}
	if err := c.create(ctx, v1alpha1.ServicesGVR, svc, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateExecutable(ctx context.Context, exe *v1alpha1.Executable) (*v1alpha1.Executable, error) {
	out := &v1alpha1.Executable{}
	if err := c.create(ctx, v1alpha1.ExecutablesGVR, exe, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateExecutableReplicaSet(ctx context.Context, ers *v1alpha1.ExecutableReplicaSet) (*v1alpha1.ExecutableReplicaSet, error) {
	out := &v1alpha1.ExecutableReplicaSet{}
	if err := c.create(ctx, v1alpha1.ExecutableReplicaSetsGVR, ers, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateContainer(ctx context.Context, ctr *v1alpha1.Container) (*v1alpha1.Container, error) {
	out := &v1alpha1.Container{}
	if err := c.create(ctx, v1alpha1.ContainersGVR, ctr, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) create(ctx context.Context, gvr schema.GroupVersionResource, obj, into interface{}) error {
	u, err := v1alpha1.ToUnstructured(obj)
	if err != nil {
		return err
	}
	u.SetNamespace(c.namespace)
	created, err := c.dyn.Resource(gvr).Namespace(c.namespace).Create(ctx, u, metav1.CreateOptions{})
	if err != nil {
		return fmt.Errorf("creating %s %q: %w", gvr.Resource, u.GetName(), err)
	}
	return v1alpha1.FromUnstructured(created, into)
}

// WatchServices subscribes without an initial resourceVersion, so it
// observes updates from the moment of subscription onward. Callers must
// have issued creates before subscribing.
func (c *Client) WatchServices(ctx context.Context) (watch.Interface, error) {
	w, err := c.dyn.Resource(v1alpha1.ServicesGVR).Namespace(c.namespace).Watch(ctx, metav1.ListOptions{
		AllowWatchBookmarks: true,
	})
	if err != nil {
		return nil, fmt.Errorf("watching services: %w", err)
	}
	return w, nil
}

func (c *Client) Delete(ctx context.Context, gvr schema.GroupVersionResource, name string) error {
	err := c.dyn.Resource(gvr).Namespace(c.namespace).Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil {
		return fmt.Errorf("deleting %s %q: %w", gvr.Resource, name, err)
	}
	return nil
}
