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

// Package metadata defines the labels stamped on every descriptor object
// the orchestrator creates, so that one run's objects can be told apart
// from anything else living on the control plane.
package metadata

import (
	"errors"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const (
	// LabelPrefix is the label key prefix for orchestrator-owned objects.
	LabelPrefix = "orchestrator.aspire.dev/"

	// OwnedLabel marks objects created by the orchestrator.
	OwnedLabel = LabelPrefix + "owned"
	// ResourceNameLabel links a descriptor back to the declared
	// application resource it was materialized from.
	ResourceNameLabel = LabelPrefix + "resource-name"
	// ResourceKindLabel records the declared resource kind
	// (Project/Executable/Container).
	ResourceKindLabel = LabelPrefix + "resource-kind"
	// ApplicationLabel names the application model the object belongs to.
	ApplicationLabel = LabelPrefix + "application"
)

// ErrDuplicatedLabels is returned by Merge on key collisions.
var ErrDuplicatedLabels = errors.New("duplicate labels")

// Labeler is a set of labels that can be applied to a descriptor object.
type Labeler interface {
	Labels() map[string]string
	ApplyLabels(metav1.Object)
	Merge(Labeler) (Labeler, error)
}

// GenericLabeler is a plain map implementing Labeler.
type GenericLabeler map[string]string

var _ Labeler = GenericLabeler{}

func (gl GenericLabeler) Labels() map[string]string {
	return gl
}

func (gl GenericLabeler) ApplyLabels(meta metav1.Object) {
	labels := meta.GetLabels()
	if labels == nil {
		labels = make(map[string]string, len(gl))
	}
	for k, v := range gl {
		labels[k] = v
	}
	meta.SetLabels(labels)
}

// Merge combines two labelers. Duplicate keys are an error.
func (gl GenericLabeler) Merge(other Labeler) (Labeler, error) {
	merged := make(GenericLabeler, len(gl)+len(other.Labels()))
	for k, v := range gl {
		merged[k] = v
	}
	for k, v := range other.Labels() {
		if _, exists := merged[k]; exists {
			return nil, ErrDuplicatedLabels
		}
		merged[k] = v
	}
	return merged, nil
}

// NewResourceLabeler returns the labels for descriptors materialized from
// one declared resource.
func NewResourceLabeler(application, resourceName, resourceKind string) GenericLabeler {
	return GenericLabeler{
		OwnedLabel:        "true",
		ApplicationLabel:  application,
		ResourceNameLabel: resourceName,
		ResourceKindLabel: resourceKind,
	}
}

// IsOwned reports whether the object carries the orchestrator's owned
// label.
func IsOwned(meta metav1.Object) bool {
	return meta.GetLabels()[OwnedLabel] == "true"
}
