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

package appmodel

// Annotation is a typed fact attached to a Resource. Annotations are
// open-ended: any package may define its own annotation types and query
// them back by type.
type Annotation interface{}

// AnnotationSet is an ordered, append-only collection of annotations.
// The orchestrator appends during a run and never removes.
type AnnotationSet struct {
	items []Annotation
}

// Add appends an annotation, preserving declaration order.
func (s *AnnotationSet) Add(a Annotation) {
	s.items = append(s.items, a)
}

// Len returns the number of annotations in the set.
func (s *AnnotationSet) Len() int {
	return len(s.items)
}

// All returns the annotations in declaration order. The returned slice
// must not be mutated.
func (s *AnnotationSet) All() []Annotation {
	return s.items
}

// OfType returns every annotation of type T in declaration order.
func OfType[T Annotation](s *AnnotationSet) []T {
	var out []T
	for _, a := range s.items {
		if t, ok := a.(T); ok {
			out = append(out, t)
		}
	}
	return out
}

// FirstOfType returns the first annotation of type T, if any.
func FirstOfType[T Annotation](s *AnnotationSet) (T, bool) {
	for _, a := range s.items {
		if t, ok := a.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

// HasType reports whether the set contains an annotation of type T.
func HasType[T Annotation](s *AnnotationSet) bool {
	_, ok := FirstOfType[T](s)
	return ok
}
