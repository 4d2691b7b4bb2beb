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

// MountType distinguishes bind mounts from volumes.
type MountType string

const (
	MountTypeBind   MountType = "bind"
	MountTypeVolume MountType = "volume"
)

// VolumeMount declares a mount on a container resource. Bind mounts need
// a source path; anonymous volumes leave Source empty.
type VolumeMount struct {
	Type     MountType
	Source   string
	Target   string
	ReadOnly bool
}

// WithVolumeMount declares a volume mount on the resource.
func (r *Resource) WithVolumeMount(m VolumeMount) *Resource {
	if m.Type == "" {
		m.Type = MountTypeBind
	}
	r.Annotations.Add(m)
	return r
}

// VolumeMounts returns the declared mounts in declaration order.
func (r *Resource) VolumeMounts() []VolumeMount {
	return OfType[VolumeMount](&r.Annotations)
}
