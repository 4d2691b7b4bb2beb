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
	"time"

	"github.com/prometheus/client_golang/prometheus"
	ctrlmetrics "sigs.k8s.io/controller-runtime/pkg/metrics"
)

func init() {
	ctrlmetrics.Registry.MustRegister(
		phaseDurationSeconds,
		workloadsCreatedTotal,
		workloadStartFailuresTotal,
	)
}

var (
	phaseDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orchestrator_phase_duration_seconds",
			Help:    "Duration of orchestration phases in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"phase"},
	)

	workloadsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orchestrator_workloads_created_total",
			Help: "Total number of workload descriptors created per resource type",
		},
		[]string{"resource_type"},
	)

	workloadStartFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orchestrator_workload_start_failures_total",
			Help: "Total number of per-resource start failures per resource type",
		},
		[]string{"resource_type"},
	)
)

// PhaseMetrics is the explicit metrics handle threaded through the
// orchestration phases. A nil handle disables recording.
type PhaseMetrics struct {
	phaseDuration *prometheus.HistogramVec
	created       *prometheus.CounterVec
	startFailures *prometheus.CounterVec
}

// DefaultMetrics returns the handle backed by the collectors registered on
// the controller-runtime registry.
func DefaultMetrics() *PhaseMetrics {
	return &PhaseMetrics{
		phaseDuration: phaseDurationSeconds,
		created:       workloadsCreatedTotal,
		startFailures: workloadStartFailuresTotal,
	}
}

func (m *PhaseMetrics) observePhase(phase string, start time.Time) {
	if m == nil {
		return
	}
	m.phaseDuration.WithLabelValues(phase).Observe(time.Since(start).Seconds())
}

func (m *PhaseMetrics) recordCreated(resourceType string) {
	if m == nil {
		return
	}
	m.created.WithLabelValues(resourceType).Inc()
}

func (m *PhaseMetrics) recordStartFailure(resourceType string) {
	if m == nil {
		return
	}
	m.startFailures.WithLabelValues(resourceType).Inc()
}
