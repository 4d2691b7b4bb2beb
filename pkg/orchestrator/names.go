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

	"k8s.io/apimachinery/pkg/util/sets"
)

// maxNameAttempts bounds collision resolution: the base name plus suffixes
// _1 through _99.
const maxNameAttempts = 100

// uniqueServiceName reserves a service name derived from base. On
// collision it appends _1, _2, ... and fails once the attempt budget is
// spent. The set is only touched during the single-threaded preparation
// phase; no locking.
func uniqueServiceName(used sets.Set[string], base string) (string, error) {
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		candidate := base
		if attempt > 0 {
			candidate = fmt.Sprintf("%s_%d", base, attempt)
		}
		if !used.Has(candidate) {
			used.Insert(candidate)
			return candidate, nil
		}
	}
	return "", &NameExhaustedError{Base: base}
}
