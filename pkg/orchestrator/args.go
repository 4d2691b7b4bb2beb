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
	"strings"

	"github.com/ks1990cn/aspire/api/v1alpha1"
	"github.com/ks1990cn/aspire/pkg/appmodel"
)

// noLaunchProfileFlag keeps the project runner from applying its own
// launch profile; the assembled environment already carries the
// profile-derived settings, with model settings layered on top.
const noLaunchProfileFlag = "--no-launch-profile"

// buildArgs assembles the full argument list of one workload: the
// invocation args seeded during preparation, then profile extras for
// directly-run projects, then callback-produced values resolved in order.
// Argument values are never host-rewritten; they are opaque to the
// orchestrator.
func (o *Orchestrator) buildArgs(ctx context.Context, we *workloadEntry) ([]string, error) {
	res := we.resource

	var args []string
	switch {
	case we.executable != nil:
		args = append(args, we.executable.Spec.Args...)
	case we.replicaSet != nil:
		args = append(args, we.replicaSet.Spec.Template.Spec.Args...)
	case we.container != nil:
		args = append(args, we.container.Spec.Args...)
	}

	isProject := appmodel.HasType[appmodel.ProjectMetadata](&res.Annotations)
	if isProject && we.executionType() == v1alpha1.ExecutionTypeProcess {
		args = append(args, noLaunchProfileFlag)
		if _, profile, ok := res.SelectedLaunchProfile(); ok {
			args = append(args, strings.Fields(profile.CommandLineArgs)...)
		}
	}

	var values []appmodel.Value
	for _, cb := range appmodel.OfType[appmodel.ArgsCallback](&res.Annotations) {
		if err := cb.Fn(ctx, &appmodel.ArgsContext{Resource: res, Args: &values}); err != nil {
			return nil, fmt.Errorf("args callback of %q: %w", res.Name, err)
		}
	}
	for i, val := range values {
		if val.IsDeferred() {
			if rc, ok := val.Provider().(appmodel.ResolutionChecker); ok && !rc.Resolved() {
				o.log.Info("waiting for a value", "arg", i, "source", describeSource(val.Provider()))
			}
		}
		resolved, err := val.Resolve(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolving arg %d of %q: %w", i, res.Name, err)
		}
		if resolved == nil {
			continue
		}
		args = append(args, *resolved)
	}
	return args, nil
}
