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

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
	"k8s.io/client-go/tools/clientcmd"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	ctrlmetrics "sigs.k8s.io/controller-runtime/pkg/metrics"

	"github.com/ks1990cn/aspire/pkg/controlplane"
	"github.com/ks1990cn/aspire/pkg/notifications"
	"github.com/ks1990cn/aspire/pkg/orchestrator"
)

var (
	manifestPath string
	kubeconfig   string
	namespace    string
	metricsAddr  string
	dashboard    string
	runnerPath   string
	bindAddress  string
	watchMode    bool
	debug        bool
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "orchestrator",
		Short:         "Materialize a declarative application model through a control plane",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	cmd.Flags().StringVarP(&manifestPath, "manifest", "f", "app.yaml", "Application manifest to materialize")
	cmd.Flags().StringVar(&kubeconfig, "kubeconfig", "", "Path to the control-plane kubeconfig (defaults to the standard loading rules)")
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "default", "Namespace for descriptor objects")
	cmd.Flags().StringVar(&metricsAddr, "metrics-bind-address", ":8078", "The address the metric endpoint binds to")
	cmd.Flags().StringVar(&dashboard, "dashboard-path", "", "Dashboard executable, required when the manifest declares a dashboard resource")
	cmd.Flags().StringVar(&runnerPath, "project-runner-path", "", "Launcher binary for runnable projects")
	cmd.Flags().StringVar(&bindAddress, "bind-address", "", "Pin container host ports to one address")
	cmd.Flags().BoolVar(&watchMode, "watch", false, "Run projects with file watching and restart on change")
	cmd.Flags().BoolVar(&debug, "debug", false, "Set log level to debug")
	return cmd
}

func run() error {
	zapOpts := zap.Options{
		Development: debug,
		TimeEncoder: zapcore.ISO8601TimeEncoder,
	}
	log := zap.New(zap.UseFlagOptions(&zapOpts))
	ctrl.SetLogger(log)

	model, appName, err := loadManifest(manifestPath)
	if err != nil {
		return err
	}

	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfig != "" {
		loadingRules.ExplicitPath = kubeconfig
	}
	cfg, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		loadingRules, &clientcmd.ConfigOverrides{}).ClientConfig()
	if err != nil {
		return fmt.Errorf("loading control-plane config: %w", err)
	}

	cp, err := controlplane.New(cfg, namespace)
	if err != nil {
		return err
	}

	go serveMetrics(log, metricsAddr)

	notifier := notifications.NewPublisher(log)
	go printStatusUpdates(notifier)

	o := orchestrator.New(log, cp, notifier, model, orchestrator.DefaultMetrics(), orchestrator.Options{
		Application:       appName,
		DashboardPath:     dashboard,
		ProjectRunnerPath: runnerPath,
		BindAddress:       bindAddress,
		Watch:             watchMode,
	})

	ctx := ctrl.SetupSignalHandler()
	if err := o.Run(ctx); err != nil {
		// A partial run may already have created descriptors; leaving
		// them behind makes the next run fail on duplicate names.
		log.Error(err, "orchestration failed, tearing down partial state")
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		o.Stop(stopCtx)
		return err
	}
	log.Info("application is up", "application", appName, "resources", len(model.Resources()))

	<-ctx.Done()
	log.Info("shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	o.Stop(stopCtx)
	return nil
}

func serveMetrics(log logr.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(ctrlmetrics.Registry, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error(err, "metrics endpoint failed")
	}
}

// printStatusUpdates mirrors resource lifecycle changes to the terminal.
func printStatusUpdates(notifier *notifications.Publisher) {
	ch := notifier.Subscribe()
	for snap := range ch {
		var paint func(format string, a ...interface{}) string
		switch snap.State {
		case notifications.StateRunning:
			paint = color.GreenString
		case notifications.StateFailedToStart:
			paint = color.RedString
		default:
			paint = color.YellowString
		}
		fmt.Printf("%s %s (%s)\n", paint("%-14s", string(snap.State)), snap.Name, snap.ResourceType)
	}
}
