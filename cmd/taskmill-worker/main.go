// Copyright 2026 The taskmill Authors
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
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taskmill/taskmill/internal/config"
	"github.com/taskmill/taskmill/internal/logger"
	"github.com/taskmill/taskmill/sdk/activity"
	"github.com/taskmill/taskmill/sdk/worker"
)

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("worker exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	host := flag.String("host", cfg.NATS.Host, "NATS server host")
	port := flag.String("port", cfg.NATS.Port, "NATS server port")
	namespace := flag.String("namespace", cfg.Worker.Namespace, "worker namespace")
	flag.Parse()

	cfg.NATS.Host = *host
	cfg.NATS.Port = *port
	cfg.NATS.URL = fmt.Sprintf("nats://%s:%s", *host, *port)
	cfg.Worker.Namespace = *namespace

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	lg, err := logger.NewLogger(ctx, &logger.LoggerOptions{
		Mode:    cfg.Mode,
		Service: cfg.Service,
		Version: cfg.Version,
		Writer:  os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	slog.SetDefault(lg.Slogger)
	defer func() {
		if lg.LoggerProvider != nil {
			if err := lg.LoggerProvider.Shutdown(ctx); err != nil {
				slog.Error("failed to shut down logger provider", "error", err)
			}
		}
	}()

	conn, err := worker.ConnectNATS(cfg, cfg.Worker.Namespace, nil)
	if err != nil {
		return fmt.Errorf("connecting to NATS: %w", err)
	}
	defer conn.Close()
	conn.SetLogger(lg.Slogger)

	if err := conn.EnsureStreams(ctx); err != nil {
		return fmt.Errorf("provisioning streams: %w", err)
	}

	w, err := worker.New(&worker.Options{
		Namespace:               cfg.Worker.Namespace,
		MaxConcurrentActivities: cfg.Worker.MaxConcurrent,
		Source:                  conn,
		Sink:                    conn,
		Logger:                  lg.Slogger,
	})
	if err != nil {
		return fmt.Errorf("creating worker: %w", err)
	}

	for _, fn := range []any{Sleep, TransferBatch} {
		if err := w.RegisterActivity(fn); err != nil {
			return fmt.Errorf("registering activity: %w", err)
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Run(runCtx)
	}()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		slog.InfoContext(ctx, "shutdown signal received, draining", "in_flight", w.InFlight())
		w.Shutdown()
	case err := <-errCh:
		if err != nil {
			slog.ErrorContext(ctx, "worker run failed", "error", err)
			return err
		}
		return nil
	}

	// A second signal escalates the drain to a forced stop.
	done := make(chan struct{})
	go func() {
		if w.AwaitTermination(cfg.Worker.DrainTimeout) {
			close(done)
		}
	}()

	select {
	case <-done:
		slog.InfoContext(ctx, "worker drained cleanly")
	case <-sigCh:
		slog.WarnContext(ctx, "second signal received, interrupting in-flight activities")
		w.ShutdownNow()
		if !w.AwaitTermination(cfg.Worker.ForcedStopTimeout) {
			slog.ErrorContext(ctx, "worker did not terminate before deadline", "in_flight", w.InFlight())
		}
	case <-time.After(cfg.Worker.DrainTimeout):
		slog.WarnContext(ctx, "drain deadline exceeded, interrupting in-flight activities")
		w.ShutdownNow()
		w.AwaitTermination(cfg.Worker.ForcedStopTimeout)
	}

	cancel()
	return nil
}

// Sleep pauses for the given duration, heartbeating once a second so a
// forced worker stop interrupts it promptly.
func Sleep(ctx context.Context, d time.Duration) (string, error) {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if err := activity.RecordHeartbeat(ctx, time.Until(deadline).String()); err != nil {
			return "", err
		}
		select {
		case <-ctx.Done():
			return "", context.Cause(ctx)
		case <-time.After(min(time.Second, time.Until(deadline))):
		}
	}
	return "slept " + d.String(), nil
}

// TransferBatch simulates a chunked unit of work that heartbeats between
// chunks and reports how many it processed.
func TransferBatch(ctx context.Context, items int) (int, error) {
	processed := 0
	for i := 0; i < items; i++ {
		if err := activity.RecordHeartbeat(ctx, processed); err != nil {
			return processed, err
		}
		select {
		case <-ctx.Done():
			return processed, context.Cause(ctx)
		case <-time.After(100 * time.Millisecond):
			processed++
		}
	}
	return processed, nil
}
