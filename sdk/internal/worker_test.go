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

package internal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/taskmill/taskmill/api"
	"github.com/taskmill/taskmill/sdk/internal/common"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testWorker(t *testing.T, sink ResultSink) *worker {
	t.Helper()
	w, err := NewWorker(&WorkerOptions{
		MaxConcurrentActivities: 10,
		Sink:                    sink,
		Logger:                  discardLogger(),
	})
	if err != nil {
		t.Fatalf("NewWorker() error: %v", err)
	}
	return w
}

func mustRegister(t *testing.T, w *worker, fn any) string {
	t.Helper()
	if err := w.RegisterActivity(fn); err != nil {
		t.Fatalf("RegisterActivity() error: %v", err)
	}
	name, err := common.ExtractFullFunctionName(fn)
	if err != nil {
		t.Fatalf("ExtractFullFunctionName() error: %v", err)
	}
	return name
}

// sleepAndReport sleeps for the given duration and reports completion.
// It ignores its context on purpose: a graceful drain must let it finish.
func sleepAndReport(_ context.Context, d time.Duration) (string, error) {
	time.Sleep(d)
	return "completed", nil
}

// blockUntilInterrupted waits for context cancellation and surfaces the
// cancellation cause.
func blockUntilInterrupted(ctx context.Context) (string, error) {
	<-ctx.Done()
	return "", context.Cause(ctx)
}

// sleepThenHeartbeat sleeps first and only then reports a heartbeat,
// passing along whatever the heartbeat returns.
func sleepThenHeartbeat(ctx context.Context, d time.Duration) (string, error) {
	time.Sleep(d)
	if err := RecordHeartbeat(ctx, "awake"); err != nil {
		return "", err
	}
	return "completed", nil
}

// heartbeatLoop records heartbeats in a tight loop without ever selecting
// on its context, relying on the heartbeat channel alone to observe a
// forced stop.
func heartbeatLoop(ctx context.Context) (string, error) {
	for {
		if err := RecordHeartbeat(ctx, time.Now()); err != nil {
			return "", err
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWorker_GracefulShutdownLetsWorkFinish(t *testing.T) {
	sink := NewMemorySink()
	w := testWorker(t, sink)
	name := mustRegister(t, w, sleepAndReport)

	inv := &api.ActivityInvocation{Token: "tok-sleep", ActivityFn: name, Input: []any{300 * time.Millisecond}}
	if err := w.Submit(inv); err != nil {
		t.Fatalf("Submit() error: %v", err)
	}

	w.Shutdown()
	if got := w.State(); got != StateDraining {
		t.Fatalf("State() = %q, want %q", got, StateDraining)
	}

	if !w.AwaitTermination(5 * time.Second) {
		t.Fatal("AwaitTermination() = false, worker did not drain")
	}

	outcome := sink.Outcome("tok-sleep")
	if outcome == nil {
		t.Fatal("no outcome reported for tok-sleep")
	}
	if !outcome.Completed() {
		t.Fatalf("outcome.Kind = %v, want OutcomeCompleted", outcome.Kind)
	}
	if len(outcome.Result) != 1 || outcome.Result[0] != "completed" {
		t.Errorf("outcome.Result = %v, want [completed]", outcome.Result)
	}
	if got := w.State(); got != StateStopped {
		t.Errorf("State() = %q, want %q", got, StateStopped)
	}
}

func TestWorker_ForcedShutdownInterruptsWork(t *testing.T) {
	sink := NewMemorySink()
	w := testWorker(t, sink)
	name := mustRegister(t, w, blockUntilInterrupted)

	inv := &api.ActivityInvocation{Token: "tok-block", ActivityFn: name}
	if err := w.Submit(inv); err != nil {
		t.Fatalf("Submit() error: %v", err)
	}

	w.ShutdownNow()
	if !w.AwaitTermination(5 * time.Second) {
		t.Fatal("AwaitTermination() = false, worker did not stop")
	}

	outcome := sink.Outcome("tok-block")
	if outcome == nil {
		t.Fatal("no outcome reported for tok-block")
	}
	if !outcome.Interrupted() {
		t.Fatalf("outcome.Kind = %v, want OutcomeInterrupted", outcome.Kind)
	}
}

func TestWorker_HeartbeatAfterGracefulShutdownCompletes(t *testing.T) {
	// A graceful shutdown leaves heartbeat channels untouched, so a body
	// that heartbeats mid-drain still runs to completion.
	sink := NewMemorySink()
	w := testWorker(t, sink)
	name := mustRegister(t, w, sleepThenHeartbeat)

	inv := &api.ActivityInvocation{Token: "tok-hb", ActivityFn: name, Input: []any{200 * time.Millisecond}}
	if err := w.Submit(inv); err != nil {
		t.Fatalf("Submit() error: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	w.Shutdown()

	if !w.AwaitTermination(5 * time.Second) {
		t.Fatal("AwaitTermination() = false, worker did not drain")
	}

	outcome := sink.Outcome("tok-hb")
	if outcome == nil {
		t.Fatal("no outcome reported for tok-hb")
	}
	if !outcome.Completed() {
		t.Fatalf("outcome.Kind = %v, want OutcomeCompleted", outcome.Kind)
	}
	if len(outcome.Result) != 1 || outcome.Result[0] != "completed" {
		t.Errorf("outcome.Result = %v, want [completed]", outcome.Result)
	}
}

func TestWorker_HeartbeatObservesForcedShutdown(t *testing.T) {
	// The body never watches its context; the heartbeat channel is its
	// only window onto the forced stop.
	sink := NewMemorySink()
	w := testWorker(t, sink)
	name := mustRegister(t, w, heartbeatLoop)

	inv := &api.ActivityInvocation{Token: "tok-loop", ActivityFn: name}
	if err := w.Submit(inv); err != nil {
		t.Fatalf("Submit() error: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	w.ShutdownNow()

	if !w.AwaitTermination(5 * time.Second) {
		t.Fatal("AwaitTermination() = false, worker did not stop")
	}

	outcome := sink.Outcome("tok-loop")
	if outcome == nil {
		t.Fatal("no outcome reported for tok-loop")
	}
	if !outcome.Interrupted() {
		t.Fatalf("outcome.Kind = %v, want OutcomeInterrupted", outcome.Kind)
	}
}

func TestWorker_SubmitAfterShutdown(t *testing.T) {
	w := testWorker(t, nil)
	name := mustRegister(t, w, sleepAndReport)

	w.Shutdown()

	inv := &api.ActivityInvocation{ActivityFn: name, Input: []any{time.Millisecond}}
	if err := w.Submit(inv); !errors.Is(err, ErrWorkerShutdown) {
		t.Fatalf("Submit() after Shutdown = %v, want ErrWorkerShutdown", err)
	}
	if got := w.InFlight(); got != 0 {
		t.Errorf("InFlight() = %d, want 0", got)
	}
}

func TestWorker_SubmitUnregisteredActivity(t *testing.T) {
	w := testWorker(t, nil)
	mustRegister(t, w, sleepAndReport)

	inv := &api.ActivityInvocation{ActivityFn: "no.such.Activity"}
	if err := w.Submit(inv); !errors.Is(err, ErrActivityNotRegistered) {
		t.Fatalf("Submit() = %v, want ErrActivityNotRegistered", err)
	}
}

func TestWorker_FailedActivityOutcome(t *testing.T) {
	sink := NewMemorySink()
	w := testWorker(t, sink)
	name := mustRegister(t, w, func(ctx context.Context) (string, error) {
		return "", errors.New("boom")
	})

	inv := &api.ActivityInvocation{Token: "tok-fail", ActivityFn: name}
	if err := w.Submit(inv); err != nil {
		t.Fatalf("Submit() error: %v", err)
	}

	outcome := <-sink.Watch("tok-fail")
	if !outcome.Failed() {
		t.Fatalf("outcome.Kind = %v, want OutcomeFailed", outcome.Kind)
	}
	if outcome.Error != "boom" {
		t.Errorf("outcome.Error = %q, want %q", outcome.Error, "boom")
	}

	// A failing body must not disturb the worker lifecycle.
	if got := w.State(); got != StateRunning {
		t.Errorf("State() = %q, want %q", got, StateRunning)
	}
}

func TestWorker_DrainCompletesAllSubmitted(t *testing.T) {
	sink := NewMemorySink()
	w := testWorker(t, sink)
	name := mustRegister(t, w, sleepAndReport)

	tokens := []string{"tok-1", "tok-2", "tok-3", "tok-4"}
	for _, tok := range tokens {
		inv := &api.ActivityInvocation{Token: tok, ActivityFn: name, Input: []any{50 * time.Millisecond}}
		if err := w.Submit(inv); err != nil {
			t.Fatalf("Submit(%s) error: %v", tok, err)
		}
	}

	w.Shutdown()
	if !w.AwaitTermination(5 * time.Second) {
		t.Fatal("AwaitTermination() = false")
	}

	for _, tok := range tokens {
		outcome := sink.Outcome(tok)
		if outcome == nil {
			t.Fatalf("no outcome reported for %s", tok)
		}
		if !outcome.Completed() {
			t.Errorf("%s: outcome.Kind = %v, want OutcomeCompleted", tok, outcome.Kind)
		}
	}
	if got := w.InFlight(); got != 0 {
		t.Errorf("InFlight() = %d, want 0", got)
	}
}

func TestWorker_RunWithMemorySource(t *testing.T) {
	source := NewMemorySource(8)
	sink := NewMemorySink()

	w, err := NewWorker(&WorkerOptions{
		MaxConcurrentActivities: 4,
		Source:                  source,
		Sink:                    sink,
		Logger:                  discardLogger(),
	})
	if err != nil {
		t.Fatalf("NewWorker() error: %v", err)
	}
	name := mustRegister(t, w, sleepAndReport)

	runErr := make(chan error, 1)
	go func() {
		runErr <- w.Run(context.Background())
	}()

	source.Dispatch(&api.ActivityInvocation{Token: "tok-run", ActivityFn: name, Input: []any{20 * time.Millisecond}})

	outcome := <-sink.Watch("tok-run")
	if !outcome.Completed() {
		t.Fatalf("outcome.Kind = %v, want OutcomeCompleted", outcome.Kind)
	}

	source.Close()
	if err := <-runErr; err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	w.Shutdown()
	if !w.AwaitTermination(2 * time.Second) {
		t.Fatal("AwaitTermination() = false")
	}
}

func TestWorker_RunWithoutSource(t *testing.T) {
	w := testWorker(t, nil)
	mustRegister(t, w, sleepAndReport)

	if err := w.Run(context.Background()); !errors.Is(err, ErrNoTaskSource) {
		t.Fatalf("Run() = %v, want ErrNoTaskSource", err)
	}
}

func TestWorker_RunWithoutActivities(t *testing.T) {
	w, err := NewWorker(&WorkerOptions{
		Source: NewMemorySource(1),
		Logger: discardLogger(),
	})
	if err != nil {
		t.Fatalf("NewWorker() error: %v", err)
	}

	if err := w.Run(context.Background()); err == nil {
		t.Fatal("Run() with an empty registry succeeded, want error")
	}
}

func TestWorker_RegisterActivityErrors(t *testing.T) {
	w := testWorker(t, nil)

	if err := w.RegisterActivity("not a function"); err == nil {
		t.Fatal("RegisterActivity(non-function) succeeded, want error")
	}

	mustRegister(t, w, sleepAndReport)
	err := w.RegisterActivity(sleepAndReport)
	if !errors.Is(err, ErrDuplicateRegistration) {
		t.Fatalf("duplicate RegisterActivity() = %v, want ErrDuplicateRegistration", err)
	}
	var regErr *RegistrationError
	if !errors.As(err, &regErr) {
		t.Fatal("duplicate RegisterActivity() did not return a RegistrationError")
	}
}
