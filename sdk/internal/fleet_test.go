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
	"testing"
	"time"

	"github.com/taskmill/taskmill/api"
)

func TestFleet_GracefulShutdownFansOut(t *testing.T) {
	fleet := NewFleet(discardLogger())

	sinks := make([]*MemorySink, 2)
	workers := make([]*worker, 2)
	for i := range workers {
		sinks[i] = NewMemorySink()
		w, err := fleet.NewWorker(&WorkerOptions{
			MaxConcurrentActivities: 4,
			Sink:                    sinks[i],
		})
		if err != nil {
			t.Fatalf("fleet.NewWorker() error: %v", err)
		}
		workers[i] = w
	}

	name := mustRegister(t, workers[0], sleepAndReport)
	mustRegister(t, workers[1], sleepAndReport)

	for i, w := range workers {
		inv := &api.ActivityInvocation{Token: "tok", ActivityFn: name, Input: []any{50 * time.Millisecond}}
		if err := w.Submit(inv); err != nil {
			t.Fatalf("worker %d Submit() error: %v", i, err)
		}
	}

	fleet.Shutdown()
	if !fleet.AwaitTermination(5 * time.Second) {
		t.Fatal("fleet.AwaitTermination() = false")
	}

	for i, w := range workers {
		if got := w.State(); got != StateStopped {
			t.Errorf("worker %d State() = %q, want %q", i, got, StateStopped)
		}
		if outcome := sinks[i].Outcome("tok"); outcome == nil || !outcome.Completed() {
			t.Errorf("worker %d outcome = %+v, want completed", i, outcome)
		}
	}
}

func TestFleet_ForcedShutdownFansOut(t *testing.T) {
	fleet := NewFleet(discardLogger())

	w1, err := fleet.NewWorker(&WorkerOptions{MaxConcurrentActivities: 2})
	if err != nil {
		t.Fatalf("fleet.NewWorker() error: %v", err)
	}
	w2, err := fleet.NewWorker(&WorkerOptions{MaxConcurrentActivities: 2})
	if err != nil {
		t.Fatalf("fleet.NewWorker() error: %v", err)
	}

	name := mustRegister(t, w1, blockUntilInterrupted)
	mustRegister(t, w2, blockUntilInterrupted)

	for i, w := range []*worker{w1, w2} {
		if err := w.Submit(&api.ActivityInvocation{ActivityFn: name}); err != nil {
			t.Fatalf("worker %d Submit() error: %v", i, err)
		}
	}

	fleet.ShutdownNow()
	if !fleet.AwaitTermination(5 * time.Second) {
		t.Fatal("fleet.AwaitTermination() = false")
	}
}

func TestFleet_AwaitTerminationTimeout(t *testing.T) {
	fleet := NewFleet(discardLogger())

	w, err := fleet.NewWorker(&WorkerOptions{MaxConcurrentActivities: 2})
	if err != nil {
		t.Fatalf("fleet.NewWorker() error: %v", err)
	}
	name := mustRegister(t, w, blockUntilInterrupted)
	if err := w.Submit(&api.ActivityInvocation{ActivityFn: name}); err != nil {
		t.Fatalf("Submit() error: %v", err)
	}

	// Graceful shutdown cannot drain a body that only yields to a forced
	// interrupt, so the shared deadline must expire.
	fleet.Shutdown()
	if fleet.AwaitTermination(50 * time.Millisecond) {
		t.Fatal("fleet.AwaitTermination() = true with a stuck worker")
	}

	fleet.ShutdownNow()
	if !fleet.AwaitTermination(5 * time.Second) {
		t.Fatal("fleet.AwaitTermination() = false after escalation")
	}
}
