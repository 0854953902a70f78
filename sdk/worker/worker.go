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

package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/taskmill/taskmill/api"
	"github.com/taskmill/taskmill/sdk/internal"
)

// Worker executes activity invocations on a bounded pool and coordinates
// their orderly or forced termination.
//
// Example:
//
//	w, err := worker.New(&worker.Options{
//		MaxConcurrentActivities: 10,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	w.RegisterActivity(MyActivity)
//	w.Submit(&api.ActivityInvocation{ActivityFn: "...", Input: ...})
//
//	w.Shutdown()
//	if !w.AwaitTermination(30 * time.Second) {
//		w.ShutdownNow()
//		w.AwaitTermination(5 * time.Second)
//	}
type Worker interface {
	ActivityRegistry

	// Submit accepts an invocation for execution. It returns
	// ErrWorkerShutdown once any shutdown has been initiated.
	Submit(inv *api.ActivityInvocation) error

	// Run binds the configured task source to the execution pool and
	// blocks until the source ends or the context is cancelled.
	Run(ctx context.Context) error

	// Shutdown stops accepting new invocations and lets in-flight
	// executions finish undisturbed. Idempotent.
	Shutdown()

	// ShutdownNow stops accepting new invocations and interrupts every
	// in-flight execution, both through its context and through its
	// heartbeat channel. Escalates a graceful shutdown in progress.
	ShutdownNow()

	// AwaitTermination blocks until every execution has drained following
	// a shutdown call, or the timeout elapses. True iff terminated.
	AwaitTermination(timeout time.Duration) bool

	// State reports the current lifecycle state.
	State() string

	// InFlight reports the number of currently registered executions.
	InFlight() int
}

// ActivityRegistry provides methods for registering activity functions.
//
// Activities must be registered before submission. The activity function
// signature is: func(context.Context, ...args) (result, error)
type ActivityRegistry = internal.ActivityRegistry

// Options contains configuration for creating a new Worker.
type Options = internal.WorkerOptions

// TaskSource delivers invocations to a running worker; ResultSink receives
// each execution's terminal outcome.
type (
	TaskSource = internal.TaskSource
	ResultSink = internal.ResultSink
)

// MemorySource and MemorySink are in-process source/sink implementations,
// useful for embedding the worker without a broker and in tests.
type (
	MemorySource = internal.MemorySource
	MemorySink   = internal.MemorySink
)

// NewMemorySource creates a channel-backed task source.
func NewMemorySource(buffer int) *MemorySource { return internal.NewMemorySource(buffer) }

// NewMemorySink creates an in-process outcome recorder.
func NewMemorySink() *MemorySink { return internal.NewMemorySink() }

// New creates a new Worker with the provided options.
func New(options *Options) (Worker, error) {
	return internal.NewWorker(options)
}

// Fleet owns several workers and fans lifecycle operations out to all of
// them: one parent scope instead of a shutdown flag shared globally.
type Fleet = internal.Fleet

// NewFleet creates an empty fleet. The logger is inherited by member
// workers that don't set their own.
func NewFleet(logger *slog.Logger) *Fleet { return internal.NewFleet(logger) }

// Worker lifecycle states as reported by State.
const (
	StateRunning  = internal.StateRunning
	StateDraining = internal.StateDraining
	StateStopping = internal.StateStopping
	StateStopped  = internal.StateStopped
)
