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
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/taskmill/taskmill/api"
	"github.com/taskmill/taskmill/api/serde"
	"github.com/taskmill/taskmill/sdk/internal/common"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxConcurrentActivities bounds the execution pool when the
// options leave it unset.
const DefaultMaxConcurrentActivities = 100

type (
	WorkerOptions struct {
		Namespace string

		// MaxConcurrentActivities bounds the number of in-flight activity
		// executions. Submissions beyond the bound block until a slot frees.
		MaxConcurrentActivities int

		// Converter encodes outcomes and converts decoded arguments.
		// Defaults to MessagePack.
		Converter serde.BinarySerde

		Source TaskSource
		Sink   ResultSink
		Logger *slog.Logger
	}

	ActivityRegisterOption struct{}

	ActivityRegistry interface {
		RegisterActivity(a any, options ...ActivityRegisterOption) error
	}
)

type worker struct {
	converter serde.BinarySerde

	activityRegistry registry
	coordinator      *shutdownCoordinator
	invoker          *invoker
	pool             *errgroup.Group

	source TaskSource
	sink   ResultSink

	// baseCtx parents every execution context. Executions deliberately do
	// not derive from the Run context: a graceful drain must leave them
	// running after the dispatch loop stops.
	baseCtx context.Context
	logger  *slog.Logger
}

func NewWorker(opts *WorkerOptions) (*worker, error) {
	if opts == nil {
		opts = &WorkerOptions{}
	}

	logger := common.DefaultLogger(opts.Logger)
	if opts.Namespace != "" {
		logger = logger.With("namespace", opts.Namespace)
	}

	conv := opts.Converter
	if conv == nil {
		conv = &serde.MsgpackSerde{}
	}

	limit := opts.MaxConcurrentActivities
	if limit <= 0 {
		limit = DefaultMaxConcurrentActivities
	}

	coordinator, err := newShutdownCoordinator(logger)
	if err != nil {
		return nil, err
	}

	pool := &errgroup.Group{}
	pool.SetLimit(limit)

	return &worker{
		converter:        conv,
		activityRegistry: newInMemoryRegistry(),
		coordinator:      coordinator,
		invoker:          newInvoker(conv),
		pool:             pool,
		source:           opts.Source,
		sink:             opts.Sink,
		baseCtx:          context.Background(),
		logger:           logger,
	}, nil
}

// RegisterActivity registers an activity function under its extracted full
// name. Invocations resolve against this name at submission time.
func (w *worker) RegisterActivity(fn any, opts ...ActivityRegisterOption) error {
	fnName, err := common.ExtractFullFunctionName(fn)
	if err != nil {
		return &RegistrationError{FunctionName: fmt.Sprintf("%T", fn), Cause: err}
	}
	if err := w.activityRegistry.set(fnName, fn); err != nil {
		return &RegistrationError{FunctionName: fnName, Cause: err}
	}
	return nil
}

// Submit accepts an invocation for execution. It returns ErrWorkerShutdown
// once any shutdown has been initiated; it never silently drops work.
func (w *worker) Submit(inv *api.ActivityInvocation) error {
	return w.submit(inv, nil)
}

func (w *worker) submit(inv *api.ActivityInvocation, token *InvocationToken) error {
	if inv == nil || inv.ActivityFn == "" {
		return fmt.Errorf("%w: empty activity name", ErrActivityNotRegistered)
	}

	fn, err := w.activityRegistry.get(inv.ActivityFn)
	if err != nil {
		return err
	}

	if inv.Token == "" {
		inv.Token = uuid.Must(uuid.NewV7()).String()
	}

	exec := newActivityExecution(w.baseCtx, inv, fn)
	if err := w.coordinator.accept(exec); err != nil {
		exec.cancel(err)
		return err
	}

	// Go blocks while the pool is at capacity; the execution is already
	// registered, so a forced shutdown still reaches it.
	w.pool.Go(func() error {
		w.execute(exec, token)
		return nil
	})
	return nil
}

// execute runs the activity body exactly once, records the outcome, leaves
// the registry and reports to the sink. Failures inside the body stay
// local: they never abort sibling executions.
func (w *worker) execute(exec *activityExecution, token *InvocationToken) {
	inv := exec.invocation
	w.logger.Debug("activity execution started",
		"execution_id", exec.id, "activity", inv.ActivityFn, "token", inv.Token)

	results, err := w.invoker.call(exec.ctx, exec.fn, inv.Input)

	outcome := &api.ActivityOutcome{}
	switch {
	case err == nil:
		outcome.Kind = api.OutcomeCompleted
		outcome.Result = results
	case errors.Is(err, ErrWorkerShutdown) || errors.Is(err, context.Canceled):
		outcome.Kind = api.OutcomeInterrupted
		w.logger.Debug("activity execution interrupted", "execution_id", exec.id, "activity", inv.ActivityFn)
	default:
		outcome.Kind = api.OutcomeFailed
		outcome.Error = err.Error()
		w.logger.Warn("activity execution failed", "execution_id", exec.id, "activity", inv.ActivityFn, "error", err)
	}

	exec.setOutcome(outcome)
	w.coordinator.finish(exec)

	if w.sink != nil {
		if err := w.sink.ReportOutcome(w.baseCtx, exec.outcome); err != nil {
			w.logger.Error("failed to report outcome", "execution_id", exec.id, "token", inv.Token, "error", err)
		}
	}

	if token != nil {
		w.settleToken(exec, token)
	}
}

// settleToken acknowledges the transport message. Interrupted work is
// NAKed so another worker can pick it up; completed and failed work is
// consumed.
func (w *worker) settleToken(exec *activityExecution, token *InvocationToken) {
	ctx, cancel := context.WithTimeout(w.baseCtx, 5*time.Second)
	defer cancel()

	var err error
	if exec.outcome.Interrupted() {
		err = token.Nak(ctx)
	} else {
		err = token.Ack(ctx)
	}
	if err != nil {
		w.logger.Warn("failed to settle invocation message", "execution_id", exec.id, "error", err)
	}
}

// Run binds the task source to the execution pool and blocks until the
// source ends or ctx is cancelled. Cancelling ctx forces a shutdown;
// calling Shutdown lets the loop stop while in-flight work drains.
func (w *worker) Run(ctx context.Context) error {
	if w.source == nil {
		return ErrNoTaskSource
	}
	if w.activityRegistry.size() == 0 {
		return fmt.Errorf("worker has no registered activities")
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.runDispatchLoop(gCtx)
	})

	err := g.Wait()
	if ctx.Err() != nil {
		w.ShutdownNow()
	}
	return err
}

func (w *worker) runDispatchLoop(ctx context.Context) error {
	seq, err := w.source.ReceiveInvocations(ctx)
	if err != nil {
		return err
	}

	for token := range seq {
		err := w.submit(token.Invocation, token)
		switch {
		case err == nil:
		case errors.Is(err, ErrWorkerShutdown):
			// Hand the invocation back and stop pulling.
			token.Nak(ctx)
			return nil
		case errors.Is(err, ErrActivityNotRegistered):
			w.logger.Error("activity not found in registry, terminating invocation",
				"activity", token.Invocation.ActivityFn, "error", err)
			token.Term(ctx)
		default:
			w.logger.Error("invocation rejected, sending NAK",
				"activity", token.Invocation.ActivityFn, "error", err)
			token.Nak(ctx)
		}
	}
	return nil
}

// Shutdown stops accepting new invocations and lets in-flight executions
// finish. Idempotent.
func (w *worker) Shutdown() {
	w.coordinator.Shutdown()
}

// ShutdownNow stops accepting new invocations and interrupts every
// in-flight execution. Escalates a graceful shutdown already in progress.
func (w *worker) ShutdownNow() {
	w.coordinator.ShutdownNow()
}

// AwaitTermination blocks until all executions have drained after a
// shutdown call, or the timeout elapses. Returns true iff the worker
// terminated within the bound.
func (w *worker) AwaitTermination(timeout time.Duration) bool {
	return w.coordinator.AwaitTermination(timeout)
}

// State reports the lifecycle state of the worker.
func (w *worker) State() string {
	return w.coordinator.state()
}

// InFlight reports the number of registered executions.
func (w *worker) InFlight() int {
	return w.coordinator.executions.size()
}
