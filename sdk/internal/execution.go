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
	"sync"

	"github.com/gofrs/uuid/v5"
	"github.com/taskmill/taskmill/api"
)

// activityExecution wraps one invocation of an activity function: its id,
// its context, its heartbeat channel and its terminal outcome. Executions
// are registered at creation, deregistered once the outcome is set, and
// never reused.
type activityExecution struct {
	id         string
	invocation *api.ActivityInvocation
	fn         any
	heartbeat  *HeartbeatChannel

	ctx    context.Context
	cancel context.CancelCauseFunc

	outcomeOnce sync.Once
	outcome     *api.ActivityOutcome
	done        chan struct{}
}

// newActivityExecution derives the execution context from parent and
// threads the heartbeat channel through it so the body can reach it via
// activity.RecordHeartbeat.
func newActivityExecution(parent context.Context, inv *api.ActivityInvocation, fn any) *activityExecution {
	hb := newHeartbeatChannel()
	ctx, cancel := context.WithCancelCause(withHeartbeat(parent, hb))

	return &activityExecution{
		id:         uuid.Must(uuid.NewV7()).String(),
		invocation: inv,
		fn:         fn,
		heartbeat:  hb,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// interrupt delivers the forced-shutdown signal on both channels: the
// heartbeat flag for bodies that report progress, and context cancellation
// for bodies blocked in an interruptible wait. Interrupting an execution
// whose outcome is already set is a no-op.
func (e *activityExecution) interrupt() {
	e.heartbeat.RequestShutdown()
	e.cancel(ErrWorkerShutdown)
}

// setOutcome records the terminal outcome. Only the first call wins; any
// later attempt is discarded, which keeps the race between a finishing
// body and a forced interrupt harmless.
func (e *activityExecution) setOutcome(o *api.ActivityOutcome) bool {
	set := false
	e.outcomeOnce.Do(func() {
		o.Token = e.invocation.Token
		e.outcome = o
		set = true
		close(e.done)
		e.cancel(nil)
	})
	return set
}

// Outcome returns the recorded outcome, or nil while the execution is
// still in flight.
func (e *activityExecution) Outcome() *api.ActivityOutcome {
	select {
	case <-e.done:
		return e.outcome
	default:
		return nil
	}
}

// Done is closed once the outcome has been set.
func (e *activityExecution) Done() <-chan struct{} {
	return e.done
}
