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
	"log/slog"
	"sync"
	"time"

	"github.com/robbyt/go-fsm"
)

// Worker lifecycle states. No transition re-enters StateRunning; the only
// allowed upgrade while shutting down is Draining -> Stopping (a graceful
// shutdown escalated by ShutdownNow).
const (
	StateRunning  = "Running"
	StateDraining = "Draining" // graceful: let in-flight work finish
	StateStopping = "Stopping" // forced: interrupt in-flight work
	StateStopped  = "Stopped"
)

var lifecycleTransitions = fsm.TransitionsConfig{
	StateRunning:  []string{StateDraining, StateStopping},
	StateDraining: []string{StateStopping, StateStopped},
	StateStopping: []string{StateStopped},
	StateStopped:  []string{},
}

// shutdownCoordinator drives the worker's lifecycle state machine. It owns
// the lock shared with the execution registry, so an acceptance check plus
// registration is atomic with respect to state transitions: every
// execution registered before a forced transition is guaranteed to appear
// in the interrupt snapshot.
type shutdownCoordinator struct {
	mu         sync.Mutex
	machine    *fsm.Machine
	executions *executionRegistry
	logger     *slog.Logger

	watchOnce  sync.Once
	terminated chan struct{}
}

func newShutdownCoordinator(logger *slog.Logger) (*shutdownCoordinator, error) {
	machine, err := fsm.New(logger.Handler(), StateRunning, lifecycleTransitions)
	if err != nil {
		return nil, err
	}

	c := &shutdownCoordinator{
		machine:    machine,
		logger:     logger,
		terminated: make(chan struct{}),
	}
	c.executions = newExecutionRegistry(&c.mu)
	return c, nil
}

// state returns the current lifecycle state.
func (c *shutdownCoordinator) state() string {
	return c.machine.GetState()
}

// accept atomically checks that the worker is still running and registers
// the execution. It returns ErrWorkerShutdown after any shutdown call:
// no invocation accepted after a transition out of Running is ever
// scheduled.
func (c *shutdownCoordinator) accept(e *activityExecution) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.machine.GetState() != StateRunning {
		return ErrWorkerShutdown
	}
	return c.executions.registerLocked(e)
}

// finish records that an execution set its outcome and left the registry.
func (c *shutdownCoordinator) finish(e *activityExecution) {
	if _, err := c.executions.deregister(e.id); err != nil {
		// Expected when a forced interrupt already finalized the context.
		c.logger.Debug("execution already deregistered", "execution_id", e.id)
	}
}

// Shutdown initiates a graceful shutdown: new invocations are rejected,
// in-flight executions run to completion undisturbed. Heartbeat channels
// are deliberately left untouched on this path. Idempotent.
func (c *shutdownCoordinator) Shutdown() {
	c.mu.Lock()
	if !c.machine.TransitionBool(StateDraining) {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.logger.Info("worker draining", "in_flight", c.executions.size())
	c.startDrainWatch()
}

// ShutdownNow initiates (or escalates to) a forced shutdown: new
// invocations are rejected and every still-registered execution receives
// both the heartbeat shutdown flag and a context cancellation. Idempotent
// once in Stopping or Stopped.
func (c *shutdownCoordinator) ShutdownNow() {
	c.mu.Lock()
	switch c.machine.GetState() {
	case StateRunning, StateDraining:
		if err := c.machine.Transition(StateStopping); err != nil {
			c.mu.Unlock()
			c.logger.Error("forced shutdown transition failed", "error", err)
			return
		}
	default:
		c.mu.Unlock()
		return
	}
	// Snapshot under the lock so every execution registered before the
	// transition is included; interrupts are delivered after release.
	snapshot := c.executions.snapshotLocked()
	c.mu.Unlock()

	c.logger.Info("worker stopping, interrupting executions", "in_flight", len(snapshot))
	for _, e := range snapshot {
		e.interrupt()
	}
	c.startDrainWatch()
}

// AwaitTermination blocks until the worker reaches Stopped or the timeout
// elapses, and reports which happened. A timeout is not an error; the
// caller may retry or escalate to ShutdownNow.
func (c *shutdownCoordinator) AwaitTermination(timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-c.terminated:
		return true
	case <-timer.C:
		return false
	}
}

// Terminated is closed once the worker reaches Stopped.
func (c *shutdownCoordinator) Terminated() <-chan struct{} {
	return c.terminated
}

// startDrainWatch begins observing the registry for emptiness. Draining is
// driven by executions deregistering themselves; the watcher only observes.
func (c *shutdownCoordinator) startDrainWatch() {
	c.watchOnce.Do(func() {
		go c.watchDrain()
	})
}

func (c *shutdownCoordinator) watchDrain() {
	for {
		if c.executions.isEmpty() {
			c.terminate()
			return
		}
		<-c.executions.drainSignal()
	}
}

func (c *shutdownCoordinator) terminate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.machine.TransitionBool(StateStopped) {
		c.logger.Info("worker terminated")
		close(c.terminated)
	}
}
