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
	"fmt"
	"sync"
)

// executionRegistry tracks every in-flight activityExecution of a worker.
// An execution appears here iff its outcome is unset. The mutex is shared
// with the shutdown coordinator so that acceptance checks, registration
// and state transitions serialize on a single lock.
type executionRegistry struct {
	mu         *sync.Mutex
	executions map[string]*activityExecution
	order      []string
	emptyCh    chan struct{}
}

func newExecutionRegistry(mu *sync.Mutex) *executionRegistry {
	return &executionRegistry{
		mu:         mu,
		executions: make(map[string]*activityExecution),
		emptyCh:    make(chan struct{}, 1),
	}
}

func (r *executionRegistry) register(e *activityExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registerLocked(e)
}

// registerLocked requires r.mu to be held.
func (r *executionRegistry) registerLocked(e *activityExecution) error {
	if _, ok := r.executions[e.id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateExecution, e.id)
	}
	r.executions[e.id] = e
	r.order = append(r.order, e.id)
	return nil
}

// deregister removes and returns the execution. A second deregistration of
// the same id reports ErrExecutionNotFound, which callers ignore: both the
// finishing body and a forced-interrupt path may race to finalize the same
// context.
func (r *executionRegistry) deregister(id string) (*activityExecution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.executions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrExecutionNotFound, id)
	}
	delete(r.executions, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	if len(r.executions) == 0 {
		// Non-blocking: the drain watcher re-checks emptiness anyway.
		select {
		case r.emptyCh <- struct{}{}:
		default:
		}
	}

	return e, nil
}

// snapshot returns the registered executions in insertion order. The
// coordinator iterates the snapshot without holding the lock while it
// delivers interrupts.
func (r *executionRegistry) snapshot() []*activityExecution {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// snapshotLocked requires r.mu to be held.
func (r *executionRegistry) snapshotLocked() []*activityExecution {
	out := make([]*activityExecution, 0, len(r.executions))
	for _, id := range r.order {
		out = append(out, r.executions[id])
	}
	return out
}

// isEmpty is the drain predicate awaited by graceful shutdown.
func (r *executionRegistry) isEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.executions) == 0
}

func (r *executionRegistry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.executions)
}

// drainSignal receives whenever the registry transitions to empty.
func (r *executionRegistry) drainSignal() <-chan struct{} {
	return r.emptyCh
}
