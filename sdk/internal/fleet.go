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
	"sync"
	"time"

	"github.com/taskmill/taskmill/sdk/internal/common"

	"log/slog"
)

// Fleet is a parent scope owning several workers. A fleet-level shutdown
// fans out to every member, so callers manage one handle instead of a
// global flag shared across workers.
type Fleet struct {
	mu      sync.Mutex
	workers []*worker
	logger  *slog.Logger
}

func NewFleet(logger *slog.Logger) *Fleet {
	return &Fleet{logger: common.DefaultLogger(logger)}
}

// NewWorker creates a worker owned by this fleet.
func (f *Fleet) NewWorker(opts *WorkerOptions) (*worker, error) {
	if opts == nil {
		opts = &WorkerOptions{}
	}
	if opts.Logger == nil {
		opts.Logger = f.logger
	}

	w, err := NewWorker(opts)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.workers = append(f.workers, w)
	f.mu.Unlock()
	return w, nil
}

func (f *Fleet) members() []*worker {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*worker, len(f.workers))
	copy(out, f.workers)
	return out
}

// Shutdown gracefully shuts down every worker in the fleet.
func (f *Fleet) Shutdown() {
	for _, w := range f.members() {
		w.Shutdown()
	}
}

// ShutdownNow forcibly shuts down every worker in the fleet.
func (f *Fleet) ShutdownNow() {
	for _, w := range f.members() {
		w.ShutdownNow()
	}
}

// AwaitTermination waits for every worker to terminate within the shared
// deadline. Returns false as soon as the deadline cannot be met.
func (f *Fleet) AwaitTermination(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for _, w := range f.members() {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		if !w.AwaitTermination(remaining) {
			return false
		}
	}
	return true
}
