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
	"iter"
	"sync"

	"github.com/taskmill/taskmill/api"
)

type (
	// InvocationToken pairs a dispatched invocation with its transport
	// acknowledgement hooks.
	InvocationToken struct {
		Invocation *api.ActivityInvocation
		Ack        func(context.Context) error
		Nak        func(context.Context) error
		Term       func(context.Context) error
	}

	// TaskSource delivers activity invocation requests to the worker. The
	// worker only needs "next invocation" and "no more invocations after
	// stop"; the NATS implementation and the in-memory implementation both
	// satisfy that.
	TaskSource interface {
		ReceiveInvocations(ctx context.Context) (iter.Seq[*InvocationToken], error)
	}

	// ResultSink receives the terminal outcome of each execution, keyed by
	// the invocation's correlation token. Encoding the outcome into a wire
	// record is the serde layer's job.
	ResultSink interface {
		ReportOutcome(ctx context.Context, outcome *api.ActivityOutcome) error
	}
)

// MemorySource is a channel-backed TaskSource for in-process use and tests.
type MemorySource struct {
	mu     sync.Mutex
	ch     chan *api.ActivityInvocation
	closed bool
}

func NewMemorySource(buffer int) *MemorySource {
	return &MemorySource{ch: make(chan *api.ActivityInvocation, buffer)}
}

// Dispatch enqueues an invocation. It reports false once the source is
// closed.
func (s *MemorySource) Dispatch(inv *api.ActivityInvocation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.ch <- inv
	return true
}

// Close stops delivery; a draining receiver sees the channel end.
func (s *MemorySource) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

func (s *MemorySource) ReceiveInvocations(ctx context.Context) (iter.Seq[*InvocationToken], error) {
	return func(yield func(*InvocationToken) bool) {
		for {
			select {
			case <-ctx.Done():
				return
			case inv, ok := <-s.ch:
				if !ok {
					return
				}
				token := &InvocationToken{
					Invocation: inv,
					Ack:        func(context.Context) error { return nil },
					Nak:        func(context.Context) error { return nil },
					Term:       func(context.Context) error { return nil },
				}
				if !yield(token) {
					return
				}
			}
		}
	}, nil
}

// MemorySink records outcomes by correlation token.
type MemorySink struct {
	mu       sync.Mutex
	outcomes map[string]*api.ActivityOutcome
	waiters  map[string][]chan *api.ActivityOutcome
}

func NewMemorySink() *MemorySink {
	return &MemorySink{
		outcomes: make(map[string]*api.ActivityOutcome),
		waiters:  make(map[string][]chan *api.ActivityOutcome),
	}
}

func (s *MemorySink) ReportOutcome(_ context.Context, outcome *api.ActivityOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.outcomes[outcome.Token] = outcome
	for _, ch := range s.waiters[outcome.Token] {
		ch <- outcome
		close(ch)
	}
	delete(s.waiters, outcome.Token)
	return nil
}

// Outcome returns the recorded outcome for the token, or nil.
func (s *MemorySink) Outcome(token string) *api.ActivityOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcomes[token]
}

// Watch returns a channel that delivers the token's outcome once reported.
// If the outcome already exists it is delivered immediately.
func (s *MemorySink) Watch(token string) <-chan *api.ActivityOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan *api.ActivityOutcome, 1)
	if o, ok := s.outcomes[token]; ok {
		ch <- o
		close(ch)
		return ch
	}
	s.waiters[token] = append(s.waiters[token], ch)
	return ch
}
