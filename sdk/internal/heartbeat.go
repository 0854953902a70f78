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
)

// HeartbeatChannel is the per-execution liveness signal. The activity body
// calls Record periodically; once a forced shutdown flips the flag, the
// next Record call returns ErrWorkerShutdown. The flag is never cleared.
//
// This is a pure signal with no delivery guarantee: a body that never
// records a heartbeat and never checks its context will not observe the
// shutdown until its context is cancelled.
type HeartbeatChannel struct {
	mu                sync.Mutex
	shutdownRequested bool
	lastDetail        any
}

func newHeartbeatChannel() *HeartbeatChannel {
	return &HeartbeatChannel{}
}

// Record stores the latest progress detail. It returns ErrWorkerShutdown
// once shutdown has been requested, so a body blocked in work that its
// context cannot interrupt still discovers the shutdown at its next
// heartbeat.
func (h *HeartbeatChannel) Record(detail any) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastDetail = detail
	if h.shutdownRequested {
		return ErrWorkerShutdown
	}
	return nil
}

// RequestShutdown idempotently marks the channel. Safe to call
// concurrently with Record.
func (h *HeartbeatChannel) RequestShutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.shutdownRequested = true
}

// ShutdownRequested reports whether a forced shutdown has been signalled.
func (h *HeartbeatChannel) ShutdownRequested() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.shutdownRequested
}

// LastDetail returns the most recently recorded heartbeat detail, or nil.
func (h *HeartbeatChannel) LastDetail() any {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastDetail
}

type heartbeatCtxKey struct{}

func withHeartbeat(ctx context.Context, h *HeartbeatChannel) context.Context {
	return context.WithValue(ctx, heartbeatCtxKey{}, h)
}

// HeartbeatFromContext returns the heartbeat channel of the execution that
// owns ctx, or nil when ctx does not belong to an activity execution.
func HeartbeatFromContext(ctx context.Context) *HeartbeatChannel {
	h, _ := ctx.Value(heartbeatCtxKey{}).(*HeartbeatChannel)
	return h
}

// RecordHeartbeat is the body-facing helper behind activity.RecordHeartbeat.
// Recording outside an activity execution is a no-op.
func RecordHeartbeat(ctx context.Context, detail any) error {
	h := HeartbeatFromContext(ctx)
	if h == nil {
		return nil
	}
	return h.Record(detail)
}
