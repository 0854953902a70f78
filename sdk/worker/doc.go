// Package worker provides the runtime that executes activity invocations
// and coordinates their shutdown.
//
// A worker accepts invocations — either directly through Submit or by
// pulling them from a TaskSource such as a NATS JetStream consumer — runs
// each one on its own goroutine inside a bounded pool, and reports the
// terminal outcome to a ResultSink.
//
// # Shutdown
//
// Two termination modes are supported:
//
//   - Shutdown stops acceptance of new invocations and lets in-flight
//     executions run to completion. Their heartbeat channels are left
//     untouched: an activity that heartbeats during a graceful drain
//     completes normally.
//   - ShutdownNow stops acceptance and interrupts every in-flight
//     execution on two independent paths: its context is cancelled, and
//     its heartbeat channel is flagged so the next
//     activity.RecordHeartbeat call returns ErrWorkerShutdown. Both are
//     needed — a body may be blocked without heartbeating, or heartbeat
//     without being in an interruptible wait.
//
// A graceful shutdown already draining can be escalated by calling
// ShutdownNow; the interrupt reaches every execution still registered at
// that moment. After either mode, AwaitTermination bounds the wait:
//
//	w.Shutdown()
//	if !w.AwaitTermination(time.Minute) {
//		w.ShutdownNow()
//		w.AwaitTermination(10 * time.Second)
//	}
//
// # Fleets
//
// Several workers can be owned by a single Fleet, whose Shutdown,
// ShutdownNow and AwaitTermination fan out to all members.
package worker
