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

package api

// ActivityInvocation is one request to execute a registered activity
// function. Input arguments arrive already decoded by the serde layer;
// Token correlates the eventual outcome back to whoever scheduled the
// invocation.
type ActivityInvocation struct {
	Token      string `json:"token"       msgpack:"token"`
	ActivityFn string `json:"activity_fn" msgpack:"activity_fn"`
	Input      []any  `json:"input"       msgpack:"input"`
}

// OutcomeKind classifies how an activity execution ended.
type OutcomeKind string

const (
	// OutcomeCompleted means the activity body returned normally.
	OutcomeCompleted OutcomeKind = "Completed"
	// OutcomeInterrupted means the execution was cut short by a forced
	// worker shutdown, either through its context or through the heartbeat
	// shutdown signal.
	OutcomeInterrupted OutcomeKind = "Interrupted"
	// OutcomeFailed means the activity body returned an error or panicked.
	OutcomeFailed OutcomeKind = "Failed"
)

// ActivityOutcome is the terminal record of a single activity execution.
// Exactly one outcome exists per invocation; it is written once by the
// execution goroutine and never mutated afterwards.
type ActivityOutcome struct {
	Token  string      `json:"token"            msgpack:"token"`
	Kind   OutcomeKind `json:"kind"             msgpack:"kind"`
	Result []any       `json:"result,omitempty" msgpack:"result,omitempty"`
	Error  string      `json:"error,omitempty"  msgpack:"error,omitempty"`
}

func (o *ActivityOutcome) Completed() bool   { return o != nil && o.Kind == OutcomeCompleted }
func (o *ActivityOutcome) Interrupted() bool { return o != nil && o.Kind == OutcomeInterrupted }
func (o *ActivityOutcome) Failed() bool      { return o != nil && o.Kind == OutcomeFailed }
