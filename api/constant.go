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

// NATS Stream Names
const (
	ActivityInvocationsStream = "ACTIVITY_INVOCATIONS"
	ActivityResultsStream     = "ACTIVITY_RESULTS"
)

// NATS Subject Prefixes
const (
	InvocationSubjectPrefix = "invocations"
	ResultSubjectPrefix     = "results"
)

// NATS Subject Formats
const (
	InvocationPublishSubjectPattern = InvocationSubjectPrefix + ".%s" // activity function name
	ResultPublishSubjectPattern     = ResultSubjectPrefix + ".%s"     // correlation token
)

// NATS Subject Patterns
const (
	InvocationFilterSubjectPattern = InvocationSubjectPrefix + ".>"
	ResultFilterSubjectPattern     = ResultSubjectPrefix + ".>"
)

// Consumer Names
const (
	ActivityInvocationWorkerConsumer = "worker-activity-invocations"
)
