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

package activity

import (
	"context"

	"github.com/taskmill/taskmill/sdk/internal"
)

// RecordHeartbeat reports liveness and optional progress detail for the
// activity execution that owns ctx. It returns worker.ErrWorkerShutdown
// once a forced shutdown has been requested; the body should stop its work
// and return. Long-running activities that cannot block on ctx should
// heartbeat periodically so they still observe shutdown:
//
//	func Transfer(ctx context.Context, batch Batch) error {
//		for _, item := range batch.Items {
//			if err := activity.RecordHeartbeat(ctx, item.ID); err != nil {
//				return err
//			}
//			process(item)
//		}
//		return nil
//	}
//
// Calling RecordHeartbeat outside an activity execution is a no-op.
func RecordHeartbeat(ctx context.Context, detail any) error {
	return internal.RecordHeartbeat(ctx, detail)
}
