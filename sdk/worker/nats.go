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

package worker

import (
	"github.com/nats-io/nats.go"

	"github.com/taskmill/taskmill/api/serde"
	"github.com/taskmill/taskmill/sdk/internal"
)

// NATSConn is a JetStream-backed TaskSource and ResultSink. Invocations are
// pulled from a work-queue stream and outcomes are published to a results
// stream, both scoped to the worker's namespace.
type NATSConn = internal.Conn

// NATSConfig is the configuration surface ConnectNATS reads. The
// internal/config Config type satisfies it.
type NATSConfig = internal.NATSConfig

// ConnectNATS dials NATS and wraps the connection for use as a worker task
// source. Pass a nil serde to default to MessagePack.
func ConnectNATS(cfg NATSConfig, namespace string, conv serde.BinarySerde) (*NATSConn, error) {
	return internal.Connect(cfg, namespace, conv)
}

// WrapNATS adapts an already established NATS connection. The caller keeps
// ownership of the connection lifecycle.
func WrapNATS(nc *nats.Conn, namespace string, conv serde.BinarySerde) (*NATSConn, error) {
	return internal.WrapExisting(nc, namespace, conv)
}
