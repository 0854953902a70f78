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
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/taskmill/taskmill/api"
	"github.com/taskmill/taskmill/api/serde"
	"github.com/taskmill/taskmill/sdk/internal/common"
)

// Conn represents a NATS connection with JetStream capabilities tailored
// for the worker transport.
type Conn struct {
	nc        *nats.Conn
	js        jetstream.JetStream
	converter serde.BinarySerde
	ns        string
	logger    *slog.Logger
}

var _ TaskSource = (*Conn)(nil)
var _ ResultSink = (*Conn)(nil)

// NATSConfig is the dependency-injected interface required for
// establishing connections.
type NATSConfig interface {
	Endpoint() string
	NATSMaxReconnects() int
	NATSReconnectWait() time.Duration
	NATSDrainTimeout() time.Duration
	NATSPingInterval() time.Duration
	NATSMaxPingsOut() int
	// Optional human readable client name; may return empty.
	NATSClientName() string
}

// Connect establishes a connection to NATS with the given configuration.
func Connect(cfg NATSConfig, namespace string, conv serde.BinarySerde) (*Conn, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nats: nil config provided")
	}

	clientName := cfg.NATSClientName()
	if clientName == "" {
		clientName = "taskmill-worker"
	}
	opts := []nats.Option{
		nats.Name(clientName),
		nats.MaxReconnects(cfg.NATSMaxReconnects()),
		nats.ReconnectWait(cfg.NATSReconnectWait()),
		nats.DrainTimeout(cfg.NATSDrainTimeout()),
		nats.PingInterval(cfg.NATSPingInterval()),
		nats.MaxPingsOutstanding(cfg.NATSMaxPingsOut()),
	}

	nc, err := nats.Connect(cfg.Endpoint(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.Endpoint(), err)
	}
	return from(nc, namespace, conv)
}

// WrapExisting builds a Conn over an established NATS connection.
func WrapExisting(nc *nats.Conn, namespace string, conv serde.BinarySerde) (*Conn, error) {
	if nc == nil {
		return nil, fmt.Errorf("nats: nil connection provided")
	}
	return from(nc, namespace, conv)
}

func from(nc *nats.Conn, namespace string, conv serde.BinarySerde) (*Conn, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}
	if conv == nil {
		conv = &serde.MsgpackSerde{}
	}
	return &Conn{
		nc:        nc,
		js:        js,
		converter: conv,
		ns:        strings.TrimSpace(namespace),
	}, nil
}

func (c *Conn) Close() {
	if c.nc != nil && !c.nc.IsClosed() {
		c.nc.Close()
	}
}

func (c *Conn) SetLogger(l *slog.Logger) {
	c.logger = common.DefaultLogger(l)
}

func (c *Conn) Logger() *slog.Logger {
	if c == nil {
		return slog.Default()
	}
	return common.DefaultLogger(c.logger)
}

func (c *Conn) invocationStreamName() string {
	if c.ns == "" {
		return api.ActivityInvocationsStream
	}
	return c.ns + "_" + api.ActivityInvocationsStream
}

func (c *Conn) resultStreamName() string {
	if c.ns == "" {
		return api.ActivityResultsStream
	}
	return c.ns + "_" + api.ActivityResultsStream
}

func (c *Conn) invocationFilterSubject() string {
	if c.ns == "" {
		return api.InvocationFilterSubjectPattern
	}
	return c.ns + "." + api.InvocationFilterSubjectPattern
}

func (c *Conn) resultSubject(token string) string {
	subj := fmt.Sprintf(api.ResultPublishSubjectPattern, token)
	if c.ns == "" {
		return subj
	}
	return c.ns + "." + subj
}

// EnsureStreams creates or updates the invocation and result streams the
// worker consumes and publishes.
func (c *Conn) EnsureStreams(ctx context.Context) error {
	streams := []jetstream.StreamConfig{
		{
			Name:      c.invocationStreamName(),
			Subjects:  []string{c.invocationFilterSubject()},
			Retention: jetstream.WorkQueuePolicy,
		},
		{
			Name:     c.resultStreamName(),
			Subjects: []string{c.prefixed(api.ResultFilterSubjectPattern)},
		},
	}
	for _, cfg := range streams {
		if _, err := c.ensureStream(ctx, cfg); err != nil {
			return err
		}
	}
	return nil
}

func (c *Conn) prefixed(subject string) string {
	if c.ns == "" {
		return subject
	}
	return c.ns + "." + subject
}

func (c *Conn) ensureStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	stream, err := c.js.Stream(ctx, cfg.Name)
	if err != nil || stream == nil {
		if errors.Is(err, jetstream.ErrStreamNotFound) {
			stream, err = c.js.CreateStream(ctx, cfg)
			if err != nil {
				return nil, fmt.Errorf("failed to create stream %s: %w", cfg.Name, err)
			}
			return stream, nil
		}
		return nil, fmt.Errorf("failed to get stream %s info: %w", cfg.Name, err)
	}

	updatedStream, err := c.js.UpdateStream(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to update stream %s: %w", cfg.Name, err)
	}
	return updatedStream, nil
}

func (c *Conn) ensureConsumer(ctx context.Context, streamName string, cfg jetstream.ConsumerConfig) (jetstream.Consumer, error) {
	stream, err := c.js.Stream(ctx, streamName)
	if err != nil || stream == nil {
		return nil, fmt.Errorf("failed to get stream %s for consumer creation: %w", streamName, err)
	}

	consumer, err := stream.Consumer(ctx, cfg.Name)
	if err != nil || consumer == nil {
		consumer, err = stream.CreateOrUpdateConsumer(ctx, cfg)
		if err != nil || consumer == nil {
			return nil, fmt.Errorf("failed to create/update consumer %s on stream %s: %w", cfg.Name, streamName, err)
		}
	}
	return consumer, nil
}

// ReceiveInvocations consumes the invocation stream and yields one token
// per dispatched invocation. The iterator ends when ctx is cancelled.
func (c *Conn) ReceiveInvocations(ctx context.Context) (iter.Seq[*InvocationToken], error) {
	consumer, err := c.ensureConsumer(ctx, c.invocationStreamName(), jetstream.ConsumerConfig{
		Name:          api.ActivityInvocationWorkerConsumer,
		Durable:       api.ActivityInvocationWorkerConsumer,
		FilterSubject: c.invocationFilterSubject(),
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return nil, err
	}

	consumerCtx, cancelConsumer := context.WithCancel(ctx)
	tokenChannel := make(chan *InvocationToken)

	consumeCtx, err := consumer.Consume(func(msg jetstream.Msg) {
		inv := &api.ActivityInvocation{}
		if err := c.converter.DeserializeBinary(msg.Data(), inv); err != nil {
			// Poison pill: don't redeliver what we cannot decode.
			msg.Term()
			return
		}
		c.enqueueInvocation(consumerCtx, inv, msg, tokenChannel)
	})
	if err != nil {
		cancelConsumer()
		return nil, fmt.Errorf("failed to start invocation consumer: %w", err)
	}

	go func() {
		<-consumerCtx.Done()
		consumeCtx.Stop()
		// Wait for in-flight callbacks before closing the token channel.
		<-consumeCtx.Closed()
		close(tokenChannel)
	}()

	return func(yield func(*InvocationToken) bool) {
		defer cancelConsumer()
		for {
			select {
			case <-ctx.Done():
				return
			case t, ok := <-tokenChannel:
				if !ok {
					return
				}
				if t == nil {
					continue
				}
				if !yield(t) {
					return
				}
			}
		}
	}, nil
}

func (c *Conn) enqueueInvocation(ctx context.Context, inv *api.ActivityInvocation, msg jetstream.Msg, tokenChannel chan<- *InvocationToken) {
	token := &InvocationToken{
		Invocation: inv,
		Ack:        msg.DoubleAck,
		Nak:        func(context.Context) error { return msg.Nak() },
		Term:       func(context.Context) error { return msg.Term() },
	}

	select {
	case <-ctx.Done():
		msg.Nak()
	case tokenChannel <- token:
	}
}

// ReportOutcome publishes the encoded outcome to the result stream under
// the invocation's correlation token.
func (c *Conn) ReportOutcome(ctx context.Context, outcome *api.ActivityOutcome) error {
	data, err := c.converter.SerializeBinary(outcome)
	if err != nil {
		return fmt.Errorf("failed to encode outcome for token %s: %w", outcome.Token, err)
	}

	if _, err := c.js.Publish(ctx, c.resultSubject(outcome.Token), data); err != nil {
		return fmt.Errorf("failed to publish outcome for token %s: %w", outcome.Token, err)
	}
	return nil
}

// DispatchInvocation publishes an invocation onto the invocation stream.
// Schedulers use this; the worker itself only consumes.
func (c *Conn) DispatchInvocation(ctx context.Context, inv *api.ActivityInvocation) error {
	data, err := c.converter.SerializeBinary(inv)
	if err != nil {
		return fmt.Errorf("failed to encode invocation %s: %w", inv.ActivityFn, err)
	}

	subject := c.prefixed(fmt.Sprintf(api.InvocationPublishSubjectPattern, inv.ActivityFn))
	if _, err := c.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish invocation %s: %w", inv.ActivityFn, err)
	}
	return nil
}
