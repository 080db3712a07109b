// Package natsutil serves tool calls over NATS request/reply and publishes
// JSON events, propagating OpenTelemetry trace context in message headers.
package natsutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
)

// headerCarrier adapts nats.Msg headers to propagation.TextMapCarrier.
type headerCarrier nats.Msg

func (c *headerCarrier) Get(key string) string {
	if c.Header == nil {
		return ""
	}
	return c.Header.Get(key)
}

func (c *headerCarrier) Set(key, val string) {
	if c.Header == nil {
		c.Header = make(nats.Header)
	}
	c.Header.Set(key, val)
}

func (c *headerCarrier) Keys() []string {
	if c.Header == nil {
		return nil
	}
	keys := make([]string, 0, len(c.Header))
	for k := range c.Header {
		keys = append(keys, k)
	}
	return keys
}

// Caller dispatches a named tool with raw JSON arguments.
type Caller interface {
	Call(ctx context.Context, name string, args json.RawMessage) (any, error)
}

// Reply is the envelope sent back for every tool request. Exactly one of
// Result and Error is set.
type Reply struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
	Code   string          `json:"code,omitempty"`
}

// ReplyError is returned by Request when the responder reported a failure.
type ReplyError struct {
	Code    string
	Message string
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("natsutil: %s: %s", e.Code, e.Message)
}

// ServeOpts configures a tool responder.
type ServeOpts struct {
	Prefix   string             // subjects are <Prefix>.<tool>
	Queue    string             // queue group, empty for a plain subscription
	Classify func(error) string // error code for failed calls
	Logger   *slog.Logger
}

// Serve subscribes to <Prefix>.> and answers each request by calling the
// tool named by the last subject token.
func Serve(nc *nats.Conn, caller Caller, opts ServeOpts) (*nats.Subscription, error) {
	if opts.Prefix == "" {
		return nil, errors.New("natsutil: subject prefix is required")
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	classify := opts.Classify
	if classify == nil {
		classify = func(error) string { return "error" }
	}

	handle := func(msg *nats.Msg) {
		ctx := otel.GetTextMapPropagator().Extract(context.Background(), (*headerCarrier)(msg))
		name := strings.TrimPrefix(msg.Subject, opts.Prefix+".")

		var reply Reply
		result, err := caller.Call(ctx, name, msg.Data)
		if err == nil {
			reply.Result, err = json.Marshal(result)
		}
		if err != nil {
			reply = Reply{Error: err.Error(), Code: classify(err)}
			log.Warn("tool call failed", "tool", name, "code", reply.Code, "error", err)
		}

		data, err := json.Marshal(reply)
		if err != nil {
			log.Error("encode reply", "tool", name, "error", err)
			return
		}
		if err := msg.Respond(data); err != nil {
			log.Warn("respond", "tool", name, "error", err)
		}
	}

	subject := opts.Prefix + ".>"
	if opts.Queue != "" {
		return nc.QueueSubscribe(subject, opts.Queue, handle)
	}
	return nc.Subscribe(subject, handle)
}

// Request calls a remote tool and decodes its result into Resp. The request
// is bounded by ctx, which must carry a deadline or be cancellable.
func Request[Resp any](ctx context.Context, nc *nats.Conn, subject string, args any) (Resp, error) {
	var zero Resp
	data, err := json.Marshal(args)
	if err != nil {
		return zero, err
	}
	msg := &nats.Msg{Subject: subject, Data: data}
	otel.GetTextMapPropagator().Inject(ctx, (*headerCarrier)(msg))

	resp, err := nc.RequestMsgWithContext(ctx, msg)
	if err != nil {
		return zero, err
	}
	var reply Reply
	if err := json.Unmarshal(resp.Data, &reply); err != nil {
		return zero, fmt.Errorf("natsutil: decode reply: %w", err)
	}
	if reply.Error != "" {
		return zero, &ReplyError{Code: reply.Code, Message: reply.Error}
	}
	var out Resp
	if err := json.Unmarshal(reply.Result, &out); err != nil {
		return zero, fmt.Errorf("natsutil: decode result: %w", err)
	}
	return out, nil
}

// Publish serializes v as JSON and publishes it with trace headers.
func Publish[T any](ctx context.Context, nc *nats.Conn, subject string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	msg := &nats.Msg{Subject: subject, Data: data}
	otel.GetTextMapPropagator().Inject(ctx, (*headerCarrier)(msg))
	return nc.PublishMsg(msg)
}
