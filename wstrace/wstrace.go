// Package wstrace instruments a wswire.Conn with OpenTelemetry traces.
//
// The decorator is strictly additive: it forwards every call to the
// wrapped connection and records one span per operation, carrying the
// connection id, message metadata and close codes as attributes. The
// context parameters exist only to parent the spans; the underlying
// connection keeps its blocking stream semantics.
package wstrace

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wirebit/wswire"
)

// Conn decorates a wswire.Conn with tracing.
type Conn struct {
	// Decorated connection
	c *wswire.Conn
	// Tracer used for instrumentation
	tracer trace.Tracer
}

// Wrap decorates c. If tracerProvider is nil, the global provider is
// used.
func Wrap(c *wswire.Conn, tracerProvider trace.TracerProvider) *Conn {
	if tracerProvider == nil {
		tracerProvider = otel.GetTracerProvider()
	}
	return &Conn{
		c:      c,
		tracer: tracerProvider.Tracer(pkgName, trace.WithInstrumentationVersion(pkgVersion)),
	}
}

// Unwrap returns the decorated connection.
func (tc *Conn) Unwrap() *wswire.Conn {
	return tc.c
}

// ID returns the decorated connection's identifier.
func (tc *Conn) ID() string {
	return tc.c.ID()
}

// Closed reports whether the decorated connection has closed.
func (tc *Conn) Closed() bool {
	return tc.c.Closed()
}

// Read decorates and instruments wswire.Conn.Read.
func (tc *Conn) Read(ctx context.Context) (wswire.MessageType, []byte, error) {
	_, span := tc.tracer.Start(ctx, spanRead,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(attrConnID, tc.c.ID()),
		))
	defer span.End()

	typ, p, err := tc.c.Read()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, codes.Error.String())
		return typ, p, err
	}
	span.AddEvent(eventMessageReceived, trace.WithAttributes(
		attribute.Int(attrMessageType, int(typ)),
		attribute.Int(attrMessageByteSize, len(p)),
	))
	return typ, p, err
}

// ReadFrame decorates and instruments wswire.Conn.ReadFrame.
func (tc *Conn) ReadFrame(ctx context.Context) (wswire.Frame, error) {
	_, span := tc.tracer.Start(ctx, spanReadFrame,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(attrConnID, tc.c.ID()),
		))
	defer span.End()

	f, err := tc.c.ReadFrame()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, codes.Error.String())
		return f, err
	}
	span.AddEvent(eventFrameReceived, trace.WithAttributes(
		attribute.Int(attrOpcode, int(f.Opcode)),
		attribute.Bool(attrFin, f.Fin),
		attribute.Int(attrFrameByteSize, len(f.Payload)),
	))
	return f, err
}

// Write decorates and instruments wswire.Conn.Write.
func (tc *Conn) Write(ctx context.Context, typ wswire.MessageType, p []byte) error {
	_, span := tc.tracer.Start(ctx, spanWrite,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(attrConnID, tc.c.ID()),
			attribute.Int(attrMessageType, int(typ)),
			attribute.Int(attrMessageByteSize, len(p)),
		))
	defer span.End()

	err := tc.c.Write(typ, p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, codes.Error.String())
	}
	return err
}

// SendText decorates and instruments wswire.Conn.SendText.
func (tc *Conn) SendText(ctx context.Context, s string) error {
	return tc.Write(ctx, wswire.MessageText, []byte(s))
}

// SendBinary decorates and instruments wswire.Conn.SendBinary.
func (tc *Conn) SendBinary(ctx context.Context, p []byte) error {
	return tc.Write(ctx, wswire.MessageBinary, p)
}

// WriteFrame decorates and instruments wswire.Conn.WriteFrame.
func (tc *Conn) WriteFrame(ctx context.Context, f wswire.Frame) error {
	_, span := tc.tracer.Start(ctx, spanWriteFrame,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(attrConnID, tc.c.ID()),
			attribute.Int(attrOpcode, int(f.Opcode)),
			attribute.Bool(attrFin, f.Fin),
			attribute.Int(attrFrameByteSize, len(f.Payload)),
		))
	defer span.End()

	err := tc.c.WriteFrame(f)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, codes.Error.String())
	}
	return err
}

// SendPing decorates and instruments wswire.Conn.SendPing.
func (tc *Conn) SendPing(ctx context.Context, p []byte) error {
	_, span := tc.tracer.Start(ctx, spanSendPing,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(attrConnID, tc.c.ID()),
			attribute.Int(attrFrameByteSize, len(p)),
		))
	defer span.End()

	err := tc.c.SendPing(p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, codes.Error.String())
	}
	return err
}

// SendClose decorates and instruments wswire.Conn.SendClose.
func (tc *Conn) SendClose(ctx context.Context, code wswire.StatusCode, reason string) error {
	_, span := tc.tracer.Start(ctx, spanSendClose,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(attrConnID, tc.c.ID()),
			attribute.Int(attrCloseCode, int(code)),
			attribute.String(attrCloseReason, reason),
		))
	defer span.End()

	err := tc.c.SendClose(code, reason)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, codes.Error.String())
	}
	return err
}

// Close decorates and instruments wswire.Conn.Close.
func (tc *Conn) Close(ctx context.Context) error {
	_, span := tc.tracer.Start(ctx, spanClose,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(attrConnID, tc.c.ID()),
		))
	defer span.End()

	err := tc.c.Close()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, codes.Error.String())
	}
	return err
}
