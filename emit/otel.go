package emit

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelEmitter implements Emitter by creating OpenTelemetry spans.
//
// Each event becomes a span named after event.Msg, with the round, path,
// node id, and all Meta fields recorded as attributes. Diagnostic events
// set the span status to error.
//
// Usage:
//
//	tracer := otel.Tracer("execgraph")
//	emitter := emit.NewOTelEmitter(tracer)
//	sys := exec.NewSystem(stage, exec.Options{Emitter: emitter})
type OTelEmitter struct {
	tracer trace.Tracer
}

// NewOTelEmitter returns an emitter creating spans through tracer.
func NewOTelEmitter(tracer trace.Tracer) *OTelEmitter {
	return &OTelEmitter{tracer: tracer}
}

// Emit creates and immediately ends a span for the event.
func (o *OTelEmitter) Emit(event Event) {
	o.emit(context.Background(), event)
}

func (o *OTelEmitter) emit(ctx context.Context, event Event) {
	if o.tracer == nil {
		return
	}
	_, span := o.tracer.Start(ctx, event.Msg)
	defer span.End()

	attrs := []attribute.KeyValue{
		attribute.String("round", event.Round),
	}
	if event.Path != "" {
		attrs = append(attrs, attribute.String("path", event.Path))
	}
	if event.NodeID != 0 {
		attrs = append(attrs, attribute.Int64("node_id", int64(event.NodeID)))
	}
	for key, value := range event.Meta {
		attrs = append(attrs, attribute.String(key, fmt.Sprintf("%v", value)))
	}
	span.SetAttributes(attrs...)

	if event.Msg == "diagnostic" {
		detail, _ := event.Meta["detail"].(string)
		span.SetStatus(codes.Error, detail)
	}
}

// EmitBatch creates one span per event.
func (o *OTelEmitter) EmitBatch(ctx context.Context, events []Event) error {
	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		o.emit(ctx, event)
	}
	return nil
}

// Flush is a no-op; span delivery is the tracer provider's concern.
func (o *OTelEmitter) Flush(context.Context) error { return nil }

// Ensure all emitters satisfy Emitter.
var (
	_ Emitter = (*NullEmitter)(nil)
	_ Emitter = (*LogEmitter)(nil)
	_ Emitter = (*BufferedEmitter)(nil)
	_ Emitter = (*OTelEmitter)(nil)
)
