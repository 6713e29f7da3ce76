package agent

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"shopmate/internal/trace"
)

type tracedHandler struct {
	Handler
}

func withTrace(h Handler) Handler {
	return &tracedHandler{Handler: h}
}

func (t *tracedHandler) Execute(ctx context.Context, args map[string]any) (*Result, error) {
	ctx, span := trace.Tracer().Start(ctx, t.Name(),
		oteltrace.WithAttributes(
			attribute.String("gen_ai.tool.name", t.Name()),
		),
	)
	defer span.End()

	result, err := t.Handler.Execute(ctx, args)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return result, err
	}

	span.SetAttributes(attribute.Int("gen_ai.tool.output_length", len(result.Content)))
	return result, nil
}
