package manager

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	attrOpID      = "runtimed.op_id"
	attrImage     = "runtimed.image"
	attrContainer = "runtimed.container"
	attrAction    = "runtimed.action"
	attrPort      = "runtimed.port"
)

// startOperation opens the root span of one reconciliation.
func (m *Manager) startOperation(ctx context.Context, opID, image string) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "runtime.ensure", trace.WithAttributes(
		attribute.String(attrOpID, opID),
		attribute.String(attrImage, image),
	))
}

// runStep runs fn inside a child span named id.
func (m *Manager) runStep(ctx context.Context, id string, fn func(context.Context) error) error {
	stepCtx, span := m.tracer.Start(ctx, id)
	defer span.End()
	if err := fn(stepCtx); err != nil {
		recordSpanError(span, err)
		return err
	}
	return nil
}

func recordSpanError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, strings.TrimSpace(err.Error()))
}
