package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// StepOutput renders the step spans of an operation as one line per finished
// step. The root span is not printed.
type StepOutput struct {
	provider *sdktrace.TracerProvider
}

func NewStepOutput(w io.Writer) *StepOutput {
	p := &stepSpanProcessor{w: w}
	return &StepOutput{provider: sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(p))}
}

func (o *StepOutput) Tracer(name string) trace.Tracer {
	if o == nil || o.provider == nil {
		return otel.Tracer(name)
	}
	return o.provider.Tracer(name)
}

func (o *StepOutput) Close() {
	if o == nil || o.provider == nil {
		return
	}
	_ = o.provider.Shutdown(context.Background())
}

type stepSpanProcessor struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *stepSpanProcessor) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

func (p *stepSpanProcessor) OnEnd(span sdktrace.ReadOnlySpan) {
	if p == nil || p.w == nil || !span.Parent().IsValid() {
		return
	}
	st := span.Status()
	line := formatStepLine(span.Name(), st.Code == codes.Error, st.Description, span.EndTime().Sub(span.StartTime()))
	p.mu.Lock()
	fmt.Fprintln(p.w, line)
	p.mu.Unlock()
}

func (p *stepSpanProcessor) Shutdown(context.Context) error   { return nil }
func (p *stepSpanProcessor) ForceFlush(context.Context) error { return nil }

func formatStepLine(name string, failed bool, msg string, took time.Duration) string {
	prefix := SuccessStyle.Render("[ok]")
	if failed {
		prefix = ErrorStyle.Render("[x]")
	}
	line := fmt.Sprintf("  %s %s %s", prefix, name, Muted(took.Round(time.Millisecond).String()))
	if msg = strings.TrimSpace(msg); failed && msg != "" {
		line += " (" + msg + ")"
	}
	return line
}
