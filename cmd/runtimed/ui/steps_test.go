package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/codes"
)

func TestStepOutputPrintsChildSpans(t *testing.T) {
	var buf bytes.Buffer
	out := NewStepOutput(&buf)
	defer out.Close()
	tracer := out.Tracer("test")

	ctx, root := tracer.Start(context.Background(), "runtime.ensure")
	_, pull := tracer.Start(ctx, "pull")
	pull.End()
	_, create := tracer.Start(ctx, "create")
	create.RecordError(errors.New("name in use"))
	create.SetStatus(codes.Error, "name in use")
	create.End()
	root.End()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines=%q", lines)
	}
	if !strings.Contains(lines[0], "[ok]") || !strings.Contains(lines[0], "pull") {
		t.Fatalf("pull line=%q", lines[0])
	}
	if !strings.Contains(lines[1], "[x]") || !strings.Contains(lines[1], "create") || !strings.Contains(lines[1], "(name in use)") {
		t.Fatalf("create line=%q", lines[1])
	}
	if strings.Contains(buf.String(), "runtime.ensure") {
		t.Fatalf("root span printed: %q", buf.String())
	}
}

func TestStepOutputNilFallsBackToGlobalTracer(t *testing.T) {
	var out *StepOutput
	if out.Tracer("test") == nil {
		t.Fatalf("nil tracer")
	}
	out.Close()
}
