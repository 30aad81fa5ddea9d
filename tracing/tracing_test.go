package tracing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracingFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "spans.json")
	require.NoError(t, Init("crewflow", "0.0.1", fname))

	ctx, run := StartSpan(context.Background(), "run", KindInternal)
	_, step := StartSpan(ctx, "step", KindClient)
	step.WithAttributes(map[string]string{"step": "start"})
	EndSpan(step, errors.New("boom"))
	EndSpan(run, nil)
	require.NoError(t, Shutdown(context.Background()))

	data, err := os.ReadFile(fname)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Name":"step"`)
	assert.Contains(t, string(data), "boom")
}

func TestNilSpan(t *testing.T) {
	var span *Span
	assert.Nil(t, span.WithAttributes(map[string]string{"k": "v"}))
	span.SetStatus(nil)
	EndSpan(span, nil)
}
