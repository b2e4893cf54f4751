package logging

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		"":        InfoLevel,
		"warning": WarnLevel,
		"error":   ErrorLevel,
		" fatal ": FatalLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestWriterLoggerRoutesByLevel(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := NewWriterLogger(&stdout, &stderr)

	logger.Debug("hidden")
	logger.Info("generated", Fields{"label": "C4.maj", "dynamic": "mf"})
	logger.Error(errors.New("boom"), "mix failed")

	assert.Equal(t, "[INFO] generated dynamic=mf label=C4.maj\n", stdout.String())
	assert.Equal(t, "[ERROR] mix failed: boom\n", stderr.String())
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	var stdout bytes.Buffer
	parent := NewWriterLogger(&stdout, &stdout)
	child := parent.WithFields(Fields{"component": "mixer"})

	parent.Info("a")
	child.Info("b")

	assert.Equal(t, "[INFO] a\n[INFO] b component=mixer\n", stdout.String())
}

func TestWithContextFields(t *testing.T) {
	var stdout bytes.Buffer
	logger := NewWriterLogger(&stdout, &stdout)

	ctx := ContextWithFields(context.Background(), Fields{"run": 1})
	ctx = ContextWithFields(ctx, Fields{"worker": 3})
	logger.WithContext(ctx).Info("x")

	assert.Equal(t, "[INFO] x run=1 worker=3\n", stdout.String())
}

func TestSetGlobalLoggerNil(t *testing.T) {
	prev := GetGlobalLogger()
	defer SetGlobalLogger(prev)

	SetGlobalLogger(nil)
	_, ok := GetGlobalLogger().(*NoOpLogger)
	assert.True(t, ok)
}
