package logger

import (
	"context"
	"testing"
	"time"

	obscontext "github.com/limaskap/limaskap/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(nil, Config{Level: "chatty"})
	assert.Error(t, err)
}

func TestSamplingDefaults(t *testing.T) {
	window, initial, thereafter := sampling(Config{SamplingInitial: -3})
	assert.Equal(t, time.Second, window)
	assert.Equal(t, 100, initial)
	assert.Equal(t, 100, thereafter)

	window, initial, thereafter = sampling(Config{SamplingWindow: time.Minute, SamplingInitial: 5, SamplingThereafter: 50})
	assert.Equal(t, time.Minute, window)
	assert.Equal(t, 5, initial)
	assert.Equal(t, 50, thereafter)
}

func TestWithContextAddsCorrelation(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := obscontext.WithRequestID(context.Background(), "01JABCDEF")
	ctx = obscontext.WithUserID(ctx, "user_1")

	WithContext(ctx, zap.New(core)).Info("enrollment created")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "01JABCDEF", fields["request_id"])
	assert.Equal(t, "user_1", fields["user_id"])
	assert.NotContains(t, fields, "trace_id")
}
