package logger_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/bazaar/pkg/logger"
)

func TestSetupProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := logger.SetupWriter(&buf, "production")

	log.Debug("hidden")
	log.Info("visible", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"visible"`)
	assert.Contains(t, out, `"k":"v"`)
}

func TestWithCtxReturnsInjectedLogger(t *testing.T) {
	var buf bytes.Buffer
	base := logger.SetupWriter(&buf, "local")

	ctx := logger.InjectLogger(context.Background(), base.With("request_id", "abc123"))
	logger.WithCtx(ctx).Info("tagged")

	assert.Contains(t, buf.String(), "request_id=abc123")
	assert.Same(t, logger.L, logger.WithCtx(context.Background()))
}

func TestMultiHandlerFansOut(t *testing.T) {
	var a, b bytes.Buffer
	h := logger.NewMultiHandler(
		slog.NewTextHandler(&a, nil),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	log := slog.New(h).With("svc", "bazaar")

	log.Info("info line")
	log.Error("error line")

	assert.Equal(t, 2, strings.Count(a.String(), "svc=bazaar"))
	assert.NotContains(t, b.String(), "info line")
	assert.Contains(t, b.String(), "error line")
}
