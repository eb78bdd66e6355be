package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupProdIsJSONInfo(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	log := setup("prod", &buf)

	assert.False(t, log.Enabled(context.Background(), slog.LevelDebug))
	log.Info("hello", "user_id", 7)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.EqualValues(t, 7, line["user_id"])
}

func TestSetupLocalIsTextDebug(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	log := setup("local", &buf)

	assert.True(t, log.Enabled(context.Background(), slog.LevelDebug))
	slog.Debug("via default")
	assert.Contains(t, buf.String(), "msg=\"via default\"")
}
