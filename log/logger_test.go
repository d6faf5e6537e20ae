package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/blaze/log/desensitize"
)

func TestNewWriterLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, WithLevel(zerolog.WarnLevel))

	l.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	l.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestComponentField(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, WithField("app", "blaze")).Component("transport")
	l.Info().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "transport", entry["component"])
	assert.Equal(t, "blaze", entry["app"])
}

func TestDesensitizeCredentials(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, WithDesensitize(desensitize.Credentials()))

	l.Info().
		Str("token", "tok-123").
		Str("refreshToken", "ref-456").
		Str("authorization", "Bearer abc.def.ghi").
		Msg("refreshed")

	out := buf.String()
	assert.NotContains(t, out, "tok-123")
	assert.NotContains(t, out, "ref-456")
	assert.NotContains(t, out, "abc.def.ghi")
	assert.Contains(t, out, `"token":"******"`)
	assert.Contains(t, out, "Bearer ******")
}

func TestFromConfigInvalidLevel(t *testing.T) {
	_, err := FromConfig(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	l, err := FromConfig(Config{Level: "debug", File: &FileConfig{Filepath: dir}})
	require.NoError(t, err)
	defer l.Close()

	assert.Equal(t, zerolog.DebugLevel, l.GetLevel())
}
