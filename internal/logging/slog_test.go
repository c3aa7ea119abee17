package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON_WritesFieldsAndWith(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSON(&buf, "prod").With("component", "test")

	log.Info(context.Background(), "hello", "user_id", "42")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "INFO", line["level"])
	assert.Equal(t, "test", line["component"])
	assert.Equal(t, "42", line["user_id"])
}

func TestNewJSON_ProdSkipsDebug(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSON(&buf, "prod")

	log.Debug(context.Background(), "noise")
	assert.Zero(t, buf.Len())
}
