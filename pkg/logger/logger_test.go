package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Levels(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, New("debug", "json", &bytes.Buffer{}).GetLevel())
	assert.Equal(t, logrus.InfoLevel, New("loud", "json", &bytes.Buffer{}).GetLevel())
	_, isText := New("info", "TEXT", &bytes.Buffer{}).Formatter.(*logrus.TextFormatter)
	assert.True(t, isText)
}

func TestLogError_Fields(t *testing.T) {
	var buf bytes.Buffer
	l := New("error", "json", &buf)

	LogError(l, "receipt_service", "Save", "upsert", map[string]string{"receipt_no": "RV-000001"}, errors.New("boom"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "boom", entry["msg"])
	assert.Equal(t, "receipt_service", entry["module"])
	assert.Equal(t, "Save", entry["funcName"])
	assert.Equal(t, "upsert", entry["context"])
	assert.NotNil(t, entry["data"])

	buf.Reset()
	LogError(l, "m", "f", "c", nil, errors.New("no data"))
	fresh := map[string]any{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fresh))
	assert.NotContains(t, fresh, "data")
}
