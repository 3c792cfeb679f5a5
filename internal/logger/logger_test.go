package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_JSONByDefault(t *testing.T) {
	var buf bytes.Buffer
	Init(false, &buf)
	t.Cleanup(func() { Init(false, nil) })

	WithFields(logrus.Fields{"analysis_id": "abc"}).Info("stored")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "stored", line["msg"])
	assert.Equal(t, "abc", line["analysis_id"])

	buf.Reset()
	Log().Debug("hidden")
	assert.Empty(t, buf.String())
}

func TestInit_DebugText(t *testing.T) {
	var buf bytes.Buffer
	Init(true, &buf)
	t.Cleanup(func() { Init(false, nil) })

	Log().Debug("visible")
	assert.Contains(t, buf.String(), "visible")
	assert.Contains(t, buf.String(), "level=debug")
}

func TestOutput_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.log")
	w, closer := Output(FileOptions{Path: path, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1})
	_, err := w.Write([]byte("hello\n"))
	require.NoError(t, err)
	require.NoError(t, closer.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(b))
}

func TestOutput_StdoutOnly(t *testing.T) {
	w, closer := Output(FileOptions{})
	assert.Equal(t, os.Stdout, w)
	assert.NoError(t, closer.Close())
}
