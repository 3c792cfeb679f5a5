package commands

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"

	appanalyses "github.com/bryanwahyu/pcap-insight/internal/application/analyses"
	"github.com/bryanwahyu/pcap-insight/internal/infra/db/memory"
	"github.com/bryanwahyu/pcap-insight/internal/infra/generator/synthetic"
	"github.com/bryanwahyu/pcap-insight/internal/infra/httpserver"
)

type env struct {
	server string
	repo   *memory.AnalysisRepository
	code   int
}

func setup(t *testing.T) *env {
	t.Helper()
	e := &env{repo: memory.NewAnalysisRepository(nil), code: -1}
	svc := &appanalyses.Service{Repo: e.repo, Generator: synthetic.New(0, nil)}
	srv := httptest.NewServer(httpserver.NewRouter(svc, httpserver.Options{APIKeys: []string{"k"}}))
	t.Cleanup(srv.Close)
	e.server = srv.URL

	oldExiter, oldErr := cli.OsExiter, cli.ErrWriter
	cli.OsExiter = func(code int) { e.code = code }
	cli.ErrWriter = &bytes.Buffer{}
	t.Cleanup(func() { cli.OsExiter, cli.ErrWriter = oldExiter, oldErr })
	return e
}

func (e *env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := NewApp(&out)
	err := app.Run(append([]string{"pcapctl", "--server", e.server, "--api-key", "k"}, args...))
	return out.String(), err
}

func capture(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("pcap bytes"), 0o600))
	return path
}

func TestAnalyzeListShowDelete(t *testing.T) {
	e := setup(t)

	out, err := e.run(t, "analyze", capture(t, "traffic.pcap"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "Analysis "))
	assert.Contains(t, out, "Packets,Unique IPs,Prediction")

	list, err := e.repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	id := string(list[0].ID)

	out, err = e.run(t, "list")
	require.NoError(t, err)
	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"ID", "Filename", "Size", "Uploaded", "Prediction", "Confidence %"}, rows[0])
	assert.Equal(t, id, rows[1][0])
	assert.Equal(t, "traffic.pcap", rows[1][1])
	assert.Equal(t, "10", rows[1][2])

	out, err = e.run(t, "show", "--sort", "count", "--asc", id)
	require.NoError(t, err)
	rows, err = csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, len(list[0].IOCs)+1, len(rows))
	assert.Equal(t, "Level", rows[0][3])

	out, err = e.run(t, "show", "--human-readable", id)
	require.NoError(t, err)
	assert.Contains(t, out, "THREAT SCORE")

	out, err = e.run(t, "report", id)
	require.NoError(t, err)
	assert.Contains(t, out, "pcap-report-"+id+".pdf")

	out, err = e.run(t, "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted "+id)
	assert.Equal(t, 0, e.repo.Len())
}

func TestShow_UnknownType(t *testing.T) {
	e := setup(t)
	_, err := e.run(t, "show", "--type", "url", "0b7c5a4e-8a3f-4a52-9d0d-8d1f0c2f6e11")
	require.Error(t, err)
	assert.Equal(t, 1, e.code)
}

func TestShow_NotFound(t *testing.T) {
	e := setup(t)
	_, err := e.run(t, "show", "0b7c5a4e-8a3f-4a52-9d0d-8d1f0c2f6e11")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestAnalyze_RejectsTextFile(t *testing.T) {
	e := setup(t)
	_, err := e.run(t, "analyze", capture(t, "capture.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, 0, e.repo.Len())
}

func TestMissingArgument(t *testing.T) {
	e := setup(t)
	for _, cmd := range []string{"analyze", "show", "report", "delete"} {
		_, err := e.run(t, cmd)
		assert.Error(t, err, cmd)
	}
}

func TestList_Empty(t *testing.T) {
	e := setup(t)
	_, err := e.run(t, "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No analyses")
}
