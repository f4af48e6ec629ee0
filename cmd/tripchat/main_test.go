package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, "--log-level", "error", "--env-file", ""))
	err := cmd.Execute()
	return out.String(), err
}

const transcript = `{"role":"user","parts":[{"text":"Fly me from Munich to Lisbon"}]}
{"role":"model","parts":[{"text":"thinking","thought":true},{"functionCall":{"name":"flights_between","args":{"from":"MUC","to":"LIS"}}}]}
{"role":"user","parts":[{"functionResponse":{"name":"flights_between","response":{"flights":[]}}}]}
not json
{"role":"model","parts":[{"text":"No flights found."}]}
`

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "tripchat v"+version)
}

func TestReplay(t *testing.T) {
	out, err := execute(t, transcript, "replay", "-")
	require.NoError(t, err)

	assert.Contains(t, out, "#1\nFly me from Munich to Lisbon")
	assert.Contains(t, out, "Searching flights")
	assert.NotContains(t, out, "thinking")
	assert.Contains(t, out, "ERROR: INVALID RESPONSE FORMAT")
	assert.Contains(t, out, "No flights found.")
}

func TestReplaySaveExportListDelete(t *testing.T) {
	db := filepath.Join(t.TempDir(), "sessions.db")
	file := filepath.Join(t.TempDir(), "trip.ndjson")
	require.NoError(t, os.WriteFile(file, []byte(transcript), 0o600))

	_, err := execute(t, "", "replay", file, "--save", "--session", "trip-1", "--db", db, "--window", "3")
	require.NoError(t, err)

	out, err := execute(t, "", "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "trip-1")

	out, err = execute(t, "", "export", "trip-1", "--db", db)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, `{"window":3,"turns":[`))
	assert.Contains(t, out, "No flights found.")

	out, err = execute(t, "", "show", "trip-1", "--db", db, "--html")
	require.NoError(t, err)
	assert.Contains(t, out, "<p>No flights found.</p>")

	_, err = execute(t, "", "delete", "trip-1", "--db", db)
	require.NoError(t, err)
	_, err = execute(t, "", "export", "trip-1", "--db", db)
	require.Error(t, err)
}

func TestChat_OneShotWithMock(t *testing.T) {
	out, err := execute(t, "", "chat", "--provider", "mock", "--store", "memory", "Hello there")
	require.NoError(t, err)
	assert.Contains(t, out, "Mock response to: Hello there")
}

func TestChat_Interactive(t *testing.T) {
	out, err := execute(t, "Hi\n\nexit\n", "chat", "--provider", "mock", "--render-style", "notty")
	require.NoError(t, err)
	assert.Contains(t, out, "trip> ")
	assert.Contains(t, out, "Mock response to: Hi")
}

func TestInvalidConfig(t *testing.T) {
	_, err := execute(t, "", "list", "--window", "0")
	require.Error(t, err)
}
