package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodePutGetRoundTrip(t *testing.T) {
	dir := t.TempDir()

	out, err := runCommand(t, "node", "put", "alice", "--payload", "hello", "--path", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ node alice created")

	out, err = runCommand(t, "node", "get", "alice", "--path", dir)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)
}

func TestNodePut_SecondPutUpdates(t *testing.T) {
	dir := t.TempDir()

	_, err := runCommand(t, "node", "put", "alice", "--payload", "v1", "--path", dir)
	require.NoError(t, err)

	out, err := runCommand(t, "node", "put", "alice", "--payload", "v2", "--path", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ node alice updated")

	out, err = runCommand(t, "node", "get", "alice", "--path", dir)
	require.NoError(t, err)
	assert.Equal(t, "v2\n", out)
}

func TestNodeGet_Missing(t *testing.T) {
	dir := t.TempDir()

	out, err := runCommand(t, "node", "get", "ghost", "--path", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "NOT_FOUND")
}

func TestNodeGetJSON(t *testing.T) {
	dir := t.TempDir()

	_, err := runCommand(t, "node", "put", "alice", "--payload", "hello", "--path", dir)
	require.NoError(t, err)

	out, err := runCommand(t, "node", "get", "alice", "--format", "json", "--path", dir)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "alice", data["id"])
	assert.Equal(t, "hello", data["payload"])
	assert.NotEmpty(t, data["ts"])
}

func TestNodeRm(t *testing.T) {
	dir := t.TempDir()

	_, err := runCommand(t, "node", "put", "alice", "--path", dir)
	require.NoError(t, err)

	out, err := runCommand(t, "node", "rm", "alice", "--path", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ node alice removed")

	_, err = runCommand(t, "node", "rm", "alice", "--path", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestNodeLs(t *testing.T) {
	dir := t.TempDir()

	for _, id := range []string{"carol", "alice", "bob"} {
		_, err := runCommand(t, "node", "put", id, "--path", dir)
		require.NoError(t, err)
	}

	out, err := runCommand(t, "node", "ls", "--path", dir)
	require.NoError(t, err)
	assert.Equal(t, "alice\nbob\ncarol\n", out)
}

func TestNodeLs_Empty(t *testing.T) {
	out, err := runCommand(t, "node", "ls", "--path", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestNode_SQLiteBackend(t *testing.T) {
	path := t.TempDir() + "/trellis.db"

	_, err := runCommand(t, "node", "put", "alice", "--payload", "hi",
		"--backend", "sqlite", "--path", path)
	require.NoError(t, err)

	out, err := runCommand(t, "node", "get", "alice", "--backend", "sqlite", "--path", path)
	require.NoError(t, err)
	assert.Equal(t, "hi\n", out)
}