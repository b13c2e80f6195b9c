package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/trellis/pkg/graph"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(PutResult{ID: "alice", Existed: false})
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("NOT_FOUND", "no node with id \"ghost\"")
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	assert.Equal(t, "no node with id \"ghost\"", resp.Error.Message)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Success("done")
	require.NoError(t, err)
	assert.Equal(t, "done\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Error("KEY_ENCODING", "relation name contains reserved delimiter")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [KEY_ENCODING]")
	assert.Contains(t, buf.String(), "reserved delimiter")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			errOut := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:    "text",
				Writer:    out,
				ErrWriter: errOut,
				Verbose:   tt.verbose,
			}

			formatter.VerboseLog("visited %d node(s)", 5)

			// Diagnostics never land on the primary writer.
			assert.Empty(t, out.String())
			if tt.wantLog {
				assert.Contains(t, errOut.String(), "visited 5 node(s)")
			} else {
				assert.Empty(t, errOut.String())
			}
		})
	}
}

func TestStoreErrorParts(t *testing.T) {
	code, message := storeErrorParts(&graph.Error{
		Code:    graph.ErrCodeNotFound,
		Message: "no record for key",
		Op:      "GetNode",
		Key:     "ghost",
	})
	assert.Equal(t, "NOT_FOUND", code)
	assert.Equal(t, "no record for key", message)

	code, message = storeErrorParts(assert.AnError)
	assert.Equal(t, errCodeInternal, code)
	assert.Equal(t, assert.AnError.Error(), message)
}

func TestExitError(t *testing.T) {
	err := WrapExitError(ExitCommandError, "opening store", assert.AnError)
	assert.Contains(t, err.Error(), "opening store")
	assert.ErrorIs(t, err, assert.AnError)

	bare := NewExitError(ExitFailure, "token rejected")
	assert.Equal(t, "token rejected", bare.Error())
}