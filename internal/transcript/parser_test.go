package transcript

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engramdb/engram/pkg/types"
)

func writeTranscript(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session-1.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func TestParseFile_FlatMessages(t *testing.T) {
	path := writeTranscript(t,
		`{"role":"user","content":"how do I rotate the signing key?"}`,
		`{"role":"assistant","content":"Rotate it by issuing a new key and keeping the old one valid for one TTL."}`,
	)

	messages, err := ParseFile(path)
	require.NoError(t, err)
	require.Len(t, messages, 2)

	assert.Equal(t, types.RoleUser, messages[0].Role)
	assert.Equal(t, types.RoleAssistant, messages[1].Role)
	assert.True(t, messages[1].Content.IsText)
	assert.Contains(t, messages[1].Content.Text, "new key")
}

func TestParseFile_NestedMessageEnvelope(t *testing.T) {
	path := writeTranscript(t,
		`{"type":"assistant","message":{"role":"assistant","content":"The envelope form nests role and content one level down."}}`,
	)

	messages, err := ParseFile(path)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, types.RoleAssistant, messages[0].Role)
}

func TestParseFile_RoleFromEnvelopeType(t *testing.T) {
	path := writeTranscript(t,
		`{"type":"assistant","content":"Hook-written lines carry the role in the type field."}`,
	)

	messages, err := ParseFile(path)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, types.RoleAssistant, messages[0].Role)
}

func TestParseFile_StructuredContent(t *testing.T) {
	path := writeTranscript(t,
		`{"role":"assistant","content":[{"type":"text","text":"first part"},{"type":"tool_use","name":"read_file"},{"type":"text","text":"second part"}]}`,
	)

	messages, err := ParseFile(path)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.False(t, messages[0].Content.IsText)
	assert.Len(t, messages[0].Content.Parts, 3)
}

func TestParseFile_Timestamp(t *testing.T) {
	path := writeTranscript(t,
		`{"role":"assistant","content":"stamped line","timestamp":"2026-03-01T12:30:00Z"}`,
		`{"role":"assistant","content":"unstamped line"}`,
	)

	messages, err := ParseFile(path)
	require.NoError(t, err)
	require.Len(t, messages, 2)

	want := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	assert.True(t, messages[0].Timestamp.Equal(want))
	assert.True(t, messages[1].Timestamp.IsZero())
}

func TestParseFile_MalformedLinesSkipped(t *testing.T) {
	path := writeTranscript(t,
		`{"role":"assistant","content":"good line before the noise"}`,
		`this is not json`,
		`{"role":"assistant"}`,
		`{"content":"role is missing"}`,
		``,
		`{"role":"assistant","content":"good line after the noise"}`,
	)

	messages, err := ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, messages, 2)
}

func TestParseFile_MissingFile(t *testing.T) {
	messages, err := ParseFile("/nonexistent/session.jsonl")
	assert.NoError(t, err)
	assert.Nil(t, messages)
}

func TestSessionID(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/home/dev/.sessions/session-42.jsonl", "session-42"},
		{"abc123.jsonl", "abc123"},
		{"/tmp/noext", "noext"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SessionID(tt.path))
	}
}
