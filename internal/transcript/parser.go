package transcript

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/engramdb/engram/pkg/types"
)

// maxLineBytes bounds a single transcript line. Assistant turns with large
// embedded artifacts can exceed bufio's default 64KB token size.
const maxLineBytes = 4 * 1024 * 1024

// rawLine is the superset of the accepted line shapes.
type rawLine struct {
	Type      string          `json:"type"`
	Role      types.Role      `json:"role"`
	Content   json.RawMessage `json:"content"`
	Message   *rawMessage     `json:"message"`
	Timestamp string          `json:"timestamp"`
}

type rawMessage struct {
	Role    types.Role      `json:"role"`
	Content json.RawMessage `json:"content"`
}

// ParseFile reads a transcript and returns its parseable messages in order.
// Malformed lines are skipped without error. A missing or unreadable file
// returns (nil, nil): "nothing to archive" is a valid terminal state.
func ParseFile(path string) ([]*types.Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil
	}
	defer func() { _ = f.Close() }()

	var messages []*types.Message
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if msg := parseLine([]byte(line)); msg != nil {
			messages = append(messages, msg)
		}
	}
	// A scan error mid-file still yields the messages read so far.
	return messages, nil
}

// parseLine decodes one transcript line, returning nil when the line is not
// a structured message.
func parseLine(data []byte) *types.Message {
	var raw rawLine
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	role := raw.Role
	content := raw.Content
	if raw.Message != nil {
		role = raw.Message.Role
		content = raw.Message.Content
	}
	if role == "" && raw.Type != "" {
		// Hook-written lines carry the role in the envelope type.
		role = types.Role(raw.Type)
	}
	if role == "" || len(content) == 0 {
		return nil
	}

	var mc types.MessageContent
	if err := json.Unmarshal(content, &mc); err != nil {
		return nil
	}

	msg := &types.Message{Role: role, Content: mc}
	if raw.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339, raw.Timestamp); err == nil {
			msg.Timestamp = ts
		}
	}
	return msg
}

// SessionID derives the session identifier for a transcript path: the
// filename with its extension stripped.
func SessionID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
