package types

import (
	"encoding/json"
	"time"
)

// Role identifies the author of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ContentPart is one element of a structured message content sequence.
// Only parts carrying text contribute to extraction; tool invocations,
// attachments and other part types are dropped silently.
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Message is one parsed transcript entry. Content holds either a plain
// string or a []ContentPart, depending on the transcript shape.
type Message struct {
	Role      Role
	Content   MessageContent
	Timestamp time.Time // Zero when the source line carried no timestamp
}

// MessageContent accepts the two content shapes found in transcripts:
// a bare string, or a sequence of typed parts.
type MessageContent struct {
	Text  string
	Parts []ContentPart
	// IsText reports which of the two shapes was present.
	IsText bool
}

// UnmarshalJSON decodes either a JSON string or an array of parts.
func (c *MessageContent) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		c.Text = s
		c.IsText = true
		return nil
	}

	var parts []ContentPart
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	c.Parts = parts
	c.IsText = false
	return nil
}

// MarshalJSON encodes back to the original shape.
func (c MessageContent) MarshalJSON() ([]byte, error) {
	if c.IsText {
		return json.Marshal(c.Text)
	}
	return json.Marshal(c.Parts)
}
