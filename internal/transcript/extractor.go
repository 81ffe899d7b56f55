package transcript

import (
	"strings"

	"github.com/engramdb/engram/pkg/types"
)

// ExtractText pulls the plain text out of one parsed transcript message.
//
// String content is returned unchanged. Structured content concatenates the
// text-bearing parts in order, joined by newlines; non-text parts (tool
// invocations, attachments) are dropped silently. A message with no
// extractable text yields the empty string.
func ExtractText(msg *types.Message) string {
	if msg == nil {
		return ""
	}

	if msg.Content.IsText {
		return msg.Content.Text
	}

	var texts []string
	for _, part := range msg.Content.Parts {
		if part.Text != "" {
			texts = append(texts, part.Text)
		}
	}
	return strings.Join(texts, "\n")
}
