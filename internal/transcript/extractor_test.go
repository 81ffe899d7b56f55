package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/engramdb/engram/pkg/types"
)

func TestExtractText(t *testing.T) {
	tests := []struct {
		name string
		msg  *types.Message
		want string
	}{
		{
			name: "plain string content",
			msg: &types.Message{Content: types.MessageContent{
				IsText: true,
				Text:   "plain content passes through unchanged",
			}},
			want: "plain content passes through unchanged",
		},
		{
			name: "structured parts joined by newline",
			msg: &types.Message{Content: types.MessageContent{Parts: []types.ContentPart{
				{Type: "text", Text: "first"},
				{Type: "text", Text: "second"},
			}}},
			want: "first\nsecond",
		},
		{
			name: "non-text parts dropped",
			msg: &types.Message{Content: types.MessageContent{Parts: []types.ContentPart{
				{Type: "text", Text: "kept"},
				{Type: "tool_use"},
				{Type: "image"},
			}}},
			want: "kept",
		},
		{
			name: "no extractable text",
			msg: &types.Message{Content: types.MessageContent{Parts: []types.ContentPart{
				{Type: "tool_use"},
			}}},
			want: "",
		},
		{
			name: "nil message",
			msg:  nil,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractText(tt.msg))
		})
	}
}
