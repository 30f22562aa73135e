package grounding

import (
	"testing"

	"github.com/mj1618/desktop-pilot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReply(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  []model.Element
	}{
		{
			name:  "plain",
			reply: `{"elements":[{"text":"File","bounding_box":{"x1":1,"y1":2,"x2":3,"y2":4}}]}`,
			want:  []model.Element{{Text: "File", BoundingBox: &model.BoundingBox{X1: 1, Y1: 2, X2: 3, Y2: 4}}},
		},
		{
			name:  "fenced",
			reply: "```json\n{\"elements\":[{\"text\":\"Edit\"}]}\n```",
			want:  []model.Element{{Text: "Edit"}},
		},
		{
			name:  "prose around object",
			reply: "Here is what I found:\n{\"elements\":[{\"text\":\"View\"}]}\nHope this helps.",
			want:  []model.Element{{Text: "View"}},
		},
		{
			name:  "trailing comma",
			reply: `{"elements":[{"text":"Help"},]}`,
			want:  []model.Element{{Text: "Help"}},
		},
		{
			name:  "swapped corners",
			reply: `{"elements":[{"text":"Tab","bounding_box":{"x1":30,"y1":40,"x2":10,"y2":20}}]}`,
			want:  []model.Element{{Text: "Tab", BoundingBox: &model.BoundingBox{X1: 10, Y1: 20, X2: 30, Y2: 40}}},
		},
		{
			name:  "no elements",
			reply: `{"elements":[]}`,
			want:  []model.Element{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReply(tt.reply)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Elements)
		})
	}
}

func TestParseReply_Errors(t *testing.T) {
	for _, reply := range []string{"", "   ", "no json here", `{"elements": 42}`} {
		_, err := ParseReply(reply)
		assert.Error(t, err, "reply %q", reply)
	}
}
