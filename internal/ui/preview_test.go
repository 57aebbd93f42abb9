package ui

import (
	"testing"

	"github.com/Cyclone1070/memeagent/internal/gate"
	"github.com/stretchr/testify/assert"
)

func TestFormatToolDescription(t *testing.T) {
	tests := []struct {
		name string
		tool string
		args map[string]any
		want string
	}{
		{"create meme", "Imgflip_CreateMeme", map[string]any{"template_id": "181913649"}, "Imgflip_CreateMeme template 181913649"},
		{"numeric template id", "Imgflip_CreateMeme", map[string]any{"template_id": float64(181913649)}, "Imgflip_CreateMeme template 181913649"},
		{"create meme without id", "Imgflip_CreateMeme", map[string]any{}, "Imgflip_CreateMeme"},
		{"search", "Imgflip_SearchMemes", map[string]any{"query": "drake"}, "Imgflip_SearchMemes 'drake'"},
		{"other tool", "Imgflip_GetPopularMemes", map[string]any{"limit": 10}, "Imgflip_GetPopularMemes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatToolDescription(tt.tool, tt.args))
		})
	}
}

func TestFormatPendingCall_Meme(t *testing.T) {
	out := FormatPendingCall(gate.PendingCall{
		ToolName: "Imgflip_CreateMeme",
		Args: map[string]any{
			"template_id":   "181913649",
			"top_text":      "Sleeping in on Saturday",
			"bottom_text":   "Waking up on Monday mornings",
			"max_font_size": float64(50),
			"no_watermark":  true,
		},
	}, PlainStyles())

	assert.Contains(t, out, "Template: 181913649")
	assert.Contains(t, out, "Top:      Sleeping in on Saturday")
	assert.Contains(t, out, "Bottom:   Waking up on Monday mornings")
	assert.Contains(t, out, "No watermark")
	assert.Contains(t, out, `"max_font_size": 50`)
}

func TestFormatPendingCall_OtherToolShowsJSON(t *testing.T) {
	out := FormatPendingCall(gate.PendingCall{
		ToolName: "Imgflip_SearchMemes",
		Args:     map[string]any{"query": "drake", "limit": float64(5)},
	}, PlainStyles())

	assert.Contains(t, out, "Imgflip_SearchMemes 'drake'\n")
	assert.Contains(t, out, `"limit": 5`)
	assert.Contains(t, out, `"query": "drake"`)
	assert.NotContains(t, out, "Template:")
}
