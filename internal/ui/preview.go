package ui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Cyclone1070/memeagent/internal/gate"
	"github.com/mitchellh/mapstructure"
)

// memeRequest is the argument shape of Imgflip_CreateMeme.
type memeRequest struct {
	TemplateID  string `mapstructure:"template_id"`
	TopText     string `mapstructure:"top_text"`
	BottomText  string `mapstructure:"bottom_text"`
	Font        string `mapstructure:"font"`
	MaxFontSize int    `mapstructure:"max_font_size"`
	NoWatermark bool   `mapstructure:"no_watermark"`
}

// FormatToolDescription returns a one-line summary of a call.
func FormatToolDescription(name string, args map[string]any) string {
	switch name {
	case "Imgflip_CreateMeme":
		var req memeRequest
		if err := decodeArgs(args, &req); err == nil && req.TemplateID != "" {
			return fmt.Sprintf("%s template %s", name, req.TemplateID)
		}
	case "Imgflip_SearchMemes":
		if query, ok := args["query"].(string); ok {
			return fmt.Sprintf("%s '%s'", name, query)
		}
	}
	return name
}

// FormatPendingCall renders a call waiting for confirmation.
func FormatPendingCall(call gate.PendingCall, styles Styles) string {
	var sb strings.Builder
	sb.WriteString(styles.Tool.Render(FormatToolDescription(call.ToolName, call.Args)))
	sb.WriteString("\n")

	if call.ToolName == "Imgflip_CreateMeme" {
		var req memeRequest
		if err := decodeArgs(call.Args, &req); err == nil {
			sb.WriteString(renderMemePreview(req))
		}
	}

	args, err := json.MarshalIndent(call.Args, "", "  ")
	if err != nil {
		args = []byte(fmt.Sprintf("%v", call.Args))
	}
	sb.WriteString(styles.Args.Render(string(args)))
	return sb.String()
}

func renderMemePreview(req memeRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "  Template: %s\n", req.TemplateID)
	if req.TopText != "" {
		fmt.Fprintf(&sb, "  Top:      %s\n", req.TopText)
	}
	if req.BottomText != "" {
		fmt.Fprintf(&sb, "  Bottom:   %s\n", req.BottomText)
	}
	if req.Font != "" {
		fmt.Fprintf(&sb, "  Font:     %s\n", req.Font)
	}
	if req.NoWatermark {
		sb.WriteString("  No watermark\n")
	}
	return sb.String()
}

// decodeArgs accepts numbers for string fields since models send
// template_id either way.
func decodeArgs(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(args)
}
