package parser

import "strings"

const fence = "```"

// StripCodeFence removes a markdown code fence wrapped around model output.
// Models often wrap JSON in ```json ... ``` even when told not to. A fence
// with any single-word language tag is accepted; text without a leading fence
// is only trimmed.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, fence) {
		return text
	}

	text = strings.TrimPrefix(text, fence)
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		tag := strings.TrimSpace(text[:idx])
		if !strings.ContainsAny(tag, " {[\"") {
			text = text[idx+1:]
		}
	} else {
		// Single-line fence, e.g. ```json {"a":"b"}```
		text = strings.TrimPrefix(text, "json")
	}

	if idx := strings.LastIndex(text, fence); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}
