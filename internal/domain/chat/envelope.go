package chat

import (
	"encoding/json"
	"fmt"
)

// TokenUsage is the canonical token accounting shape forwarded to clients.
// Field names follow the application wire protocol, not the provider's.
type TokenUsage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// StreamEnvelope is one unit of the application's own SSE protocol. Exactly
// one of Content, Usage or Error is set. Within a stream: zero or more
// content envelopes, then at most one usage or one error envelope.
type StreamEnvelope struct {
	Content string      `json:"content,omitempty"`
	Usage   *TokenUsage `json:"usage,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Frame encodes the envelope as one SSE data unit ("data: <json>\n\n").
func (e StreamEnvelope) Frame() []byte {
	payload, err := json.Marshal(e)
	if err != nil {
		// Only reachable if the envelope itself is malformed; frame the
		// fixed interrupt notice so the client still terminates cleanly.
		return []byte(fmt.Sprintf("data: {\"error\":%q}\n\n", ErrStreamInterrupted))
	}
	return []byte("data: " + string(payload) + "\n\n")
}

// ErrStreamInterrupted is the only error text ever forwarded in-band.
// Provider and transport detail stays in server logs.
const ErrStreamInterrupted = "Stream interrupted"

// ContentEnvelope returns a content delta envelope.
func ContentEnvelope(content string) StreamEnvelope {
	return StreamEnvelope{Content: content}
}

// UsageEnvelope returns the final accounting envelope.
func UsageEnvelope(usage TokenUsage) StreamEnvelope {
	return StreamEnvelope{Usage: &usage}
}

// ErrorEnvelope returns the in-band failure notice.
func ErrorEnvelope() StreamEnvelope {
	return StreamEnvelope{Error: ErrStreamInterrupted}
}
