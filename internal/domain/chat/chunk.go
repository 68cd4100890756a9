package chat

import (
	"encoding/json"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	dataPrefix = "data: "
	doneMarker = "[DONE]"
)

// ChunkKind tags which variant of the provider's stream protocol a line
// decoded into.
type ChunkKind int

const (
	ChunkUnrecognized ChunkKind = iota
	ChunkDelta
	ChunkUsage
	ChunkDone
)

// ProviderChunk is the strict decode of one upstream "data:" payload.
// A delta chunk may also carry usage; the provider sends usage on its
// final content-bearing chunk for some models.
type ProviderChunk struct {
	Kind    ChunkKind
	Content string
	Usage   *TokenUsage
}

// DecodeProviderLine classifies one line of the upstream SSE stream.
// Lines without the data prefix return ok=false and are ignored by callers.
// Malformed JSON after the prefix returns an error; the relay logs and
// skips those lines rather than failing the stream.
func DecodeProviderLine(line string) (ProviderChunk, bool, error) {
	data, found := strings.CutPrefix(line, dataPrefix)
	if !found {
		return ProviderChunk{}, false, nil
	}
	if data == doneMarker {
		return ProviderChunk{Kind: ChunkDone}, true, nil
	}

	var payload struct {
		Choices []struct {
			Delta struct {
				Content string `json:"content"`
			} `json:"delta"`
		} `json:"choices"`
		Usage *openai.Usage `json:"usage"`
	}
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return ProviderChunk{}, true, err
	}

	chunk := ProviderChunk{Kind: ChunkUnrecognized}
	if payload.Usage != nil {
		chunk.Usage = normalizeUsage(payload.Usage)
		chunk.Kind = ChunkUsage
	}
	if len(payload.Choices) > 0 && payload.Choices[0].Delta.Content != "" {
		chunk.Content = payload.Choices[0].Delta.Content
		chunk.Kind = ChunkDelta
	}
	return chunk, true, nil
}

// UsageFromProvider converts provider-reported counters to the canonical
// shape used on the application wire.
func UsageFromProvider(usage openai.Usage) TokenUsage {
	return TokenUsage{
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
	}
}

// normalizeUsage maps the provider's snake_case counters onto the canonical
// shape. Missing counters decode as zero.
func normalizeUsage(usage *openai.Usage) *TokenUsage {
	if usage == nil {
		return nil
	}
	return &TokenUsage{
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
	}
}
