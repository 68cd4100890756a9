package chat

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

// brokenBody yields its payload, then fails the read.
type brokenBody struct {
	r   io.Reader
	err error
}

func (b *brokenBody) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	if err == io.EOF {
		return n, b.err
	}
	return n, err
}

func (b *brokenBody) Close() error { return nil }

func drain(s *EnvelopeStream) []StreamEnvelope {
	var out []StreamEnvelope
	for {
		env, ok := s.Next()
		if !ok {
			return out
		}
		out = append(out, env)
	}
}

func TestEnvelopeStreamRelaysDeltasAndUsage(t *testing.T) {
	upstream := strings.Join([]string{
		`data: {"choices":[{"delta":{"content":"Hel"}}]}`,
		``,
		`data: {"choices":[{"delta":{"content":"lo"}}]}`,
		``,
		`data: {"choices":[{"delta":{"content":" world"}}],"usage":{"prompt_tokens":9,"completion_tokens":3,"total_tokens":12}}`,
		``,
		`data: [DONE]`,
		``,
	}, "\n")

	body := &closeTracker{Reader: strings.NewReader(upstream)}
	stream := NewEnvelopeStream(body, zerolog.Nop())
	envelopes := drain(stream)

	if len(envelopes) != 4 {
		t.Fatalf("expected 4 envelopes, got %d: %+v", len(envelopes), envelopes)
	}

	var accumulated string
	for _, env := range envelopes[:3] {
		if env.Content == "" {
			t.Fatalf("expected content envelope, got %+v", env)
		}
		accumulated += env.Content
	}

	last := envelopes[3]
	if last.Usage == nil {
		t.Fatalf("expected final usage envelope, got %+v", last)
	}
	if last.Usage.PromptTokens != 9 || last.Usage.CompletionTokens != 3 {
		t.Fatalf("unexpected usage: %+v", last.Usage)
	}

	// Round-trip: concatenated deltas equal the text to be persisted.
	if accumulated != "Hello world" || stream.FullText() != "Hello world" {
		t.Fatalf("accumulated %q, full text %q", accumulated, stream.FullText())
	}
	if stream.Failed() {
		t.Fatal("stream should not report failure")
	}
	if !body.closed {
		t.Fatal("upstream body should be closed after iteration")
	}
}

func TestEnvelopeStreamEstimatesUsageWhenProviderSilent(t *testing.T) {
	// 9 characters of content, no usage chunk: ceil(9/4) = 3.
	upstream := `data: {"choices":[{"delta":{"content":"nine char"}}]}` + "\n\ndata: [DONE]\n\n"

	stream := NewEnvelopeStream(io.NopCloser(strings.NewReader(upstream)), zerolog.Nop())
	envelopes := drain(stream)

	last := envelopes[len(envelopes)-1]
	if last.Usage == nil {
		t.Fatalf("expected usage envelope, got %+v", last)
	}
	if last.Usage.PromptTokens != 0 {
		t.Fatalf("estimated prompt tokens should be 0, got %d", last.Usage.PromptTokens)
	}
	if last.Usage.CompletionTokens != 3 {
		t.Fatalf("expected 3 estimated completion tokens, got %d", last.Usage.CompletionTokens)
	}
}

func TestEnvelopeStreamSkipsMalformedLines(t *testing.T) {
	upstream := strings.Join([]string{
		`data: {"choices":[{"delta":{"content":"ok"}}]}`,
		`data: {"choices":[`,
		`not an event line`,
		`data: {"choices":[{"delta":{"content":"!"}}]}`,
		`data: [DONE]`,
	}, "\n")

	stream := NewEnvelopeStream(io.NopCloser(strings.NewReader(upstream)), zerolog.Nop())
	envelopes := drain(stream)

	if len(envelopes) != 3 {
		t.Fatalf("expected 2 content + 1 usage envelope, got %d: %+v", len(envelopes), envelopes)
	}
	if stream.FullText() != "ok!" {
		t.Fatalf("expected malformed lines skipped, full text %q", stream.FullText())
	}
}

func TestEnvelopeStreamReportsMidStreamFailure(t *testing.T) {
	body := &brokenBody{
		r:   strings.NewReader(`data: {"choices":[{"delta":{"content":"partial"}}]}` + "\n"),
		err: errors.New("connection reset"),
	}

	stream := NewEnvelopeStream(body, zerolog.Nop())
	envelopes := drain(stream)

	last := envelopes[len(envelopes)-1]
	if last.Error != ErrStreamInterrupted {
		t.Fatalf("expected error envelope %q, got %+v", ErrStreamInterrupted, last)
	}
	if !stream.Failed() {
		t.Fatal("stream should report failure")
	}

	// Only one terminal envelope: iteration must end after the error.
	if _, ok := stream.Next(); ok {
		t.Fatal("stream should be exhausted after the error envelope")
	}
}

func TestFrame(t *testing.T) {
	got := string(ContentEnvelope("hi").Frame())
	want := "data: {\"content\":\"hi\"}\n\n"
	if got != want {
		t.Fatalf("frame mismatch: got %q want %q", got, want)
	}

	usage := string(UsageEnvelope(TokenUsage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3}).Frame())
	if usage != "data: {\"usage\":{\"promptTokens\":1,\"completionTokens\":2,\"totalTokens\":3}}\n\n" {
		t.Fatalf("unexpected usage frame: %q", usage)
	}
}
