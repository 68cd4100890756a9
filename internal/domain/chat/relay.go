package chat

import (
	"bufio"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

const (
	scannerInitialBuffer = 12 * 1024        // 12KB
	scannerMaxBuffer     = 10 * 1024 * 1024 // 10MB
)

// EnvelopeStream re-frames an upstream provider byte stream into the
// application's own StreamEnvelope sequence. It is a lazy, finite,
// non-restartable iterator: call Next until it reports false.
//
// The sequence it produces is zero or more content envelopes, then exactly
// one usage envelope (estimated when the provider never reported usage) on
// clean upstream end, or exactly one error envelope when reading fails
// mid-stream. Content deltas are accumulated internally so the caller can
// persist the full response once the stream settles.
type EnvelopeStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	log     zerolog.Logger

	full     strings.Builder
	usage    *TokenUsage
	failed   bool
	finished bool
}

// NewEnvelopeStream wraps the upstream response body. The stream owns the
// body and closes it when iteration finishes.
func NewEnvelopeStream(body io.ReadCloser, log zerolog.Logger) *EnvelopeStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, scannerInitialBuffer), scannerMaxBuffer)
	return &EnvelopeStream{
		body:    body,
		scanner: scanner,
		log:     log,
	}
}

// Next returns the next envelope of the sequence. The second return value is
// false once the sequence is exhausted.
func (s *EnvelopeStream) Next() (StreamEnvelope, bool) {
	if s.finished {
		return StreamEnvelope{}, false
	}

	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}

		chunk, ok, err := DecodeProviderLine(line)
		if err != nil {
			s.log.Error().Err(err).Str("data", line).Msg("failed to parse stream chunk JSON")
			continue
		}
		if !ok {
			continue
		}

		switch chunk.Kind {
		case ChunkDone:
			continue
		case ChunkUsage:
			s.usage = chunk.Usage
		case ChunkDelta:
			if chunk.Usage != nil {
				s.usage = chunk.Usage
			}
			s.full.WriteString(chunk.Content)
			return ContentEnvelope(chunk.Content), true
		case ChunkUnrecognized:
			continue
		}
	}

	s.finish()

	if err := s.scanner.Err(); err != nil {
		s.failed = true
		s.log.Error().Err(err).Msg("upstream stream read failed")
		return ErrorEnvelope(), true
	}

	return UsageEnvelope(s.Usage()), true
}

// FullText returns the accumulated response so far. After iteration ends it
// equals the concatenation of every content envelope in delivery order.
func (s *EnvelopeStream) FullText() string {
	return s.full.String()
}

// Usage returns the final accounting: the last provider-reported usage, or
// an estimate of ceil(len(fullText)/4) completion tokens when the provider
// never reported any.
func (s *EnvelopeStream) Usage() TokenUsage {
	if s.usage != nil {
		return *s.usage
	}
	estimated := (s.full.Len() + 3) / 4
	return TokenUsage{
		PromptTokens:     0,
		CompletionTokens: estimated,
		TotalTokens:      estimated,
	}
}

// Failed reports whether the upstream read ended abnormally. When true the
// accumulated text must not be persisted.
func (s *EnvelopeStream) Failed() bool {
	return s.failed
}

func (s *EnvelopeStream) finish() {
	if s.finished {
		return
	}
	s.finished = true
	if err := s.body.Close(); err != nil {
		s.log.Error().Err(err).Msg("unable to close upstream response body")
	}
}
