package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectProfileQuery(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    bool
	}{
		{"direct phrase", "who am i", true},
		{"mixed case", "WHO AM I?", true},
		{"embedded phrase", "Hey, can you tell me about myself please?", true},
		{"personality phrase", "What does my personality look like?", true},
		{"describe me", "Could you describe me based on our chats?", true},
		{"what am i like", "So, what am I like?", true},
		{"what do you know", "what do you know about me", true},
		{"what kind of person", "What kind of person am I really?", true},
		{"ordinary question", "What is the capital of France?", false},
		{"near miss", "who is the president", false},
		{"empty", "", false},
		{"whitespace only", "   ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectProfileQuery(tt.message))
		})
	}
}
