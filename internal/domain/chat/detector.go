package chat

import "strings"

// profileKeywords are the canonical phrases that mark a message as a request
// for a personality summary. Matching is substring based and case insensitive.
var profileKeywords = []string{
	"who am i",
	"tell me about myself",
	"what kind of person am i",
	"what do you know about me",
	"my personality",
	"describe me",
	"what am i like",
}

// DetectProfileQuery reports whether the message asks for a personality
// profile. Empty input never matches.
func DetectProfileQuery(message string) bool {
	lower := strings.ToLower(message)
	for _, keyword := range profileKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
