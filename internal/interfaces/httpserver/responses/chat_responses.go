package responses

import "chat-server/internal/domain/conversation"

// MessagesResponse wraps an ordered history read.
type MessagesResponse struct {
	Messages []conversation.Message `json:"messages"`
}

// SessionsResponse wraps a session list.
type SessionsResponse struct {
	Sessions []conversation.ChatSession `json:"sessions"`
}

// SuccessResponse is the body for operations that only ack.
type SuccessResponse struct {
	Success bool `json:"success"`
}
