package chatrequests

// ChatRequest is the inbound payload for POST /chat.
type ChatRequest struct {
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"sessionId" binding:"required"`
	UserID    string `json:"userId"`
}

// ClearRequest is the inbound payload for POST /clear.
type ClearRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

// CreateSessionRequest is the inbound payload for POST /sessions.
type CreateSessionRequest struct {
	UserID string `json:"userId" binding:"required"`
	Title  string `json:"title"`
}

// RenameSessionRequest is the inbound payload for PATCH /sessions/:id.
type RenameSessionRequest struct {
	Title string `json:"title" binding:"required"`
}

// UpsertProfileRequest is the inbound payload for PUT /profile/:userId.
type UpsertProfileRequest struct {
	FullName    *string           `json:"full_name" validate:"omitempty,max=120"`
	AvatarURL   *string           `json:"avatar_url" validate:"omitempty,url"`
	Preferences map[string]string `json:"preferences" validate:"omitempty,dive,keys,max=64,endkeys,max=2048"`
}
