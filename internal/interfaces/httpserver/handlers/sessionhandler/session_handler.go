package sessionhandler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"chat-server/internal/domain/conversation"
	chatrequests "chat-server/internal/interfaces/httpserver/requests/chat"
	"chat-server/internal/interfaces/httpserver/responses"
	"chat-server/internal/utils/platformerrors"
)

// SessionHandler manages the chat session lifecycle. Deleting a session
// also discards its conversation history.
type SessionHandler struct {
	sessions conversation.SessionRepository
	messages conversation.MessageRepository
	logger   zerolog.Logger
}

func NewSessionHandler(
	sessions conversation.SessionRepository,
	messages conversation.MessageRepository,
	logger zerolog.Logger,
) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		messages: messages,
		logger:   logger,
	}
}

// PostSession handles POST /sessions.
func (h *SessionHandler) PostSession(reqCtx *gin.Context) {
	var request chatrequests.CreateSessionRequest
	if err := reqCtx.ShouldBindJSON(&request); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "UserId is required", "1b3d5f7a-9c0e-4214-8a6b-2d4f6e8a0c1e")
		return
	}

	session := &conversation.ChatSession{
		UserID: request.UserID,
		Title:  request.Title,
	}
	if err := h.sessions.Create(reqCtx.Request.Context(), session); err != nil {
		responses.HandleError(reqCtx, err, "Failed to create session")
		return
	}

	reqCtx.JSON(http.StatusCreated, session)
}

// GetSessions handles GET /sessions?userId=, newest activity first.
func (h *SessionHandler) GetSessions(reqCtx *gin.Context) {
	userID := reqCtx.Query("userId")
	if userID == "" {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "UserId is required", "8c6a4e2f-0b1d-4739-a5c3-e7f9d1b3a5c7")
		return
	}

	sessions, err := h.sessions.ListByUser(reqCtx.Request.Context(), userID)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to list sessions")
		return
	}

	reqCtx.JSON(http.StatusOK, responses.SessionsResponse{Sessions: sessions})
}

// PatchSession handles PATCH /sessions/:id for renames.
func (h *SessionHandler) PatchSession(reqCtx *gin.Context) {
	sessionID := reqCtx.Param("id")

	var request chatrequests.RenameSessionRequest
	if err := reqCtx.ShouldBindJSON(&request); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "Title is required", "4f2e0d8c-6b5a-4391-9d7e-3a1c5b7d9f0a")
		return
	}

	session, err := h.sessions.Rename(reqCtx.Request.Context(), sessionID, request.Title)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to rename session")
		return
	}

	reqCtx.JSON(http.StatusOK, session)
}

// DeleteSession handles DELETE /sessions/:id. Messages go first so an
// interrupted delete never strands history without its session.
func (h *SessionHandler) DeleteSession(reqCtx *gin.Context) {
	sessionID := reqCtx.Param("id")
	ctx := reqCtx.Request.Context()

	if err := h.messages.DeleteBySession(ctx, sessionID); err != nil {
		responses.HandleError(reqCtx, err, "Failed to delete session")
		return
	}
	if err := h.sessions.Delete(ctx, sessionID); err != nil {
		responses.HandleError(reqCtx, err, "Failed to delete session")
		return
	}

	reqCtx.JSON(http.StatusOK, responses.SuccessResponse{Success: true})
}
