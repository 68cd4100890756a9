package chathandler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"chat-server/internal/domain/chat"
	"chat-server/internal/domain/conversation"
	"chat-server/internal/infrastructure/metrics"
	"chat-server/internal/interfaces/httpserver/middlewares"
	chatrequests "chat-server/internal/interfaces/httpserver/requests/chat"
	"chat-server/internal/interfaces/httpserver/responses"
	"chat-server/internal/utils/httpclients/llm"
	"chat-server/internal/utils/platformerrors"
)

// ProfileFallbackText is returned verbatim when a profile is requested
// before enough history exists. No upstream call is made in that case.
const ProfileFallbackText = "I'd love to tell you about yourself, but we've only just started chatting! Have a few more conversations with me, and I'll be able to give you a better personality profile."

// ChatHandler drives one chat request through routing, branch selection,
// streaming and persistence. Failures before the first streamed byte are
// ordinary HTTP errors; after that they are reported in-band.
type ChatHandler struct {
	messages conversation.MessageRepository
	sessions conversation.SessionRepository
	llm      *llm.Client
	logger   zerolog.Logger
}

func NewChatHandler(
	messages conversation.MessageRepository,
	sessions conversation.SessionRepository,
	llmClient *llm.Client,
	logger zerolog.Logger,
) *ChatHandler {
	return &ChatHandler{
		messages: messages,
		sessions: sessions,
		llm:      llmClient,
		logger:   logger,
	}
}

// PostChat handles POST /chat. The inbound user message is persisted before
// anything else so history reads stay consistent even if the rest of the
// request fails.
func (h *ChatHandler) PostChat(reqCtx *gin.Context) {
	var request chatrequests.ChatRequest
	if err := reqCtx.ShouldBindJSON(&request); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "Message and sessionId are required", "0a4c2b1d-9e8f-4c6a-b5d3-7f2e1a0c9b8d")
		return
	}

	ctx := reqCtx.Request.Context()

	userMessage := &conversation.Message{
		SessionID: request.SessionID,
		UserID:    optionalID(request.UserID),
		Role:      conversation.RoleUser,
		Content:   request.Message,
	}
	if err := h.messages.Save(ctx, userMessage); err != nil {
		responses.HandleError(reqCtx, err, "Failed to process chat message")
		return
	}

	if err := h.sessions.Touch(ctx, request.SessionID); err != nil {
		// Eventual consistency between message rows and session ordering is
		// accepted; a failed bump is not fatal to the chat.
		h.logger.Warn().Err(err).Str("session_id", request.SessionID).Msg("unable to touch session")
	}

	if chat.DetectProfileQuery(request.Message) {
		h.streamProfile(reqCtx, request)
		return
	}
	h.streamChat(reqCtx, request)
}

// streamProfile synthesizes a one-shot SSE response so the client consumes
// both branches through the same protocol.
func (h *ChatHandler) streamProfile(reqCtx *gin.Context, request chatrequests.ChatRequest) {
	ctx := reqCtx.Request.Context()

	history, err := h.messages.History(ctx, request.SessionID, conversation.DefaultHistoryLimit)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to process chat message")
		return
	}

	responseText := ProfileFallbackText
	var usage *chat.TokenUsage

	if len(history) >= conversation.ProfileMinTurns {
		prompt := conversation.Message{
			Role:    conversation.RoleUser,
			Content: fmt.Sprintf("Here is the conversation history:\n\n%s\n\nPlease generate a personality profile.", formatHistory(history)),
		}
		text, reported, err := h.llm.Complete(ctx, chat.PersonaProfile, []conversation.Message{prompt})
		if err != nil {
			h.recordProviderError(err)
			h.logger.Error().Err(err).Msg("profile generation failed")
			responses.HandleError(reqCtx, err, "Failed to process chat message")
			return
		}
		responseText = text
		usage = &reported
	}

	if err := h.saveAssistantMessage(ctx, request, responseText); err != nil {
		responses.HandleError(reqCtx, err, "Failed to process chat message")
		return
	}

	flusher, ok := middlewares.PrepareSSE(reqCtx)
	if !ok {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeInternal, "streaming unsupported", "3f6b8a90-2d4c-4e7f-9a1b-c5d8e0f2a4b6")
		return
	}
	reqCtx.Status(http.StatusOK)

	h.writeEnvelope(reqCtx, flusher, chat.ContentEnvelope(responseText))
	if usage != nil {
		metrics.RecordTokens(h.llm.Model(), usage.PromptTokens, usage.CompletionTokens)
		h.writeEnvelope(reqCtx, flusher, chat.UsageEnvelope(*usage))
	}
}

// streamChat relays the provider's live stream, re-framed, and persists the
// accumulated text once the upstream ends cleanly. A mid-stream failure
// discards the partial text and reports in-band.
func (h *ChatHandler) streamChat(reqCtx *gin.Context, request chatrequests.ChatRequest) {
	ctx := reqCtx.Request.Context()

	history, err := h.messages.History(ctx, request.SessionID, conversation.ChatContextLimit)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to process chat message")
		return
	}

	body, err := h.llm.Stream(ctx, chat.PersonaChat, history)
	if err != nil {
		h.recordProviderError(err)
		h.logger.Error().Err(err).Msg("upstream streaming request failed")
		responses.HandleError(reqCtx, err, "Failed to process chat message")
		return
	}

	flusher, ok := middlewares.PrepareSSE(reqCtx)
	if !ok {
		_ = body.Close()
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeInternal, "streaming unsupported", "b2a4c6e8-0d1f-4357-9b8a-6c5e4d3f2a10")
		return
	}
	reqCtx.Status(http.StatusOK)

	stream := chat.NewEnvelopeStream(body, h.logger)
	for {
		envelope, ok := stream.Next()
		if !ok {
			break
		}

		if envelope.Usage != nil {
			// Persist before the final accounting goes out, so a clean
			// close implies the message is durable.
			if err := h.saveAssistantMessage(ctx, request, stream.FullText()); err != nil {
				h.logger.Error().Err(err).Msg("unable to persist assistant message")
				h.writeEnvelope(reqCtx, flusher, chat.ErrorEnvelope())
				return
			}
			metrics.RecordTokens(h.llm.Model(), envelope.Usage.PromptTokens, envelope.Usage.CompletionTokens)
		}

		if !h.writeEnvelope(reqCtx, flusher, envelope) {
			// Client went away; the upstream read is abandoned with it.
			return
		}

		if envelope.Error != "" {
			metrics.RecordProviderError(string(platformerrors.ErrorTypeInterrupted))
			return
		}
	}

	h.logger.Info().
		Int("response_length", len(stream.FullText())).
		Str("session_id", request.SessionID).
		Msg("stream complete")
}

// PostClear handles POST /clear. Clearing an already empty session succeeds.
func (h *ChatHandler) PostClear(reqCtx *gin.Context) {
	var request chatrequests.ClearRequest
	if err := reqCtx.ShouldBindJSON(&request); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "SessionId is required", "5d3e1f2a-8b9c-4d06-a7e5-0f1b2c3d4e5f")
		return
	}

	if err := h.messages.DeleteBySession(reqCtx.Request.Context(), request.SessionID); err != nil {
		responses.HandleError(reqCtx, err, "Failed to clear conversation")
		return
	}

	reqCtx.JSON(http.StatusOK, responses.SuccessResponse{Success: true})
}

// GetMessages handles GET /messages?sessionId=.
func (h *ChatHandler) GetMessages(reqCtx *gin.Context) {
	sessionID := reqCtx.Query("sessionId")
	if sessionID == "" {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "SessionId is required", "7e5f3a1b-9c0d-4e28-b6a4-1f2d3c4b5a69")
		return
	}

	history, err := h.messages.History(reqCtx.Request.Context(), sessionID, conversation.DefaultHistoryLimit)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to load messages")
		return
	}

	reqCtx.JSON(http.StatusOK, responses.MessagesResponse{Messages: history})
}

func (h *ChatHandler) saveAssistantMessage(ctx context.Context, request chatrequests.ChatRequest, content string) error {
	return h.messages.Save(ctx, &conversation.Message{
		SessionID: request.SessionID,
		UserID:    optionalID(request.UserID),
		Role:      conversation.RoleAssistant,
		Content:   content,
	})
}

// writeEnvelope frames and flushes one envelope. A false return means the
// client connection is gone.
func (h *ChatHandler) writeEnvelope(reqCtx *gin.Context, flusher interface{ Flush() }, envelope chat.StreamEnvelope) bool {
	if _, err := reqCtx.Writer.Write(envelope.Frame()); err != nil {
		h.logger.Warn().Err(err).Msg("unable to write SSE envelope")
		return false
	}
	flusher.Flush()
	metrics.RecordEnvelope(envelopeKind(envelope))
	return true
}

func envelopeKind(envelope chat.StreamEnvelope) string {
	switch {
	case envelope.Error != "":
		return "error"
	case envelope.Usage != nil:
		return "usage"
	default:
		return "content"
	}
}

func (h *ChatHandler) recordProviderError(err error) {
	switch {
	case platformerrors.IsType(err, platformerrors.ErrorTypeConfig):
		metrics.RecordProviderError(string(platformerrors.ErrorTypeConfig))
	case platformerrors.IsType(err, platformerrors.ErrorTypeExternal):
		metrics.RecordProviderError(string(platformerrors.ErrorTypeExternal))
	default:
		metrics.RecordProviderError(string(platformerrors.ErrorTypeInternal))
	}
}

func optionalID(id string) *string {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	return &id
}

// formatHistory renders prior turns as "<Role>: <content>" lines joined by
// blank lines, the shape the profile persona expects.
func formatHistory(history []conversation.Message) string {
	lines := make([]string, 0, len(history))
	for _, msg := range history {
		role := "Assistant"
		if msg.Role == conversation.RoleUser {
			role = "User"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", role, msg.Content))
	}
	return strings.Join(lines, "\n\n")
}
