package profilehandler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"chat-server/internal/domain/conversation"
	chatrequests "chat-server/internal/interfaces/httpserver/requests/chat"
	"chat-server/internal/interfaces/httpserver/responses"
	"chat-server/internal/utils/platformerrors"
)

// ProfileHandler serves stored user profiles. These are account records,
// distinct from the generated personality profiles on the chat stream.
type ProfileHandler struct {
	profiles conversation.ProfileRepository
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewProfileHandler(profiles conversation.ProfileRepository, logger zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// GetProfile handles GET /profile/:userId.
func (h *ProfileHandler) GetProfile(reqCtx *gin.Context) {
	userID := reqCtx.Param("userId")

	profile, err := h.profiles.Get(reqCtx.Request.Context(), userID)
	if err != nil {
		responses.HandleError(reqCtx, err, "Failed to load profile")
		return
	}
	if profile == nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeNotFound, "Profile not found", "9a7b5c3d-1e0f-4826-b4a2-6c8e0d2f4a6b")
		return
	}

	reqCtx.JSON(http.StatusOK, profile)
}

// PutProfile handles PUT /profile/:userId, creating the row when absent.
func (h *ProfileHandler) PutProfile(reqCtx *gin.Context) {
	userID := reqCtx.Param("userId")

	var request chatrequests.UpsertProfileRequest
	if err := reqCtx.ShouldBindJSON(&request); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "Invalid profile payload", "2c4e6a8b-0d1f-4537-9e7d-5b3a1f9c7e50")
		return
	}
	if err := h.validate.Struct(&request); err != nil {
		responses.HandleNewError(reqCtx, platformerrors.ErrorTypeValidation, "Invalid profile payload", "6e8a0c2d-4f1b-4739-8b5d-9a7c3e1f5d20")
		return
	}

	profile := &conversation.UserProfile{
		ID:          userID,
		FullName:    request.FullName,
		AvatarURL:   request.AvatarURL,
		Preferences: request.Preferences,
	}
	if err := h.profiles.Upsert(reqCtx.Request.Context(), profile); err != nil {
		responses.HandleError(reqCtx, err, "Failed to save profile")
		return
	}

	reqCtx.JSON(http.StatusOK, profile)
}
