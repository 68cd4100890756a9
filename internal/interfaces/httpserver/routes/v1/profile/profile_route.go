package profile

import (
	"github.com/gin-gonic/gin"

	"chat-server/internal/interfaces/httpserver/handlers/profilehandler"
)

// ProfileRoute handles /profile routes.
type ProfileRoute struct {
	profileHandler *profilehandler.ProfileHandler
}

func NewProfileRoute(profileHandler *profilehandler.ProfileHandler) *ProfileRoute {
	return &ProfileRoute{profileHandler: profileHandler}
}

// RegisterRouter registers the profile fetch and upsert routes.
func (r *ProfileRoute) RegisterRouter(router gin.IRouter) {
	profileGroup := router.Group("/profile")
	{
		profileGroup.GET("/:userId", r.profileHandler.GetProfile)
		profileGroup.PUT("/:userId", r.profileHandler.PutProfile)
	}
}
