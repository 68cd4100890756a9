package sessions

import (
	"github.com/gin-gonic/gin"

	"chat-server/internal/interfaces/httpserver/handlers/sessionhandler"
)

// SessionRoute handles /sessions routes.
type SessionRoute struct {
	sessionHandler *sessionhandler.SessionHandler
}

func NewSessionRoute(sessionHandler *sessionhandler.SessionHandler) *SessionRoute {
	return &SessionRoute{sessionHandler: sessionHandler}
}

// RegisterRouter registers the session lifecycle routes.
func (r *SessionRoute) RegisterRouter(router gin.IRouter) {
	sessionsGroup := router.Group("/sessions")
	{
		sessionsGroup.POST("", r.sessionHandler.PostSession)
		sessionsGroup.GET("", r.sessionHandler.GetSessions)
		sessionsGroup.PATCH("/:id", r.sessionHandler.PatchSession)
		sessionsGroup.DELETE("/:id", r.sessionHandler.DeleteSession)
	}
}
