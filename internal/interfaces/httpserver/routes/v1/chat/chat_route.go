package chat

import (
	"github.com/gin-gonic/gin"

	"chat-server/internal/interfaces/httpserver/handlers/chathandler"
)

// ChatRoute handles the conversation endpoints.
type ChatRoute struct {
	chatHandler *chathandler.ChatHandler
}

func NewChatRoute(chatHandler *chathandler.ChatHandler) *ChatRoute {
	return &ChatRoute{chatHandler: chatHandler}
}

// RegisterRouter registers the chat stream and history routes.
func (r *ChatRoute) RegisterRouter(router gin.IRouter) {
	router.POST("/chat", r.chatHandler.PostChat)
	router.POST("/clear", r.chatHandler.PostClear)
	router.GET("/messages", r.chatHandler.GetMessages)
}
