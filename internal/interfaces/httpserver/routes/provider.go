// Package routes attaches the gateway's HTTP surface to the engine.
package routes

import (
	"github.com/gin-gonic/gin"

	"conexao-server/services/chat-gateway/internal/interfaces/httpserver/handlers"
)

// Provider coordinates all route registrations.
type Provider struct {
	handlers *handlers.Provider
}

// NewProvider constructs the route provider.
func NewProvider(handlerProvider *handlers.Provider) *Provider {
	return &Provider{handlers: handlerProvider}
}

// RegisterPublic attaches the channel-facing webhook routes. These are
// authenticated by verify token and payload signature, not by JWT.
func (p *Provider) RegisterPublic(engine *gin.Engine) {
	engine.GET("/webhook", p.handlers.Webhook.Verify)
	engine.POST("/webhook", p.handlers.Webhook.Receive)
}

// RegisterInternal attaches the operator surface under /internal.
func (p *Provider) RegisterInternal(group gin.IRoutes) {
	group.GET("/status", p.handlers.Admin.Status)
	group.POST("/send", p.handlers.Admin.Send)
	group.POST("/send_audio", p.handlers.Admin.SendAudio)
	group.POST("/generate_speech", p.handlers.Admin.GenerateSpeech)
	group.POST("/analyze", p.handlers.Admin.Analyze)
	group.GET("/conversations", p.handlers.Admin.ListConversations)
	group.GET("/conversations/:id/messages", p.handlers.Admin.ListMessages)
	group.GET("/responders", p.handlers.Admin.ListResponders)
	group.POST("/responders/reload", p.handlers.Admin.ReloadResponders)
}
