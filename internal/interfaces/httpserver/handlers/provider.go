package handlers

// Provider wires all HTTP handlers for dependency injection.
type Provider struct {
	Webhook *WebhookHandler
	Admin   *AdminHandler
}

// NewProvider constructs the handler provider.
func NewProvider(webhook *WebhookHandler, admin *AdminHandler) *Provider {
	return &Provider{
		Webhook: webhook,
		Admin:   admin,
	}
}
