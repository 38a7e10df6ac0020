// Package dto holds the wire structures of the WhatsApp Cloud API
// webhook payload. Only the fields the gateway reads are mapped.
package dto

// WebhookPayload is the envelope Meta posts to /webhook.
type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

// WebhookEntry groups changes for one business account.
type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

// WebhookChange carries one field update, messages included.
type WebhookChange struct {
	Field string       `json:"field"`
	Value WebhookValue `json:"value"`
}

// WebhookValue holds the inbound messages of a change.
type WebhookValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Messages         []InboundMessage `json:"messages"`
}

// InboundMessage is one user message. Exactly one of the media fields
// is set depending on Type.
type InboundMessage struct {
	ID        string         `json:"id"`
	From      string         `json:"from"`
	Timestamp string         `json:"timestamp"`
	Type      string         `json:"type"`
	Text      *TextContent   `json:"text,omitempty"`
	Image     *MediaContent  `json:"image,omitempty"`
	Video     *MediaContent  `json:"video,omitempty"`
	Audio     *MediaContent  `json:"audio,omitempty"`
	Document  *MediaContent  `json:"document,omitempty"`
	Location  *LocationPoint `json:"location,omitempty"`
}

// TextContent is the body of a text message.
type TextContent struct {
	Body string `json:"body"`
}

// MediaContent references an uploaded media object by id.
type MediaContent struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type,omitempty"`
	Caption  string `json:"caption,omitempty"`
}

// LocationPoint is a shared location pin.
type LocationPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
	Address   string  `json:"address,omitempty"`
}
