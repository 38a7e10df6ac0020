// Package channel talks to the WhatsApp Cloud API: outbound messages,
// media upload and download, and the typing indicator.
package channel

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"conexao-server/services/chat-gateway/internal/domain/retry"
	"conexao-server/services/chat-gateway/internal/infrastructure/metrics"
	"conexao-server/services/chat-gateway/internal/infrastructure/observability"
)

// Client wraps the Graph API for one business phone number. Message
// sends and uploads retry on transient failures; downloads do not,
// media URLs expire and the caller already degrades gracefully.
type Client struct {
	httpClient    *resty.Client
	phoneNumberID string
	sendPolicy    retry.Policy
	log           zerolog.Logger
}

// NewClient creates a Graph API client. baseURL and version follow the
// standard https://graph.facebook.com / v22.0 layout.
func NewClient(baseURL, version, phoneNumberID, accessToken string, log zerolog.Logger) *Client {
	return &Client{
		httpClient: resty.New().
			SetBaseURL(fmt.Sprintf("%s/%s", baseURL, version)).
			SetAuthToken(accessToken).
			SetTimeout(30 * time.Second),
		phoneNumberID: phoneNumberID,
		sendPolicy:    retry.ChannelPolicy(),
		log:           log.With().Str("component", "channel").Logger(),
	}
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// SendText delivers a text message, splitting it into ordinal-prefixed
// segments when it exceeds the platform limit. With italics set, each
// line of every segment is wrapped in WhatsApp italics markup.
func (c *Client) SendText(ctx context.Context, recipient, message string, italics bool) error {
	segments := Chunk(message)
	metrics.RecordChunks(len(segments))
	for _, segment := range segments {
		if italics {
			segment = Italicize(segment)
		}
		if err := c.sendMessage(ctx, map[string]any{
			"messaging_product": "whatsapp",
			"recipient_type":    "individual",
			"to":                recipient,
			"type":              "text",
			"text":              map[string]any{"body": segment},
		}); err != nil {
			return err
		}
	}
	return nil
}

// SendAudio delivers previously uploaded audio by media ID.
func (c *Client) SendAudio(ctx context.Context, recipient, mediaID string) error {
	return c.sendMessage(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                recipient,
		"type":              "audio",
		"audio":             map[string]any{"id": mediaID},
	})
}

// SendImage delivers previously uploaded image by media ID with an
// optional caption.
func (c *Client) SendImage(ctx context.Context, recipient, mediaID, caption string) error {
	image := map[string]any{"id": mediaID}
	if caption != "" {
		image["caption"] = caption
	}
	return c.sendMessage(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                recipient,
		"type":              "image",
		"image":             image,
	})
}

// MarkTyping acknowledges an inbound message and shows the typing
// indicator. Failures are logged and swallowed, the reply matters more.
func (c *Client) MarkTyping(ctx context.Context, messageID string) {
	err := c.sendMessage(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"status":            "read",
		"message_id":        messageID,
		"typing_indicator":  map[string]any{"type": "text"},
	})
	if err != nil {
		c.log.Warn().Err(err).Str("message_id", messageID).Msg("typing indicator failed")
	}
}

// UploadMedia pushes raw bytes to the media endpoint and returns the
// media ID used in send calls.
func (c *Client) UploadMedia(ctx context.Context, data []byte, mimeType, filename string) (string, error) {
	return retry.ExecuteWithResult(ctx, c.sendPolicy, func(ctx context.Context, attempt int) (string, error) {
		if attempt > 0 {
			c.log.Warn().Int("attempt", attempt).Str("filename", filename).Msg("retrying media upload")
		}

		var result struct {
			ID string `json:"id"`
		}
		var apiErr apiError

		resp, err := c.httpClient.R().
			SetContext(ctx).
			SetFileReader("file", filename, bytes.NewReader(data)).
			SetFormData(map[string]string{
				"messaging_product": "whatsapp",
				"type":              mimeType,
			}).
			SetResult(&result).
			SetError(&apiErr).
			Post(fmt.Sprintf("/%s/media", c.phoneNumberID))
		if err != nil {
			return "", fmt.Errorf("upload media: %w", err)
		}
		if resp.IsError() {
			uploadErr := fmt.Errorf("upload media: %s %s", resp.Status(), apiErr.Error.Message)
			if !retryableStatus(resp.StatusCode()) {
				return "", retry.Permanent(uploadErr)
			}
			return "", uploadErr
		}
		if result.ID == "" {
			return "", fmt.Errorf("upload media: empty media id")
		}
		return result.ID, nil
	})
}

// DownloadMedia resolves a media ID to its temporary URL and fetches
// the content.
func (c *Client) DownloadMedia(ctx context.Context, mediaID string) ([]byte, error) {
	var meta struct {
		URL      string `json:"url"`
		MimeType string `json:"mime_type"`
	}
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&meta).
		Get("/" + mediaID)
	if err != nil {
		return nil, fmt.Errorf("resolve media url: %w", err)
	}
	if resp.IsError() || meta.URL == "" {
		return nil, fmt.Errorf("resolve media url: %s", resp.Status())
	}

	download, err := c.httpClient.R().
		SetContext(ctx).
		Get(meta.URL)
	if err != nil {
		return nil, fmt.Errorf("download media: %w", err)
	}
	if download.IsError() {
		return nil, fmt.Errorf("download media: %s", download.Status())
	}
	return download.Body(), nil
}

func (c *Client) sendMessage(ctx context.Context, payload map[string]any) error {
	kind, _ := payload["type"].(string)
	ctx, span := observability.StartChannelSpan(ctx, kind)
	defer span.End()

	err := c.sendPolicy.Execute(ctx, func(ctx context.Context, attempt int) error {
		if attempt > 0 {
			c.log.Warn().Int("attempt", attempt).Msg("retrying message send")
		}

		var result sendResponse
		var apiErr apiError

		resp, err := c.httpClient.R().
			SetContext(ctx).
			SetBody(payload).
			SetResult(&result).
			SetError(&apiErr).
			Post(fmt.Sprintf("/%s/messages", c.phoneNumberID))
		if err != nil {
			return fmt.Errorf("send message: %w", err)
		}
		if resp.IsError() {
			sendErr := fmt.Errorf("send message: %s %s", resp.Status(), apiErr.Error.Message)
			if !retryableStatus(resp.StatusCode()) {
				return retry.Permanent(sendErr)
			}
			return sendErr
		}
		return nil
	})
	observability.RecordError(span, err)
	return err
}

// retryableStatus reports whether a Graph API status is worth another
// attempt. Client errors other than rate limiting are final; a retried
// send that already went through would reach the user twice.
func retryableStatus(status int) bool {
	return status >= 500 || status == 429
}
