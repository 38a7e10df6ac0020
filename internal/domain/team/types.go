// Package team routes inbound turns through the delegation engine while
// keeping the conversation log consistent on both sides of the call.
package team

import (
	"context"

	"conexao-server/services/chat-gateway/internal/domain/media"
	"conexao-server/services/chat-gateway/internal/domain/responder"
)

// Engine produces a responder reply for a prepared prompt.
type Engine interface {
	Run(ctx context.Context, req RunRequest) (*RunResult, error)
}

// RunRequest is one delegation call. The responder roster rides along so
// the engine can fan the request out without a second lookup.
type RunRequest struct {
	Model       string              `json:"model"`
	Input       string              `json:"input"`
	UserID      string              `json:"user_id"`
	SessionID   string              `json:"session_id,omitempty"`
	Attachments []MediaRef          `json:"attachments,omitempty"`
	Responders  []responder.Profile `json:"responders,omitempty"`
}

// MediaRef points the engine at an inbound media artifact by its
// web-relative URL under the gateway's static file route.
type MediaRef struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// RunResult is the raw engine output before media interception. Audio
// carries natively synthesized speech; file-based speech artifacts
// arrive as a path inside Content instead.
type RunResult struct {
	Content   string   `json:"content"`
	Reasoning string   `json:"reasoning,omitempty"`
	Images    [][]byte `json:"images,omitempty"`
	Audio     []byte   `json:"audio,omitempty"`
	AudioMIME string   `json:"audio_mime,omitempty"`
}

// Turn is one inbound user message. UserID carries the channel prefix.
// IsText gates history injection: transcribed or captioned media turns
// go to the engine without the preamble.
type Turn struct {
	UserID    string
	Input     string
	IsText    bool
	MediaType *string
	MediaURL  *string
}

// Reply is what the transport layer delivers back to the user. A paused
// reply carries nothing and must not be sent.
type Reply struct {
	Content   string
	Reasoning string
	Audio     *media.Attachment
	Images    [][]byte
	Paused    bool
}

// ProfileProvider supplies the responder roster attached to each run.
type ProfileProvider interface {
	Profiles() []responder.Profile
}

// ModelProvider picks the engine model for a turn.
type ModelProvider interface {
	ModelFor(ctx context.Context, turn Turn) string
}

// ModelProviderFunc adapts a function to ModelProvider.
type ModelProviderFunc func(ctx context.Context, turn Turn) string

func (f ModelProviderFunc) ModelFor(ctx context.Context, turn Turn) string { return f(ctx, turn) }
