// Package requests defines the inbound bodies of the operator surface.
package requests

// SendMessageRequest pushes a manual text message to a user.
type SendMessageRequest struct {
	To      string `json:"to" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// SendAudioRequest pushes a previously generated audio file to a user.
type SendAudioRequest struct {
	To        string `json:"to" binding:"required"`
	AudioPath string `json:"audio_path" binding:"required"`
}

// GenerateSpeechRequest synthesizes a speech artifact for a user.
type GenerateSpeechRequest struct {
	To   string `json:"to" binding:"required"`
	Text string `json:"text" binding:"required"`
}

// AnalyzeRequest triggers sentiment/topic classification for one
// conversation. Force reruns a conversation already analyzed.
type AnalyzeRequest struct {
	ConversationID uint `json:"conversation_id" binding:"required"`
	Force          bool `json:"force"`
}
