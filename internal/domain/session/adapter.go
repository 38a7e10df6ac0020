// Package session composes prior conversation turns into the context
// block prepended to a user message before delegation.
package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"conexao-server/services/chat-gateway/internal/domain/conversation"
)

const historyHeader = "Previous Conversation History:"

// Adapter renders stored history into the prompt preamble. Rendering is
// best effort: a store failure yields an empty block so the turn still
// reaches the coordinator without context.
type Adapter struct {
	repo  conversation.Repository
	limit int
	log   zerolog.Logger
}

func NewAdapter(repo conversation.Repository, limit int, log zerolog.Logger) *Adapter {
	if limit <= 0 {
		limit = 10
	}
	return &Adapter{
		repo:  repo,
		limit: limit,
		log:   log.With().Str("component", "session").Logger(),
	}
}

// HistoryBlock returns the formatted history for userID, oldest turn
// first, or the empty string when there is nothing to inject.
func (a *Adapter) HistoryBlock(ctx context.Context, userID string) string {
	entries, err := a.repo.History(ctx, userID, a.limit)
	if err != nil {
		a.log.Warn().Err(err).Str("user_id", userID).Msg("history lookup failed, continuing without context")
		return ""
	}
	if len(entries) == 0 {
		return ""
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		role := "Agent"
		if e.Sender == conversation.SenderUser {
			role = "User"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", role, e.Content))
	}
	return historyHeader + "\n" + strings.Join(lines, "\n") + "\n---\n"
}

// Inject prepends the caller identity and history block to input. The
// input comes back untouched when no history exists yet.
func (a *Adapter) Inject(ctx context.Context, userID, input string) string {
	block := a.HistoryBlock(ctx, userID)
	if block == "" {
		return input
	}
	return fmt.Sprintf("Current User ID: %s\n%s\n%s", conversation.BareUserID(userID), block, input)
}
