package conversation

import (
	"context"

	"github.com/rs/zerolog"
)

// StatusResolver decides whether automation currently owns a conversation.
//
// Identifiers exist in two formats: the current channel-qualified form
// ("wa:" + phone) and the legacy bare phone number. Resolution is an explicit
// two-step policy: the channel-qualified row is consulted first and takes
// precedence when both rows exist; the bare row is the fallback. When neither
// row exists the conversation is treated as active.
//
// The resolver fails open: a store error degrades to active rather than
// silencing a live conversation. A deliberate pause set by an operator is
// honored again as soon as the row is readable.
type StatusResolver struct {
	repo Repository
	log  zerolog.Logger
}

// NewStatusResolver builds the gate over the conversation store.
func NewStatusResolver(repo Repository, log zerolog.Logger) *StatusResolver {
	return &StatusResolver{
		repo: repo,
		log:  log.With().Str("component", "status-gate").Logger(),
	}
}

// Status reports the automation state for the given phone number.
func (r *StatusResolver) Status(ctx context.Context, phone string) AIStatus {
	status, found, err := r.repo.StatusByUserID(ctx, QualifyUserID(phone))
	if err != nil {
		r.log.Warn().Err(err).Str("user_id", phone).Msg("status lookup failed, defaulting to active")
		return AIStatusActive
	}
	if found {
		return status
	}

	status, found, err = r.repo.StatusByUserID(ctx, BareUserID(phone))
	if err != nil {
		r.log.Warn().Err(err).Str("user_id", phone).Msg("legacy status lookup failed, defaulting to active")
		return AIStatusActive
	}
	if found {
		return status
	}
	return AIStatusActive
}
