package responder

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// ModelResolver maps a responder tier to a concrete engine model name.
type ModelResolver func(tier string) string

// Registry holds the live roster of production responders. Reload is
// safe to call while turns are in flight.
type Registry struct {
	repo      Repository
	resolve   ModelResolver
	teamModel string
	log       zerolog.Logger

	mu       sync.RWMutex
	profiles []Profile
}

func NewRegistry(repo Repository, resolve ModelResolver, teamModel string, log zerolog.Logger) *Registry {
	return &Registry{
		repo:      repo,
		resolve:   resolve,
		teamModel: teamModel,
		log:       log.With().Str("component", "responder-registry").Logger(),
	}
}

// Reload fetches the production roster and rebuilds each profile.
func (r *Registry) Reload(ctx context.Context) error {
	responders, err := r.repo.ListProduction(ctx)
	if err != nil {
		return fmt.Errorf("list production responders: %w", err)
	}

	profiles := make([]Profile, 0, len(responders))
	for _, res := range responders {
		profiles = append(profiles, buildProfile(res, r.resolve))
	}

	r.mu.Lock()
	r.profiles = profiles
	r.mu.Unlock()

	r.log.Info().Int("count", len(profiles)).Msg("responder roster loaded")
	return nil
}

// Profiles returns a snapshot of the current roster.
func (r *Registry) Profiles() []Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Profile, len(r.profiles))
	copy(out, r.profiles)
	return out
}

// TeamModel returns the coordinator model used for the team itself.
// Individual responders resolve their own tier model in their profile.
func (r *Registry) TeamModel() string {
	return r.teamModel
}

func buildProfile(res *Responder, resolve ModelResolver) Profile {
	role := "Useful Assistant"
	if res.Behaviour != "" {
		role = res.Behaviour
	}

	instructions := []string{
		fmt.Sprintf("You are a agent specializing in '%s'.", res.Subject),
		fmt.Sprintf("Your behavior should be: '%s'.", res.Behaviour),
	}
	if res.Details != "" {
		instructions = append(instructions, fmt.Sprintf("Additional details: %s", res.Details))
	}

	// The entity mapping already merged the legacy single-document
	// column into Documents; only blanks and duplicates remain.
	seen := make(map[string]struct{}, len(res.Documents))
	docs := make([]string, 0, len(res.Documents))
	for _, d := range res.Documents {
		if d == "" {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		docs = append(docs, d)
	}

	return Profile{
		ID:           res.ID,
		Subject:      res.Subject,
		Role:         role,
		Model:        resolve(string(res.Tier)),
		Instructions: instructions,
		Documents:    docs,
	}
}
