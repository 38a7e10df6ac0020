package responder_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conexao-server/services/chat-gateway/internal/domain/responder"
)

type stubResponderRepo struct {
	responders []*responder.Responder
	listErr    error
}

func (s *stubResponderRepo) ListProduction(context.Context) ([]*responder.Responder, error) {
	return s.responders, s.listErr
}

func (s *stubResponderRepo) FindByID(_ context.Context, id string) (*responder.Responder, error) {
	for _, r := range s.responders {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, errors.New("not found")
}

func resolveTier(tier string) string {
	if tier == "slow" {
		return "gemini-2.5-pro"
	}
	return "gemini-2.5-flash"
}

func TestRegistryReload(t *testing.T) {
	repo := &stubResponderRepo{
		responders: []*responder.Responder{
			{
				ID:        "r1",
				Subject:   "Políticas Públicas",
				Behaviour: "Responda de forma acolhedora",
				Details:   "Cite sempre a fonte oficial",
				Tier:      responder.TierSlow,
				Status:    responder.StatusProduction,
				Documents: []string{"manual.pdf", "legacy.pdf", "", "legacy.pdf"},
			},
			{
				ID:      "r2",
				Subject: "Suporte",
				Tier:    responder.TierFast,
				Status:  responder.StatusProduction,
			},
		},
	}

	reg := responder.NewRegistry(repo, resolveTier, "gemini-2.5-flash", zerolog.Nop())
	require.NoError(t, reg.Reload(context.Background()))

	profiles := reg.Profiles()
	require.Len(t, profiles, 2)

	p1 := profiles[0]
	assert.Equal(t, "Responda de forma acolhedora", p1.Role)
	assert.Equal(t, "gemini-2.5-pro", p1.Model)
	assert.Equal(t, []string{"manual.pdf", "legacy.pdf"}, p1.Documents)
	require.Len(t, p1.Instructions, 3)
	assert.Contains(t, p1.Instructions[0], "Políticas Públicas")

	p2 := profiles[1]
	assert.Equal(t, "Useful Assistant", p2.Role)
	assert.Equal(t, "gemini-2.5-flash", p2.Model)
	assert.Len(t, p2.Instructions, 2)
}

func TestRegistryReloadError(t *testing.T) {
	reg := responder.NewRegistry(&stubResponderRepo{listErr: errors.New("db down")}, resolveTier, "gemini-2.5-flash", zerolog.Nop())
	assert.Error(t, reg.Reload(context.Background()))
	assert.Empty(t, reg.Profiles())
}

func TestRegistryTeamModel(t *testing.T) {
	reg := responder.NewRegistry(&stubResponderRepo{}, resolveTier, "gemini-2.5-flash", zerolog.Nop())
	assert.Equal(t, "gemini-2.5-flash", reg.TeamModel())
}
