package team_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conexao-server/services/chat-gateway/internal/domain/conversation"
	"conexao-server/services/chat-gateway/internal/domain/media"
	"conexao-server/services/chat-gateway/internal/domain/responder"
	"conexao-server/services/chat-gateway/internal/domain/session"
	"conexao-server/services/chat-gateway/internal/domain/team"
)

type loggedMessage struct {
	userID    string
	sender    conversation.Sender
	content   string
	mediaType *string
	mediaURL  *string
}

type fakeRepo struct {
	conversation.Repository

	statuses map[string]conversation.AIStatus
	history  []conversation.HistoryEntry
	logged   []loggedMessage
	logErr   error
}

func (f *fakeRepo) LogMessage(_ context.Context, userID string, sender conversation.Sender, content string, mediaType, mediaURL *string) error {
	if f.logErr != nil {
		return f.logErr
	}
	f.logged = append(f.logged, loggedMessage{userID, sender, content, mediaType, mediaURL})
	return nil
}

func (f *fakeRepo) History(_ context.Context, _ string, _ int) ([]conversation.HistoryEntry, error) {
	return f.history, nil
}

func (f *fakeRepo) StatusByUserID(_ context.Context, userID string) (conversation.AIStatus, bool, error) {
	status, ok := f.statuses[userID]
	return status, ok, nil
}

type fakeEngine struct {
	lastReq team.RunRequest
	result  *team.RunResult
	err     error
}

func (f *fakeEngine) Run(_ context.Context, req team.RunRequest) (*team.RunResult, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newCoordinator(t *testing.T, repo *fakeRepo, engine *fakeEngine, baseDir string) *team.Coordinator {
	t.Helper()
	if baseDir == "" {
		baseDir = t.TempDir()
	}
	log := zerolog.Nop()
	return team.NewCoordinator(
		repo,
		conversation.NewStatusResolver(repo, log),
		session.NewAdapter(repo, 10, log),
		engine,
		team.ModelProviderFunc(func(context.Context, team.Turn) string { return "gemini-2.5-flash" }),
		nil,
		media.NewInterceptor(media.NewPathDetector(), baseDir, log),
		log,
	)
}

func TestHandleTextTurn(t *testing.T) {
	repo := &fakeRepo{}
	engine := &fakeEngine{result: &team.RunResult{Content: "olá!"}}
	coord := newCoordinator(t, repo, engine, "")

	reply, err := coord.Handle(context.Background(), team.Turn{
		UserID: "5511999999999",
		Input:  "oi",
		IsText: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "olá!", reply.Content)
	assert.False(t, reply.Paused)
	assert.Nil(t, reply.Audio)

	require.Len(t, repo.logged, 2)
	assert.Equal(t, "wa:5511999999999", repo.logged[0].userID)
	assert.Equal(t, conversation.SenderUser, repo.logged[0].sender)
	assert.Equal(t, "oi", repo.logged[0].content)
	assert.Equal(t, conversation.SenderAgent, repo.logged[1].sender)
	assert.Equal(t, "olá!", repo.logged[1].content)

	assert.Equal(t, "5511999999999", engine.lastReq.UserID)
	assert.Equal(t, "gemini-2.5-flash", engine.lastReq.Model)
}

func TestHandleInjectsHistoryForTextOnly(t *testing.T) {
	repo := &fakeRepo{history: []conversation.HistoryEntry{
		{Sender: conversation.SenderUser, Content: "primeira"},
	}}
	engine := &fakeEngine{result: &team.RunResult{Content: "ok"}}
	coord := newCoordinator(t, repo, engine, "")

	_, err := coord.Handle(context.Background(), team.Turn{UserID: "551", Input: "segunda", IsText: true})
	require.NoError(t, err)
	assert.Equal(t,
		"Current User ID: 551\nPrevious Conversation History:\nUser: primeira\n---\n\nsegunda",
		engine.lastReq.Input)

	// Media turns skip the preamble even with history present.
	_, err = coord.Handle(context.Background(), team.Turn{UserID: "551", Input: "Audio message received", IsText: false})
	require.NoError(t, err)
	assert.Equal(t, "Audio message received", engine.lastReq.Input)
}

func TestHandlePausedLogsUserOnly(t *testing.T) {
	repo := &fakeRepo{statuses: map[string]conversation.AIStatus{
		"wa:5511999999999": conversation.AIStatusPaused,
	}}
	engine := &fakeEngine{result: &team.RunResult{Content: "should not run"}}
	coord := newCoordinator(t, repo, engine, "")

	reply, err := coord.Handle(context.Background(), team.Turn{UserID: "5511999999999", Input: "oi", IsText: true})
	require.NoError(t, err)
	assert.True(t, reply.Paused)
	assert.Empty(t, reply.Content)

	require.Len(t, repo.logged, 1)
	assert.Equal(t, conversation.SenderUser, repo.logged[0].sender)
	assert.Empty(t, engine.lastReq.Model, "engine must not be called while paused")
}

func TestHandleEngineErrorKeepsUserMessage(t *testing.T) {
	repo := &fakeRepo{}
	engine := &fakeEngine{err: errors.New("upstream 503")}
	coord := newCoordinator(t, repo, engine, "")

	reply, err := coord.Handle(context.Background(), team.Turn{UserID: "551", Input: "oi", IsText: true})
	require.Error(t, err)
	assert.Nil(t, reply)

	require.Len(t, repo.logged, 1)
	assert.Equal(t, conversation.SenderUser, repo.logged[0].sender)
}

func TestHandleInterceptsGeneratedAudio(t *testing.T) {
	base := t.TempDir()
	rel := filepath.Join("public", "uploads", "audio", "u1", "speech_abc.ogg")
	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(base, rel)), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, rel), []byte("OggS"), 0o644))

	repo := &fakeRepo{}
	engine := &fakeEngine{result: &team.RunResult{
		Content: "áudio em public/uploads/audio/u1/speech_abc.ogg",
	}}
	coord := newCoordinator(t, repo, engine, base)

	reply, err := coord.Handle(context.Background(), team.Turn{UserID: "551", Input: "fala comigo", IsText: true})
	require.NoError(t, err)
	assert.Empty(t, reply.Content)
	require.NotNil(t, reply.Audio)
	assert.Equal(t, "/uploads/audio/u1/speech_abc.ogg", reply.Audio.URL)
	assert.Equal(t, "audio/ogg", reply.Audio.MIME)
	assert.Equal(t, []byte("OggS"), reply.Audio.Data)

	require.Len(t, repo.logged, 2)
	agent := repo.logged[1]
	assert.Empty(t, agent.content)
	require.NotNil(t, agent.mediaType)
	assert.Equal(t, "audio", *agent.mediaType)
	require.NotNil(t, agent.mediaURL)
	assert.Equal(t, "/uploads/audio/u1/speech_abc.ogg", *agent.mediaURL)
}

func TestHandleForwardsInboundMediaRef(t *testing.T) {
	repo := &fakeRepo{}
	engine := &fakeEngine{result: &team.RunResult{Content: "entendi"}}
	coord := newCoordinator(t, repo, engine, "")

	mt, mu := "audio", "/uploads/audio/media-9.ogg"
	_, err := coord.Handle(context.Background(), team.Turn{
		UserID:    "551",
		Input:     "Audio message received",
		IsText:    false,
		MediaType: &mt,
		MediaURL:  &mu,
	})
	require.NoError(t, err)
	require.Len(t, engine.lastReq.Attachments, 1)
	assert.Equal(t, "audio", engine.lastReq.Attachments[0].Type)
	assert.Equal(t, "/uploads/audio/media-9.ogg", engine.lastReq.Attachments[0].URL)
}

func TestHandleWrapsNativeEngineAudio(t *testing.T) {
	repo := &fakeRepo{}
	engine := &fakeEngine{result: &team.RunResult{
		Content: "aqui está",
		Audio:   []byte{0x4f, 0x67, 0x67, 0x53},
	}}
	coord := newCoordinator(t, repo, engine, "")

	reply, err := coord.Handle(context.Background(), team.Turn{UserID: "551", Input: "fala", IsText: true})
	require.NoError(t, err)
	require.NotNil(t, reply.Audio)
	assert.Equal(t, "audio/ogg", reply.Audio.MIME)
	assert.Empty(t, reply.Audio.URL)
	assert.Equal(t, "aqui está", reply.Content)

	require.Len(t, repo.logged, 2)
	agent := repo.logged[1]
	require.NotNil(t, agent.mediaType)
	assert.Equal(t, "audio", *agent.mediaType)
	assert.Nil(t, agent.mediaURL)
}

func TestLogManualQualifiesUserID(t *testing.T) {
	repo := &fakeRepo{}
	coord := newCoordinator(t, repo, &fakeEngine{}, "")

	require.NoError(t, coord.LogManual(context.Background(), "5511888888888", "mensagem manual", nil, nil))
	require.Len(t, repo.logged, 1)
	assert.Equal(t, "wa:5511888888888", repo.logged[0].userID)
	assert.Equal(t, conversation.SenderAgent, repo.logged[0].sender)
}

type staticRoster []responder.Profile

func (s staticRoster) Profiles() []responder.Profile { return s }

func TestHandleCarriesResponderRoster(t *testing.T) {
	repo := &fakeRepo{}
	engine := &fakeEngine{result: &team.RunResult{Content: "ok"}}
	log := zerolog.Nop()
	coord := team.NewCoordinator(
		repo,
		conversation.NewStatusResolver(repo, log),
		session.NewAdapter(repo, 10, log),
		engine,
		team.ModelProviderFunc(func(context.Context, team.Turn) string { return "gemini-2.5-flash" }),
		staticRoster{{ID: "resp-1", Subject: "Suporte"}},
		media.NewInterceptor(media.NewPathDetector(), t.TempDir(), log),
		log,
	)

	_, err := coord.Handle(context.Background(), team.Turn{UserID: "551", Input: "oi", IsText: true})
	require.NoError(t, err)
	require.Len(t, engine.lastReq.Responders, 1)
	assert.Equal(t, "resp-1", engine.lastReq.Responders[0].ID)
	assert.Equal(t, "wa:551", engine.lastReq.SessionID)
}
