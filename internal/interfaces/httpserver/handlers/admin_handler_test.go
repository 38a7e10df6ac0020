package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
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
	userID  string
	sender  conversation.Sender
	content string
	url     *string
}

type adminRepo struct {
	logged        []loggedMessage
	conversations []*conversation.Conversation
	messages      []conversation.Message
}

func (r *adminRepo) GetOrCreate(_ context.Context, userID string) (*conversation.Conversation, error) {
	return conversation.NewConversation(userID), nil
}

func (r *adminRepo) FindByID(context.Context, uint) (*conversation.Conversation, error) {
	return nil, nil
}

func (r *adminRepo) FindByUserID(context.Context, string) (*conversation.Conversation, error) {
	return nil, nil
}

func (r *adminRepo) List(context.Context, int) ([]*conversation.Conversation, error) {
	return r.conversations, nil
}

func (r *adminRepo) LogMessage(_ context.Context, userID string, sender conversation.Sender, content string, _, mediaURL *string) error {
	r.logged = append(r.logged, loggedMessage{userID, sender, content, mediaURL})
	return nil
}

func (r *adminRepo) History(context.Context, string, int) ([]conversation.HistoryEntry, error) {
	return nil, nil
}

func (r *adminRepo) Messages(context.Context, uint, int) ([]conversation.Message, error) {
	return r.messages, nil
}

func (r *adminRepo) UpdateAnalysis(context.Context, uint, string, string, time.Time) error {
	return nil
}

func (r *adminRepo) StatusByUserID(context.Context, string) (conversation.AIStatus, bool, error) {
	return "", false, nil
}

type adminChannel struct {
	texts    []string
	audioIDs []string
	uploaded [][]byte
}

func (c *adminChannel) SendText(_ context.Context, _, message string, _ bool) error {
	c.texts = append(c.texts, message)
	return nil
}

func (c *adminChannel) SendAudio(_ context.Context, _, mediaID string) error {
	c.audioIDs = append(c.audioIDs, mediaID)
	return nil
}

func (c *adminChannel) SendImage(context.Context, string, string, string) error { return nil }

func (c *adminChannel) MarkTyping(context.Context, string) {}

func (c *adminChannel) UploadMedia(_ context.Context, data []byte, _, _ string) (string, error) {
	c.uploaded = append(c.uploaded, data)
	return "media-7", nil
}

type noopEngine struct{}

func (noopEngine) Run(context.Context, team.RunRequest) (*team.RunResult, error) {
	return &team.RunResult{}, nil
}

func newAdminRouter(t *testing.T, repo *adminRepo, ch *adminChannel) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zerolog.Nop()

	coordinator := team.NewCoordinator(
		repo,
		conversation.NewStatusResolver(repo, log),
		session.NewAdapter(repo, 10, log),
		noopEngine{},
		team.ModelProviderFunc(func(context.Context, team.Turn) string { return "gemini-2.5-flash" }),
		nil,
		media.NewInterceptor(media.NewPathDetector(), t.TempDir(), log),
		log,
	)
	registry := responder.NewRegistry(emptyResponderRepo{}, func(string) string { return "gemini-2.5-flash" }, "gemini-2.5-flash", log)

	handler := NewAdminHandler(coordinator, ch, nil, nil, registry, repo, func() int { return 3 }, log)

	engine := gin.New()
	group := engine.Group("/internal")
	group.GET("/status", handler.Status)
	group.POST("/send", handler.Send)
	group.POST("/send_audio", handler.SendAudio)
	group.POST("/generate_speech", handler.GenerateSpeech)
	group.GET("/conversations", handler.ListConversations)
	group.GET("/responders", handler.ListResponders)
	return engine
}

type emptyResponderRepo struct{}

func (emptyResponderRepo) ListProduction(context.Context) ([]*responder.Responder, error) {
	return nil, nil
}

func (emptyResponderRepo) FindByID(context.Context, string) (*responder.Responder, error) {
	return nil, nil
}

func TestAdminSendLogsAndDelivers(t *testing.T) {
	repo := &adminRepo{}
	ch := &adminChannel{}
	router := newAdminRouter(t, repo, ch)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/internal/send",
		bytes.NewReader([]byte(`{"to": "5511999999999", "message": "um operador assumiu"}`)))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, repo.logged, 1)
	assert.Equal(t, "wa:5511999999999", repo.logged[0].userID)
	assert.Equal(t, conversation.SenderAgent, repo.logged[0].sender)
	assert.Equal(t, []string{"um operador assumiu"}, ch.texts)
}

func TestAdminSendRequiresBody(t *testing.T) {
	router := newAdminRouter(t, &adminRepo{}, &adminChannel{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/internal/send", bytes.NewReader([]byte(`{"to": "551"}`)))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminSendAudioUploadsAndLogs(t *testing.T) {
	repo := &adminRepo{}
	ch := &adminChannel{}
	router := newAdminRouter(t, repo, ch)

	dir := t.TempDir()
	audioPath := filepath.Join(dir, "public", "uploads", "audio", "speech_manual.ogg")
	require.NoError(t, os.MkdirAll(filepath.Dir(audioPath), 0o755))
	require.NoError(t, os.WriteFile(audioPath, []byte("OggS"), 0o644))

	body := `{"to": "551", "audio_path": "` + filepath.ToSlash(audioPath) + `"}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/internal/send_audio", bytes.NewReader([]byte(body)))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"media-7"}, ch.audioIDs)
	require.Len(t, repo.logged, 1)
	assert.Equal(t, "Manual Audio Message", repo.logged[0].content)
	require.NotNil(t, repo.logged[0].url)
	assert.Equal(t, "/uploads/audio/speech_manual.ogg", *repo.logged[0].url)
}

func TestAdminSendAudioMissingFile(t *testing.T) {
	router := newAdminRouter(t, &adminRepo{}, &adminChannel{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/internal/send_audio",
		bytes.NewReader([]byte(`{"to": "551", "audio_path": "/nonexistent/audio.ogg"}`)))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminGenerateSpeechUnconfigured(t *testing.T) {
	router := newAdminRouter(t, &adminRepo{}, &adminChannel{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/internal/generate_speech",
		bytes.NewReader([]byte(`{"to": "551", "text": "bom dia"}`)))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAdminStatus(t *testing.T) {
	router := newAdminRouter(t, &adminRepo{}, &adminChannel{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/internal/status", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"queue_depth":3`)
	assert.Contains(t, rec.Body.String(), "available")
}

func TestAudioMIMEForPath(t *testing.T) {
	assert.Equal(t, "audio/wav", audioMIMEForPath("a/b/c.WAV"))
	assert.Equal(t, "audio/mpeg", audioMIMEForPath("song.mp3"))
	assert.Equal(t, "audio/ogg", audioMIMEForPath("voice.ogg"))
	assert.Equal(t, "audio/ogg", audioMIMEForPath("no-extension"))
}
