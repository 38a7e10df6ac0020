package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conexao-server/services/chat-gateway/internal/config"
	"conexao-server/services/chat-gateway/internal/worker"
)

type fakeDownloader struct {
	data  []byte
	err   error
	calls []string
}

func (f *fakeDownloader) DownloadMedia(_ context.Context, mediaID string) ([]byte, error) {
	f.calls = append(f.calls, mediaID)
	return f.data, f.err
}

func newWebhookRouter(cfg *config.Config, queue *worker.Queue, downloader MediaDownloader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewWebhookHandler(cfg, queue, downloader, zerolog.Nop())
	engine := gin.New()
	engine.GET("/webhook", handler.Verify)
	engine.POST("/webhook", handler.Receive)
	return engine
}

func TestVerifyWebhookEchoesChallenge(t *testing.T) {
	router := newWebhookRouter(&config.Config{VerifyToken: "secret"}, worker.NewQueue(4), &fakeDownloader{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=secret&hub.challenge=12345", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "12345", rec.Body.String())
}

func TestVerifyWebhookRejectsBadToken(t *testing.T) {
	router := newWebhookRouter(&config.Config{VerifyToken: "secret"}, worker.NewQueue(4), &fakeDownloader{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func textPayload(from, body string) []byte {
	return []byte(`{
		"object": "whatsapp_business_account",
		"entry": [{"id": "1", "changes": [{"field": "messages", "value": {
			"messaging_product": "whatsapp",
			"messages": [{"id": "wamid.1", "from": "` + from + `", "type": "text", "text": {"body": "` + body + `"}}]
		}}]}]
	}`)
}

func TestReceiveEnqueuesTextTurn(t *testing.T) {
	queue := worker.NewQueue(4)
	router := newWebhookRouter(&config.Config{VerifyToken: "secret"}, queue, &fakeDownloader{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(textPayload("5511999999999", "oi")))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, queue.Depth())

	turn, ok := queue.Dequeue(context.Background())
	require.True(t, ok)
	assert.Equal(t, "wamid.1", turn.MessageID)
	assert.Equal(t, "5511999999999", turn.From)
	assert.Equal(t, "text", turn.Type)
	assert.Equal(t, "oi", turn.Turn.Input)
	assert.True(t, turn.Turn.IsText)
}

func TestReceiveValidatesSignature(t *testing.T) {
	cfg := &config.Config{VerifyToken: "secret", AppSecret: "app-secret"}
	queue := worker.NewQueue(4)
	router := newWebhookRouter(cfg, queue, &fakeDownloader{})
	payload := textPayload("551", "oi")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
	req.Header.Set("X-Hub-Signature-256", "sha256=deadbeef")
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 0, queue.Depth())

	mac := hmac.New(sha256.New, []byte("app-secret"))
	mac.Write(payload)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
	req.Header.Set("X-Hub-Signature-256", "sha256="+hex.EncodeToString(mac.Sum(nil)))
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, queue.Depth())
}

func TestReceiveIgnoresUnsupportedType(t *testing.T) {
	queue := worker.NewQueue(4)
	router := newWebhookRouter(&config.Config{VerifyToken: "secret"}, queue, &fakeDownloader{})

	payload := []byte(`{
		"object": "whatsapp_business_account",
		"entry": [{"id": "1", "changes": [{"field": "messages", "value": {
			"messages": [{"id": "wamid.2", "from": "551", "type": "sticker"}]
		}}]}]
	}`)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, queue.Depth())
}

func TestReceiveIgnoresForeignObject(t *testing.T) {
	queue := worker.NewQueue(4)
	router := newWebhookRouter(&config.Config{VerifyToken: "secret"}, queue, &fakeDownloader{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader([]byte(`{"object": "instagram"}`)))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ignored")
	assert.Equal(t, 0, queue.Depth())
}

func TestReceiveSavesInboundAudio(t *testing.T) {
	publicDir := t.TempDir()
	queue := worker.NewQueue(4)
	router := newWebhookRouter(
		&config.Config{VerifyToken: "secret", PublicDir: publicDir},
		queue,
		&fakeDownloader{data: []byte("OggS")},
	)

	payload := []byte(`{
		"object": "whatsapp_business_account",
		"entry": [{"id": "1", "changes": [{"field": "messages", "value": {
			"messages": [{"id": "wamid.3", "from": "551", "type": "audio", "audio": {"id": "media-9", "mime_type": "audio/ogg"}}]
		}}]}]
	}`)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	turn, ok := queue.Dequeue(context.Background())
	require.True(t, ok)
	assert.Equal(t, "Audio message received", turn.Turn.Input)
	assert.False(t, turn.Turn.IsText)
	require.NotNil(t, turn.Turn.MediaURL)
	assert.Equal(t, "/uploads/audio/media-9.ogg", *turn.Turn.MediaURL)

	saved, err := os.ReadFile(filepath.Join(publicDir, "uploads", "audio", "media-9.ogg"))
	require.NoError(t, err)
	assert.Equal(t, []byte("OggS"), saved)
}

func TestReceiveSavesInboundImage(t *testing.T) {
	publicDir := t.TempDir()
	queue := worker.NewQueue(4)
	downloader := &fakeDownloader{data: []byte("\xff\xd8\xff")}
	router := newWebhookRouter(
		&config.Config{VerifyToken: "secret", PublicDir: publicDir},
		queue,
		downloader,
	)

	payload := []byte(`{
		"object": "whatsapp_business_account",
		"entry": [{"id": "1", "changes": [{"field": "messages", "value": {
			"messages": [{"id": "wamid.5", "from": "551", "type": "image", "image": {"id": "img-123", "mime_type": "image/jpeg", "caption": "what is this?"}}]
		}}]}]
	}`)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []string{"img-123"}, downloader.calls)

	turn, ok := queue.Dequeue(context.Background())
	require.True(t, ok)
	assert.Equal(t, "what is this?", turn.Turn.Input)
	require.NotNil(t, turn.Turn.MediaType)
	assert.Equal(t, "image", *turn.Turn.MediaType)
	require.NotNil(t, turn.Turn.MediaURL)
	assert.Equal(t, "/uploads/image/img-123.jpg", *turn.Turn.MediaURL)

	_, err := os.Stat(filepath.Join(publicDir, "uploads", "image", "img-123.jpg"))
	require.NoError(t, err)
}

func TestReceiveSavesInboundDocument(t *testing.T) {
	publicDir := t.TempDir()
	queue := worker.NewQueue(4)
	downloader := &fakeDownloader{data: []byte("%PDF-1.4")}
	router := newWebhookRouter(
		&config.Config{VerifyToken: "secret", PublicDir: publicDir},
		queue,
		downloader,
	)

	payload := []byte(`{
		"object": "whatsapp_business_account",
		"entry": [{"id": "1", "changes": [{"field": "messages", "value": {
			"messages": [{"id": "wamid.6", "from": "551", "type": "document", "document": {"id": "doc-7", "mime_type": "application/pdf"}}]
		}}]}]
	}`)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []string{"doc-7"}, downloader.calls)

	turn, ok := queue.Dequeue(context.Background())
	require.True(t, ok)
	assert.Equal(t, "Process the document", turn.Turn.Input)
	require.NotNil(t, turn.Turn.MediaURL)
	assert.Equal(t, "/uploads/document/doc-7.pdf", *turn.Turn.MediaURL)
}

func TestReceiveImageDownloadFailureKeepsCaption(t *testing.T) {
	queue := worker.NewQueue(4)
	router := newWebhookRouter(
		&config.Config{VerifyToken: "secret", PublicDir: t.TempDir()},
		queue,
		&fakeDownloader{err: errors.New("media expired")},
	)

	payload := []byte(`{
		"object": "whatsapp_business_account",
		"entry": [{"id": "1", "changes": [{"field": "messages", "value": {
			"messages": [{"id": "wamid.7", "from": "551", "type": "image", "image": {"id": "img-123", "caption": "what is this?"}}]
		}}]}]
	}`)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	turn, ok := queue.Dequeue(context.Background())
	require.True(t, ok)
	assert.Equal(t, "what is this?", turn.Turn.Input)
	assert.Nil(t, turn.Turn.MediaType)
	assert.Nil(t, turn.Turn.MediaURL)
}

func TestMediaExt(t *testing.T) {
	assert.Equal(t, ".png", mediaExt("image", "image/png"))
	assert.Equal(t, ".jpg", mediaExt("image", "image/jpeg"))
	assert.Equal(t, ".mp4", mediaExt("video", "video/mp4"))
	assert.Equal(t, ".pdf", mediaExt("document", "application/pdf"))
	assert.Equal(t, ".bin", mediaExt("document", "application/msword"))
}

func TestReceiveAudioDownloadFailureKeepsTurn(t *testing.T) {
	queue := worker.NewQueue(4)
	router := newWebhookRouter(
		&config.Config{VerifyToken: "secret", PublicDir: t.TempDir()},
		queue,
		&fakeDownloader{err: errors.New("media expired")},
	)

	payload := []byte(`{
		"object": "whatsapp_business_account",
		"entry": [{"id": "1", "changes": [{"field": "messages", "value": {
			"messages": [{"id": "wamid.4", "from": "551", "type": "audio", "audio": {"id": "media-9"}}]
		}}]}]
	}`)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	turn, ok := queue.Dequeue(context.Background())
	require.True(t, ok)
	assert.Contains(t, turn.Turn.Input, "Audio Download Failed")
	assert.Nil(t, turn.Turn.MediaURL)
}
