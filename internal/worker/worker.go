package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"conexao-server/services/chat-gateway/internal/domain/team"
	"conexao-server/services/chat-gateway/internal/infrastructure/metrics"
	"conexao-server/services/chat-gateway/internal/infrastructure/observability"
)

// ErrorReply is sent to the user when turn processing fails.
const ErrorReply = "Desculpe, ocorreu um erro ao processar sua mensagem. Por favor, tente novamente mais tarde."

// Channel is the outbound messaging surface the worker needs.
type Channel interface {
	SendText(ctx context.Context, recipient, message string, italics bool) error
	SendAudio(ctx context.Context, recipient, mediaID string) error
	SendImage(ctx context.Context, recipient, mediaID, caption string) error
	MarkTyping(ctx context.Context, messageID string)
	UploadMedia(ctx context.Context, data []byte, mimeType, filename string) (string, error)
}

// Coordinator is the delegation entry point the worker drives.
type Coordinator interface {
	Handle(ctx context.Context, turn team.Turn) (*team.Reply, error)
}

// Worker processes inbound turns from the queue.
type Worker struct {
	id          int
	queue       *Queue
	coordinator Coordinator
	channel     Channel
	turnTimeout time.Duration
	log         zerolog.Logger
	stopChan    chan struct{}
}

// NewWorker creates a new turn worker.
func NewWorker(
	id int,
	queue *Queue,
	coordinator Coordinator,
	channel Channel,
	turnTimeout time.Duration,
	log zerolog.Logger,
) *Worker {
	return &Worker{
		id:          id,
		queue:       queue,
		coordinator: coordinator,
		channel:     channel,
		turnTimeout: turnTimeout,
		log:         log.With().Int("worker_id", id).Str("component", "worker").Logger(),
		stopChan:    make(chan struct{}),
	}
}

// Start begins processing turns from the queue.
func (w *Worker) Start(ctx context.Context) {
	w.log.Info().Msg("worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("worker stopped by context")
			return
		case <-w.stopChan:
			w.log.Info().Msg("worker stopped")
			return
		default:
		}

		turn, ok := w.queue.Dequeue(ctx)
		if !ok {
			continue
		}
		w.ProcessTurn(ctx, turn)
	}
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	close(w.stopChan)
}

// ProcessTurn runs one turn end to end under the per-turn deadline.
func (w *Worker) ProcessTurn(ctx context.Context, inbound InboundTurn) {
	started := time.Now()

	turnCtx, cancel := context.WithTimeout(ctx, w.turnTimeout)
	defer cancel()

	turnCtx, span := observability.StartTurnSpan(turnCtx, inbound.Turn.UserID, inbound.Type)
	defer span.End()

	w.log.Info().
		Str("from", inbound.From).
		Str("message_type", inbound.Type).
		Msg("processing turn")

	if inbound.MessageID != "" {
		w.channel.MarkTyping(turnCtx, inbound.MessageID)
	}

	reply, err := w.coordinator.Handle(turnCtx, inbound.Turn)
	if err != nil {
		observability.RecordError(span, err)
		metrics.RecordEngineCall("error")
		metrics.RecordTurn(inbound.Type, metrics.TurnOutcomeFailed, time.Since(started))
		w.log.Error().Err(err).Str("from", inbound.From).Msg("turn failed")

		if sendErr := w.channel.SendText(turnCtx, inbound.From, ErrorReply, false); sendErr != nil {
			w.log.Error().Err(sendErr).Str("from", inbound.From).Msg("error reply failed")
		}
		return
	}
	if reply.Paused {
		metrics.RecordTurn(inbound.Type, metrics.TurnOutcomePaused, time.Since(started))
		return
	}
	metrics.RecordEngineCall("ok")
	if reply.Audio != nil && reply.Audio.URL != "" {
		metrics.RecordInterception()
	}

	w.deliver(turnCtx, inbound.From, reply)
	metrics.RecordTurn(inbound.Type, metrics.TurnOutcomeReplied, time.Since(started))
}

func (w *Worker) deliver(ctx context.Context, recipient string, reply *team.Reply) {
	if reply.Reasoning != "" {
		w.sendText(ctx, recipient, fmt.Sprintf("Reasoning: \n%s", reply.Reasoning), true)
	}

	if reply.Audio != nil {
		if err := w.sendAudio(ctx, recipient, reply); err != nil {
			w.log.Error().Err(err).Str("recipient", recipient).Msg("audio delivery failed")
			if reply.Content != "" {
				w.sendText(ctx, recipient, reply.Content, false)
			}
		}
		return
	}

	if len(reply.Images) > 0 {
		w.sendImages(ctx, recipient, reply)
		return
	}

	if reply.Content != "" {
		w.sendText(ctx, recipient, reply.Content, false)
	}
}

func (w *Worker) sendText(ctx context.Context, recipient, message string, italics bool) {
	if err := w.channel.SendText(ctx, recipient, message, italics); err != nil {
		metrics.RecordChannelSend("text", "error")
		w.log.Error().Err(err).Str("recipient", recipient).Msg("text delivery failed")
		return
	}
	metrics.RecordChannelSend("text", "ok")
}

func (w *Worker) sendAudio(ctx context.Context, recipient string, reply *team.Reply) error {
	filename := "audio.wav"
	switch reply.Audio.MIME {
	case "audio/mpeg":
		filename = "audio.mp3"
	case "audio/ogg":
		filename = "audio.ogg"
	}

	mediaID, err := w.channel.UploadMedia(ctx, reply.Audio.Data, reply.Audio.MIME, filename)
	if err != nil {
		metrics.RecordChannelSend("audio", "error")
		return fmt.Errorf("upload audio: %w", err)
	}
	if err := w.channel.SendAudio(ctx, recipient, mediaID); err != nil {
		metrics.RecordChannelSend("audio", "error")
		return fmt.Errorf("send audio: %w", err)
	}
	metrics.RecordChannelSend("audio", "ok")
	return nil
}

func (w *Worker) sendImages(ctx context.Context, recipient string, reply *team.Reply) {
	for _, image := range reply.Images {
		mediaID, err := w.channel.UploadMedia(ctx, image, "image/png", "image.png")
		if err != nil {
			metrics.RecordChannelSend("image", "error")
			w.log.Error().Err(err).Str("recipient", recipient).Msg("image upload failed")
			continue
		}
		if err := w.channel.SendImage(ctx, recipient, mediaID, reply.Content); err != nil {
			metrics.RecordChannelSend("image", "error")
			w.log.Error().Err(err).Str("recipient", recipient).Msg("image delivery failed")
			continue
		}
		metrics.RecordChannelSend("image", "ok")
	}
}
