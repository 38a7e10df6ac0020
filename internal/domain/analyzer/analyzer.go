// Package analyzer classifies finished conversations by user sentiment
// and main topic.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"conexao-server/services/chat-gateway/internal/domain/conversation"
	"conexao-server/services/chat-gateway/internal/domain/team"
)

const (
	historyWindow = 100
	sweepWindow   = 500
)

var (
	allowedSentiments = []string{"Neutro", "Contente", "Feliz", "Raiva", "Frustração"}
	allowedTopics     = []string{"Suporte", "Dúvidas Gerais", "Dúvidas sobre Políticas Públicas", "Sugestão", "Outros"}
)

// Result is the outcome of one analysis pass.
type Result struct {
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
	Sentiment string `json:"sentiment,omitempty"`
	Topic     string `json:"topic,omitempty"`
}

// Analyzer runs the classification prompt through the engine and writes
// the verdict back to the conversation row. A conversation analyzed
// once is skipped until forced, so manual revalidation stays cheap.
type Analyzer struct {
	repo   conversation.Repository
	engine team.Engine
	model  string
	log    zerolog.Logger
}

func New(repo conversation.Repository, engine team.Engine, model string, log zerolog.Logger) *Analyzer {
	return &Analyzer{
		repo:   repo,
		engine: engine,
		model:  model,
		log:    log.With().Str("component", "analyzer").Logger(),
	}
}

// Analyze classifies one conversation. force bypasses the
// already-analyzed check.
func (a *Analyzer) Analyze(ctx context.Context, conversationID uint, force bool) (*Result, error) {
	conv, err := a.repo.FindByID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	if !force && conv.LastAnalyzedAt != nil {
		res := &Result{Status: "skipped", Reason: "manual_reval_only"}
		if conv.Sentiment != nil {
			res.Sentiment = *conv.Sentiment
		}
		if conv.Topic != nil {
			res.Topic = *conv.Topic
		}
		return res, nil
	}

	messages, err := a.repo.Messages(ctx, conversationID, historyWindow)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	if len(messages) == 0 {
		return &Result{Status: "skipped", Reason: "no_history"}, nil
	}

	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Sender, m.Content))
	}

	run, err := a.engine.Run(ctx, team.RunRequest{
		Model: a.model,
		Input: buildPrompt(strings.Join(lines, "\n")),
	})
	if err != nil {
		return nil, fmt.Errorf("engine run: %w", err)
	}

	sentiment, topic := parseVerdict(run.Content)
	if err := a.repo.UpdateAnalysis(ctx, conversationID, sentiment, topic, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("store analysis: %w", err)
	}

	a.log.Info().
		Uint("conversation_id", conversationID).
		Str("sentiment", sentiment).
		Str("topic", topic).
		Msg("conversation analyzed")

	return &Result{Status: "analyzed", Sentiment: sentiment, Topic: topic}, nil
}

// Sweep analyzes recently active conversations that have not been
// looked at yet.
func (a *Analyzer) Sweep(ctx context.Context) {
	convs, err := a.repo.List(ctx, sweepWindow)
	if err != nil {
		a.log.Error().Err(err).Msg("sweep list failed")
		return
	}

	for _, conv := range convs {
		if conv.LastAnalyzedAt != nil {
			continue
		}
		if _, err := a.Analyze(ctx, conv.ID, false); err != nil {
			a.log.Warn().Err(err).Uint("conversation_id", conv.ID).Msg("sweep analysis failed")
		}
	}
}

func buildPrompt(history string) string {
	return fmt.Sprintf(`Analyze the following conversation history between a 'user' and an 'agent'.
Categorize the USER's sentiment and the MAIN topic of the conversation.

Allowed Sentiments: %s.
Allowed Topics: %s.

Return ONLY valid JSON format:
{
    "sentiment": "...",
    "topic": "..."
}

History:
%s`, strings.Join(allowedSentiments, ", "), strings.Join(allowedTopics, ", "), history)
}

// parseVerdict tolerates markdown fencing around the JSON and falls
// back to the neutral categories on malformed output.
func parseVerdict(content string) (sentiment, topic string) {
	cleaned := strings.ReplaceAll(content, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")

	var verdict struct {
		Sentiment string `json:"sentiment"`
		Topic     string `json:"topic"`
	}
	_ = json.Unmarshal([]byte(strings.TrimSpace(cleaned)), &verdict)

	sentiment, topic = verdict.Sentiment, verdict.Topic
	if sentiment == "" {
		sentiment = "Neutro"
	}
	if topic == "" {
		topic = "Outros"
	}
	return sentiment, topic
}
