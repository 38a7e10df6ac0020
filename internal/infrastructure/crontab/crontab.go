// Package crontab schedules the periodic jobs the gateway runs in the
// background: the analyzer sweep and the responder roster refresh.
package crontab

import (
	"context"
	"time"

	"github.com/mileusna/crontab"
	"github.com/rs/zerolog"

	"conexao-server/services/chat-gateway/internal/config"
	"conexao-server/services/chat-gateway/internal/domain/analyzer"
	"conexao-server/services/chat-gateway/internal/domain/responder"
)

const (
	CronJobTimeout        = 10 * time.Minute
	rosterRefreshSchedule = "*/5 * * * *"
)

type Crontab struct {
	ctab     *crontab.Crontab
	cfg      *config.Config
	analyzer *analyzer.Analyzer
	registry *responder.Registry
	log      zerolog.Logger
}

func NewCrontab(
	cfg *config.Config,
	an *analyzer.Analyzer,
	registry *responder.Registry,
	log zerolog.Logger,
) *Crontab {
	return &Crontab{
		ctab:     crontab.New(),
		cfg:      cfg,
		analyzer: an,
		registry: registry,
		log:      log.With().Str("component", "crontab").Logger(),
	}
}

// Run installs the jobs and blocks until ctx is done.
func (c *Crontab) Run(ctx context.Context) error {
	// load the roster once on server start
	if err := c.registry.Reload(ctx); err != nil {
		c.log.Error().Err(err).Msg("initial roster load failed")
	}

	if err := c.ctab.AddJob(rosterRefreshSchedule, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), CronJobTimeout)
		defer cancel()
		if err := c.registry.Reload(jobCtx); err != nil {
			c.log.Error().Err(err).Msg("roster refresh failed")
		}
	}); err != nil {
		return err
	}

	if schedule := c.cfg.AnalyzeSchedule; schedule != "" {
		if err := c.ctab.AddJob(schedule, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), CronJobTimeout)
			defer cancel()
			c.analyzer.Sweep(jobCtx)
		}); err != nil {
			return err
		}
		c.log.Info().Str("schedule", schedule).Msg("analyzer sweep scheduled")
	}

	<-ctx.Done()
	c.ctab.Shutdown()
	return nil
}
