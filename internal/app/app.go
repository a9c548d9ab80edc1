// Package app wires the sources, storage, translator and dispatcher together
// and runs the periodic reconciliation passes.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hovq/outage-informer/internal/ingest/grid"
	"github.com/hovq/outage-informer/internal/ingest/water"
	"github.com/hovq/outage-informer/internal/notify"
	"github.com/hovq/outage-informer/internal/output/report"
	"github.com/hovq/outage-informer/internal/platform/config"
	"github.com/hovq/outage-informer/internal/platform/observability"
	"github.com/hovq/outage-informer/internal/platform/webfetch"
	"github.com/hovq/outage-informer/internal/platform/worker"
	db "github.com/hovq/outage-informer/internal/storage"
	"github.com/hovq/outage-informer/internal/translate"
)

// Source names used as storage keys and metric labels. They are part of the
// database contents; do not rename without migrating existing rows.
const (
	sourceGrid  = "grid"
	sourceWater = "water"
)

const (
	statusOK    = "ok"
	statusError = "error"
)

// App holds the application dependencies.
type App struct {
	cfg      *config.Config
	database *db.DB
	logger   *zerolog.Logger

	gridSource  *grid.Source
	waterSource *water.Source
	reporter    *report.Reporter
}

// New creates the App and its collaborators.
func New(cfg *config.Config, database *db.DB, logger *zerolog.Logger) (*App, error) {
	dispatcher, err := notify.NewTelegram(cfg.BotToken, cfg.TargetChatID, logger)
	if err != nil {
		return nil, fmt.Errorf("dispatcher init: %w", err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	fetcher := webfetch.New(cfg.FetchRPS, cfg.FetchTimeout)
	translator := translate.NewOpenAI(cfg.OpenAIAPIKey, cfg.TranslationModel, cfg.TranslateRPS, logger)

	return &App{
		cfg:         cfg,
		database:    database,
		logger:      logger,
		gridSource:  grid.New(fetcher, cfg.GridURL, cfg.MessageCharLimit, loc, logger),
		waterSource: water.New(fetcher, cfg.WaterURLs, logger),
		reporter:    report.New(database, dispatcher, translator, cfg.LookbackWindow, cfg.TargetLang, loc, logger),
	}, nil
}

// StartHealthServer starts the health check and metrics server.
func (a *App) StartHealthServer(ctx context.Context) error {
	return observability.NewServer(a.database, a.cfg.HealthPort, a.logger).Start(ctx)
}

// Run executes both source passes on their own schedules until the context
// is canceled. Passes run sequentially; each source's failure is contained
// to its own pass.
func (a *App) Run(ctx context.Context) error {
	return worker.TickerLoop(ctx, worker.TickerConfig{
		Name: "outage-informer",
		Tasks: []worker.TickerTask{
			{
				Name:     sourceGrid,
				Interval: a.cfg.GridPollInterval,
				Run:      func(ctx context.Context) { a.runPass(ctx, sourceGrid, a.gridPass) },
			},
			{
				Name:     sourceWater,
				Interval: a.cfg.WaterPollInterval,
				Run:      func(ctx context.Context) { a.runPass(ctx, sourceWater, a.waterPass) },
			},
		},
		RunOnStart: true,
		Logger:     a.logger,
	})
}

// RunOnce executes a single pass for both sources and returns the first
// error encountered, if any. Used by the -once flag for manual runs.
func (a *App) RunOnce(ctx context.Context) error {
	a.runPass(ctx, sourceGrid, a.gridPass)
	a.runPass(ctx, sourceWater, a.waterPass)

	return ctx.Err()
}

// runPass wraps a source pass with logging and metrics. Errors are contained
// here: a failed pass is logged and retried on the next tick.
func (a *App) runPass(ctx context.Context, source string, pass func(ctx context.Context) error) {
	started := time.Now()

	err := pass(ctx)

	observability.PassDurationSeconds.WithLabelValues(source).Observe(time.Since(started).Seconds())

	if err != nil {
		observability.PassesTotal.WithLabelValues(source, statusError).Inc()
		a.logger.Error().Err(err).Str("source", source).Msg("reconciliation pass failed")

		return
	}

	observability.PassesTotal.WithLabelValues(source, statusOK).Inc()
	a.logger.Info().Str("source", source).Dur("took", time.Since(started)).Msg("reconciliation pass finished")
}

// gridPass is one full poll of the grid page: extract, reconcile emergency
// lifecycles atomically, publish unseen planned outages, then publish the
// aggregated emergency report if it changed.
func (a *App) gridPass(ctx context.Context) error {
	extraction, err := a.gridSource.Extract(ctx)
	if err != nil {
		return err
	}

	if err := a.database.ReconcileEmergencies(ctx, sourceGrid, extraction.Emergencies); err != nil {
		return err
	}

	observability.EmergenciesOpen.WithLabelValues(sourceGrid).Set(float64(len(extraction.Emergencies)))

	if err := a.reporter.ReportPlanned(ctx, sourceGrid, extraction.PlannedChunks); err != nil {
		return err
	}

	return a.reporter.ReportEmergencies(ctx, sourceGrid)
}

// waterPass publishes unseen water-feed announcements oldest first.
func (a *App) waterPass(ctx context.Context) error {
	items, err := a.waterSource.Extract(ctx)
	if err != nil {
		return err
	}

	announcements := make([]report.Announcement, len(items))
	for i, item := range items {
		announcements[i] = report.Announcement{Hash: item.Hash, Title: item.Title, Body: item.Body}
	}

	return a.reporter.ReportTranslated(ctx, sourceWater, announcements)
}
