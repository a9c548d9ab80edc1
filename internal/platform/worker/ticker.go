// Package worker provides the ticker loop driving periodic source passes.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const (
	// pollInterval is the sleep duration between ticker checks to prevent busy-waiting.
	pollInterval   = 100 * time.Millisecond
	logFieldWorker = "worker"
	logFieldTask   = "task"
)

// TickerTask represents a task triggered by a ticker.
type TickerTask struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context)
}

// TickerConfig configures a ticker-based worker loop.
type TickerConfig struct {
	// Name identifies the worker for logging.
	Name string

	// Tasks are the ticker-triggered tasks to run.
	Tasks []TickerTask

	// RunOnStart runs every task once before the tickers begin.
	RunOnStart bool

	// Logger for the worker.
	Logger *zerolog.Logger
}

// TickerLoop runs a ticker-based worker loop. Each task runs on its own
// ticker at the configured interval; tasks run sequentially, never
// concurrently with each other. Returns a wrapped context error when the
// context is canceled.
func TickerLoop(ctx context.Context, cfg TickerConfig) error {
	logger := getLogger(cfg.Logger)
	logger.Info().Str(logFieldWorker, cfg.Name).Msg("starting ticker loop")

	defer logger.Info().Str(logFieldWorker, cfg.Name).Msg("ticker loop stopped")

	if len(cfg.Tasks) == 0 {
		<-ctx.Done()

		return fmt.Errorf("ticker loop %s: %w", cfg.Name, ctx.Err())
	}

	tickers := createTickers(cfg.Tasks)
	defer stopTickers(tickers)

	if cfg.RunOnStart {
		for _, task := range cfg.Tasks {
			logger.Debug().Str(logFieldTask, task.Name).Msg("running initial task")
			task.Run(ctx)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("ticker loop %s: %w", cfg.Name, ctx.Err())
		default:
		}

		checkAndRunTasks(ctx, cfg.Tasks, tickers, logger)

		if err := wait(ctx, pollInterval); err != nil {
			return err
		}
	}
}

func createTickers(tasks []TickerTask) []*time.Ticker {
	tickers := make([]*time.Ticker, len(tasks))

	for i, task := range tasks {
		tickers[i] = time.NewTicker(task.Interval)
	}

	return tickers
}

func stopTickers(tickers []*time.Ticker) {
	for _, t := range tickers {
		t.Stop()
	}
}

// checkAndRunTasks checks each ticker and runs the task if fired.
func checkAndRunTasks(ctx context.Context, tasks []TickerTask, tickers []*time.Ticker, logger *zerolog.Logger) {
	for i, task := range tasks {
		select {
		case <-tickers[i].C:
			logger.Debug().Str(logFieldTask, task.Name).Msg("ticker fired")
			task.Run(ctx)
		default:
			// Non-blocking check
		}
	}
}

// wait sleeps for the given duration or until the context is canceled.
func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("worker wait: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func getLogger(logger *zerolog.Logger) *zerolog.Logger {
	if logger == nil {
		nop := zerolog.Nop()

		return &nop
	}

	return logger
}
