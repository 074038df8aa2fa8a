package sched

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"horan-assistant-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// MediaJanitor periodically removes downloaded media that was never cleaned up,
// e.g. when sending to Telegram failed halfway.
type MediaJanitor struct {
	dir      string
	maxAge   time.Duration
	interval time.Duration
	now      func() time.Time
	log      *zerolog.Logger
}

func NewMediaJanitor(dir string, maxAge, interval time.Duration, logger *zerolog.Logger) *MediaJanitor {
	jLog := logger.With().Str("component", "MediaJanitor").Logger()
	if interval <= 0 {
		interval = maxAge / 2
	}
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &MediaJanitor{
		dir:      dir,
		maxAge:   maxAge,
		interval: interval,
		now:      time.Now,
		log:      &jLog,
	}
}

func (w *MediaJanitor) Run(ctx context.Context) error {
	w.log.Info().Str("dir", w.dir).Dur("max_age", w.maxAge).Msg("Starting media janitor")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping media janitor")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.Sweep()
			if err != nil {
				w.log.Error().Err(err).Msg("media janitor error")
			}
			if n > 0 {
				metrics.AddMediaFilesRemoved(n)
				w.log.Info().Int("count", n).Msg("stale media files removed")
			}
		}
	}
}

// Sweep removes regular files in dir older than maxAge and reports how many went.
// A missing directory is not an error.
func (w *MediaJanitor) Sweep() (int, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	cutoff := w.now().Add(-w.maxAge)
	removed := 0
	var errs []error
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(w.dir, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
