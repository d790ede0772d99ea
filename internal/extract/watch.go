package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watch re-runs the export whenever the source database changes. SQLite
// writes land in the -wal/-shm sidecar files, so the whole directory is
// watched and any event naming the database file triggers a debounced rerun.
// Returns when ctx is cancelled.
func Watch(ctx context.Context, opts Options, debounce time.Duration, logger zerolog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(opts.SourcePath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	base := filepath.Base(opts.SourcePath)

	logger.Info().
		Str("dir", dir).
		Dur("debounce", debounce).
		Msg("watching for changes")

	runExport := func() {
		result, err := Run(ctx, opts, logger)
		if err != nil {
			logger.Error().Err(err).Msg("export failed")
			return
		}
		logger.Info().
			Int("messages", result.Messages).
			Str("target", opts.TargetPath).
			Msg("export refreshed")
	}

	runExport()

	var debounceTimer *time.Timer
	trigger := func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		debounceTimer = time.AfterFunc(debounce, runExport)
	}

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if strings.Contains(filepath.Base(event.Name), base) {
				trigger()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("watch error")
		}
	}
}
