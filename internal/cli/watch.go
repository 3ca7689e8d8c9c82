package cli

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce coalesces the bursts of events editors emit when saving a file.
const debounce = 250 * time.Millisecond

// watchAndPlan recomputes the schedule whenever the config file changes,
// until ctx is cancelled. The config's directory is watched rather than the
// file itself because many editors replace the file on save, which would
// drop a file-level watch.
func watchAndPlan(ctx context.Context, cfgPath, outPath string) error {
	if err := runPlan(ctx, cfgPath, outPath); err != nil {
		logger.Error("plan failed", "error", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(cfgPath)
	if err := w.Add(dir); err != nil {
		return err
	}
	logger.Info("watching config", "path", cfgPath)

	target := filepath.Clean(cfgPath)
	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		case <-fire:
			logger.Info("config changed, recomputing")
			if err := runPlan(ctx, cfgPath, outPath); err != nil {
				// Keep watching; a half-saved config will fail to parse.
				logger.Error("plan failed", "error", err)
			}
		}
	}
}
