package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// debounceDelay collapses the burst of events a single save produces.
const debounceDelay = 250 * time.Millisecond

// watchConfig reports changes to the config file at path until ctx is done.
// The directory is watched rather than the file so that editors replacing
// the file by rename are still seen.
func watchConfig(ctx context.Context, path string, logger *zap.Logger) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	target, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	changes := make(chan struct{}, 1)
	go func() {
		defer watcher.Close()

		var debounce *time.Timer
		defer func() {
			if debounce != nil {
				debounce.Stop()
			}
		}()

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}

				logger.Debug("Config file event", zap.String("file", event.Name), zap.String("operation", event.Op.String()))
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(debounceDelay, func() {
					select {
					case changes <- struct{}{}:
					default:
					}
				})

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Error("File watcher error", zap.Error(err))

			case <-ctx.Done():
				return
			}
		}
	}()

	logger.Info("Watching config file", zap.String("file", target))
	return changes, nil
}
