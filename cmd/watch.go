package cmd

import (
	"context"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/rubiojr/efinder/pkg/log"
)

// watchConfig calls reload whenever the file at configPath changes, until ctx
// is done. Editors that save atomically replace the file, so the watch is
// re-added after rename and remove events.
func watchConfig(ctx context.Context, configPath string, reload func() error) error {
	logger := log.ForService("watch")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(configPath); err != nil {
		_ = watcher.Close()
		return err
	}
	logger.Infof("watching config file for changes: %s", configPath)

	go func() {
		defer func() {
			if err := watcher.Close(); err != nil {
				logger.Warnf("failed to close config file watcher: %v", err)
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove)) {
					continue
				}
				logger.Debugf("config file changed: %s (event: %s)", event.Name, event.Op)

				if event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
					// Give atomic writers time to put the new file in place
					time.Sleep(200 * time.Millisecond)
					if _, err := os.Stat(configPath); os.IsNotExist(err) {
						logger.Warnf("config file was removed and not replaced, skipping reload")
						continue
					}
					if err := watcher.Add(configPath); err != nil {
						logger.Warnf("failed to re-add config file to watcher: %v", err)
					}
				} else {
					time.Sleep(100 * time.Millisecond)
				}

				if err := reload(); err != nil {
					logger.Errorf("failed to reload configuration: %v", err)
				} else {
					logger.Infof("configuration reloaded")
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warnf("config file watcher error: %v", err)
			}
		}
	}()

	return nil
}
