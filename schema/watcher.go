package schema

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// Watch blocks, reloading the schema file whenever it is written to, until
// the context is cancelled. A reload that fails keeps the previously loaded
// schemas and only logs the failure.
func (r *Registry) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("cannot create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(r.path); err != nil {
		return fmt.Errorf("cannot add schema file to watcher: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				r.logger.Debug("fsnotify watcher channel is closed.")
				return nil
			}
			if !event.Has(fsnotify.Write) {
				// Editors that replace the file (new inode) are not
				// handled; appends and in-place writes are.
				r.logger.Debug("Received unhandled event from fsnotify.", "event", event.String())
				continue
			}

			if err := r.load(); err != nil {
				r.logger.Error("failed to reload schema file. keeping previous schemas.", "path", r.path, "error", err)
				continue
			}
			r.logger.Info("reloaded schema file.", "path", r.path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}
