package server

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watch reloads the selection when one of the report files changes.
// Without a working watcher it falls back to polling.
func (srv *Server) watch(ctx context.Context) error {
	log := srv.log.WithGroup("watch")

	const pollInterval = 1 * time.Minute

	files := map[string]bool{}
	dirs := map[string]bool{}
	for _, in := range srv.cfg.Inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			return err
		}
		files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.WarnContext(ctx, "failed to create file watcher, falling back to polling", "err", err)
		watcher = nil
	} else {
		defer watcher.Close()
		for dir := range dirs {
			if err := watcher.Add(dir); err != nil {
				log.WarnContext(ctx, "failed to watch report directory", "dir", dir, "err", err)
				continue
			}
			log.InfoContext(ctx, "watching report directory", "dir", dir)
		}
	}

	var events <-chan fsnotify.Event
	var errs <-chan error
	if watcher != nil {
		events = watcher.Events
		errs = watcher.Errors
	}

	poll := time.NewTicker(pollInterval)
	defer poll.Stop()

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		var debounceC <-chan time.Time
		if debounceTimer != nil {
			debounceC = debounceTimer.C
		}

		select {
		case <-ctx.Done():
			log.InfoContext(ctx, "report watcher shutting down")
			return nil

		case event, ok := <-events:
			if !ok {
				log.WarnContext(ctx, "file watcher events channel closed")
				events = nil
				continue
			}
			if !files[event.Name] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			log.DebugContext(ctx, "report changed", "event", event.String())
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.NewTimer(srv.cfg.Debounce)

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			log.WarnContext(ctx, "file watcher error", "err", err)

		case <-debounceC:
			debounceTimer = nil
			srv.reload(ctx)

		case <-poll.C:
			if watcher == nil || srv.Current() == nil {
				srv.reload(ctx)
			}
		}
	}
}

func (srv *Server) reload(ctx context.Context) {
	if err := srv.Reload(ctx); err != nil {
		srv.log.WarnContext(ctx, "reload failed, keeping previous selection", "err", err)
	}
}
