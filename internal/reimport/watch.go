package reimport

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// watchDebounce coalesces the bursts of events editors emit per save.
const watchDebounce = 200 * time.Millisecond

// Watch re-runs req through runner each time its scene file is written or
// replaced, until ctx is cancelled. cb receives the outcome of every run.
// The scene's directory is watched so that editors saving through a rename
// are seen.
func Watch(ctx context.Context, runner *Runner, req Request, log *zap.Logger, cb func(*Result, error)) error {
	if log == nil {
		log = zap.NewNop()
	}
	scenePath, err := filepath.Abs(req.ScenePath)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(scenePath)); err != nil {
		return err
	}
	log.Info("watcher: started", zap.String("scene", scenePath))

	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(watchDebounce)
			fire = timer.C
		} else {
			timer.Reset(watchDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			log.Info("watcher: stopped")
			return nil

		case <-fire:
			task, err := runner.Start(req)
			if errors.Is(err, ErrBusy) {
				schedule()
				continue
			}
			res, err := task.Wait()
			if cb != nil {
				cb(res, err)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != scenePath {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				log.Debug("watcher: scene changed", zap.String("op", ev.Op.String()))
				schedule()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher: error", zap.Error(err))
		}
	}
}
