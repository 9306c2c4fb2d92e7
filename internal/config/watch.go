package config

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	logx "github.com/malyarq/happiness-bot/pkg/logx"
)

const debounceWindow = 300 * time.Millisecond

// Watch reloads the config file on change and hands every valid new config
// to apply. Invalid files are logged and skipped, so a broken edit never
// kills a running bot. Watch blocks until ctx is cancelled.
//
// The watch is on the directory, not the file: editors typically replace the
// file via rename, which drops a file-level watch.
func Watch(ctx context.Context, path string, log logx.Logger, apply func(*Config)) error {
	if log.IsZero() {
		log = logx.Nop()
	}
	dir := filepath.Dir(path)
	file := filepath.Base(path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	log.Debug("config watcher started", logx.String("dir", dir), logx.String("file", file))

	var timer *time.Timer
	var timerC <-chan time.Time
	debounce := func() {
		if timer != nil {
			timer.Stop()
		}
		timer = time.NewTimer(debounceWindow)
		timerC = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			// Compare by basename; editors rename/replace on save.
			if strings.EqualFold(filepath.Base(ev.Name), file) &&
				ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Chmod) != 0 {
				debounce()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				log.Warn("config watch error", logx.Err(err))
			}

		case <-timerC:
			timerC = nil
			cfg, err := Load(path)
			if err != nil {
				log.Warn("config reload skipped", logx.Err(err))
				continue
			}
			log.Info("config reloaded", logx.String("path", path))
			apply(cfg)
		}
	}
}
