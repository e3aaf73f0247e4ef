package batch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/joseph-ayodele/dipex/constants"
)

type WatchConfig struct {
	Roots      []string
	SkipHidden bool
	// Debounce coalesces bursts of writes to the same file. Zero emits immediately.
	Debounce time.Duration
}

// Watch emits image files created or rewritten under the roots until ctx is done.
// New subdirectories are watched as they appear. Both channels close on return.
func Watch(ctx context.Context, cfg WatchConfig, logger *slog.Logger) (<-chan string, <-chan error, error) {
	if len(cfg.Roots) == 0 {
		return nil, nil, errors.New("no roots provided")
	}
	if logger == nil {
		logger = slog.Default()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}
	for _, root := range cfg.Roots {
		if err := addTree(w, root, cfg.SkipHidden); err != nil {
			_ = w.Close()
			return nil, nil, err
		}
	}

	paths := make(chan string, 64)
	errs := make(chan error, 1)

	go func() {
		var (
			mu      sync.Mutex
			pending = map[string]*time.Timer{}
			wg      sync.WaitGroup
		)
		defer func() {
			mu.Lock()
			for p, t := range pending {
				if t.Stop() {
					wg.Done()
				}
				delete(pending, p)
			}
			mu.Unlock()
			wg.Wait()
			_ = w.Close()
			close(paths)
			close(errs)
		}()

		emit := func(p string) {
			select {
			case paths <- p:
			case <-ctx.Done():
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if cfg.SkipHidden && isHidden(e.Name) {
					continue
				}
				if e.Has(fsnotify.Create) {
					if err := addTree(w, e.Name, cfg.SkipHidden); err != nil && !errors.Is(err, fs.ErrNotExist) {
						logger.Warn("watch.add.failed", "path", e.Name, "error", err)
					}
				}
				if !e.Has(fsnotify.Create) && !e.Has(fsnotify.Write) {
					continue
				}
				if !constants.IsImageExt(filepath.Ext(e.Name)) {
					continue
				}
				if cfg.Debounce <= 0 {
					emit(e.Name)
					continue
				}
				name := e.Name
				mu.Lock()
				if t, ok := pending[name]; ok && t.Stop() {
					wg.Done()
				}
				wg.Add(1)
				pending[name] = time.AfterFunc(cfg.Debounce, func() {
					defer wg.Done()
					mu.Lock()
					delete(pending, name)
					mu.Unlock()
					emit(name)
				})
				mu.Unlock()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("watch.error", "error", err)
				select {
				case errs <- err:
				default:
				}
			}
		}
	}()

	return paths, errs, nil
}

// addTree watches path and every directory below it. Files are ignored.
func addTree(w *fsnotify.Watcher, path string, skipHidden bool) error {
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if p == path {
				return walkErr
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if skipHidden && p != path && isHidden(p) {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}
