package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

type WatchConfig struct {
	Roots       []string // directories to watch (recursive)
	Exts        []string // defaults to constants.AllowedExtensions
	InitialScan bool     // emit files already present under Roots
	Debounce    time.Duration
	Logger      *slog.Logger
}

// StartWatcher emits the path of every allowed file created, written or moved
// under cfg.Roots. Bursts of events for the same path are coalesced when
// Debounce is set. Both channels close when ctx ends.
func StartWatcher(ctx context.Context, cfg WatchConfig) (<-chan string, <-chan error, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	if len(cfg.Roots) == 0 {
		log.Error("watcher start failed: no roots provided")
		return nil, nil, errors.New("no roots provided")
	}
	exts := extSet(cfg.Exts)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		log.Error("failed to create fsnotify watcher", "error", err)
		return nil, nil, err
	}

	var initial []string
	addDir := func(root string) error {
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if path != root && IsHidden(path) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return w.Add(path)
			}
			if cfg.InitialScan && allowed(path, exts) {
				initial = append(initial, path)
			}
			return nil
		})
	}
	for _, r := range cfg.Roots {
		if err := addDir(r); err != nil {
			log.Error("failed to add root directory", "root", r, "error", err)
			_ = w.Close()
			return nil, nil, err
		}
	}

	evCh := make(chan string, 256)
	errCh := make(chan error, 1)

	go func() {
		var (
			mu      sync.Mutex
			timer   *time.Timer
			pending = map[string]struct{}{}
			sendWg  sync.WaitGroup
		)
		defer func() {
			mu.Lock()
			if timer != nil && timer.Stop() {
				sendWg.Done()
			}
			mu.Unlock()
			sendWg.Wait()
			if err := w.Close(); err != nil {
				log.Warn("failed to close watcher", "error", err)
			}
			close(evCh)
			close(errCh)
		}()

		emit := func(p string) {
			select {
			case evCh <- p:
			case <-ctx.Done():
			}
		}
		flush := func() {
			mu.Lock()
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
				delete(pending, p)
			}
			mu.Unlock()
			for _, p := range batch {
				emit(p)
			}
		}

		for _, p := range initial {
			emit(p)
		}

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Has(fsnotify.Create) {
					if info, err := os.Stat(e.Name); err == nil && info.IsDir() && !IsHidden(e.Name) {
						if err := w.Add(e.Name); err != nil {
							log.Warn("failed to add new directory to watcher", "path", e.Name, "error", err)
						}
						continue
					}
				}
				if IsHidden(e.Name) || !allowed(e.Name, exts) {
					continue
				}
				if !e.Has(fsnotify.Create) && !e.Has(fsnotify.Write) && !e.Has(fsnotify.Rename) {
					continue
				}
				if cfg.Debounce <= 0 {
					emit(e.Name)
					continue
				}
				mu.Lock()
				pending[e.Name] = struct{}{}
				if timer != nil && timer.Stop() {
					sendWg.Done()
				}
				sendWg.Add(1)
				timer = time.AfterFunc(cfg.Debounce, func() {
					defer sendWg.Done()
					flush()
				})
				mu.Unlock()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Error("watcher error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}
