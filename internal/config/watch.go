package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"grimaldi/internal/log"
)

// Редакторы пишут файл несколькими событиями подряд
const watchDebounce = 500 * time.Millisecond

// WatchTuning следит за файлом настроек и вызывает onChange с новыми
// значениями после каждого изменения. Следит за каталогом, потому что
// редакторы заменяют файл целиком. Останавливается при отмене ctx.
func WatchTuning(ctx context.Context, path string, onChange func(Tuning)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("ошибка создания наблюдателя: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return fmt.Errorf("ошибка добавления %s в наблюдатель: %w", filepath.Dir(abs), err)
	}

	go func() {
		defer watcher.Close()

		var timer *time.Timer
		reload := make(chan struct{}, 1)

		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != filepath.Base(abs) {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(watchDebounce, func() {
					select {
					case reload <- struct{}{}:
					default:
					}
				})
			case <-reload:
				t, err := LoadTuning(abs)
				if err != nil {
					log.Warn("настройки не перечитаны", "path", abs, "error", err)
					continue
				}
				log.Info("настройки перечитаны", "path", abs)
				onChange(t)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("ошибка наблюдателя", "error", err)
			}
		}
	}()

	return nil
}
