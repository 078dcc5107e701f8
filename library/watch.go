package library

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultQuiet — сколько файл не должен меняться, чтобы считаться записанным.
const DefaultQuiet = 500 * time.Millisecond

// Watcher сообщает о новых песнях в папках библиотеки. Песня
// сообщается, когда файл не пуст и не менялся в течение Quiet:
// копирование даёт Create на пустой файл и серию Write.
type Watcher struct {
	Quiet time.Duration

	w         *fsnotify.Watcher
	recursive map[string]bool
}

// NewWatcher начинает следить за папками. Папки, которые не удалось
// добавить, пропускаются с предупреждением.
func NewWatcher(lib MusicLibrary) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	w := &Watcher{Quiet: DefaultQuiet, w: fw, recursive: make(map[string]bool)}

	for _, dir := range lib.Folders {
		w.add(dir, false)
	}
	for _, root := range lib.RecursiveFolders {
		w.addRecursive(root)
	}
	return w, nil
}

func (w *Watcher) add(dir string, recursive bool) {
	if err := w.w.Add(dir); err != nil {
		slog.Warn("failed to watch folder", "path", dir, "error", err)
		return
	}
	if recursive {
		w.recursive[filepath.Clean(dir)] = true
	}
}

func (w *Watcher) addRecursive(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			w.add(path, true)
		}
		return nil
	})
}

// Run вызывает onSong для каждого нового файла с подходящим
// расширением, когда его запись закончилась, пока не отменён ctx.
func (w *Watcher) Run(ctx context.Context, onSong func(Song)) {
	quiet := w.Quiet
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	ticker := time.NewTicker(quiet / 2)
	defer ticker.Stop()

	// Файлы, которые ещё пишутся: путь и время последнего события.
	pending := make(map[string]time.Time)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.w.Events:
			if !ok {
				return
			}
			w.handle(event, pending)
		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < quiet {
					continue
				}
				delete(pending, path)
				// Пустой файл ждёт следующего Write.
				if info, err := os.Stat(path); err == nil && info.Size() > 0 {
					onSong(newSong(path))
				}
			}
		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			slog.Error("watch error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event, pending map[string]time.Time) {
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		delete(pending, event.Name)
	case event.Has(fsnotify.Create):
		info, err := os.Stat(event.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			// Новые подпапки отслеживаются только в рекурсивных папках.
			if w.recursive[filepath.Dir(event.Name)] {
				w.addRecursive(event.Name)
			}
			return
		}
		if Allowed(event.Name) {
			pending[event.Name] = time.Now()
		}
	case event.Has(fsnotify.Write):
		if Allowed(event.Name) {
			pending[event.Name] = time.Now()
		}
	}
}

func (w *Watcher) Close() error {
	return w.w.Close()
}
