package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce пауза после последнего события перед добавлением файлов
const DefaultDebounce = 2 * time.Second

// Watcher следит за каталогом и добавляет новые аудиофайлы
type Watcher struct {
	pipeline *Pipeline
	dir      string
	debounce time.Duration
	log      *zap.Logger

	// OnIngest вызывается после каждой обработанной порции файлов
	OnIngest func(Summary, error)
}

// NewWatcher создает наблюдатель за каталогом
func NewWatcher(pipeline *Pipeline, dir string, log *zap.Logger) *Watcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{
		pipeline: pipeline,
		dir:      dir,
		debounce: DefaultDebounce,
		log:      log,
	}
}

// SetDebounce задает паузу ожидания
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// Run наблюдает за каталогом до отмены контекста
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("ошибка создания наблюдателя: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("ошибка наблюдения за каталогом %s: %w", w.dir, err)
	}
	w.log.Info("наблюдение за каталогом", zap.String("dir", w.dir))

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if strings.HasPrefix(filepath.Base(event.Name), ".") {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("ошибка наблюдателя", zap.Error(err))

		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for path := range pending {
				paths = append(paths, path)
			}
			clear(pending)
			w.flush(ctx, paths)
		}
	}
}

// flush добавляет накопленные файлы в каталог
func (w *Watcher) flush(ctx context.Context, paths []string) {
	slices.Sort(paths)

	files := make([]File, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		file, err := OpenFile(path)
		if err != nil {
			w.log.Warn("не удалось открыть файл", zap.String("path", path), zap.Error(err))
			continue
		}
		files = append(files, file)
	}
	if len(files) == 0 {
		return
	}

	summary, err := w.pipeline.Ingest(ctx, files, nil)
	if err != nil {
		w.log.Error("ошибка добавления файлов", zap.Error(err))
	}
	if w.OnIngest != nil {
		w.OnIngest(summary, err)
	}
}
