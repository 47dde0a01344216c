package rubric

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/kitbuilder587/webarch-grader/internal/metrics"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher перечитывает файл каталога после изменений. Если новый файл не прошёл
// валидацию, в каталоге остаются прежние рубрики.
type Watcher struct {
	path     string
	catalog  *Catalog
	debounce time.Duration
	logger   *zap.Logger
	metrics  *metrics.Metrics

	// OnReload вызывается после каждой попытки перечитать файл (для тестов)
	OnReload func(err error)
}

type WatcherDeps struct {
	Path     string
	Catalog  *Catalog
	Debounce time.Duration
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
}

func NewWatcher(deps WatcherDeps) *Watcher {
	if deps.Debounce == 0 {
		deps.Debounce = defaultDebounce
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Watcher{
		path:     deps.Path,
		catalog:  deps.Catalog,
		debounce: deps.Debounce,
		logger:   deps.Logger,
		metrics:  deps.Metrics,
	}
}

// Run блокируется до отмены ctx. Следит за каталогом файла, а не за самим файлом:
// редакторы часто сохраняют через rename.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}

	target := filepath.Clean(w.path)
	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
				continue
			}

			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() { w.Reload() })
			mu.Unlock()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("catalog watcher error", zap.Error(err))
		}
	}
}

// Reload перечитывает файл и подменяет каталог при успехе.
func (w *Watcher) Reload() error {
	next, err := LoadFile(w.path)
	if err != nil {
		w.logger.Error("rubric catalog reload failed, keeping previous", zap.String("path", w.path), zap.Error(err))
		if w.metrics != nil {
			w.metrics.RecordRubricReload("failed")
		}
	} else {
		w.catalog.Replace(next)
		w.logger.Info("rubric catalog reloaded", zap.String("path", w.path), zap.Int("rubrics", next.Len()))
		if w.metrics != nil {
			w.metrics.RecordRubricReload("ok")
		}
	}

	if w.OnReload != nil {
		w.OnReload(err)
	}
	return err
}
