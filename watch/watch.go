// Package watch reloads the configuration when its files change on disk.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	localai "github.com/Paranoid-AF/localai"
)

// DefaultDebounce coalesces the bursts of events editors produce on save.
const DefaultDebounce = 100 * time.Millisecond

// Watcher calls OnChange with the freshly loaded config whenever the config
// file or the custom system prompt in the same directory changes.
type Watcher struct {
	configPath string
	files      map[string]bool
	debounce   time.Duration
	onChange   func(*localai.Config)
	logger     *zap.Logger

	fsw *fsnotify.Watcher

	mu    sync.Mutex
	timer *time.Timer
}

// New watches configPath and, when given, the extra files next to it.
func New(configPath string, onChange func(*localai.Config), logger *zap.Logger, extra ...string) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory: atomic saves replace the file and would drop a file watch.
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	files := map[string]bool{filepath.Clean(configPath): true}
	for _, f := range extra {
		files[filepath.Clean(f)] = true
	}
	return &Watcher{
		configPath: configPath,
		files:      files,
		debounce:   DefaultDebounce,
		onChange:   onChange,
		logger:     logger,
		fsw:        fsw,
	}, nil
}

// Run delivers change notifications until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.files[filepath.Clean(ev.Name)] || ev.Op == fsnotify.Chmod {
				continue
			}
			w.logger.Debug("config file event", zap.String("file", ev.Name), zap.String("op", ev.Op.String()))
			w.schedule()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	cfg, err := localai.LoadConfigFile(w.configPath)
	if err != nil {
		w.logger.Warn("config reload failed, keeping previous config", zap.Error(err))
		return
	}
	w.logger.Info("config reloaded", zap.String("path", w.configPath))
	w.onChange(cfg)
}

// Close stops watching and drops a pending notification.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.fsw.Close()
}
