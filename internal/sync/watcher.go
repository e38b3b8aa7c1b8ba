package syncsvc

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher watches the memory files tree for externally-made changes
// (edits outside the dispatcher's own write path) and debounces them
// into Reconciler.Enqueue calls.
type Watcher struct {
	watcher    *fsnotify.Watcher
	reconciler *Reconciler
	logger     zerolog.Logger
	debounce   time.Duration
	root       string

	mu     sync.Mutex
	timers map[string]*time.Timer
	stop   chan struct{}
}

// NewWatcher constructs a Watcher over root, recursively adding every
// subdirectory fsnotify needs watched individually.
func NewWatcher(root string, reconciler *Reconciler, debounce time.Duration, logger zerolog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:    fw,
		reconciler: reconciler,
		logger:     logger,
		debounce:   debounce,
		root:       root,
		timers:     make(map[string]*time.Timer),
		stop:       make(chan struct{}),
	}

	if err := w.addTree(root); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
}

// Start launches the event-processing goroutine.
func (w *Watcher) Start() {
	go w.run()
}

// Stop signals the event loop to exit and closes the underlying fsnotify
// watcher. It does not wait for the loop to return, and debounce timers
// already scheduled still fire.
func (w *Watcher) Stop() error {
	close(w.stop)
	return w.watcher.Close()
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("file_watcher_error")
		case <-w.stop:
			return
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !strings.HasSuffix(strings.ToLower(event.Name), ".md") {
		return
	}
	if !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) {
		return
	}

	relPath, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}
	relPath = filepath.ToSlash(relPath)

	w.logger.Debug().Str("file_path", relPath).Str("op", event.Op.String()).Msg("file_change_detected")
	w.scheduleEnqueue(relPath)
}

func (w *Watcher) scheduleEnqueue(relPath string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[relPath]; ok {
		t.Stop()
	}
	w.timers[relPath] = time.AfterFunc(w.debounce, func() { w.reconciler.Enqueue(relPath) })
}
