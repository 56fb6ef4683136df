package reconstruct

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/facemorph/internal/logger"
)

// Watcher reports glb models created or rewritten anywhere under an output
// root. New subfolders are picked up as the pipeline creates them.
type Watcher struct {
	Models <-chan string
	Errors <-chan error

	fs     *fsnotify.Watcher
	models chan string
	errs   chan error
	log    *zap.Logger
	done   chan struct{}
	once   sync.Once
}

// Watch starts watching root, creating it when missing.
func Watch(root string) (*Watcher, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fs:     fw,
		models: make(chan string, 16),
		errs:   make(chan error, 4),
		log:    logger.Named("watch"),
		done:   make(chan struct{}),
	}
	w.Models, w.Errors = w.models, w.errs

	if err := w.addTree(root); err != nil {
		fw.Close()
		return nil, err
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Folders can vanish between the event and the walk.
			return nil
		}
		if d.IsDir() {
			if err := w.fs.Add(path); err != nil {
				return err
			}
			w.log.Debug("watching", zap.String("dir", path))
		} else if isModel(path) {
			w.emit(path)
		}
		return nil
	})
}

func (w *Watcher) loop() {
	defer close(w.models)
	defer close(w.errs)
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
				w.log.Warn("watch error dropped", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				w.log.Warn("cannot watch new folder", zap.String("dir", ev.Name), zap.Error(err))
			}
			return
		}
	}
	if isModel(ev.Name) {
		w.emit(ev.Name)
	}
}

// emit never blocks the event loop; a full channel drops the oldest path.
func (w *Watcher) emit(path string) {
	for {
		select {
		case w.models <- path:
			return
		default:
		}
		select {
		case <-w.models:
		default:
		}
	}
}

// Close stops watching and closes Models and Errors.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fs.Close()
	})
	return err
}

func isModel(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".glb")
}
