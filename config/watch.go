package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settle is how long a file has to stay quiet before its change is reported.
// Editors tend to write a file in several bursts.
const settle = 100 * time.Millisecond

// FileKind tells a physics config apart from a filter script.
type FileKind uint8

const (
	KindPhysics FileKind = iota + 1
	KindFilter
)

func (k FileKind) String() string {
	switch k {
	case KindPhysics:
		return "physics"
	case KindFilter:
		return "filter"
	}
	return "unknown"
}

// Classify reports what kind of file path is by its extension.
func Classify(path string) (FileKind, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return KindPhysics, true
	case ".tengo":
		return KindFilter, true
	}
	return 0, false
}

// Change is one settled edit to a watched file.
type Change struct {
	Path string
	Kind FileKind
}

// PhysicsWatcher reports edits to one physics config and the filter scripts
// it names. It watches their directories and filters by path.
type PhysicsWatcher struct {
	fs      *fsnotify.Watcher
	Changes chan Change
	Errors  chan error

	mu      sync.Mutex
	tracked map[string]FileKind
	dirs    map[string]bool

	closeCh chan struct{}
	once    sync.Once
}

// WatchPhysics starts watching configPath and every script in filters.
// Filter paths are taken as given, as LoadPhysics leaves them.
func WatchPhysics(configPath string, filters map[string]string) (*PhysicsWatcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &PhysicsWatcher{
		fs:      fs,
		Changes: make(chan Change, 16),
		Errors:  make(chan error, 1),
		tracked: make(map[string]FileKind),
		dirs:    make(map[string]bool),
		closeCh: make(chan struct{}),
	}
	if err := w.track(configPath, KindPhysics); err != nil {
		_ = fs.Close()
		return nil, err
	}
	if err := w.TrackFilters(filters); err != nil {
		_ = fs.Close()
		return nil, err
	}

	go w.run()
	return w, nil
}

// TrackFilters adds scripts to the watched set, typically after a reload
// named new ones.
func (w *PhysicsWatcher) TrackFilters(filters map[string]string) error {
	for _, path := range filters {
		if err := w.track(path, KindFilter); err != nil {
			return err
		}
	}
	return nil
}

// Dirs lists the watched directories.
func (w *PhysicsWatcher) Dirs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.dirs))
	for d := range w.dirs {
		out = append(out, d)
	}
	return out
}

func (w *PhysicsWatcher) track(path string, kind FileKind) error {
	if k, ok := Classify(path); !ok || k != kind {
		return fmt.Errorf("config: watch %s: not a %s file", path, kind)
	}
	path = filepath.Clean(path)
	dir := filepath.Dir(path)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.tracked[path] = kind
	if w.dirs[dir] {
		return nil
	}
	if err := w.fs.Add(dir); err != nil {
		delete(w.tracked, path)
		return err
	}
	w.dirs[dir] = true
	return nil
}

func (w *PhysicsWatcher) kindOf(path string) (FileKind, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	k, ok := w.tracked[filepath.Clean(path)]
	return k, ok
}

func (w *PhysicsWatcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.fs.Close()
	})
	return err
}

// run batches raw events per file and emits a Change once the file has been
// quiet for the settle period.
func (w *PhysicsWatcher) run() {
	defer close(w.Changes)
	defer close(w.Errors)

	pending := make(map[string]Change)
	timer := time.NewTimer(settle)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			kind, ok := w.kindOf(event.Name)
			if !ok {
				continue
			}
			pending[filepath.Clean(event.Name)] = Change{Path: event.Name, Kind: kind}
			timer.Reset(settle)
		case <-timer.C:
			for path, c := range pending {
				select {
				case w.Changes <- c:
				case <-w.closeCh:
					return
				}
				delete(pending, path)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			return
		}
	}
}
