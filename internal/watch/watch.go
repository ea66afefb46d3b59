// Package watch reruns a build when watched files change or a fixed interval
// elapses. Builds never overlap; triggers arriving during a build collapse
// into one follow-up run.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/mantree/internal/logfields"
)

const defaultDebounce = 300 * time.Millisecond

// BuildFunc runs one build. reason names what triggered it.
type BuildFunc func(ctx context.Context, reason string) error

// Options configures a Watcher.
type Options struct {
	// Paths are files or directories to watch. Files are matched by exact
	// path so that replacing a binary via rename is noticed; directories
	// are watched recursively.
	Paths    []string
	Debounce time.Duration
	// Interval schedules periodic rebuilds; zero disables them.
	Interval time.Duration
}

// Watcher drives builds from filesystem events and a schedule.
type Watcher struct {
	build    BuildFunc
	debounce time.Duration
	interval time.Duration
	files    map[string]struct{}
	dirs     []string
	trees    []string

	mu         sync.Mutex
	timer      *time.Timer
	rebuildReq chan string
}

// New resolves opts.Paths and returns a Watcher.
func New(build BuildFunc, opts Options) (*Watcher, error) {
	w := &Watcher{
		build:      build,
		debounce:   opts.Debounce,
		interval:   opts.Interval,
		files:      make(map[string]struct{}),
		rebuildReq: make(chan string, 1),
	}
	if w.debounce <= 0 {
		w.debounce = defaultDebounce
	}
	for _, p := range opts.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolve watch path %s: %w", p, err)
		}
		st, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("watch path %s: %w", p, err)
		}
		if st.IsDir() {
			w.trees = append(w.trees, abs)
			continue
		}
		w.files[abs] = struct{}{}
		w.dirs = append(w.dirs, filepath.Dir(abs))
	}
	return w, nil
}

// Run performs an initial build, then rebuilds on changes until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = fsw.Close() }()
	for _, d := range w.dirs {
		if err := fsw.Add(d); err != nil {
			slog.Warn("watch add failed", logfields.Dir(d), logfields.Error(err))
		}
	}
	for _, t := range w.trees {
		addDirsRecursive(fsw, t)
	}

	if w.interval > 0 {
		sched, err := w.startScheduler()
		if err != nil {
			return err
		}
		defer func() { _ = sched.Shutdown() }()
	}

	done := make(chan struct{})
	go w.worker(ctx, done)
	w.request("initial")

	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			<-done
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fsw, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) startScheduler() (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(w.request, "interval"),
		gocron.WithName("mantree-rebuild"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create periodic build job: %w", err)
	}
	s.Start()
	slog.Info("Scheduled periodic rebuild", "interval", w.interval.String())
	return s, nil
}

// worker serializes builds. rebuildReq has capacity one, so requests made
// while a build runs coalesce into a single pending run.
func (w *Watcher) worker(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case reason := <-w.rebuildReq:
			slog.Info("Rebuilding", "reason", reason)
			if err := w.build(ctx, reason); err != nil {
				slog.Warn("rebuild failed", logfields.Error(err))
			}
		}
	}
}

func (w *Watcher) request(reason string) {
	select {
	case w.rebuildReq <- reason:
	default:
	}
}

func (w *Watcher) trigger(reason string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() { w.request(reason) })
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, ev fsnotify.Event) {
	if shouldIgnoreEvent(ev.Name) || !w.relevant(ev.Name) {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			addDirsRecursive(fsw, ev.Name)
		}
	}
	slog.Debug("Change detected", logfields.Path(ev.Name), "op", ev.Op.String())
	w.trigger("changed " + filepath.Base(ev.Name))
}

func (w *Watcher) relevant(name string) bool {
	if _, ok := w.files[name]; ok {
		return true
	}
	for _, t := range w.trees {
		if name == t || strings.HasPrefix(name, t+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func shouldIgnoreEvent(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp")
}

func addDirsRecursive(w *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := w.Add(path); err != nil {
				slog.Warn("watch add failed", logfields.Dir(path), logfields.Error(err))
			}
		}
		return nil
	})
}
