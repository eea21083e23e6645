// Package watch keeps a set of directories under filesystem observation and
// fans their change events out to subscribers.
package watch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"drillsargeant/config"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var (
	// ErrClosed is returned by Watch after Close.
	ErrClosed = errors.New("monitor is closed")

	// ErrNotDirectory is returned by Watch for a path that exists but is not
	// a directory.
	ErrNotDirectory = errors.New("not a directory")
)

// Event is a single filesystem change under a watched root.
type Event struct {
	ID   string    `json:"id"`
	Root string    `json:"root"`
	Path string    `json:"path"`
	Op   string    `json:"op"`
	Time time.Time `json:"time"`
}

// Monitor owns one fsnotify watcher shared by every watched root.
type Monitor struct {
	cfg            config.WatcherConfig
	log            logrus.FieldLogger
	limiter        *rate.Limiter
	ignoreDirs     map[string]bool
	ignorePrefixes []string

	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	roots       map[string]bool
	dirs        map[string]string // watched directory -> root
	subscribers map[chan Event]struct{}
	closed      bool
	done        chan struct{}
}

// NewMonitor creates a Monitor. The underlying watcher is only created on
// the first successful Watch.
func NewMonitor(cfg config.WatcherConfig, log logrus.FieldLogger) *Monitor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = 64
	}

	m := &Monitor{
		cfg:            cfg,
		log:            log,
		ignoreDirs:     make(map[string]bool),
		ignorePrefixes: cfg.IgnorePrefixes,
		roots:          make(map[string]bool),
		dirs:           make(map[string]string),
		subscribers:    make(map[chan Event]struct{}),
		done:           make(chan struct{}),
	}
	for _, dir := range cfg.IgnoreDirs {
		m.ignoreDirs[dir] = true
	}
	if cfg.EventsPerSecond > 0 {
		burst := int(cfg.EventsPerSecond)
		if burst < 1 {
			burst = 1
		}
		m.limiter = rate.NewLimiter(rate.Limit(cfg.EventsPerSecond), burst)
	}
	return m
}

// Watch registers path and its subdirectories, up to the configured depth.
// Watching an already watched root is a no-op.
func (m *Monitor) Watch(path string) error {
	root, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("resolve %q: %w", path, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: %w", root, ErrNotDirectory)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if m.roots[root] {
		m.log.WithField("path", root).Debug("Directory already watched")
		return nil
	}
	if err := m.ensureWatcherLocked(); err != nil {
		return err
	}
	if err := m.addTreeLocked(root, root, 0); err != nil {
		return err
	}
	m.roots[root] = true

	m.log.WithFields(logrus.Fields{
		"path": root,
		"dirs": m.countDirsLocked(root),
	}).Info("Directory watch registered")
	return nil
}

// Paths returns the watched roots in sorted order.
func (m *Monitor) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	paths := make([]string, 0, len(m.roots))
	for root := range m.roots {
		paths = append(paths, root)
	}
	sort.Strings(paths)
	return paths
}

// Subscribe returns a channel of events and a function that releases it.
// Events are dropped for a subscriber whose buffer is full. The channel is
// closed when the subscription is released or the monitor is closed.
func (m *Monitor) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, m.cfg.Buffer)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		close(ch)
		return ch, func() {}
	}
	m.subscribers[ch] = struct{}{}

	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.subscribers[ch]; ok {
			delete(m.subscribers, ch)
			close(ch)
		}
	}
}

// Close stops the watcher and closes every subscriber channel.
func (m *Monitor) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	for ch := range m.subscribers {
		close(ch)
	}
	m.subscribers = make(map[chan Event]struct{})
	w := m.watcher
	m.mu.Unlock()

	if w == nil {
		return nil
	}
	err := w.Close()
	<-m.done
	return err
}

func (m *Monitor) ensureWatcherLocked() error {
	if m.watcher != nil {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	m.watcher = w
	go m.run(w)
	return nil
}

func (m *Monitor) ignored(name string) bool {
	if m.ignoreDirs[name] {
		return true
	}
	for _, prefix := range m.ignorePrefixes {
		if prefix != "" && strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// addTreeLocked adds dir and walks into its children until depth reaches
// MaxDepth. Unreadable children are logged and skipped; only a failure on
// dir itself is returned.
func (m *Monitor) addTreeLocked(root, dir string, depth int) error {
	if err := m.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	m.dirs[dir] = root

	if depth >= m.cfg.MaxDepth {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		m.log.WithError(err).WithField("path", dir).Warn("Could not list directory")
		return nil
	}
	for _, entry := range entries {
		if !entry.IsDir() || m.ignored(entry.Name()) {
			continue
		}
		child := filepath.Join(dir, entry.Name())
		if _, ok := m.dirs[child]; ok {
			continue
		}
		if err := m.addTreeLocked(root, child, depth+1); err != nil {
			m.log.WithError(err).WithField("path", child).Warn("Skipping subdirectory")
		}
	}
	return nil
}

func (m *Monitor) countDirsLocked(root string) int {
	n := 0
	for _, r := range m.dirs {
		if r == root {
			n++
		}
	}
	return n
}

func (m *Monitor) run(w *fsnotify.Watcher) {
	defer close(m.done)
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			m.handle(ev)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			m.log.WithError(err).Warn("File watcher error")
		}
	}
}

func (m *Monitor) handle(ev fsnotify.Event) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}

	root, ok := m.dirs[filepath.Dir(ev.Name)]
	if !ok {
		root, ok = m.dirs[ev.Name]
	}
	if !ok {
		m.mu.Unlock()
		return
	}

	switch {
	case ev.Has(fsnotify.Create):
		m.addCreatedDirLocked(root, ev.Name)
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		m.forgetLocked(ev.Name)
	}
	m.mu.Unlock()

	if m.limiter != nil && !m.limiter.Allow() {
		m.log.WithField("path", ev.Name).Debug("Dropping file event over rate limit")
		return
	}

	m.broadcast(Event{
		ID:   uuid.NewString(),
		Root: root,
		Path: ev.Name,
		Op:   ev.Op.String(),
		Time: time.Now().UTC(),
	})
}

// forgetLocked drops path and every directory registered below it. A root
// that disappears is no longer watched, so a later Watch registers it anew.
func (m *Monitor) forgetLocked(path string) {
	if m.roots[path] {
		delete(m.roots, path)
		for dir, root := range m.dirs {
			if root == path {
				delete(m.dirs, dir)
			}
		}
		m.log.WithField("path", path).Info("Watched directory removed")
	}

	prefix := path + string(filepath.Separator)
	for dir := range m.dirs {
		if dir == path || strings.HasPrefix(dir, prefix) {
			delete(m.dirs, dir)
		}
	}
}

func (m *Monitor) addCreatedDirLocked(root, path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() || m.ignored(filepath.Base(path)) {
		return
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return
	}
	depth := strings.Count(rel, string(filepath.Separator)) + 1
	if depth > m.cfg.MaxDepth {
		return
	}
	if err := m.addTreeLocked(root, path, depth); err != nil {
		m.log.WithError(err).WithField("path", path).Warn("Could not watch new directory")
	}
}

func (m *Monitor) broadcast(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	for ch := range m.subscribers {
		select {
		case ch <- ev:
		default:
			m.log.WithField("path", ev.Path).Debug("Subscriber buffer full, dropping event")
		}
	}
}
