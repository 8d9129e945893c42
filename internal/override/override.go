package override

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/henrikbla/vinylstreamer-shazam/internal/models"
)

// Store watches an operator-maintained file holding a manual "now playing"
// line. While the file contains a track, the monitor publishes it instead of
// running recognition — useful when the operator already knows the record on
// the turntable.
type Store struct {
	file         string
	logger       *log.Logger
	watcher      *fsnotify.Watcher
	refreshDelay time.Duration

	mu      sync.RWMutex
	track   models.Track
	present bool

	refreshMu    sync.Mutex
	refreshTimer *time.Timer
	done         chan struct{}
	wg           sync.WaitGroup
	closeOnce    sync.Once
	closeErr     error
}

// NewStore creates a Store backed by the provided override file path. The
// first non-empty trimmed line is parsed as "Artist - Title" (or a bare
// artist). The file is hot-reloaded on change.
func NewStore(filePath string, debounce time.Duration, logger *log.Logger) (*Store, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = log.Default()
	}

	s := &Store{
		file:         filepath.Clean(filePath),
		logger:       logger,
		watcher:      watcher,
		refreshDelay: debounce,
		done:         make(chan struct{}),
	}

	if err := s.refresh(); err != nil {
		watcher.Close()
		return nil, err
	}

	// Watch the directory too: editors replace files via rename, and the
	// file itself may not exist yet.
	dir := filepath.Dir(s.file)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	if err := watcher.Add(s.file); err != nil {
		s.logger.Printf("override watcher could not watch file directly: %v", err)
	}

	s.wg.Add(1)
	go s.run()

	return s, nil
}

// Close stops the file watcher and releases resources.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)

		s.refreshMu.Lock()
		if s.refreshTimer != nil {
			s.refreshTimer.Stop()
			s.refreshTimer = nil
		}
		s.refreshMu.Unlock()

		s.closeErr = s.watcher.Close()
		s.wg.Wait()
	})
	return s.closeErr
}

// Current returns the active override track, if any.
func (s *Store) Current() (models.Track, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.track, s.present
}

func (s *Store) run() {
	defer s.wg.Done()

	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.handleEvent(event)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Printf("override watcher error: %v", err)
		case <-s.done:
			return
		}
	}
}

func (s *Store) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != s.file {
		return
	}

	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
		s.scheduleRefresh()
	}
}

func (s *Store) scheduleRefresh() {
	select {
	case <-s.done:
		return
	default:
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	if s.refreshTimer != nil {
		s.refreshTimer.Stop()
	}

	s.refreshTimer = time.AfterFunc(s.refreshDelay, func() {
		if err := s.refresh(); err != nil {
			s.logger.Printf("override refresh error: %v", err)
		}

		s.refreshMu.Lock()
		if s.refreshTimer != nil {
			s.refreshTimer = nil
		}
		s.refreshMu.Unlock()
	})
}

func (s *Store) refresh() error {
	data, err := os.ReadFile(s.file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.set(models.Track{}, false)
			return nil
		}
		return err
	}

	track, ok := Parse(string(data))
	s.set(track, ok)
	if ok {
		s.logger.Printf("manual override active: %s", track.Song())
	} else {
		s.logger.Printf("manual override cleared")
	}
	return nil
}

func (s *Store) set(track models.Track, present bool) {
	s.mu.Lock()
	s.track = track
	s.present = present
	s.mu.Unlock()
}

// Parse extracts an override track from the file contents. The first
// non-empty trimmed line is split on " - " into artist and title; a line
// without a separator is treated as a bare artist.
func Parse(contents string) (models.Track, bool) {
	for _, line := range strings.Split(contents, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		artist, title, found := strings.Cut(line, " - ")
		track := models.Track{Artist: strings.TrimSpace(artist)}
		if found {
			track.Title = strings.TrimSpace(title)
		}
		if track.Artist == "" {
			return models.Track{}, false
		}
		return track, true
	}
	return models.Track{}, false
}
