package monitor

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/henrikbla/vinylstreamer-shazam/internal/models"
	"github.com/henrikbla/vinylstreamer-shazam/internal/stream"
)

// ListenerCounter reports the current audience size, zero on any failure.
type ListenerCounter interface {
	ListenerCount(ctx context.Context) int
}

// Sampler records a clip of the live stream to a file.
type Sampler interface {
	TempPath() string
	Capture(ctx context.Context, outputPath string) error
}

// Recognizer identifies the track on a recorded sample, returning the zero
// Track when nothing was identified.
type Recognizer interface {
	Recognize(ctx context.Context, audioPath string) models.Track
}

// CoverPublisher maintains the locally served cover art image.
type CoverPublisher interface {
	Publish(ctx context.Context, url string) error
	Clear() error
}

// MetadataPublisher pushes the song string and artwork URL to the broadcast
// server.
type MetadataPublisher interface {
	Update(ctx context.Context, song, coverURL string) error
}

// OverrideSource supplies an operator-set track that replaces recognition
// while active.
type OverrideSource interface {
	Current() (models.Track, bool)
}

// ProbeFunc checks what the stream is actually serving; used only for
// diagnostics when a capture fails.
type ProbeFunc func(ctx context.Context) (stream.Info, error)

// Settings holds the loop cadence and the public URL advertised for
// downloaded cover art.
type Settings struct {
	CoverPublicURL string
	PollInterval   time.Duration
	IdleInterval   time.Duration
	SettleDelay    time.Duration
}

// Collaborators groups the external services the monitor drives. Override
// and Probe are optional.
type Collaborators struct {
	Listeners  ListenerCounter
	Sampler    Sampler
	Recognizer Recognizer
	Cover      CoverPublisher
	Metadata   MetadataPublisher
	Override   OverrideSource
	Probe      ProbeFunc
}

// Monitor drives the recognition loop: poll the audience, sample the stream,
// recognize, and republish. All loop state lives here explicitly; every
// collaborator failure degrades to a logged warning and the loop continues.
type Monitor struct {
	settings Settings
	c        Collaborators
	logger   *log.Logger
	sleep    func(ctx context.Context, d time.Duration)

	lastTrack     models.Track
	prevListeners int
}

// New creates a Monitor. A nil logger falls back to the default logger.
func New(settings Settings, c Collaborators, logger *log.Logger) *Monitor {
	if logger == nil {
		logger = log.Default()
	}
	return &Monitor{
		settings: settings,
		c:        c,
		logger:   logger,
		sleep:    sleepContext,
	}
}

// Run executes the loop until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	m.logger.Printf("starting recognition loop")
	for ctx.Err() == nil {
		m.iterate(ctx)
	}
	m.logger.Printf("recognition loop stopped")
}

// iterate performs one loop step, including its trailing wait.
func (m *Monitor) iterate(ctx context.Context) {
	listeners := m.c.Listeners.ListenerCount(ctx)

	if listeners < 1 {
		m.logger.Printf("no active listeners, waiting")
		if m.prevListeners >= 1 {
			m.publishPlaceholder(ctx, models.Paused())
		}
		m.prevListeners = 0
		m.sleep(ctx, m.settings.IdleInterval)
		return
	}

	if m.prevListeners == 0 {
		// Activation edge: tell the audience something is happening,
		// let the stream buffer settle, then recognize out of cadence.
		m.logger.Printf("first listener detected, running immediate recognition")
		m.publishPlaceholder(ctx, models.Detecting())
		m.sleep(ctx, m.settings.SettleDelay)
		m.pass(ctx)
	}

	m.prevListeners = listeners

	m.pass(ctx)
	m.sleep(ctx, m.settings.PollInterval)
}

// pass runs a single capture/recognize/publish cycle.
func (m *Monitor) pass(ctx context.Context) {
	if m.c.Override != nil {
		if track, ok := m.c.Override.Current(); ok {
			m.handleResult(ctx, track)
			return
		}
	}

	path := m.c.Sampler.TempPath()
	defer os.Remove(path)

	if err := m.c.Sampler.Capture(ctx, path); err != nil {
		m.logger.Printf("audio capture failed: %v", err)
		m.diagnoseStream(ctx)
		return
	}

	m.logger.Printf("sending sample to recognition service")
	m.handleResult(ctx, m.c.Recognizer.Recognize(ctx, path))
}

func (m *Monitor) handleResult(ctx context.Context, track models.Track) {
	if track.IsZero() {
		// Forget the previous track so an identical song after the gap
		// is treated as new and republished.
		m.logger.Printf("no match found")
		m.lastTrack = models.Track{}
		if err := m.c.Cover.Clear(); err != nil {
			m.logger.Printf("could not clear cover art: %v", err)
		}
		m.publishPlaceholder(ctx, models.Unknown())
		return
	}

	if track == m.lastTrack {
		m.logger.Printf("track unchanged, skipping metadata update")
		return
	}

	m.logger.Printf("now playing: %s", track.Song())
	m.publish(ctx, track)
	m.lastTrack = track
}

// publish downloads the cover (when one is known) and pushes the metadata
// update. The advertised artwork URL is our own public cover URL, never the
// provider's.
func (m *Monitor) publish(ctx context.Context, track models.Track) {
	coverURL := ""
	if track.Cover != "" {
		if err := m.c.Cover.Publish(ctx, track.Cover); err != nil {
			m.logger.Printf("could not download cover art: %v", err)
		} else {
			coverURL = m.settings.CoverPublicURL
		}
	}

	if err := m.c.Metadata.Update(ctx, track.Song(), coverURL); err != nil {
		m.logger.Printf("could not update icecast metadata: %v", err)
	}
}

func (m *Monitor) publishPlaceholder(ctx context.Context, track models.Track) {
	if err := m.c.Metadata.Update(ctx, track.Song(), ""); err != nil {
		m.logger.Printf("could not update icecast metadata: %v", err)
	}
}

func (m *Monitor) diagnoseStream(ctx context.Context) {
	if m.c.Probe == nil {
		return
	}

	info, err := m.c.Probe(ctx)
	if err != nil {
		m.logger.Printf("stream probe failed, is icecast running? %v", err)
		return
	}
	m.logger.Printf("stream is up (%s), capture tool is the problem", info)
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
