package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-audio/wav"
	"github.com/google/uuid"
)

const (
	sampleRate  = 44100
	channels    = 2
	graceMargin = 10 * time.Second
)

// Sampler records fixed-duration clips of the live stream by invoking an
// external capture tool (ffmpeg by default).
type Sampler struct {
	command   string
	streamURL string
	seconds   int
}

// NewSampler creates a Sampler that records clips of the given duration from
// the stream URL using the named capture command.
func NewSampler(command, streamURL string, seconds int) *Sampler {
	return &Sampler{
		command:   command,
		streamURL: streamURL,
		seconds:   seconds,
	}
}

// TempPath returns a fresh path for a sample file under the OS temp
// directory. The caller owns the file's lifecycle.
func (s *Sampler) TempPath() string {
	return filepath.Join(os.TempDir(), "vinyl-sample-"+uuid.NewString()+".wav")
}

// Capture records the configured number of seconds of stereo 44.1kHz WAV
// audio to outputPath. Success requires the tool to exit zero within the
// capture duration plus a grace margin, and the output to be a non-empty
// WAV in the requested format.
func (s *Sampler) Capture(ctx context.Context, outputPath string) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.seconds)*time.Second+graceMargin)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.command,
		"-y",
		"-i", s.streamURL,
		"-t", strconv.Itoa(s.seconds),
		"-ar", strconv.Itoa(sampleRate),
		"-ac", strconv.Itoa(channels),
		"-f", "wav",
		outputPath,
	)

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("capture timed out: %w", ctx.Err())
		}
		return fmt.Errorf("capture command failed: %w", err)
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return fmt.Errorf("capture produced no output: %w", err)
	}
	if info.Size() == 0 {
		return errors.New("capture produced an empty file")
	}

	return validateSample(outputPath)
}

// validateSample rejects captures the recognition service would choke on:
// anything that is not a WAV file in the requested channel/rate format.
func validateSample(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return errors.New("capture output is not a valid WAV file")
	}
	if int(decoder.NumChans) != channels {
		return fmt.Errorf("capture output has %d channels, want %d", decoder.NumChans, channels)
	}
	if int(decoder.SampleRate) != sampleRate {
		return fmt.Errorf("capture output sampled at %dHz, want %dHz", decoder.SampleRate, sampleRate)
	}
	return nil
}
