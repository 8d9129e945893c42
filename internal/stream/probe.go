package stream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tcolgate/mp3"
)

const (
	probeTimeout = 10 * time.Second

	// Enough stream prefix to find a frame sync even when we join
	// mid-frame.
	probeLimit = 128 * 1024
)

// Info describes the first MPEG frame observed on the stream.
type Info struct {
	BitrateKbps   int
	SampleRateHz  int
	FrameDuration time.Duration
}

func (i Info) String() string {
	return fmt.Sprintf("%dkbps %dHz mp3", i.BitrateKbps, i.SampleRateHz)
}

// Probe connects to the stream URL and decodes the first MPEG frame it can
// find. It is a diagnostic: the monitor uses it to tell "capture tool broke"
// apart from "the stream is not serving audio".
func Probe(ctx context.Context, url string) (Info, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Info{}, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Info{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Info{}, fmt.Errorf("stream returned HTTP %d", resp.StatusCode)
	}

	decoder := mp3.NewDecoder(io.LimitReader(resp.Body, probeLimit))
	var frame mp3.Frame
	var skipped int
	if err := decoder.Decode(&frame, &skipped); err != nil {
		return Info{}, fmt.Errorf("no decodable mp3 frame on stream: %w", err)
	}

	header := frame.Header()
	return Info{
		BitrateKbps:   int(header.BitRate()) / 1000,
		SampleRateHz:  int(header.SampleRate()),
		FrameDuration: frame.Duration(),
	}, nil
}
