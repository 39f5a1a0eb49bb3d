// Package offscreen is the playback half of the daemon: a small process
// that owns the speaker, fetches recitation audio over HTTP, and reports
// its lifecycle over the session bus.
package offscreen

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// playbackRate is the fixed speaker rate; every stream is resampled to
// it so mixed-rate sources play back to back.
const playbackRate = beep.SampleRate(44100)

const resampleQuality = 4

// Player fetches and plays one URL at a time. Starting a new URL stops
// the previous one.
type Player struct {
	mu         sync.Mutex
	current    *mp3Streamer
	generation int

	httpClient *http.Client

	// OnStarted and OnFinished fire on playback begin and natural end.
	// OnFinished does not fire for an explicitly stopped stream.
	OnStarted  func()
	OnFinished func()
}

// NewPlayer initializes the speaker and returns a stopped player.
func NewPlayer() (*Player, error) {
	err := speaker.Init(playbackRate, playbackRate.N(time.Second/10))
	if err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}
	return &Player{
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}, nil
}

// Play fetches the URL and starts playback, stopping any current stream
// first. It returns once playback has started; completion is reported
// through OnFinished.
func (p *Player) Play(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch audio: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return fmt.Errorf("fetch audio: unexpected status %s", resp.Status)
	}

	streamer, format, err := decodeMP3(resp.Body)
	if err != nil {
		resp.Body.Close()
		return fmt.Errorf("decode audio: %w", err)
	}

	p.mu.Lock()
	p.stopLocked()
	p.current = streamer
	p.generation++
	gen := p.generation
	p.mu.Unlock()

	var stream beep.Streamer = streamer
	if format.SampleRate != playbackRate {
		stream = beep.Resample(resampleQuality, format.SampleRate, playbackRate, streamer)
	}

	speaker.Play(beep.Seq(stream, beep.Callback(func() {
		p.finished(gen)
	})))

	if p.OnStarted != nil {
		p.OnStarted()
	}
	return nil
}

// Stop halts playback. Safe to call when nothing is playing.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Player) stopLocked() {
	if p.current == nil {
		return
	}
	speaker.Clear()
	p.current.Close()
	p.current = nil
	// A cleared stream must not fire OnFinished
	p.generation++
}

// finished runs from the speaker goroutine when a stream drains.
func (p *Player) finished(gen int) {
	p.mu.Lock()
	stale := gen != p.generation
	if !stale && p.current != nil {
		p.current.Close()
		p.current = nil
	}
	p.mu.Unlock()

	if stale {
		return
	}
	if p.OnFinished != nil {
		p.OnFinished()
	}
}
