// Package sound plays the alarm when a timer finishes.
package sound

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/logger"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"
)

// ErrUnsupportedFormat is returned for alarm files that are neither ogg nor wav.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Player holds one decoded alarm and plays it on demand.
type Player struct {
	mu       sync.Mutex
	buffer   *beep.Buffer
	volume   float64
	disabled bool

	speakerOnce sync.Once
	speakerErr  error
}

// NewPlayer returns a player at the given volume (0.0-1.0). A disabled player
// never touches the audio device.
func NewPlayer(volume float64, enabled bool) *Player {
	p := &Player{disabled: !enabled}
	p.SetVolume(volume)
	return p
}

// Load decodes the alarm at path into memory, replacing any previous one.
func (p *Player) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open audio %s: %w", path, err)
	}
	defer f.Close()

	streamer, format, err := decode(f, path)
	if err != nil {
		return err
	}
	defer streamer.Close()

	buffer := beep.NewBuffer(format)
	buffer.Append(streamer)

	p.mu.Lock()
	p.buffer = buffer
	p.mu.Unlock()
	logger.Infof("Loaded alarm %s (%v)", path, format.SampleRate.D(buffer.Len()).Round(time.Millisecond))
	return nil
}

func decode(r io.ReadCloser, path string) (beep.StreamSeekCloser, beep.Format, error) {
	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		err      error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ogg":
		streamer, format, err = vorbis.Decode(r)
	case ".wav":
		streamer, format, err = wav.Decode(r)
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("decode audio %s: %w", path, err)
	}
	return streamer, format, nil
}

// SetVolume updates the playback volume, clamped to 0.0-1.0.
func (p *Player) SetVolume(vol float64) {
	if vol < 0 {
		vol = 0
	} else if vol > 1 {
		vol = 1
	}
	p.mu.Lock()
	p.volume = vol
	p.mu.Unlock()
}

// Volume returns the current playback volume.
func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// Loaded reports whether an alarm is ready to play.
func (p *Player) Loaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buffer != nil
}

// Play starts the alarm without waiting for it to finish. It returns false
// when nothing was played.
func (p *Player) Play() bool {
	p.mu.Lock()
	buffer, vol, disabled := p.buffer, p.volume, p.disabled
	p.mu.Unlock()

	if disabled {
		return false
	}
	if buffer == nil {
		logger.Warning("No alarm loaded, finishing silently")
		return false
	}

	p.speakerOnce.Do(func() {
		sr := buffer.Format().SampleRate
		p.speakerErr = speaker.Init(sr, sr.N(time.Second/10))
	})
	if p.speakerErr != nil {
		logger.Warningf("Audio disabled: failed to initialize speaker: %v", p.speakerErr)
		return false
	}

	level, silent := volumeLevel(vol)
	speaker.Play(&effects.Volume{
		Streamer: buffer.Streamer(0, buffer.Len()),
		Base:     2,
		Volume:   level,
		Silent:   silent,
	})
	return true
}

// volumeLevel maps a linear 0.0-1.0 volume onto beep's base-2 exponent.
func volumeLevel(vol float64) (level float64, silent bool) {
	if vol <= 0 {
		return 0, true
	}
	return math.Log2(vol), false
}
