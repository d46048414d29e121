package main

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/gogpu/yuv"
	"github.com/gogpu/yuv/source"
)

// errNotSeekable is returned for seeks on streams that cannot rewind.
var errNotSeekable = errors.New("input is not seekable")

const (
	volumeStep = 5
	maxVolume  = 100
	minSpeed   = 0.25
	maxSpeed   = 4
)

// player owns playback state and executes transport commands. There is no
// audio output, so mute and volume are state only.
type player struct {
	sink   *yuv.FrameSink
	frames *source.Frames
	// seek positions the input at a frame index; nil for pipes.
	seek func(index int) error
	fps  float64

	mu     sync.Mutex
	paused bool
	muted  bool
	quit   bool
	volume float64
	speed  float64
	index  int
}

func newPlayer(sink *yuv.FrameSink, frames *source.Frames, seek func(int) error, fps float64) *player {
	return &player{
		sink:   sink,
		frames: frames,
		seek:   seek,
		fps:    fps,
		volume: maxVolume,
		speed:  1,
	}
}

// Send implements yuv.PlayerHandle.
func (p *player) Send(command string, args ...float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch command {
	case yuv.CommandQuit:
		p.quit = true
	case yuv.CommandPause:
		p.paused = !p.paused
	case yuv.CommandMute:
		p.muted = !p.muted
	case yuv.CommandVolume:
		return p.setVolume(args)
	case yuv.CommandSeek:
		return p.seekTo(args)
	case yuv.CommandSpeed:
		if len(args) != 2 || args[0] != 0 {
			return fmt.Errorf("speed: bad arguments %v", args)
		}
		p.speed = min(max(args[1], minSpeed), maxSpeed)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
	yuv.Logger().Debug("yuvplay: command", "command", command, "args", args)
	return nil
}

func (p *player) setVolume(args []float64) error {
	switch {
	case len(args) == 1 && args[0] == 1:
		p.volume += volumeStep
	case len(args) == 1 && args[0] == -1:
		p.volume -= volumeStep
	case len(args) == 2 && args[0] == 2:
		p.volume = args[1]
	default:
		return fmt.Errorf("volume: bad arguments %v", args)
	}
	p.volume = min(max(p.volume, 0), maxVolume)
	return nil
}

// seekTo takes one relative offset in seconds, or (0, position) for an
// absolute position in seconds.
func (p *player) seekTo(args []float64) error {
	rate := p.fps
	if rate <= 0 {
		rate = defaultFPS
	}
	var target float64
	switch {
	case len(args) == 1:
		target = float64(p.index)/rate + args[0]
	case len(args) == 2 && args[0] == 0:
		target = args[1]
	default:
		return fmt.Errorf("seek: bad arguments %v", args)
	}
	if p.seek == nil {
		return errNotSeekable
	}
	index := max(int(target*rate), 0)
	if err := p.seek(index); err != nil {
		return fmt.Errorf("seek to frame %d: %w", index, err)
	}
	p.index = index
	return nil
}

// step draws the next frame unless paused. It reports false once the input
// is exhausted or a quit was requested.
func (p *player) step() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.quit {
		return false, nil
	}
	if p.paused {
		return true, nil
	}

	f, release, err := p.frames.Next()
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer release()
	if err := p.sink.DrawFrame(f); err != nil {
		return false, err
	}
	p.index++
	return true, nil
}

// interval returns the frame period at the current speed in seconds, or 0
// when pacing is off.
func (p *player) interval() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fps <= 0 {
		return 0
	}
	return 1 / (p.fps * p.speed)
}

func (p *player) quitting() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.quit
}

// status is a snapshot of the playback state.
type status struct {
	Index  int
	Paused bool
	Muted  bool
	Volume float64
	Speed  float64
}

func (p *player) status() status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return status{Index: p.index, Paused: p.paused, Muted: p.muted, Volume: p.volume, Speed: p.speed}
}
