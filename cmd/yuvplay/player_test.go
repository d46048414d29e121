package main

import (
	"errors"
	"testing"

	"github.com/gogpu/yuv"
)

func TestPlayerTransportCommands(t *testing.T) {
	p, bars := newBarsPlayer(t, 16, 8)
	p.fps = 10
	tr := yuv.NewTransport(p)

	if err := tr.TogglePause(); err != nil {
		t.Fatal(err)
	}
	if more, err := p.step(); !more || err != nil {
		t.Fatalf("step() while paused = %v, %v", more, err)
	}
	if got := p.sink.Frames(); got != 0 {
		t.Errorf("paused player drew %d frames", got)
	}
	_ = tr.TogglePause()

	_ = tr.ToggleMute()
	_ = tr.VolumeDown()
	_ = tr.VolumeDown()
	if st := p.status(); !st.Muted || st.Volume != maxVolume-2*volumeStep {
		t.Errorf("status = %+v, want muted at volume %d", st, maxVolume-2*volumeStep)
	}
	_ = tr.SetVolume(150)
	if st := p.status(); st.Volume != maxVolume {
		t.Errorf("volume = %v, want clamp to %d", st.Volume, maxVolume)
	}

	_ = tr.SetSpeed(16)
	if st := p.status(); st.Speed != maxSpeed {
		t.Errorf("speed = %v, want clamp to %v", st.Speed, maxSpeed)
	}
	if got := p.interval(); got != 1.0/(10*maxSpeed) {
		t.Errorf("interval() = %v, want %v", got, 1.0/(10*maxSpeed))
	}

	if err := tr.SeekTo(3); err != nil {
		t.Fatal(err)
	}
	if got := bars.Index(); got != 30 {
		t.Errorf("source index after SeekTo(3) = %d, want 30", got)
	}
	if err := tr.Seek(-5); err != nil {
		t.Fatal(err)
	}
	if got := bars.Index(); got != 0 {
		t.Errorf("source index after Seek(-5) = %d, want clamp to 0", got)
	}

	if err := tr.Quit(); err != nil {
		t.Fatal(err)
	}
	if more, _ := p.step(); more || !p.quitting() {
		t.Error("player kept running after quit")
	}
}

func TestPlayerRejectsBadCommands(t *testing.T) {
	p, _ := newBarsPlayer(t, 8, 4)
	tests := []struct {
		command string
		args    []float64
	}{
		{"rewind", nil},
		{yuv.CommandVolume, []float64{3}},
		{yuv.CommandSeek, []float64{1, 2}},
		{yuv.CommandSpeed, []float64{2}},
	}
	for _, tt := range tests {
		if err := p.Send(tt.command, tt.args...); err == nil {
			t.Errorf("Send(%q, %v) succeeded, want error", tt.command, tt.args)
		}
	}
}

func TestPlayerSeekNotSeekable(t *testing.T) {
	p, _ := newBarsPlayer(t, 8, 4)
	p.seek = nil
	err := yuv.NewTransport(p).Seek(5)
	if !errors.Is(err, errNotSeekable) {
		t.Errorf("Seek() error = %v, want errNotSeekable", err)
	}
}
