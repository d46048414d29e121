package yuv

import (
	"errors"
	"slices"
	"testing"
)

type sent struct {
	command string
	args    []float64
}

type recordingPlayer struct {
	sent []sent
	err  error
}

func (p *recordingPlayer) Send(command string, args ...float64) error {
	p.sent = append(p.sent, sent{command, args})
	return p.err
}

func TestTransportEncoding(t *testing.T) {
	tests := []struct {
		name string
		call func(Transport) error
		want sent
	}{
		{"quit", Transport.Quit, sent{"quit", nil}},
		{"pause", Transport.TogglePause, sent{"pause", nil}},
		{"mute", Transport.ToggleMute, sent{"mute", nil}},
		{"volume up", Transport.VolumeUp, sent{"volume", []float64{1}}},
		{"volume down", Transport.VolumeDown, sent{"volume", []float64{-1}}},
		{"set volume", func(tr Transport) error { return tr.SetVolume(0.25) }, sent{"volume", []float64{2, 0.25}}},
		{"seek relative", func(tr Transport) error { return tr.Seek(-5) }, sent{"seek", []float64{-5}}},
		{"seek args", func(tr Transport) error { return tr.Seek(1, 30) }, sent{"seek", []float64{1, 30}}},
		{"seek to", func(tr Transport) error { return tr.SeekTo(42) }, sent{"seek", []float64{0, 42}}},
		{"speed", func(tr Transport) error { return tr.SetSpeed(1.5) }, sent{"speed", []float64{0, 1.5}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &recordingPlayer{}
			if err := tt.call(NewTransport(p)); err != nil {
				t.Fatalf("error = %v", err)
			}
			if len(p.sent) != 1 {
				t.Fatalf("sent %d commands, want 1", len(p.sent))
			}
			got := p.sent[0]
			if got.command != tt.want.command || !slices.Equal(got.args, tt.want.args) {
				t.Errorf("sent %s %v, want %s %v", got.command, got.args, tt.want.command, tt.want.args)
			}
		})
	}
}

func TestTransportWrapsPlayerError(t *testing.T) {
	errGone := errors.New("player exited")
	tr := NewTransport(&recordingPlayer{err: errGone})
	if err := tr.TogglePause(); !errors.Is(err, errGone) {
		t.Errorf("TogglePause() error = %v, want %v", err, errGone)
	}
}
