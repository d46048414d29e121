//go:build !headless

package main

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/gogpu/yuv"
)

type sentCommand struct {
	command string
	args    []float64
}

type recordingHandle struct{ sent []sentCommand }

func (r *recordingHandle) Send(command string, args ...float64) error {
	r.sent = append(r.sent, sentCommand{command, args})
	return nil
}

func TestKeyBindings(t *testing.T) {
	tests := []struct {
		key     ebiten.Key
		command string
		args    []float64
	}{
		{ebiten.KeySpace, yuv.CommandPause, nil},
		{ebiten.KeyM, yuv.CommandMute, nil},
		{ebiten.KeyArrowLeft, yuv.CommandSeek, []float64{-seekStep}},
		{ebiten.KeyArrowRight, yuv.CommandSeek, []float64{seekStep}},
		{ebiten.KeyArrowUp, yuv.CommandVolume, []float64{1}},
		{ebiten.KeyArrowDown, yuv.CommandVolume, []float64{-1}},
		{ebiten.KeyEqual, yuv.CommandSpeed, []float64{0, 3}},
		{ebiten.KeyMinus, yuv.CommandSpeed, []float64{0, 0.75}},
		{ebiten.KeyQ, yuv.CommandQuit, nil},
		{ebiten.KeyEscape, yuv.CommandQuit, nil},
	}
	for _, tt := range tests {
		t.Run(tt.key.String(), func(t *testing.T) {
			action, ok := keyBindings[tt.key]
			if !ok {
				t.Fatalf("no binding for %v", tt.key)
			}
			rec := &recordingHandle{}
			if err := action(yuv.NewTransport(rec), status{Speed: 1.5}); err != nil {
				t.Fatal(err)
			}
			if len(rec.sent) != 1 {
				t.Fatalf("sent %d commands, want 1", len(rec.sent))
			}
			got := rec.sent[0]
			if got.command != tt.command || len(got.args) != len(tt.args) {
				t.Fatalf("sent %+v, want %s %v", got, tt.command, tt.args)
			}
			for i := range tt.args {
				if got.args[i] != tt.args[i] {
					t.Errorf("arg %d = %v, want %v", i, got.args[i], tt.args[i])
				}
			}
		})
	}
}
