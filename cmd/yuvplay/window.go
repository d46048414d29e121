//go:build !headless

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.design/x/clipboard"

	"github.com/gogpu/yuv"
)

const seekStep = 5 // seconds

// keyAction is a window key binding.
type keyAction func(t yuv.Transport, st status) error

// keyBindings maps keys to transport commands.
var keyBindings = map[ebiten.Key]keyAction{
	ebiten.KeySpace:          func(t yuv.Transport, _ status) error { return t.TogglePause() },
	ebiten.KeyM:              func(t yuv.Transport, _ status) error { return t.ToggleMute() },
	ebiten.KeyArrowLeft:      func(t yuv.Transport, _ status) error { return t.Seek(-seekStep) },
	ebiten.KeyArrowRight:     func(t yuv.Transport, _ status) error { return t.Seek(seekStep) },
	ebiten.KeyArrowUp:        func(t yuv.Transport, _ status) error { return t.VolumeUp() },
	ebiten.KeyArrowDown:      func(t yuv.Transport, _ status) error { return t.VolumeDown() },
	ebiten.KeyEqual:          speedUp,
	ebiten.KeyNumpadAdd:      speedUp,
	ebiten.KeyMinus:          speedDown,
	ebiten.KeyNumpadSubtract: speedDown,
	ebiten.KeyQ:              func(t yuv.Transport, _ status) error { return t.Quit() },
	ebiten.KeyEscape:         func(t yuv.Transport, _ status) error { return t.Quit() },
}

func speedUp(t yuv.Transport, st status) error { return t.SetSpeed(st.Speed * 2) }
func speedDown(t yuv.Transport, st status) error { return t.SetSpeed(st.Speed / 2) }

// window presents the sink output with ebiten.
type window struct {
	ctx       context.Context
	cfg       config
	player    *player
	transport yuv.Transport

	image *ebiten.Image
	dirty bool
	next  time.Time
	err   error

	clipboardOnce sync.Once
	clipboardErr  error
}

func runWindow(ctx context.Context, cfg config, p *player) error {
	w := &window{
		ctx:       ctx,
		cfg:       cfg,
		player:    p,
		transport: yuv.NewTransport(p),
	}
	ebiten.SetWindowSize(cfg.width, cfg.height)
	ebiten.SetWindowTitle("yuvplay")
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)

	if err := ebiten.RunGame(w); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return w.err
}

func (w *window) Update() error {
	if w.ctx.Err() != nil {
		return ebiten.Termination
	}
	w.handleKeys()
	if w.player.quitting() {
		return ebiten.Termination
	}
	if w.cfg.frames > 0 && w.player.sink.Frames() >= uint64(w.cfg.frames) {
		return ebiten.Termination
	}

	now := time.Now()
	if now.Before(w.next) {
		return nil
	}
	more, err := w.player.step()
	if err != nil {
		w.err = err
		return ebiten.Termination
	}
	if !more {
		return ebiten.Termination
	}
	w.dirty = true
	if iv := w.player.interval(); iv > 0 {
		w.next = now.Add(time.Duration(iv * float64(time.Second)))
	}
	return nil
}

func (w *window) handleKeys() {
	for key, action := range keyBindings {
		if !inpututil.IsKeyJustPressed(key) {
			continue
		}
		if err := action(w.transport, w.player.status()); err != nil {
			yuv.Logger().Warn("yuvplay: key ignored", "key", key.String(), "err", err)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		if err := w.copyCrop(); err != nil {
			yuv.Logger().Warn("yuvplay: clipboard copy failed", "err", err)
		}
	}
}

// copyCrop puts the -crop rectangle, or the whole frame, on the clipboard
// as a PNG.
func (w *window) copyCrop() error {
	w.clipboardOnce.Do(func() {
		w.clipboardErr = clipboard.Init()
	})
	if w.clipboardErr != nil {
		return w.clipboardErr
	}
	sink := w.player.sink
	if sink.Frames() == 0 {
		return errors.New("no frame drawn yet")
	}
	img, err := sink.CropImage(nil, cropOrSurface(sink, w.cfg.crop))
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	clipboard.Write(clipboard.FmtImage, buf.Bytes())
	yuv.Logger().Info("yuvplay: copied to clipboard", "size", img.Bounds().Size())
	return nil
}

func (w *window) Draw(screen *ebiten.Image) {
	if w.dirty {
		w.dirty = false
		if err := w.refresh(); err != nil {
			yuv.Logger().Warn("yuvplay: read back failed", "err", err)
		}
	}
	if w.image == nil {
		return
	}

	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	iw, ih := w.image.Bounds().Dx(), w.image.Bounds().Dy()
	scale := min(float64(sw)/float64(iw), float64(sh)/float64(ih))
	var op ebiten.DrawImageOptions
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate((float64(sw)-float64(iw)*scale)/2, (float64(sh)-float64(ih)*scale)/2)
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(w.image, &op)
}

// refresh copies the sink surface into the window image.
func (w *window) refresh() error {
	img, err := w.player.sink.Snapshot()
	if err != nil {
		return err
	}
	b := img.Bounds()
	if w.image == nil || w.image.Bounds().Size() != b.Size() {
		if w.image != nil {
			w.image.Deallocate()
		}
		w.image = ebiten.NewImage(b.Dx(), b.Dy())
	}
	w.image.WritePixels(img.Pix)
	return nil
}

func (w *window) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}
