package yuv

import (
	"errors"
	"fmt"
	"image"
	"math"
	"reflect"
	"testing"

	"github.com/gogpu/yuv/backend/software"
	"github.com/gogpu/yuv/gpucore"
)

func filled(n int, v byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = v
	}
	return b
}

// uniformFrame returns a w×h frame with every sample set, using the
// tightest strides.
func uniformFrame(w, h int, y, cb, cr byte) *Frame {
	cw := (w + 1) / 2
	ch := (h + 1) / 2
	return &Frame{
		Width:  w,
		Height: h,
		Crop:   Crop{Width: w, Height: h},
		Y:      Plane{Bytes: filled(w*h, y), Stride: w},
		U:      Plane{Bytes: filled(cw*ch, cb), Stride: cw},
		V:      Plane{Bytes: filled(cw*ch, cr), Stride: cw},
	}
}

// patternFrame returns a frame with distinct samples everywhere and padded
// strides.
func patternFrame(w, h, lumaPad, chromaPad int) *Frame {
	ls := w + lumaPad
	cw := (w + 1) / 2
	cs := cw + chromaPad
	ch := (h + 1) / 2
	f := &Frame{
		Width:  w,
		Height: h,
		Crop:   Crop{Width: w, Height: h},
		Y:      Plane{Bytes: make([]byte, ls*h), Stride: ls},
		U:      Plane{Bytes: make([]byte, cs*ch), Stride: cs},
		V:      Plane{Bytes: make([]byte, cs*ch), Stride: cs},
	}
	for i := range f.Y.Bytes {
		f.Y.Bytes[i] = byte(16 + (i*37)%220)
	}
	for i := range f.U.Bytes {
		f.U.Bytes[i] = byte(16 + (i*53)%224)
		f.V.Bytes[i] = byte(240 - (i*29)%224)
	}
	return f
}

func expectedRGBA(y, cb, cr byte) [4]byte {
	r, g, b := ConvertBT601(float32(y)/255, float32(cb)/255, float32(cr)/255)
	q := func(v float32) byte {
		switch {
		case v <= 0:
			return 0
		case v >= 1:
			return 255
		}
		return byte(v*255 + 0.5)
	}
	return [4]byte{q(r), q(g), q(b), 255}
}

func absDiff(a, b byte) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

func newTestSink(t *testing.T, dev *software.Device, opts ...Option) *FrameSink {
	t.Helper()
	s, err := NewFrameSink(dev, opts...)
	if err != nil {
		t.Fatalf("NewFrameSink() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewFrameSinkNilDevice(t *testing.T) {
	if _, err := NewFrameSink(nil); !errors.Is(err, ErrNoDevice) {
		t.Errorf("NewFrameSink(nil) error = %v, want ErrNoDevice", err)
	}
}

func TestNewFrameSinkClearsSurface(t *testing.T) {
	dev := software.New(software.WithSurfaceSize(3, 3))
	if err := dev.Clear(gpucore.DefaultFramebuffer, gpucore.Color{R: 1, G: 1, B: 1, A: 1}); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	s := newTestSink(t, dev)

	img, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	for i, v := range img.Pix {
		if v != 0 {
			t.Fatalf("Pix[%d] = %d after construction, want transparent black", i, v)
		}
	}
}

func TestDrawFrameUniformGray(t *testing.T) {
	for _, stripe := range []bool{false, true} {
		name := "direct"
		if stripe {
			name = "stripe"
		}
		t.Run(name, func(t *testing.T) {
			s := newTestSink(t, software.New(), WithStripeWorkaround(stripe))

			// 4×2 luma, 2×1 chroma, all 128.
			if err := s.DrawFrame(uniformFrame(4, 2, 128, 128, 128)); err != nil {
				t.Fatalf("DrawFrame() error = %v", err)
			}
			img, err := s.Snapshot()
			if err != nil {
				t.Fatalf("Snapshot() error = %v", err)
			}
			if got := img.Bounds().Size(); got != image.Pt(4, 2) {
				t.Fatalf("Snapshot() size = %v, want (4,2)", got)
			}

			want := expectedRGBA(128, 128, 128)
			for i := 0; i < len(img.Pix); i += 4 {
				for c := 0; c < 4; c++ {
					if absDiff(img.Pix[i+c], want[c]) > 1 {
						t.Fatalf("pixel %d = %v, want %v", i/4, img.Pix[i:i+4], want)
					}
				}
				for c := 0; c < 3; c++ {
					if absDiff(img.Pix[i+c], 128) > 4 {
						t.Fatalf("pixel %d = %v, want ≈ (128,128,128)", i/4, img.Pix[i:i+4])
					}
				}
			}
		})
	}
}

func TestStripeMatchesDirect(t *testing.T) {
	tests := []struct {
		name               string
		w, h               int
		lumaPad, chromaPad int
	}{
		{"aligned", 8, 4, 0, 0},
		{"padded strides", 8, 4, 2, 1},
		{"odd size", 7, 5, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			direct := newTestSink(t, software.New(), WithStripeWorkaround(false))
			stripe := newTestSink(t, software.New(), WithStripeWorkaround(true))

			f := patternFrame(tt.w, tt.h, tt.lumaPad, tt.chromaPad)
			if err := direct.DrawFrame(f); err != nil {
				t.Fatalf("direct DrawFrame() error = %v", err)
			}
			if err := stripe.DrawFrame(f); err != nil {
				t.Fatalf("stripe DrawFrame() error = %v", err)
			}

			a, err := direct.Snapshot()
			if err != nil {
				t.Fatalf("direct Snapshot() error = %v", err)
			}
			b, err := stripe.Snapshot()
			if err != nil {
				t.Fatalf("stripe Snapshot() error = %v", err)
			}
			for i := range a.Pix {
				if absDiff(a.Pix[i], b.Pix[i]) > 1 {
					t.Fatalf("pixel %d channel %d: direct %d, stripe %d", i/4, i%4, a.Pix[i], b.Pix[i])
				}
			}
		})
	}
}

func TestTextureIdentityStable(t *testing.T) {
	names := map[bool][]string{
		false: {"y", "cb", "cr"},
		true:  {"y", "cb", "cr", "y_packed", "cb_packed", "cr_packed", "y_stripe", "cb_stripe", "cr_stripe"},
	}
	for stripe, texNames := range names {
		s := newTestSink(t, software.New(), WithStripeWorkaround(stripe))

		if err := s.DrawFrame(patternFrame(8, 4, 0, 0)); err != nil {
			t.Fatalf("DrawFrame() error = %v", err)
		}
		first := make(map[string]gpucore.TextureID)
		for _, n := range texNames {
			id, ok := s.textures.Texture(n)
			if !ok {
				t.Fatalf("stripe=%v: texture %q missing after first frame", stripe, n)
			}
			first[n] = id
		}
		var fbs []gpucore.FramebufferID
		if stripe {
			for _, n := range []string{"y", "cb", "cr"} {
				fb, err := s.textures.Framebuffer(n)
				if err != nil {
					t.Fatalf("Framebuffer(%q) error = %v", n, err)
				}
				fbs = append(fbs, fb)
			}
		}
		allocs := s.TextureStats().Allocations

		for i := 0; i < 3; i++ {
			if err := s.DrawFrame(patternFrame(8, 4, 0, 0)); err != nil {
				t.Fatalf("DrawFrame() error = %v", err)
			}
		}
		for _, n := range texNames {
			if id, _ := s.textures.Texture(n); id != first[n] {
				t.Errorf("stripe=%v: texture %q = %d after same-size frames, want %d", stripe, n, id, first[n])
			}
		}
		for i, n := range []string{"y", "cb", "cr"}[:len(fbs)] {
			if fb, _ := s.textures.Framebuffer(n); fb != fbs[i] {
				t.Errorf("framebuffer %q changed across same-size frames", n)
			}
		}
		if got := s.TextureStats().Allocations; got != allocs {
			t.Errorf("stripe=%v: Allocations = %d after same-size frames, want %d", stripe, got, allocs)
		}
		if s.TextureStats().Updates == 0 {
			t.Errorf("stripe=%v: Updates = 0, want in-place uploads", stripe)
		}
	}
}

func TestStrideChangeKeepsTextureIdentity(t *testing.T) {
	s := newTestSink(t, software.New(), WithStripeWorkaround(false))

	if err := s.DrawFrame(patternFrame(8, 4, 0, 0)); err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}
	before, _ := s.textures.Texture("y")
	if err := s.DrawFrame(patternFrame(8, 4, 8, 4)); err != nil {
		t.Fatalf("DrawFrame() with wider stride error = %v", err)
	}
	after, _ := s.textures.Texture("y")
	if before != after {
		t.Errorf("luma texture = %d after stride change, want %d", after, before)
	}
	if got := s.TextureStats().Invalidations; got != 1 {
		t.Errorf("Invalidations = %d, want 1 (first frame only)", got)
	}
}

func TestResizeNotifier(t *testing.T) {
	type call struct{ w, h int }
	var (
		s     *FrameSink
		calls []call
		drawn uint64
	)
	dev := software.New()
	s = newTestSink(t, dev, WithResizeNotifier(func(w, h int) {
		calls = append(calls, call{w, h})
		if sw, sh := dev.SurfaceSize(); sw != w || sh != h {
			t.Errorf("surface is %dx%d during notification, want %dx%d", sw, sh, w, h)
		}
		if got := s.Frames(); got != drawn {
			t.Errorf("Frames() = %d during notification, want %d", got, drawn)
		}
	}))

	sizes := []call{{4, 2}, {4, 2}, {8, 4}, {8, 4}, {8, 4}, {4, 2}}
	for i, sz := range sizes {
		drawn = uint64(i)
		if err := s.DrawFrame(uniformFrame(sz.w, sz.h, 100, 120, 140)); err != nil {
			t.Fatalf("DrawFrame(%dx%d) error = %v", sz.w, sz.h, err)
		}
	}

	want := []call{{4, 2}, {8, 4}, {4, 2}}
	if len(calls) != len(want) {
		t.Fatalf("notifier called %d times (%v), want %d", len(calls), calls, len(want))
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %v, want %v", i, calls[i], want[i])
		}
	}
	if w, h := s.Size(); w != 4 || h != 2 {
		t.Errorf("Size() = %dx%d, want 4x2", w, h)
	}
}

func TestResizeInvalidatesTextures(t *testing.T) {
	dev := software.New()
	s := newTestSink(t, dev)

	if err := s.DrawFrame(uniformFrame(4, 2, 128, 128, 128)); err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}
	old, _ := s.textures.Texture("y")
	if err := s.DrawFrame(uniformFrame(6, 4, 128, 128, 128)); err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}
	cur, _ := s.textures.Texture("y")
	if cur == old {
		t.Error("luma texture reused across a geometry change")
	}
	if got := s.textures.Len(); got != 3 {
		t.Errorf("cached textures = %d, want 3", got)
	}
}

func TestDrawFrameInvalidGeometry(t *testing.T) {
	valid := func() *Frame { return uniformFrame(4, 2, 128, 128, 128) }
	tests := []struct {
		name   string
		mutate func(f *Frame)
	}{
		{"zero width", func(f *Frame) { f.Width = 0 }},
		{"negative height", func(f *Frame) { f.Height = -2 }},
		{"empty crop", func(f *Frame) { f.Crop.Width = 0 }},
		{"crop below frame", func(f *Frame) { f.Crop.Top = 1 }},
		{"negative crop", func(f *Frame) { f.Crop.Left = -1 }},
		{"luma stride too small", func(f *Frame) { f.Crop.Left = 1 }},
		{"chroma stride too small", func(f *Frame) { f.U.Stride = 1; f.V.Stride = 1 }},
		{"chroma strides differ", func(f *Frame) { f.V.Stride = 3; f.V.Bytes = make([]byte, 3) }},
		{"short luma plane", func(f *Frame) { f.Y.Bytes = f.Y.Bytes[:7] }},
		{"short chroma plane", func(f *Frame) { f.V.Bytes = nil }},
		{"stride overflows plane size", func(f *Frame) {
			f.Y.Stride, f.U.Stride, f.V.Stride = 1<<61, 1<<61, 1<<61
		}},
		{"crop right edge overflows", func(f *Frame) { f.Crop.Left = math.MaxInt }},
		{"crop bottom edge overflows", func(f *Frame) { f.Crop.Top = math.MaxInt }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := software.New()
			s := newTestSink(t, dev)
			f := valid()
			tt.mutate(f)
			if err := s.DrawFrame(f); !errors.Is(err, ErrInvalidFrameGeometry) {
				t.Fatalf("DrawFrame() error = %v, want ErrInvalidFrameGeometry", err)
			}
			if got := dev.ResourceCount(); got != 0 {
				t.Errorf("ResourceCount() = %d after rejected frame, want 0", got)
			}
			if s.Frames() != 0 {
				t.Errorf("Frames() = %d, want 0", s.Frames())
			}
		})
	}
}

// cacheState is what a rejected frame must leave untouched.
type cacheState struct {
	textures      map[string]gpucore.TextureID
	framebuffers  map[string]gpucore.FramebufferID
	stats         TextureStats
	surfaceW      int
	surfaceH      int
	notifications int
	resourceCount int
}

func captureCacheState(t *testing.T, s *FrameSink, dev *software.Device, notifications int) cacheState {
	t.Helper()
	st := cacheState{
		textures:      make(map[string]gpucore.TextureID),
		framebuffers:  make(map[string]gpucore.FramebufferID),
		stats:         s.TextureStats(),
		notifications: notifications,
		resourceCount: dev.ResourceCount(),
	}
	st.surfaceW, st.surfaceH = dev.SurfaceSize()
	for _, n := range []string{"y", "cb", "cr", "y_packed", "cb_packed", "cr_packed", "y_stripe", "cb_stripe", "cr_stripe"} {
		if id, ok := s.textures.Texture(n); ok {
			st.textures[n] = id
		}
		if fb, ok := s.textures.framebuffers[n]; ok {
			st.framebuffers[n] = fb
		}
	}
	return st
}

func TestRejectedFrameLeavesCachesIntact(t *testing.T) {
	bad := []struct {
		name  string
		frame func() *Frame
	}{
		{"short luma plane", func() *Frame {
			f := patternFrame(8, 4, 0, 0)
			f.Y.Bytes = f.Y.Bytes[:5]
			return f
		}},
		{"overflowing stride", func() *Frame {
			f := patternFrame(8, 4, 0, 0)
			f.Y.Stride = 1 << 61
			return f
		}},
		{"crop outside frame", func() *Frame {
			f := patternFrame(8, 4, 0, 0)
			f.Crop.Top = 3
			return f
		}},
		{"other size and invalid", func() *Frame {
			f := patternFrame(16, 8, 0, 0)
			f.V.Bytes = nil
			return f
		}},
	}
	for _, stripe := range []bool{false, true} {
		for _, tt := range bad {
			t.Run(fmt.Sprintf("stripe=%v/%s", stripe, tt.name), func(t *testing.T) {
				notified := 0
				dev := software.New()
				s := newTestSink(t, dev, WithStripeWorkaround(stripe),
					WithResizeNotifier(func(int, int) { notified++ }))

				if err := s.DrawFrame(patternFrame(8, 4, 0, 0)); err != nil {
					t.Fatalf("DrawFrame() error = %v", err)
				}
				before := captureCacheState(t, s, dev, notified)

				if err := s.DrawFrame(tt.frame()); !errors.Is(err, ErrInvalidFrameGeometry) {
					t.Fatalf("DrawFrame() error = %v, want ErrInvalidFrameGeometry", err)
				}
				after := captureCacheState(t, s, dev, notified)
				if !reflect.DeepEqual(before, after) {
					t.Errorf("state after rejected frame = %+v, want %+v", after, before)
				}
				if s.Frames() != 1 {
					t.Errorf("Frames() = %d, want 1", s.Frames())
				}

				if err := s.DrawFrame(patternFrame(8, 4, 0, 0)); err != nil {
					t.Fatalf("DrawFrame() after rejected frame error = %v", err)
				}
				if got := captureCacheState(t, s, dev, notified); !reflect.DeepEqual(got.textures, before.textures) {
					t.Errorf("textures = %v after recovery, want %v", got.textures, before.textures)
				}
				if s.TextureStats().Allocations != before.stats.Allocations {
					t.Errorf("Allocations = %d after recovery, want %d",
						s.TextureStats().Allocations, before.stats.Allocations)
				}
			})
		}
	}
}

func TestDeviceRejectsUploadAfterGeometryChange(t *testing.T) {
	for _, stripe := range []bool{false, true} {
		t.Run(fmt.Sprintf("stripe=%v", stripe), func(t *testing.T) {
			var calls []int
			dev := software.New(software.WithMaxTextureSize(16))
			s := newTestSink(t, dev, WithStripeWorkaround(stripe),
				WithResizeNotifier(func(w, _ int) { calls = append(calls, w) }))

			if err := s.DrawFrame(uniformFrame(8, 4, 128, 128, 128)); err != nil {
				t.Fatalf("DrawFrame(8x4) error = %v", err)
			}
			err := s.DrawFrame(uniformFrame(32, 4, 128, 128, 128))
			if !errors.Is(err, software.ErrInvalidSize) {
				t.Fatalf("DrawFrame(32x4) error = %v, want software.ErrInvalidSize", err)
			}
			if errors.Is(err, ErrSinkBroken) {
				t.Fatalf("DrawFrame(32x4) error = %v, an upload failure must not break the sink", err)
			}
			if s.Frames() != 1 {
				t.Errorf("Frames() = %d after failed upload, want 1", s.Frames())
			}

			if err := s.DrawFrame(uniformFrame(8, 4, 128, 128, 128)); err != nil {
				t.Fatalf("DrawFrame(8x4) after failed upload error = %v", err)
			}
			if want := []int{8, 32, 8}; !reflect.DeepEqual(calls, want) {
				t.Errorf("notified widths = %v, want %v", calls, want)
			}
			if w, h := dev.SurfaceSize(); w != 8 || h != 4 {
				t.Errorf("SurfaceSize() = %dx%d, want 8x4", w, h)
			}
			img, err := s.Snapshot()
			if err != nil {
				t.Fatalf("Snapshot() error = %v", err)
			}
			want := expectedRGBA(128, 128, 128)
			for i := 0; i < len(img.Pix); i += 4 {
				for c := 0; c < 3; c++ {
					if d := absDiff(img.Pix[i+c], want[c]); d > 2 {
						t.Fatalf("Pix[%d] = %v, want %v", i, img.Pix[i:i+4], want)
					}
				}
			}
		})
	}
}

// flakyClearDevice fails the next surface clear when armed.
type flakyClearDevice struct {
	*software.Device
	failNext bool
}

var errClearFailed = errors.New("clear failed")

func (d *flakyClearDevice) Clear(target gpucore.FramebufferID, c gpucore.Color) error {
	if d.failNext {
		d.failNext = false
		return errClearFailed
	}
	return d.Device.Clear(target, c)
}

func TestFailedClearRetriesGeometryChange(t *testing.T) {
	dev := &flakyClearDevice{Device: software.New()}
	notified := 0
	s, err := NewFrameSink(dev, WithResizeNotifier(func(int, int) { notified++ }))
	if err != nil {
		t.Fatalf("NewFrameSink() error = %v", err)
	}
	defer s.Close()

	dev.failNext = true
	if err := s.DrawFrame(uniformFrame(4, 2, 128, 128, 128)); !errors.Is(err, errClearFailed) {
		t.Fatalf("DrawFrame() error = %v, want the clear error", err)
	}
	if w, h := s.Size(); w != 0 || h != 0 {
		t.Errorf("Size() = %dx%d after failed clear, want 0x0", w, h)
	}

	if err := s.DrawFrame(uniformFrame(4, 2, 128, 128, 128)); err != nil {
		t.Fatalf("DrawFrame() retry error = %v", err)
	}
	if notified != 2 {
		t.Errorf("notifier called %d times, want 2 (failed change and retry)", notified)
	}
	if w, h := s.Size(); w != 4 || h != 2 {
		t.Errorf("Size() = %dx%d, want 4x2", w, h)
	}
	if s.Frames() != 1 {
		t.Errorf("Frames() = %d, want 1", s.Frames())
	}
}

func TestSnapshotOnBrokenSink(t *testing.T) {
	s := newTestSink(t, software.New())
	s.broken = errors.New("lost context")
	if _, err := s.Snapshot(); !errors.Is(err, ErrSinkBroken) {
		t.Errorf("Snapshot() error = %v, want ErrSinkBroken", err)
	}
}

func TestCropImageFlipsRows(t *testing.T) {
	s := newTestSink(t, software.New())

	// Top luma row white, bottom row black.
	f := uniformFrame(4, 2, 0, 128, 128)
	copy(f.Y.Bytes[0:4], []byte{235, 235, 235, 235})
	copy(f.Y.Bytes[4:8], []byte{16, 16, 16, 16})
	if err := s.DrawFrame(f); err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}

	white := expectedRGBA(235, 128, 128)
	black := expectedRGBA(16, 128, 128)
	tests := []struct {
		name string
		rect image.Rectangle
		want [4]byte
	}{
		{"top row", image.Rect(0, 0, 4, 1), white},
		{"bottom row", image.Rect(0, 1, 4, 2), black},
		{"top right pixel", image.Rect(3, 0, 4, 1), white},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := s.CropImage(nil, tt.rect)
			if err != nil {
				t.Fatalf("CropImage() error = %v", err)
			}
			if got, want := len(img.Pix), tt.rect.Dx()*tt.rect.Dy()*4; got != want {
				t.Fatalf("len(Pix) = %d, want %d", got, want)
			}
			for i := 0; i < len(img.Pix); i += 4 {
				for c := 0; c < 4; c++ {
					if absDiff(img.Pix[i+c], tt.want[c]) > 1 {
						t.Fatalf("pixel %d = %v, want %v", i/4, img.Pix[i:i+4], tt.want)
					}
				}
			}
		})
	}

	// Full crop keeps the top row first.
	img, err := s.CropImage(nil, image.Rect(0, 0, 4, 2))
	if err != nil {
		t.Fatalf("CropImage() error = %v", err)
	}
	if absDiff(img.Pix[0], white[0]) > 1 || absDiff(img.Pix[img.Stride], black[0]) > 1 {
		t.Errorf("rows not flipped: first row R = %d, second row R = %d", img.Pix[0], img.Pix[img.Stride])
	}
}

func TestCropImageIntoTarget(t *testing.T) {
	s := newTestSink(t, software.New())
	if err := s.DrawFrame(uniformFrame(4, 2, 235, 128, 128)); err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}
	white := expectedRGBA(235, 128, 128)

	for _, size := range []image.Point{{4, 2}, {8, 4}, {2, 1}} {
		target := image.NewRGBA(image.Rectangle{Max: size})
		if _, err := s.CropImage(target, image.Rect(0, 0, 4, 2)); err != nil {
			t.Fatalf("CropImage() error = %v", err)
		}
		c := target.RGBAAt(size.X-1, size.Y-1)
		if absDiff(c.R, white[0]) > 1 || c.A != 255 {
			t.Errorf("target %v corner = %v, want %v", size, c, white)
		}
	}
}

func TestCropImageInvalidRect(t *testing.T) {
	s := newTestSink(t, software.New())
	if err := s.DrawFrame(uniformFrame(4, 2, 128, 128, 128)); err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}
	for _, r := range []image.Rectangle{
		image.Rect(0, 0, 0, 0),
		image.Rect(0, 0, 5, 2),
		image.Rect(-1, 0, 2, 2),
		image.Rect(0, 1, 4, 3),
	} {
		if _, err := s.CropImage(nil, r); !errors.Is(err, ErrInvalidCropRect) {
			t.Errorf("CropImage(%v) error = %v, want ErrInvalidCropRect", r, err)
		}
	}
}

func TestCropChangeRewritesTexCoords(t *testing.T) {
	s := newTestSink(t, software.New())

	// Left half white, right half black.
	f := uniformFrame(4, 2, 0, 128, 128)
	for row := 0; row < 2; row++ {
		copy(f.Y.Bytes[row*4:], []byte{235, 235, 16, 16})
	}
	if err := s.DrawFrame(f); err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}
	img, _ := s.Snapshot()
	if img.Pix[2*4] > 10 {
		t.Fatalf("column 2 R = %d before crop change, want black", img.Pix[2*4])
	}

	// Same size, crop to the white half.
	f.Crop = Crop{Width: 2, Height: 2}
	if err := s.DrawFrame(f); err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}
	img, _ = s.Snapshot()
	for x := 0; x < 3; x++ {
		if r := img.Pix[x*4]; r < 250 {
			t.Errorf("column %d R = %d after crop change, want white", x, r)
		}
	}
}

// spirvDevice is a software device that asks for compiled kernels.
type spirvDevice struct {
	*software.Device
}

func (d spirvDevice) Capabilities() gpucore.Capabilities {
	caps := d.Device.Capabilities()
	caps.ShaderFormat = gpucore.ShaderFormatSPIRV
	return caps
}

func TestShaderCompileFailureBreaksSink(t *testing.T) {
	compileErr := errors.New("unexpected token")
	dev := spirvDevice{software.New()}
	s, err := NewFrameSink(dev, WithShaderCompiler(func(string) ([]uint32, error) {
		return nil, compileErr
	}))
	if err != nil {
		t.Fatalf("NewFrameSink() error = %v", err)
	}
	defer s.Close()

	err = s.DrawFrame(uniformFrame(4, 2, 128, 128, 128))
	if !errors.Is(err, ErrShaderCompile) || !errors.Is(err, ErrSinkBroken) {
		t.Fatalf("DrawFrame() error = %v, want ErrShaderCompile and ErrSinkBroken", err)
	}
	if !errors.Is(err, compileErr) {
		t.Errorf("DrawFrame() error = %v, want it to carry the compiler error", err)
	}

	if err := s.DrawFrame(uniformFrame(4, 2, 128, 128, 128)); !errors.Is(err, ErrSinkBroken) {
		t.Errorf("second DrawFrame() error = %v, want ErrSinkBroken", err)
	}
	if err := s.Clear(); !errors.Is(err, ErrSinkBroken) {
		t.Errorf("Clear() error = %v, want ErrSinkBroken", err)
	}
	if _, err := s.Snapshot(); !errors.Is(err, ErrSinkBroken) {
		t.Errorf("Snapshot() error = %v, want ErrSinkBroken", err)
	}
}

func TestCompiledKernelsReachDevice(t *testing.T) {
	var compiled []string
	dev := spirvDevice{software.New()}
	s, err := NewFrameSink(dev, WithStripeWorkaround(true), WithShaderCompiler(func(src string) ([]uint32, error) {
		compiled = append(compiled, src)
		return []uint32{0x07230203}, nil
	}))
	if err != nil {
		t.Fatalf("NewFrameSink() error = %v", err)
	}
	defer s.Close()

	for i := 0; i < 2; i++ {
		if err := s.DrawFrame(uniformFrame(4, 2, 128, 128, 128)); err != nil {
			t.Fatalf("DrawFrame() error = %v", err)
		}
	}
	if len(compiled) != 2 {
		t.Errorf("compiled %d kernels, want 2 (convert and unpack, once each)", len(compiled))
	}
}

func TestUnpackProgramOnlyWithWorkaround(t *testing.T) {
	for _, stripe := range []bool{false, true} {
		s := newTestSink(t, software.New(), WithStripeWorkaround(stripe))
		if err := s.DrawFrame(uniformFrame(4, 2, 128, 128, 128)); err != nil {
			t.Fatalf("DrawFrame() error = %v", err)
		}
		want := 1
		if stripe {
			want = 2
		}
		if got := s.programs.Len(); got != want {
			t.Errorf("stripe=%v: programs = %d, want %d", stripe, got, want)
		}
	}
}

func TestStripeWorkaroundProbe(t *testing.T) {
	slow := software.New(software.WithSlowSingleChannelUpload(true))
	if s := newTestSink(t, slow); !s.StripeWorkaround() {
		t.Error("StripeWorkaround() = false on a slow-upload device, want true")
	}
	if s := newTestSink(t, slow, WithStripeWorkaround(false)); s.StripeWorkaround() {
		t.Error("WithStripeWorkaround(false) did not override the probe")
	}
	if s := newTestSink(t, software.New()); s.StripeWorkaround() {
		t.Error("StripeWorkaround() = true on a regular device, want false")
	}
}

func TestIndependentSinks(t *testing.T) {
	a := newTestSink(t, software.New(), WithStripeWorkaround(true))
	b := newTestSink(t, software.New(), WithStripeWorkaround(false))
	if a.ID() == b.ID() {
		t.Error("two sinks share an ID")
	}
	if err := a.DrawFrame(uniformFrame(8, 4, 128, 128, 128)); err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}
	if err := b.DrawFrame(uniformFrame(4, 2, 128, 128, 128)); err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}
	if w, _ := a.Size(); w != 8 {
		t.Errorf("sink a width = %d, want 8", w)
	}
	if a.masks.Generated() == 0 || b.masks.Generated() != 0 {
		t.Errorf("masks generated a=%d b=%d, want a>0 b=0", a.masks.Generated(), b.masks.Generated())
	}
}

func TestCloseReleasesResources(t *testing.T) {
	dev := software.New()
	s, err := NewFrameSink(dev, WithStripeWorkaround(true))
	if err != nil {
		t.Fatalf("NewFrameSink() error = %v", err)
	}
	if err := s.DrawFrame(uniformFrame(8, 4, 128, 128, 128)); err != nil {
		t.Fatalf("DrawFrame() error = %v", err)
	}
	if dev.ResourceCount() == 0 {
		t.Fatal("ResourceCount() = 0 after drawing")
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := dev.ResourceCount(); got != 0 {
		t.Errorf("ResourceCount() = %d after Close, want 0", got)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := s.DrawFrame(uniformFrame(8, 4, 128, 128, 128)); !errors.Is(err, ErrSinkClosed) {
		t.Errorf("DrawFrame() after Close error = %v, want ErrSinkClosed", err)
	}
}

func BenchmarkDrawFrame(b *testing.B) {
	for _, stripe := range []bool{false, true} {
		name := "direct"
		if stripe {
			name = "stripe"
		}
		b.Run(name, func(b *testing.B) {
			s, err := NewFrameSink(software.New(), WithStripeWorkaround(stripe))
			if err != nil {
				b.Fatal(err)
			}
			defer s.Close()
			f := patternFrame(320, 180, 0, 0)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := s.DrawFrame(f); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
