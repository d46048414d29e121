package source

import (
	"bytes"
	"errors"
	"image"
	"io"
	"testing"

	"github.com/pion/mediadevices/pkg/io/video"

	"github.com/gogpu/yuv"
)

func TestFramesFromColorBars(t *testing.T) {
	bars, _ := NewColorBars(32, 16)
	frames := NewFrames(bars.Reader())

	f, release, err := frames.Next()
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	if f.Width != 32 || f.Height != 16 {
		t.Errorf("frame size = %dx%d, want 32x16", f.Width, f.Height)
	}
	if f.Crop != (yuv.Crop{Width: 32, Height: 16}) {
		t.Errorf("Crop = %+v, want full frame", f.Crop)
	}
	if err := f.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if frames.Count() != 1 {
		t.Errorf("Count() = %d, want 1", frames.Count())
	}
}

func TestFramesFromI420Stream(t *testing.T) {
	r, _ := NewI420Reader(bytes.NewReader(i420Stream(8, 4, 1, 2, 3)), 8, 4)
	frames := NewFrames(r)
	for {
		f, release, err := frames.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		if f.U.Stride != 4 || f.ChromaHeight() != 2 {
			t.Errorf("chroma stride %d rows %d, want 4 and 2", f.U.Stride, f.ChromaHeight())
		}
		release()
	}
	if frames.Count() != 3 {
		t.Errorf("Count() = %d, want 3", frames.Count())
	}
}

func TestFramesRejectsNonYCbCr(t *testing.T) {
	released := false
	r := video.ReaderFunc(func() (image.Image, func(), error) {
		return image.NewRGBA(image.Rect(0, 0, 2, 2)), func() { released = true }, nil
	})
	if _, _, err := NewFrames(r).Next(); !errors.Is(err, ErrUnsupportedImage) {
		t.Errorf("Next() error = %v, want ErrUnsupportedImage", err)
	}
	if !released {
		t.Error("rejected image was not released")
	}
}

func TestFramesRejects422(t *testing.T) {
	r := video.ReaderFunc(func() (image.Image, func(), error) {
		return image.NewYCbCr(image.Rect(0, 0, 4, 4), image.YCbCrSubsampleRatio422), nil, nil
	})
	if _, _, err := NewFrames(r).Next(); !errors.Is(err, yuv.ErrInvalidFrameGeometry) {
		t.Errorf("Next() error = %v, want ErrInvalidFrameGeometry", err)
	}
}
