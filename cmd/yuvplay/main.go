// Command yuvplay plays planar YUV 4:2:0 video through a frame sink.
//
// Without -input it plays synthetic color bars:
//
//	yuvplay -frames 90 -snapshot bars.png
//	ffmpeg -i in.mp4 -pix_fmt yuv420p -s 640x360 -f rawvideo - | yuvplay -input - -window
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/pion/mediadevices/pkg/io/video"

	"github.com/gogpu/yuv"
	"github.com/gogpu/yuv/backend"
	"github.com/gogpu/yuv/gpucore"
	"github.com/gogpu/yuv/source"
)

const defaultFPS = 30

type config struct {
	width, height int
	input         string
	frames        int
	fps           float64
	backend       string
	stripe        string
	snapshot      string
	crop          image.Rectangle
	window        bool
	verbose       bool
}

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "yuvplay:", err)
		os.Exit(2)
	}
	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "yuvplay:", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (config, error) {
	var cfg config
	var crop string
	fs := flag.NewFlagSet("yuvplay", flag.ContinueOnError)
	fs.IntVar(&cfg.width, "width", 640, "frame width")
	fs.IntVar(&cfg.height, "height", 360, "frame height")
	fs.StringVar(&cfg.input, "input", "", "raw I420 file, - for stdin (default color bars)")
	fs.IntVar(&cfg.frames, "frames", 0, "stop after N frames, 0 for no limit")
	fs.Float64Var(&cfg.fps, "fps", defaultFPS, "playback rate, 0 to run unpaced")
	fs.StringVar(&cfg.backend, "backend", "", "device backend (default: best available)")
	fs.StringVar(&cfg.stripe, "stripe", "auto", "packed upload path: auto, on or off")
	fs.StringVar(&cfg.snapshot, "snapshot", "", "write the last frame to this PNG file")
	fs.StringVar(&crop, "crop", "", "snapshot and clipboard crop x0,y0,x1,y1")
	fs.BoolVar(&cfg.window, "window", false, "show the output in a window")
	fs.BoolVar(&cfg.verbose, "v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if cfg.width <= 0 || cfg.height <= 0 {
		return cfg, fmt.Errorf("invalid size %dx%d", cfg.width, cfg.height)
	}
	if cfg.fps < 0 {
		return cfg, fmt.Errorf("invalid -fps %v", cfg.fps)
	}
	switch cfg.stripe {
	case "auto", "on", "off":
	default:
		return cfg, fmt.Errorf("invalid -stripe %q, want auto, on or off", cfg.stripe)
	}
	if crop != "" {
		r, err := parseCrop(crop)
		if err != nil {
			return cfg, err
		}
		cfg.crop = r
	}
	return cfg, nil
}

// parseCrop parses "x0,y0,x1,y1" in top-left output coordinates.
func parseCrop(s string) (image.Rectangle, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fmt.Errorf("invalid -crop %q, want x0,y0,x1,y1", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("invalid -crop %q: %w", s, err)
		}
		v[i] = n
	}
	r := image.Rect(v[0], v[1], v[2], v[3])
	if r.Empty() {
		return image.Rectangle{}, fmt.Errorf("invalid -crop %q: empty rectangle", s)
	}
	return r, nil
}

func run(cfg config) error {
	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	yuv.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	device, err := openDevice(cfg.backend)
	if err != nil {
		return err
	}
	defer device.Destroy()

	opts := []yuv.Option{yuv.WithResizeNotifier(func(w, h int) {
		yuv.Logger().Info("yuvplay: output size", "width", w, "height", h)
	})}
	switch cfg.stripe {
	case "on":
		opts = append(opts, yuv.WithStripeWorkaround(true))
	case "off":
		opts = append(opts, yuv.WithStripeWorkaround(false))
	}
	sink, err := yuv.NewFrameSink(device, opts...)
	if err != nil {
		return err
	}
	defer sink.Close()

	in, err := openInput(cfg)
	if err != nil {
		return err
	}
	defer in.Close()

	p := newPlayer(sink, source.NewFrames(in.reader), in.seek, cfg.fps)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	if cfg.window {
		err = runWindow(ctx, cfg, p)
	} else {
		err = runHeadless(ctx, cfg, p, newProgress(os.Stderr))
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if cfg.snapshot != "" && sink.Frames() > 0 {
		if err := writeSnapshot(sink, cfg.snapshot, cfg.crop); err != nil {
			return err
		}
	}
	printSummary(os.Stdout, summaryFor(sink, elapsed))
	return nil
}

func openDevice(name string) (gpucore.Device, error) {
	if name == "" {
		return backend.Default()
	}
	return backend.Get(name)
}

// input is an opened frame source.
type input struct {
	reader video.Reader
	seek   func(index int) error
	close  func() error
}

func (in *input) Close() error {
	if in.close == nil {
		return nil
	}
	return in.close()
}

func openInput(cfg config) (*input, error) {
	switch cfg.input {
	case "":
		bars, err := source.NewColorBars(cfg.width, cfg.height)
		if err != nil {
			return nil, err
		}
		return &input{
			reader: bars.Reader(),
			seek: func(index int) error {
				bars.Seek(index)
				return nil
			},
		}, nil
	case "-":
		r, err := source.NewI420Reader(os.Stdin, cfg.width, cfg.height)
		if err != nil {
			return nil, err
		}
		return &input{reader: r}, nil
	}

	f, err := os.Open(cfg.input)
	if err != nil {
		return nil, err
	}
	r, err := source.NewI420Reader(f, cfg.width, cfg.height)
	if err != nil {
		f.Close()
		return nil, err
	}
	size := int64(source.I420FrameSize(cfg.width, cfg.height))
	return &input{
		reader: r,
		seek: func(index int) error {
			_, err := f.Seek(int64(index)*size, io.SeekStart)
			return err
		},
		close: f.Close,
	}, nil
}

func runHeadless(ctx context.Context, cfg config, p *player, prog *progress) error {
	defer prog.done()
	next := time.Now()
	for cfg.frames == 0 || p.sink.Frames() < uint64(cfg.frames) {
		more, err := p.step()
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		prog.update(p.sink.Frames(), p.status())

		if iv := p.interval(); iv > 0 {
			next = next.Add(time.Duration(iv * float64(time.Second)))
			select {
			case <-time.After(time.Until(next)):
			case <-ctx.Done():
				return nil
			}
		} else if ctx.Err() != nil {
			return nil
		}
	}
	return nil
}

// cropOrSurface returns r, or the whole surface when r is empty.
func cropOrSurface(sink *yuv.FrameSink, r image.Rectangle) image.Rectangle {
	if r.Empty() {
		w, h := sink.Size()
		return image.Rect(0, 0, w, h)
	}
	return r
}

func writeSnapshot(sink *yuv.FrameSink, path string, crop image.Rectangle) error {
	img, err := sink.CropImage(nil, cropOrSurface(sink, crop))
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	yuv.Logger().Info("yuvplay: snapshot written", "path", path, "size", img.Bounds().Size())
	return nil
}
