package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/yuv"
)

// progress rewrites a single status line, only when writing to a terminal.
type progress struct {
	w       io.Writer
	enabled bool
	last    time.Time
}

func newProgress(f *os.File) *progress {
	return &progress{w: f, enabled: term.IsTerminal(int(f.Fd()))}
}

func (pr *progress) update(frames uint64, st status) {
	if !pr.enabled || time.Since(pr.last) < 100*time.Millisecond {
		return
	}
	pr.last = time.Now()
	state := "playing"
	if st.Paused {
		state = "paused"
	}
	fmt.Fprintf(pr.w, "\rframe %d  %s  x%.2g ", frames, state, st.Speed)
}

func (pr *progress) done() {
	if pr.enabled && !pr.last.IsZero() {
		fmt.Fprintln(pr.w)
	}
}

type summary struct {
	Frames  uint64
	Elapsed time.Duration
	Stats   yuv.TextureStats
	Stripe  bool
}

func summaryFor(sink *yuv.FrameSink, elapsed time.Duration) summary {
	return summary{
		Frames:  sink.Frames(),
		Elapsed: elapsed,
		Stats:   sink.TextureStats(),
		Stripe:  sink.StripeWorkaround(),
	}
}

// localeTag reads the user's locale from the usual environment variables.
func localeTag() language.Tag {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		v := os.Getenv(key)
		if v == "" || v == "C" || v == "POSIX" {
			continue
		}
		if i := strings.IndexAny(v, ".@"); i >= 0 {
			v = v[:i]
		}
		if tag, err := language.Parse(strings.ReplaceAll(v, "_", "-")); err == nil {
			return tag
		}
	}
	return language.English
}

func printSummary(w io.Writer, s summary) {
	printSummaryIn(w, localeTag(), s)
}

func printSummaryIn(w io.Writer, tag language.Tag, s summary) {
	fps := 0.0
	if secs := s.Elapsed.Seconds(); secs > 0 {
		fps = float64(s.Frames) / secs
	}
	path := "direct"
	if s.Stripe {
		path = "packed"
	}
	p := message.NewPrinter(tag)
	p.Fprintf(w, "%d frames in %.2f s (%.1f fps), %s uploads, %d texture allocations, %d updates\n",
		s.Frames, s.Elapsed.Seconds(), fps, path, s.Stats.Allocations, s.Stats.Updates)
}
