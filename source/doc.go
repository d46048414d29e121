// Package source produces 4:2:0 frames for a [yuv.FrameSink].
//
// Sources are [video.Reader] values from github.com/pion/mediadevices, so
// any pion transform can sit between a source and the sink:
//
//	bars, _ := source.NewColorBars(640, 360)
//	frames := source.NewFrames(bars.Reader())
//	for {
//	    f, release, err := frames.Next()
//	    if err != nil {
//	        break
//	    }
//	    sink.DrawFrame(f)
//	    release()
//	}
//
// [NewI420Reader] decodes a raw planar I420 stream (the layout written by
// ffmpeg -pix_fmt yuv420p -f rawvideo) with pion's frame decoder.
package source
