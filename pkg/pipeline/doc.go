// ABOUTME: Package pipeline documentation
// ABOUTME: Describes the decode, tap and render flow
// Package pipeline is the host media pipeline a tap attaches to.
//
// A feeder goroutine decodes the asset into a fixed pool of planar buffers,
// resampling to the device rate when needed. The output's render goroutine
// calls Render, which takes the next ready buffer without blocking, passes
// it to the registered tap and interleaves it into the device buffer.
//
// Example:
//
//	src, _ := decode.Open("song.flac")
//	p := pipeline.New(src, output.NewOto(0), pipeline.Config{})
//	p.RegisterTap(func(buf *audio.Buffer) { /* process in place */ })
//	if err := p.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	<-p.Done()
package pipeline
