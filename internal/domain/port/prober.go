package port

import "context"

// VideoInfo describes the first video stream of a source file. FrameRate is
// kept as the probing tool's rational string (e.g. "30000/1001") so the
// encode stage can reproduce the source timing exactly.
type VideoInfo struct {
	Width     int
	Height    int
	FrameRate string
	Duration  float64
}

type Prober interface {
	Probe(ctx context.Context, videoPath string) (*VideoInfo, error)
}
