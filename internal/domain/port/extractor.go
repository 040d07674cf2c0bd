package port

import "context"

type FrameExtractor interface {
	// ExtractFrames decodes every frame of the video into numbered
	// high-bit-depth images under outputDir and returns their paths in
	// frame order.
	ExtractFrames(ctx context.Context, videoPath string, outputDir string) ([]string, error)
}
