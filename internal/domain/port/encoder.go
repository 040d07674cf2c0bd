package port

import "context"

type Encoder interface {
	// Encode muxes the numbered frame sequence in framesDir into the
	// output container at the given frame rate using the fixed codec
	// profile.
	Encode(ctx context.Context, framesDir string, frameRate string, outputPath string) error
}
