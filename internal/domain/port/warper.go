package port

import (
	"context"

	"github.com/framewright/cylproj/internal/projection"
)

type Warper interface {
	// WarpFrames reprojects every input frame into outputDir and returns
	// the warped frame paths in frame order. Each input frame is removed
	// only after its warped counterpart exists; a failed frame is left in
	// place for inspection.
	WarpFrames(ctx context.Context, framePaths []string, outputDir string, geo projection.Geometry) ([]string, error)
}
