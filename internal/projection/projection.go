// Package projection derives cylindrical reprojection parameters from
// 35mm-equivalent lens metadata and source video geometry.
package projection

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
)

const (
	// MinFocalLength is the shortest 35mm-equivalent focal length the
	// pipeline accepts. Wider lenses push the cylindrical warp past the
	// point where the remap stays usable.
	MinFocalLength = 34.0

	// sensorWidth is the full-frame sensor width in millimeters used for
	// the 35mm-equivalent field of view computation.
	sensorWidth = 36.0

	// outputAspect is the target width:height ratio of the rendered video.
	outputAspect = 1.85

	// OutputExt is the only container extension the encoder profile emits.
	OutputExt = ".mp4"
)

// HorizontalFOV returns the horizontal field of view in degrees for a
// 35mm-equivalent focal length, rounded to one decimal place.
func HorizontalFOV(focalLength float64) float64 {
	hfov := 2 * math.Atan(sensorWidth/(2*focalLength)) * 180 / math.Pi
	return math.Round(hfov*10) / 10
}

// OutputHeight returns the rendered frame height for a given source width:
// round(width/1.85), decremented to the next even value when odd. Encoders
// with 4:2:0 subsampling require even dimensions.
func OutputHeight(width int) int {
	h := int(math.Round(float64(width) / outputAspect))
	if h%2 != 0 {
		h--
	}
	return h
}

// Geometry holds everything the warp and encode stages need to know about
// one video's reprojection.
type Geometry struct {
	SourceWidth  int
	SourceHeight int
	OutputWidth  int
	OutputHeight int
	HFOV         float64
}

// Plan computes the reprojection geometry for a source video. The output
// keeps the source width; height follows OutputHeight.
func Plan(focalLength float64, srcWidth, srcHeight int) (Geometry, error) {
	if err := ValidateFocalLength(focalLength); err != nil {
		return Geometry{}, err
	}
	if srcWidth <= 0 || srcHeight <= 0 {
		return Geometry{}, fmt.Errorf("invalid source dimensions %dx%d", srcWidth, srcHeight)
	}
	return Geometry{
		SourceWidth:  srcWidth,
		SourceHeight: srcHeight,
		OutputWidth:  srcWidth,
		OutputHeight: OutputHeight(srcWidth),
		HFOV:         HorizontalFOV(focalLength),
	}, nil
}

// ValidateFocalLength rejects focal lengths below MinFocalLength.
func ValidateFocalLength(focalLength float64) error {
	if focalLength < MinFocalLength {
		return fmt.Errorf("focal length %g is below the minimum of %g", focalLength, MinFocalLength)
	}
	return nil
}

// ValidateOutputName rejects output filenames that do not carry the
// required container extension.
func ValidateOutputName(name string) error {
	if !strings.EqualFold(filepath.Ext(name), OutputExt) {
		return fmt.Errorf("output filename %q must end in %s", name, OutputExt)
	}
	return nil
}
