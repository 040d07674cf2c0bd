package nona

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/framewright/cylproj/internal/projection"
)

// ProjectScript renders the nona project describing one frame's remap: a
// rectilinear (f0) source image onto a cylindrical (f1) panorama of the
// same horizontal field of view.
func ProjectScript(framePath string, geo projection.Geometry) string {
	hfov := formatHFOV(geo.HFOV)

	var b strings.Builder
	fmt.Fprintf(&b, "p f1 w%d h%d v%s E0 R0 n\"PNG\"\n", geo.OutputWidth, geo.OutputHeight, hfov)
	b.WriteString("m i0\n\n")
	fmt.Fprintf(&b, "i w%d h%d f0 v%s r0 p0 y0 n\"%s\"\n", geo.SourceWidth, geo.SourceHeight, hfov, framePath)
	return b.String()
}

func formatHFOV(hfov float64) string {
	return strconv.FormatFloat(hfov, 'f', 1, 64)
}
