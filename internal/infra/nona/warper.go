// Package nona drives Hugin's nona remapper to reproject extracted frames
// from rectilinear to cylindrical projection.
package nona

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/framewright/cylproj/internal/projection"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

type Warper struct {
	concurrency int
	logger      *zap.Logger
	run         runFunc
}

func NewWarper(concurrency int, logger *zap.Logger) *Warper {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Warper{concurrency: concurrency, logger: logger, run: runCommand}
}

func (w *Warper) WarpFrames(ctx context.Context, framePaths []string, outputDir string, geo projection.Geometry) ([]string, error) {
	warped := make([]string, len(framePaths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for i, framePath := range framePaths {
		i, framePath := i, framePath
		g.Go(func() error {
			out, err := w.warpFrame(gctx, framePath, outputDir, geo)
			if err != nil {
				return fmt.Errorf("warp %s: %w", filepath.Base(framePath), err)
			}
			warped[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	w.logger.Info("frames reprojected",
		zap.Int("count", len(warped)),
		zap.Float64("hfov", geo.HFOV),
		zap.Int("output_height", geo.OutputHeight),
	)
	return warped, nil
}

// warpFrame reprojects a single frame. The source frame is removed only
// once the warped output is in place; on any failure it stays on disk so
// the frame can be inspected or retried.
func (w *Warper) warpFrame(ctx context.Context, framePath, outputDir string, geo projection.Geometry) (string, error) {
	scriptPath := framePath + ".pto"
	script := ProjectScript(framePath, geo)
	if err := os.WriteFile(scriptPath, []byte(script), 0644); err != nil {
		return "", fmt.Errorf("write project script: %w", err)
	}
	defer os.Remove(scriptPath)

	base := strings.TrimSuffix(filepath.Base(framePath), filepath.Ext(framePath))
	outPrefix := filepath.Join(outputDir, base)

	output, err := w.run(ctx, "nona", "-o", outPrefix, "-m", "PNG", scriptPath)
	if err != nil {
		return "", fmt.Errorf("nona: %w, output: %s", err, string(output))
	}

	// nona numbers its outputs per source image; with a single image the
	// result is <prefix>0000.png.
	outPath := outPrefix + ".png"
	if err := os.Rename(outPrefix+"0000.png", outPath); err != nil {
		return "", fmt.Errorf("collect warped frame: %w", err)
	}

	if err := os.Remove(framePath); err != nil {
		return "", fmt.Errorf("remove source frame: %w", err)
	}
	return outPath, nil
}
