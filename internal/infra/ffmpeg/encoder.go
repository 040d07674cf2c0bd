package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"
)

// Encoder muxes a numbered frame sequence into MP4 with a fixed libx264
// profile. The profile is deliberately not configurable; renders from
// different machines must be comparable.
type Encoder struct {
	logger *zap.Logger
}

func NewEncoder(logger *zap.Logger) *Encoder {
	return &Encoder{logger: logger}
}

func (e *Encoder) Encode(ctx context.Context, framesDir string, frameRate string, outputPath string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-framerate", frameRate,
		"-start_number", "1",
		"-i", filepath.Join(framesDir, framePattern),
		"-c:v", "libx264",
		"-preset", "slow",
		"-crf", "16",
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		"-y",
		outputPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg encode: %w, output: %s", err, string(output))
	}

	e.logger.Info("video encoded",
		zap.String("output", outputPath),
		zap.String("frame_rate", frameRate),
	)
	return nil
}
