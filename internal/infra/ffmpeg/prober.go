package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/framewright/cylproj/internal/domain/port"
	"go.uber.org/zap"
)

type Prober struct {
	logger *zap.Logger
}

func NewProber(logger *zap.Logger) *Prober {
	return &Prober{logger: logger}
}

type ffprobeStream struct {
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	FrameRate string `json:"r_frame_rate"`
}

type ffprobeResult struct {
	Streams []ffprobeStream `json:"streams"`
}

func (p *Prober) Probe(ctx context.Context, videoPath string) (*port.VideoInfo, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate",
		"-of", "json",
		videoPath,
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe: %w", err)
	}

	var result ffprobeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if len(result.Streams) == 0 {
		return nil, fmt.Errorf("no video stream in %s", videoPath)
	}

	stream := result.Streams[0]
	if stream.Width <= 0 || stream.Height <= 0 {
		return nil, fmt.Errorf("ffprobe reported invalid dimensions %dx%d", stream.Width, stream.Height)
	}
	if stream.FrameRate == "" || stream.FrameRate == "0/0" {
		return nil, fmt.Errorf("ffprobe reported no frame rate for %s", videoPath)
	}

	duration, err := p.probeDuration(ctx, videoPath)
	if err != nil {
		p.logger.Warn("could not get video duration", zap.Error(err))
	}

	return &port.VideoInfo{
		Width:     stream.Width,
		Height:    stream.Height,
		FrameRate: stream.FrameRate,
		Duration:  duration,
	}, nil
}

func (p *Prober) probeDuration(ctx context.Context, videoPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}

	durationStr := strings.TrimSpace(string(output))
	duration, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration: %w", err)
	}
	return duration, nil
}
