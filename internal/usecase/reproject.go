package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/framewright/cylproj/internal/domain/port"
	"github.com/framewright/cylproj/internal/infra/metrics"
	"github.com/framewright/cylproj/internal/projection"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Reprojector runs the local-file reprojection pipeline: probe the source,
// derive the cylindrical geometry, extract high-bit-depth frames, warp each
// frame, and encode the result. It owns the layout inside workDir but never
// removes workDir itself; cleanup policy belongs to the caller because a
// failed run must leave intermediates in place for inspection.
type Reprojector struct {
	prober    port.Prober
	extractor port.FrameExtractor
	warper    port.Warper
	encoder   port.Encoder
	logger    *zap.Logger
}

func NewReprojector(
	prober port.Prober,
	extractor port.FrameExtractor,
	warper port.Warper,
	encoder port.Encoder,
	logger *zap.Logger,
) *Reprojector {
	return &Reprojector{
		prober:    prober,
		extractor: extractor,
		warper:    warper,
		encoder:   encoder,
		logger:    logger,
	}
}

type ReprojectionResult struct {
	Geometry   projection.Geometry
	FrameRate  string
	Duration   float64
	FrameCount int
}

func (r *Reprojector) Run(ctx context.Context, focalLength float64, inputPath, outputPath, workDir string) (*ReprojectionResult, error) {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "Reprojector.Run")
	defer span.End()

	if err := projection.ValidateFocalLength(focalLength); err != nil {
		return nil, err
	}
	if err := projection.ValidateOutputName(outputPath); err != nil {
		return nil, err
	}

	// Probe
	probeStart := time.Now()
	ctx2, spanProbe := tracer.Start(ctx, "probe")
	info, err := r.prober.Probe(ctx2, inputPath)
	spanProbe.End()
	if err != nil {
		return nil, fmt.Errorf("probe: %w", err)
	}
	metrics.StageDuration.WithLabelValues("probe").Observe(time.Since(probeStart).Seconds())

	geo, err := projection.Plan(focalLength, info.Width, info.Height)
	if err != nil {
		return nil, fmt.Errorf("plan geometry: %w", err)
	}
	span.SetAttributes(
		attribute.Float64("reproject.hfov", geo.HFOV),
		attribute.Int("reproject.output_height", geo.OutputHeight),
	)

	log := r.logger.With(zap.String("input", inputPath))
	log.Info("reprojection planned",
		zap.Float64("focal_length", focalLength),
		zap.Float64("hfov", geo.HFOV),
		zap.Int("source_width", geo.SourceWidth),
		zap.Int("source_height", geo.SourceHeight),
		zap.Int("output_height", geo.OutputHeight),
		zap.String("frame_rate", info.FrameRate),
	)

	// Extract frames
	exStart := time.Now()
	ctx3, spanEx := tracer.Start(ctx, "extract_frames")
	framesDir := filepath.Join(workDir, "frames")
	if err := os.MkdirAll(framesDir, 0755); err != nil {
		spanEx.End()
		return nil, fmt.Errorf("create frames dir: %w", err)
	}
	frames, err := r.extractor.ExtractFrames(ctx3, inputPath, framesDir)
	spanEx.End()
	if err != nil {
		return nil, fmt.Errorf("extract frames: %w", err)
	}
	metrics.StageDuration.WithLabelValues("extract").Observe(time.Since(exStart).Seconds())

	// Warp frames
	warpStart := time.Now()
	ctx4, spanWarp := tracer.Start(ctx, "warp_frames")
	warpedDir := filepath.Join(workDir, "warped")
	if err := os.MkdirAll(warpedDir, 0755); err != nil {
		spanWarp.End()
		return nil, fmt.Errorf("create warped dir: %w", err)
	}
	warped, err := r.warper.WarpFrames(ctx4, frames, warpedDir, geo)
	spanWarp.End()
	if err != nil {
		return nil, fmt.Errorf("warp frames: %w", err)
	}
	metrics.StageDuration.WithLabelValues("warp").Observe(time.Since(warpStart).Seconds())
	metrics.FramesWarpedTotal.Add(float64(len(warped)))

	// Encode
	encStart := time.Now()
	ctx5, spanEnc := tracer.Start(ctx, "encode")
	err = r.encoder.Encode(ctx5, warpedDir, info.FrameRate, outputPath)
	spanEnc.End()
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	metrics.StageDuration.WithLabelValues("encode").Observe(time.Since(encStart).Seconds())

	log.Info("reprojection finished",
		zap.Int("frame_count", len(warped)),
		zap.String("output", outputPath),
	)

	return &ReprojectionResult{
		Geometry:   geo,
		FrameRate:  info.FrameRate,
		Duration:   info.Duration,
		FrameCount: len(warped),
	}, nil
}
