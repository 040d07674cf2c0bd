package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/framewright/cylproj/internal/domain/entity"
	"github.com/framewright/cylproj/internal/domain/port"
	"github.com/framewright/cylproj/internal/infra/metrics"
	"github.com/framewright/cylproj/internal/projection"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ReprojectVideoUseCase wraps the Reprojector for queue-driven operation:
// it moves videos between object storage and the local work directory,
// tracks job state, and reports outcomes.
type ReprojectVideoUseCase struct {
	repo        port.JobRepository
	storage     port.VideoStorage
	reprojector *Reprojector
	publisher   port.StatusPublisher
	dlq         port.DLQPublisher
	notifier    port.FailureNotifier
	logger      *zap.Logger
	tempDir     string
	maxRetry    int
}

type ReprojectVideoConfig struct {
	TempDir    string
	MaxRetries int
}

func NewReprojectVideoUseCase(
	repo port.JobRepository,
	storage port.VideoStorage,
	reprojector *Reprojector,
	publisher port.StatusPublisher,
	dlq port.DLQPublisher,
	notifier port.FailureNotifier,
	logger *zap.Logger,
	cfg ReprojectVideoConfig,
) *ReprojectVideoUseCase {
	return &ReprojectVideoUseCase{
		repo:        repo,
		storage:     storage,
		reprojector: reprojector,
		publisher:   publisher,
		dlq:         dlq,
		notifier:    notifier,
		logger:      logger,
		tempDir:     cfg.TempDir,
		maxRetry:    cfg.MaxRetries,
	}
}

func (uc *ReprojectVideoUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "ReprojectVideoUseCase.Execute")
	defer span.End()

	totalTimer := time.Now()

	var msg entity.ReprojectionRequestMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		return nil
	}

	span.SetAttributes(
		attribute.String("job.id", msg.JobID.String()),
		attribute.String("job.video_key", msg.VideoKey),
		attribute.Float64("job.focal_length", msg.FocalLength),
	)

	log := uc.logger.With(zap.String("job_id", msg.JobID.String()), zap.String("video_key", msg.VideoKey))

	job, err := uc.repo.FindByID(ctx, msg.JobID)
	if err != nil {
		job = entity.NewJob(msg.UserID, msg.VideoKey, msg.FocalLength, msg.FileSize, uc.maxRetry)
		job.ID = msg.JobID
		if err := uc.repo.Create(ctx, job); err != nil {
			log.Error("failed to create job record", zap.Error(err))
			return fmt.Errorf("create job: %w", err)
		}
	}

	// A focal length below the minimum can never succeed; no point retrying.
	if err := projection.ValidateFocalLength(msg.FocalLength); err != nil {
		log.Warn("rejecting job with invalid focal length", zap.Float64("focal_length", msg.FocalLength))
		_ = uc.handlePermanentFailure(ctx, job, msg, rawMsg, err.Error())
		return nil
	}

	if !job.CanRetry() {
		log.Warn("job exhausted retries, sending to DLQ")
		_ = uc.handlePermanentFailure(ctx, job, msg, rawMsg, "max retries exceeded")
		return nil
	}

	job.MarkProcessing()
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to PROCESSING", zap.Error(err))
		return fmt.Errorf("update job: %w", err)
	}

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	if err := uc.reprojectPipeline(ctx, job, msg, rawMsg, log); err != nil {
		return err
	}

	metrics.JobsProcessedTotal.WithLabelValues("completed").Inc()
	metrics.StageDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())

	return nil
}

func (uc *ReprojectVideoUseCase) reprojectPipeline(
	ctx context.Context,
	job *entity.Job,
	msg entity.ReprojectionRequestMessage,
	rawMsg []byte,
	log *zap.Logger,
) error {
	tracer := otel.Tracer("usecase")

	workDir := filepath.Join(uc.tempDir, job.ID.String())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fmt.Errorf("create workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	// Download video from MinIO
	dlStart := time.Now()
	ctx2, spanDl := tracer.Start(ctx, "download_video")
	videoPath := filepath.Join(workDir, "input.mp4")
	if err := uc.storage.DownloadVideo(ctx2, msg.VideoKey, videoPath); err != nil {
		spanDl.End()
		log.Error("failed to download video", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "download_video: "+err.Error(), log)
	}
	spanDl.End()
	metrics.StageDuration.WithLabelValues("download").Observe(time.Since(dlStart).Seconds())

	// Probe, extract, warp, encode
	renderPath := filepath.Join(workDir, "render.mp4")
	result, err := uc.reprojector.Run(ctx, msg.FocalLength, videoPath, renderPath, workDir)
	if err != nil {
		log.Error("reprojection failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "reproject: "+err.Error(), log)
	}
	job.SetGeometry(
		result.Geometry.SourceWidth, result.Geometry.SourceHeight,
		result.Geometry.OutputWidth, result.Geometry.OutputHeight,
		result.Geometry.HFOV,
	)

	// Upload render to MinIO
	upStart := time.Now()
	ctx3, spanUp := tracer.Start(ctx, "upload_render")
	renderKey := fmt.Sprintf("%s/render_%s.mp4", msg.UserID, job.ID.String())
	renderFile, err := os.Open(renderPath)
	if err != nil {
		spanUp.End()
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "open_render: "+err.Error(), log)
	}
	renderStat, _ := renderFile.Stat()
	if err := uc.storage.UploadRender(ctx3, renderKey, renderFile, renderStat.Size()); err != nil {
		renderFile.Close()
		spanUp.End()
		log.Error("render upload failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "upload_render: "+err.Error(), log)
	}
	renderFile.Close()
	spanUp.End()
	metrics.StageDuration.WithLabelValues("upload").Observe(time.Since(upStart).Seconds())

	// Mark completed
	job.MarkCompleted(renderKey, result.FrameCount)
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to COMPLETED", zap.Error(err))
		return fmt.Errorf("update job completed: %w", err)
	}

	uc.publishStatus(ctx, job, log)

	log.Info("job completed successfully",
		zap.Int("frame_count", result.FrameCount),
		zap.Float64("hfov", result.Geometry.HFOV),
		zap.String("render_key", renderKey),
	)

	return nil
}

func (uc *ReprojectVideoUseCase) handleRetryableFailure(
	ctx context.Context,
	job *entity.Job,
	msg entity.ReprojectionRequestMessage,
	rawMsg []byte,
	errMsg string,
	log *zap.Logger,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	if !job.CanRetry() {
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, errMsg)
	}

	metrics.RetryTotal.WithLabelValues(strconv.Itoa(job.Attempt)).Inc()
	uc.publishStatus(ctx, job, log)

	return fmt.Errorf("retryable failure (attempt %d/%d): %s", job.Attempt, job.MaxAttempts, errMsg)
}

func (uc *ReprojectVideoUseCase) handlePermanentFailure(
	ctx context.Context,
	job *entity.Job,
	msg entity.ReprojectionRequestMessage,
	rawMsg []byte,
	errMsg string,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	_ = uc.dlq.PublishToDLQ(ctx, rawMsg, errMsg)

	uc.publishStatus(ctx, job, uc.logger)

	metrics.JobsProcessedTotal.WithLabelValues("dlq").Inc()

	if msg.UserEmail != "" {
		_ = uc.notifier.NotifyFailure(ctx, msg.UserEmail, job.ID.String(), msg.VideoKey, errMsg)
	}

	return nil
}

func (uc *ReprojectVideoUseCase) publishStatus(ctx context.Context, job *entity.Job, log *zap.Logger) {
	statusMsg := entity.ReprojectionStatusMessage{
		JobID:        job.ID,
		UserID:       job.UserID,
		Status:       job.Status,
		VideoKey:     job.VideoKey,
		RenderKey:    job.RenderKey,
		HFOV:         job.HFOV,
		OutputWidth:  job.OutputWidth,
		OutputHeight: job.OutputHeight,
		FrameCount:   job.FrameCount,
		ErrorMessage: job.ErrorMessage,
		Attempt:      job.Attempt,
		MaxAttempts:  job.MaxAttempts,
	}
	data, _ := json.Marshal(statusMsg)
	if err := uc.publisher.PublishStatus(ctx, data); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}
