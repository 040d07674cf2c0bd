package postgres

import (
	"context"
	"fmt"

	"github.com/framewright/cylproj/internal/domain/entity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

func (r *JobRepository) Create(ctx context.Context, job *entity.Job) error {
	query := `
		INSERT INTO reprojection_jobs (
			id, user_id, video_key, render_key, status, focal_length,
			hfov, source_width, source_height, output_width, output_height,
			frame_count, file_size, attempt, max_attempts,
			error_message, created_at, updated_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`

	_, err := r.pool.Exec(ctx, query,
		job.ID, job.UserID, job.VideoKey, job.RenderKey, string(job.Status),
		job.FocalLength, job.HFOV,
		job.SourceWidth, job.SourceHeight, job.OutputWidth, job.OutputHeight,
		job.FrameCount, job.FileSize, job.Attempt, job.MaxAttempts,
		job.ErrorMessage, job.CreatedAt, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepository) Update(ctx context.Context, job *entity.Job) error {
	query := `
		UPDATE reprojection_jobs SET
			status=$2, render_key=$3, hfov=$4,
			source_width=$5, source_height=$6, output_width=$7, output_height=$8,
			frame_count=$9, attempt=$10, error_message=$11,
			updated_at=$12, completed_at=$13
		WHERE id=$1`

	_, err := r.pool.Exec(ctx, query,
		job.ID, string(job.Status), job.RenderKey, job.HFOV,
		job.SourceWidth, job.SourceHeight, job.OutputWidth, job.OutputHeight,
		job.FrameCount, job.Attempt, job.ErrorMessage,
		job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

func (r *JobRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	query := `
		SELECT id, user_id, video_key, render_key, status, focal_length,
			hfov, source_width, source_height, output_width, output_height,
			frame_count, file_size, attempt, max_attempts,
			error_message, created_at, updated_at, completed_at
		FROM reprojection_jobs WHERE id=$1`

	job := &entity.Job{}
	var status string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.UserID, &job.VideoKey, &job.RenderKey, &status,
		&job.FocalLength, &job.HFOV,
		&job.SourceWidth, &job.SourceHeight, &job.OutputWidth, &job.OutputHeight,
		&job.FrameCount, &job.FileSize, &job.Attempt, &job.MaxAttempts,
		&job.ErrorMessage, &job.CreatedAt, &job.UpdatedAt, &job.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("find job by id: %w", err)
	}
	job.Status = entity.JobStatus(status)
	return job, nil
}
