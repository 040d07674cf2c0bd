package entity

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

type Job struct {
	ID           uuid.UUID
	UserID       string
	VideoKey     string
	RenderKey    string
	Status       JobStatus
	FocalLength  float64
	HFOV         float64
	SourceWidth  int
	SourceHeight int
	OutputWidth  int
	OutputHeight int
	FrameCount   int
	FileSize     int64
	Attempt      int
	MaxAttempts  int
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
}

func NewJob(userID, videoKey string, focalLength float64, fileSize int64, maxAttempts int) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:          uuid.New(),
		UserID:      userID,
		VideoKey:    videoKey,
		FocalLength: focalLength,
		FileSize:    fileSize,
		Status:      JobStatusPending,
		Attempt:     0,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (j *Job) MarkProcessing() {
	j.Status = JobStatusProcessing
	j.Attempt++
	j.UpdatedAt = time.Now().UTC()
}

// SetGeometry records the reprojection parameters derived during the probe
// stage so they survive on the job record.
func (j *Job) SetGeometry(srcWidth, srcHeight, outWidth, outHeight int, hfov float64) {
	j.SourceWidth = srcWidth
	j.SourceHeight = srcHeight
	j.OutputWidth = outWidth
	j.OutputHeight = outHeight
	j.HFOV = hfov
	j.UpdatedAt = time.Now().UTC()
}

func (j *Job) MarkCompleted(renderKey string, frameCount int) {
	now := time.Now().UTC()
	j.Status = JobStatusCompleted
	j.RenderKey = renderKey
	j.FrameCount = frameCount
	j.UpdatedAt = now
	j.CompletedAt = &now
}

func (j *Job) MarkFailed(errMsg string) {
	j.Status = JobStatusFailed
	j.ErrorMessage = errMsg
	j.UpdatedAt = time.Now().UTC()
}

func (j *Job) CanRetry() bool {
	return j.Attempt < j.MaxAttempts
}
