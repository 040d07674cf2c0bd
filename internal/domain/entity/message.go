package entity

import "github.com/google/uuid"

// ReprojectionRequestMessage is the inbound message from the reprojection.jobs queue.
type ReprojectionRequestMessage struct {
	JobID       uuid.UUID `json:"job_id"`
	UserID      string    `json:"user_id"`
	VideoKey    string    `json:"video_key"`
	FocalLength float64   `json:"focal_length"`
	FileSize    int64     `json:"file_size"`
	UserEmail   string    `json:"user_email"`
}

// ReprojectionStatusMessage is the outbound message published to the reprojection.status queue.
type ReprojectionStatusMessage struct {
	JobID        uuid.UUID `json:"job_id"`
	UserID       string    `json:"user_id"`
	Status       JobStatus `json:"status"`
	VideoKey     string    `json:"video_key"`
	RenderKey    string    `json:"render_key,omitempty"`
	HFOV         float64   `json:"hfov,omitempty"`
	OutputWidth  int       `json:"output_width,omitempty"`
	OutputHeight int       `json:"output_height,omitempty"`
	FrameCount   int       `json:"frame_count,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Attempt      int       `json:"attempt"`
	MaxAttempts  int       `json:"max_attempts"`
}
