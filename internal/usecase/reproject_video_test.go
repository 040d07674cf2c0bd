package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/framewright/cylproj/internal/domain/entity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRepo struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*entity.Job
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{jobs: make(map[uuid.UUID]*entity.Job)}
}

func (r *fakeRepo) Create(ctx context.Context, job *entity.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *job
	r.jobs[job.ID] = &copied
	return nil
}

func (r *fakeRepo) Update(ctx context.Context, job *entity.Job) error {
	return r.Create(ctx, job)
}

func (r *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, errors.New("not found")
	}
	copied := *job
	return &copied, nil
}

type fakeStorage struct {
	downloadErr error
	uploadErr   error
	uploadedKey string
}

func (s *fakeStorage) DownloadVideo(ctx context.Context, objectKey, destPath string) error {
	if s.downloadErr != nil {
		return s.downloadErr
	}
	return os.WriteFile(destPath, []byte("video"), 0644)
}

func (s *fakeStorage) UploadRender(ctx context.Context, objectKey string, reader io.Reader, size int64) error {
	if s.uploadErr != nil {
		return s.uploadErr
	}
	s.uploadedKey = objectKey
	return nil
}

type fakeStatusPublisher struct {
	statuses []entity.ReprojectionStatusMessage
}

func (p *fakeStatusPublisher) PublishStatus(ctx context.Context, msg []byte) error {
	var status entity.ReprojectionStatusMessage
	if err := json.Unmarshal(msg, &status); err != nil {
		return err
	}
	p.statuses = append(p.statuses, status)
	return nil
}

type fakeDLQ struct {
	messages []string
	reasons  []string
}

func (d *fakeDLQ) PublishToDLQ(ctx context.Context, msg []byte, reason string) error {
	d.messages = append(d.messages, string(msg))
	d.reasons = append(d.reasons, reason)
	return nil
}

type fakeNotifier struct {
	emails []string
}

func (n *fakeNotifier) NotifyFailure(ctx context.Context, userEmail, jobID, videoKey, errorMsg string) error {
	n.emails = append(n.emails, userEmail)
	return nil
}

type useCaseFixture struct {
	uc       *ReprojectVideoUseCase
	repo     *fakeRepo
	storage  *fakeStorage
	statuses *fakeStatusPublisher
	dlq      *fakeDLQ
	notifier *fakeNotifier
}

func newUseCaseFixture(t *testing.T, storage *fakeStorage) *useCaseFixture {
	t.Helper()
	repo := newFakeRepo()
	statuses := &fakeStatusPublisher{}
	dlq := &fakeDLQ{}
	notifier := &fakeNotifier{}

	reprojector := newTestReprojector(
		hdProber(),
		&fakeExtractor{frames: []string{"frame_000001.png", "frame_000002.png"}},
		&fakeWarper{},
		&fakeEncoder{},
	)

	uc := NewReprojectVideoUseCase(
		repo, storage, reprojector,
		statuses, dlq, notifier,
		zap.NewNop(),
		ReprojectVideoConfig{TempDir: t.TempDir(), MaxRetries: 3},
	)
	return &useCaseFixture{uc: uc, repo: repo, storage: storage, statuses: statuses, dlq: dlq, notifier: notifier}
}

func requestBody(t *testing.T, msg entity.ReprojectionRequestMessage) []byte {
	t.Helper()
	body, err := json.Marshal(msg)
	require.NoError(t, err)
	return body
}

func TestExecuteCompletesJob(t *testing.T) {
	fx := newUseCaseFixture(t, &fakeStorage{})
	jobID := uuid.New()

	err := fx.uc.Execute(context.Background(), requestBody(t, entity.ReprojectionRequestMessage{
		JobID:       jobID,
		UserID:      "alice",
		VideoKey:    "alice/clip.mp4",
		FocalLength: 50,
		FileSize:    1024,
	}))
	require.NoError(t, err)

	job, err := fx.repo.FindByID(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusCompleted, job.Status)
	assert.Equal(t, 2, job.FrameCount)
	assert.Equal(t, 39.6, job.HFOV)
	assert.Equal(t, 1038, job.OutputHeight)
	assert.Equal(t, "alice/render_"+jobID.String()+".mp4", job.RenderKey)
	assert.Equal(t, job.RenderKey, fx.storage.uploadedKey)

	require.Len(t, fx.statuses.statuses, 1)
	assert.Equal(t, entity.JobStatusCompleted, fx.statuses.statuses[0].Status)
	assert.Empty(t, fx.dlq.messages)
}

func TestExecuteMalformedMessageGoesToDLQ(t *testing.T) {
	fx := newUseCaseFixture(t, &fakeStorage{})

	err := fx.uc.Execute(context.Background(), []byte(`{not json`))
	require.NoError(t, err, "malformed messages are dead-lettered, not retried")

	require.Len(t, fx.dlq.messages, 1)
	assert.Equal(t, `{not json`, fx.dlq.messages[0])
	assert.Contains(t, fx.dlq.reasons[0], "unmarshal_error")
}

func TestExecuteInvalidFocalLengthIsPermanent(t *testing.T) {
	fx := newUseCaseFixture(t, &fakeStorage{})
	jobID := uuid.New()

	err := fx.uc.Execute(context.Background(), requestBody(t, entity.ReprojectionRequestMessage{
		JobID:       jobID,
		UserID:      "bob",
		VideoKey:    "bob/wide.mp4",
		FocalLength: 24,
		UserEmail:   "bob@example.com",
	}))
	require.NoError(t, err, "permanent failures must not be requeued")

	job, ferr := fx.repo.FindByID(context.Background(), jobID)
	require.NoError(t, ferr)
	assert.Equal(t, entity.JobStatusFailed, job.Status)

	assert.Len(t, fx.dlq.messages, 1)
	assert.Equal(t, []string{"bob@example.com"}, fx.notifier.emails)
}

func TestExecuteDownloadFailureIsRetryable(t *testing.T) {
	fx := newUseCaseFixture(t, &fakeStorage{downloadErr: errors.New("connection refused")})
	jobID := uuid.New()

	err := fx.uc.Execute(context.Background(), requestBody(t, entity.ReprojectionRequestMessage{
		JobID:       jobID,
		UserID:      "carol",
		VideoKey:    "carol/clip.mp4",
		FocalLength: 50,
	}))
	require.Error(t, err, "retryable failures bubble up so the consumer requeues")

	job, ferr := fx.repo.FindByID(context.Background(), jobID)
	require.NoError(t, ferr)
	assert.Equal(t, entity.JobStatusFailed, job.Status)
	assert.Equal(t, 1, job.Attempt)

	assert.Empty(t, fx.dlq.messages, "still retryable, must not dead-letter yet")
	require.Len(t, fx.statuses.statuses, 1)
	assert.Equal(t, entity.JobStatusFailed, fx.statuses.statuses[0].Status)
}

func TestExecuteExhaustedRetriesDeadLetters(t *testing.T) {
	fx := newUseCaseFixture(t, &fakeStorage{})
	jobID := uuid.New()

	job := entity.NewJob("dave", "dave/clip.mp4", 50, 0, 3)
	job.ID = jobID
	job.Attempt = 3
	require.NoError(t, fx.repo.Create(context.Background(), job))

	err := fx.uc.Execute(context.Background(), requestBody(t, entity.ReprojectionRequestMessage{
		JobID:       jobID,
		UserID:      "dave",
		VideoKey:    "dave/clip.mp4",
		FocalLength: 50,
		UserEmail:   "dave@example.com",
	}))
	require.NoError(t, err)

	assert.Len(t, fx.dlq.messages, 1)
	assert.Contains(t, fx.dlq.reasons[0], "max retries")
	assert.Equal(t, []string{"dave@example.com"}, fx.notifier.emails)
}
