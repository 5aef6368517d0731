package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/storyreel/api/internal/client"
	"github.com/storyreel/api/internal/model"
)

// stubBackend implements client.RenderBackend with function fields.
type stubBackend struct {
	jobStatus func(ctx context.Context, jobID string) (*model.RenderJob, error)
	generate  func(ctx context.Context, req *client.GenerateVoiceoverRequest) (*client.GenerateVoiceoverResponse, error)
}

func (s *stubBackend) JobStatus(ctx context.Context, jobID string) (*model.RenderJob, error) {
	return s.jobStatus(ctx, jobID)
}

func (s *stubBackend) GenerateVoiceover(ctx context.Context, req *client.GenerateVoiceoverRequest) (*client.GenerateVoiceoverResponse, error) {
	if s.generate != nil {
		return s.generate(ctx, req)
	}
	return nil, &client.BackendError{StatusCode: 503}
}

func (s *stubBackend) ListBackgroundImages(ctx context.Context) (json.RawMessage, error) {
	return nil, &client.BackendError{StatusCode: 503}
}

func (s *stubBackend) FetchBackgroundImage(ctx context.Context, filename string) (*client.BinaryResult, error) {
	return nil, &client.BackendError{StatusCode: 503}
}

func (s *stubBackend) DownloadAudio(ctx context.Context, filename string) (*client.BinaryResult, error) {
	return nil, &client.BackendError{StatusCode: 503}
}

func downBackend() *stubBackend {
	return &stubBackend{
		jobStatus: func(ctx context.Context, jobID string) (*model.RenderJob, error) {
			return nil, &client.BackendError{Err: context.DeadlineExceeded}
		},
	}
}

func TestResolve_PassThrough(t *testing.T) {
	out := "https://cdn.example.com/final.mp3"
	authoritative := &model.RenderJob{
		JobID:              "job-1",
		Status:             model.JobStatusProcessing,
		Progress:           42,
		Message:            "rendering scene 3",
		EstimatedRemaining: 120,
		OutputURL:          &out,
	}

	svc := NewRenderService(&stubBackend{
		jobStatus: func(ctx context.Context, jobID string) (*model.RenderJob, error) {
			return authoritative, nil
		},
	})

	got, err := svc.Resolve(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != authoritative {
		t.Error("expected the backend's view returned unchanged")
	}
}

func TestResolve_SimulatedJobIsTerminal(t *testing.T) {
	svc := NewRenderService(downBackend())

	// Same view on every call, regardless of backend health.
	for i := 0; i < 3; i++ {
		job, err := svc.Resolve(context.Background(), "sim_demo42")
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if job.Status != model.JobStatusCompleted {
			t.Errorf("expected completed, got %s", job.Status)
		}
		if job.Progress != 100 {
			t.Errorf("expected progress 100, got %d", job.Progress)
		}
		if job.OutputURL != nil {
			t.Errorf("simulated job must not have an output URL, got %q", *job.OutputURL)
		}
	}
}

func TestResolve_DegradedInvariants(t *testing.T) {
	svc := NewRenderService(downBackend())

	base := time.Now()
	for _, elapsed := range []time.Duration{0, 5 * time.Second, 20 * time.Second, 60 * time.Second} {
		now := base.Add(elapsed)
		svc.now = func() time.Time { return now }

		job, err := svc.Resolve(context.Background(), "real-job")
		if err != nil {
			t.Fatalf("Resolve failed at %v: %v", elapsed, err)
		}

		if job.Progress < 0 || job.Progress > 100 {
			t.Errorf("progress %d out of range at %v", job.Progress, elapsed)
		}
		completed := job.Status == model.JobStatusCompleted
		if completed != (job.Progress >= 100) {
			t.Errorf("completed=%v but progress=%d at %v", completed, job.Progress, elapsed)
		}
		if (job.OutputURL != nil) != completed {
			t.Errorf("output_url presence must match completion at %v", elapsed)
		}
		if job.EstimatedRemaining < 0 {
			t.Errorf("estimated_remaining %d negative at %v", job.EstimatedRemaining, elapsed)
		}
		want := (100 - job.Progress) * fallbackRemainingFactor
		if job.EstimatedRemaining != want {
			t.Errorf("estimated_remaining = %d, want %d", job.EstimatedRemaining, want)
		}
	}
}

func TestResolve_DegradedProgressMonotonic(t *testing.T) {
	svc := NewRenderService(downBackend())

	base := time.Now()
	prev := -1
	for sec := 0; sec <= 30; sec += 3 {
		now := base.Add(time.Duration(sec) * time.Second)
		svc.now = func() time.Time { return now }

		job, err := svc.Resolve(context.Background(), "real-job")
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if job.Progress < prev {
			t.Errorf("progress decreased between polls: %d → %d", prev, job.Progress)
		}
		prev = job.Progress
	}

	if prev != 100 {
		t.Errorf("expected ramp to reach 100, ended at %d", prev)
	}
}

func TestResolve_DistinctJobsRampIndependently(t *testing.T) {
	svc := NewRenderService(downBackend())

	base := time.Now()
	svc.now = func() time.Time { return base }
	first, _ := svc.Resolve(context.Background(), "job-a")

	svc.now = func() time.Time { return base.Add(10 * time.Second) }
	later, _ := svc.Resolve(context.Background(), "job-b")

	if first.Progress != 0 {
		t.Errorf("job-a should start at 0, got %d", first.Progress)
	}
	if later.Progress != 0 {
		t.Errorf("job-b first observation should start at 0, got %d", later.Progress)
	}
}
