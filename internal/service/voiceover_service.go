package service

import (
	"context"
	"strings"

	"github.com/storyreel/api/internal/client"
	"github.com/storyreel/api/internal/model"
)

// VoiceoverService proxies voiceover generation to the render backend.
type VoiceoverService struct {
	backend client.RenderBackend
}

func NewVoiceoverService(backend client.RenderBackend) *VoiceoverService {
	return &VoiceoverService{backend: backend}
}

// Generate requests voiceover synthesis. Empty or whitespace-only text is
// rejected before any network call is made.
func (s *VoiceoverService) Generate(ctx context.Context, text, speakerID string) (*model.VoiceoverResponse, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &model.ValidationError{
			Reason:  model.ReasonMissingText,
			Message: "Text is required",
		}
	}

	if speakerID == "" {
		speakerID = model.DefaultSpeakerID
	}

	result, err := s.backend.GenerateVoiceover(ctx, &client.GenerateVoiceoverRequest{
		Text:      text,
		SpeakerID: speakerID,
	})
	if err != nil {
		return nil, err
	}

	return &model.VoiceoverResponse{
		Message:  "Voiceover generated",
		Filename: result.Filename,
		AudioURL: result.AudioURL,
		Duration: result.Duration,
	}, nil
}
