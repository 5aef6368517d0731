package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/storyreel/api/internal/model"
	"github.com/storyreel/api/internal/service"
	"github.com/storyreel/api/pkg/response"
)

type VoiceoverHandler struct {
	service   *service.VoiceoverService
	validator *validator.Validate
}

func NewVoiceoverHandler(svc *service.VoiceoverService, v *validator.Validate) *VoiceoverHandler {
	return &VoiceoverHandler{
		service:   svc,
		validator: v,
	}
}

// Generate handles POST /voiceover/generate.
func (h *VoiceoverHandler) Generate(c *fiber.Ctx) error {
	var req model.VoiceoverRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Text is required", fiber.Map{"reason": model.ReasonMissingText})
	}

	result, err := h.service.Generate(c.Context(), req.Text, req.SpeakerID)
	if err != nil {
		return serviceFailure(c, err)
	}

	return response.OK(c, result)
}
