package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/storyreel/api/internal/model"
	"github.com/storyreel/api/internal/service"
	"github.com/storyreel/api/pkg/response"
)

type UploadHandler struct {
	service *service.UploadService
}

func NewUploadHandler(svc *service.UploadService) *UploadHandler {
	return &UploadHandler{service: svc}
}

// Audio handles POST /upload/audio — multipart upload persisted locally.
func (h *UploadHandler) Audio(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return response.ValidationError(c, "File is required", fiber.Map{"reason": model.ReasonMissingFile})
	}

	result, err := h.service.IngestAudio(c.Context(), file)
	if err != nil {
		return serviceFailure(c, err)
	}

	return response.OK(c, result)
}

// Video handles POST /video/upload — multipart upload delegated to the
// external blob store.
func (h *UploadHandler) Video(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return response.ValidationError(c, "File is required", fiber.Map{"reason": model.ReasonMissingFile})
	}

	result, err := h.service.IngestVideo(c.Context(), file)
	if err != nil {
		return serviceFailure(c, err)
	}

	return response.OK(c, result)
}
