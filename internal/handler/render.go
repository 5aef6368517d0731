package handler

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/storyreel/api/internal/service"
	"github.com/storyreel/api/pkg/response"
)

type RenderHandler struct {
	service *service.RenderService
}

func NewRenderHandler(svc *service.RenderService) *RenderHandler {
	return &RenderHandler{service: svc}
}

// Status handles GET /render/:jobId. It always answers 200 with a job view:
// backend failures are absorbed by the resolver's degraded mode, so the
// polling client never sees a transport error.
func (h *RenderHandler) Status(c *fiber.Ctx) error {
	jobID, err := decodeParam(c, "jobId")
	if err != nil {
		return response.ValidationError(c, "Invalid job id encoding", nil)
	}

	job, err := h.service.Resolve(c.Context(), jobID)
	if err != nil {
		log.Printf("Failed to resolve status for job %s: %v", jobID, err)
		return response.ServiceError(c, "Internal server error")
	}

	return response.OK(c, job)
}
