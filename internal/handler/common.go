package handler

import (
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/storyreel/api/internal/model"
	"github.com/storyreel/api/pkg/response"
)

func unescape(s string) (string, error) {
	return url.PathUnescape(s)
}

// serviceFailure maps a service-layer error onto the response envelope.
func serviceFailure(c *fiber.Ctx, err error) error {
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		return response.ValidationError(c, ve.Message, fiber.Map{"reason": ve.Reason})
	}
	if errors.Is(err, model.ErrNotFound) {
		return response.NotFound(c, "Not found")
	}
	return backendFailure(c, err)
}
