package handler

import (
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/storyreel/api/internal/client"
	"github.com/storyreel/api/internal/media"
	"github.com/storyreel/api/internal/model"
	"github.com/storyreel/api/internal/storage"
	"github.com/storyreel/api/pkg/response"
)

// Uploaded assets carry a timestamped name, so once written they never
// change; serve them with an immutable cache directive.
const immutableCache = "public, max-age=31536000, immutable"

type MediaHandler struct {
	store   *storage.Store
	backend client.RenderBackend
}

func NewMediaHandler(store *storage.Store, backend client.RenderBackend) *MediaHandler {
	return &MediaHandler{
		store:   store,
		backend: backend,
	}
}

// ServeAudio handles GET /audio/:filename — serves a locally stored upload.
func (h *MediaHandler) ServeAudio(c *fiber.Ctx) error {
	filename, err := decodeParam(c, "filename")
	if err != nil {
		return response.ValidationError(c, "Invalid filename encoding", nil)
	}

	f, info, err := h.store.OpenAudio(filename)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return response.NotFound(c, "Audio file not found")
		}
		log.Printf("Failed to open audio %s: %v", filename, err)
		return response.ServiceError(c, "Failed to read audio file")
	}

	c.Set(fiber.HeaderContentType, media.AudioContentType(filename))
	c.Set(fiber.HeaderAcceptRanges, "bytes")
	c.Set(fiber.HeaderCacheControl, immutableCache)
	return c.SendStream(f, int(info.Size()))
}

// ServeMusic handles GET /music/* — serves a bundled music asset by relative
// path. Missing assets are a 404, not a 500; only real read faults are
// internal errors.
func (h *MediaHandler) ServeMusic(c *fiber.Ctx) error {
	relPath, err := decodeParam(c, "*")
	if err != nil {
		return response.ValidationError(c, "Invalid path encoding", nil)
	}

	f, info, err := h.store.OpenMusic(relPath)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return response.NotFound(c, "Music asset not found")
		}
		log.Printf("Failed to open music asset %s: %v", relPath, err)
		return response.ServiceError(c, "Failed to read music asset")
	}

	c.Set(fiber.HeaderContentType, media.AudioContentType(relPath))
	c.Set(fiber.HeaderAcceptRanges, "bytes")
	c.Set(fiber.HeaderCacheControl, immutableCache)
	return c.SendStream(f, int(info.Size()))
}

// ListBackgroundImages handles GET /bg-images — forwards the backend listing.
func (h *MediaHandler) ListBackgroundImages(c *fiber.Ctx) error {
	raw, err := h.backend.ListBackgroundImages(c.Context())
	if err != nil {
		return backendFailure(c, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(raw)
}

// FetchBackgroundImage handles GET /bg-images/:filename — streams a single
// image through without buffering it.
func (h *MediaHandler) FetchBackgroundImage(c *fiber.Ctx) error {
	filename, err := decodeParam(c, "filename")
	if err != nil {
		return response.ValidationError(c, "Invalid filename encoding", nil)
	}

	result, err := h.backend.FetchBackgroundImage(c.Context(), filename)
	if err != nil {
		return backendFailure(c, err)
	}

	contentType := result.ContentType
	if contentType == "" {
		contentType = media.ImageContentType(filename)
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, immutableCache)
	return sendBinary(c, result)
}

// DownloadAudio handles GET /download/audio/:filename — streams a
// backend-hosted audio file as an attachment.
func (h *MediaHandler) DownloadAudio(c *fiber.Ctx) error {
	filename, err := decodeParam(c, "filename")
	if err != nil {
		return response.ValidationError(c, "Invalid filename encoding", nil)
	}

	result, err := h.backend.DownloadAudio(c.Context(), filename)
	if err != nil {
		return backendFailure(c, err)
	}

	contentType := result.ContentType
	if contentType == "" {
		contentType = media.AudioContentType(filename)
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return sendBinary(c, result)
}

func sendBinary(c *fiber.Ctx, result *client.BinaryResult) error {
	if result.ContentLength >= 0 {
		return c.SendStream(result.Body, int(result.ContentLength))
	}
	return c.SendStream(result.Body)
}

// backendFailure maps a backend error onto the response: upstream statuses
// (and their detail messages) pass through, transport failures become a
// generic 500.
func backendFailure(c *fiber.Ctx, err error) error {
	var be *client.BackendError
	if errors.As(err, &be) {
		if be.StatusCode == fiber.StatusNotFound {
			return response.NotFound(c, be.Error())
		}
		if be.StatusCode >= 400 {
			return response.BackendError(c, be.StatusCode, be.Error())
		}
		return response.ServiceError(c, "Render backend unavailable")
	}
	log.Printf("Unexpected backend failure: %v", err)
	return response.ServiceError(c, "Internal server error")
}

// decodeParam returns a route parameter with percent-encoding decoded. A
// malformed encoding is the caller's fault, not an internal error.
func decodeParam(c *fiber.Ctx, name string) (string, error) {
	raw := c.Params(name)
	if raw == "" {
		return "", fmt.Errorf("missing %s", name)
	}
	decoded, err := unescape(raw)
	if err != nil {
		return "", err
	}
	return decoded, nil
}
