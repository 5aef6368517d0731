package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storyreel/api/internal/client"
	"github.com/storyreel/api/internal/media"
	"github.com/storyreel/api/internal/model"
	"github.com/storyreel/api/internal/storage"
)

// videoTypes is the allow-list for video uploads. Declared MIME types outside
// it are rejected before any bytes are read.
var videoTypes = map[string]bool{
	"video/mp4":       true,
	"video/mov":       true,
	"video/quicktime": true,
	"video/avi":       true,
	"video/webm":      true,
}

// UploadService validates and persists incoming media files: audio to the
// local store, video to the external blob store.
type UploadService struct {
	store        *storage.Store
	blob         client.BlobStore
	maxAudioSize int64
	maxVideoSize int64
}

func NewUploadService(store *storage.Store, blob client.BlobStore, maxAudioMB, maxVideoMB int64) *UploadService {
	return &UploadService{
		store:        store,
		blob:         blob,
		maxAudioSize: maxAudioMB * 1024 * 1024,
		maxVideoSize: maxVideoMB * 1024 * 1024,
	}
}

// IngestAudio validates an uploaded audio file and persists it locally,
// returning the reference used to build the retrieval URL.
func (s *UploadService) IngestAudio(ctx context.Context, file *multipart.FileHeader) (*model.AudioUploadResponse, error) {
	if file == nil {
		return nil, &model.ValidationError{Reason: model.ReasonMissingFile, Message: "No file provided"}
	}

	declared := file.Header.Get("Content-Type")
	if !strings.HasPrefix(declared, "audio/") {
		return nil, &model.ValidationError{
			Reason:  model.ReasonWrongType,
			Message: fmt.Sprintf("Expected an audio file, got %q", declared),
		}
	}

	if file.Size > s.maxAudioSize {
		return nil, &model.ValidationError{
			Reason:  model.ReasonTooLarge,
			Message: fmt.Sprintf("File exceeds %d MB limit", s.maxAudioSize/(1024*1024)),
		}
	}

	filename := newAssetName(file.Filename)

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	size, err := s.store.SaveAudio(filename, src)
	if err != nil {
		return nil, fmt.Errorf("failed to persist upload: %w", err)
	}

	return &model.AudioUploadResponse{
		Filename:     filename,
		OriginalName: file.Filename,
		Size:         size,
		// Content type derives from the extension, not the declared header.
		ContentType: media.AudioContentType(file.Filename),
		AudioURL:    "/audio/" + filename,
	}, nil
}

// IngestVideo validates an uploaded video file and delegates persistence to
// the external blob store. When the store is unconfigured a deterministic
// placeholder URL is returned so local development works without credentials.
func (s *UploadService) IngestVideo(ctx context.Context, file *multipart.FileHeader) (*model.VideoUploadResponse, error) {
	if file == nil {
		return nil, &model.ValidationError{Reason: model.ReasonMissingFile, Message: "No file provided"}
	}

	declared := file.Header.Get("Content-Type")
	if !videoTypes[declared] {
		return nil, &model.ValidationError{
			Reason:  model.ReasonWrongType,
			Message: fmt.Sprintf("Unsupported video type %q. Supported: MP4, MOV, AVI, WebM", declared),
		}
	}

	if file.Size > s.maxVideoSize {
		return nil, &model.ValidationError{
			Reason:  model.ReasonTooLarge,
			Message: fmt.Sprintf("File exceeds %d MB limit", s.maxVideoSize/(1024*1024)),
		}
	}

	filename := newAssetName(file.Filename)
	key := "videos/" + filename

	if s.blob == nil {
		return &model.VideoUploadResponse{
			URL:      "https://cdn.storyreel.local/" + key,
			Filename: filename,
			Size:     file.Size,
			Type:     declared,
		}, nil
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	url, err := s.blob.Upload(ctx, key, src, declared)
	if err != nil {
		return nil, fmt.Errorf("failed to upload video: %w", err)
	}

	return &model.VideoUploadResponse{
		URL:      url,
		Filename: filename,
		Size:     file.Size,
		Type:     declared,
	}, nil
}

// newAssetName builds a collision-resistant server-assigned filename:
// millisecond timestamp plus an opaque suffix, keeping the original name (and
// with it the extension) for content-type resolution on serve.
func newAssetName(original string) string {
	base := filepath.Base(original)
	base = strings.ReplaceAll(base, " ", "_")
	suffix := uuid.New().String()[:8]
	return fmt.Sprintf("%d_%s_%s", time.Now().UnixMilli(), suffix, base)
}
