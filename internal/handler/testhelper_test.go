package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/storyreel/api/internal/client"
	"github.com/storyreel/api/internal/config"
	"github.com/storyreel/api/internal/service"
	"github.com/storyreel/api/internal/storage"
)

// testApp holds the components wired the same way main.go wires them, with
// the fake render backend standing in for the real one.
type testApp struct {
	app      *fiber.App
	audioDir string
	musicDir string
}

// setupApp builds the route surface against a backend URL (usually an
// httptest.Server, or an unroutable address to exercise degraded mode).
func setupApp(t *testing.T, backendURL string) *testApp {
	t.Helper()

	root := t.TempDir()
	audioDir := filepath.Join(root, "uploads", "audio")
	musicDir := filepath.Join(root, "music")

	renderClient := client.NewRenderClient(&config.RenderConfig{
		BaseURL: backendURL,
		Timeout: 2,
	})

	store := storage.New(audioDir, musicDir)
	renderService := service.NewRenderService(renderClient)
	uploadService := service.NewUploadService(store, nil, 100, 500)
	voiceoverService := service.NewVoiceoverService(renderClient)

	mediaHandler := NewMediaHandler(store, renderClient)
	renderHandler := NewRenderHandler(renderService)
	uploadHandler := NewUploadHandler(uploadService)
	voiceoverHandler := NewVoiceoverHandler(voiceoverService, validator.New())

	app := fiber.New(fiber.Config{
		BodyLimit: 16 * 1024 * 1024,
	})

	app.Get("/audio/:filename", mediaHandler.ServeAudio)
	app.Get("/music/*", mediaHandler.ServeMusic)
	app.Get("/bg-images", mediaHandler.ListBackgroundImages)
	app.Get("/bg-images/:filename", mediaHandler.FetchBackgroundImage)
	app.Get("/download/audio/:filename", mediaHandler.DownloadAudio)
	app.Get("/render/:jobId", renderHandler.Status)
	app.Post("/upload/audio", uploadHandler.Audio)
	app.Post("/video/upload", uploadHandler.Video)
	app.Post("/voiceover/generate", voiceoverHandler.Generate)

	return &testApp{app: app, audioDir: audioDir, musicDir: musicDir}
}

// deadBackendURL points at a closed port so backend calls fail fast.
func deadBackendURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

// writeAsset drops a file under dir, creating parents.
func writeAsset(t *testing.T, dir, name string, content []byte) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
}

// multipartFile builds a multipart body with a single "file" part.
func multipartFile(t *testing.T, filename, contentType string, content []byte) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	partHeader := make(textproto.MIMEHeader)
	partHeader.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	partHeader.Set("Content-Type", contentType)
	part, err := writer.CreatePart(partHeader)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	_, _ = part.Write(content)
	writer.Close()

	return &buf, writer.FormDataContentType()
}

// doRequest performs an HTTP request against the test app.
func doRequest(app *fiber.App, method, path string, body string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	return app.Test(req, -1)
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}
