// Package storage persists uploaded audio on the local filesystem and reads
// bundled music assets. It is the only shared mutable state in the service.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/storyreel/api/internal/model"
)

// Store serves files from two plain-path roots: uploaded audio (writable) and
// music assets (read-only).
type Store struct {
	audioDir string
	musicDir string
}

func New(audioDir, musicDir string) *Store {
	return &Store{
		audioDir: audioDir,
		musicDir: musicDir,
	}
}

// SaveAudio writes an uploaded audio file under the audio root, creating the
// directory on first use. MkdirAll is idempotent, so concurrent first uploads
// do not conflict.
func (s *Store) SaveAudio(filename string, r io.Reader) (int64, error) {
	if err := os.MkdirAll(s.audioDir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create upload dir: %w", err)
	}

	dst, err := os.Create(filepath.Join(s.audioDir, filename))
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	n, err := io.Copy(dst, r)
	if err != nil {
		return 0, fmt.Errorf("failed to write file: %w", err)
	}
	return n, nil
}

// OpenAudio opens a previously uploaded audio file. Returns model.ErrNotFound
// when the asset does not exist.
func (s *Store) OpenAudio(filename string) (*os.File, os.FileInfo, error) {
	return s.open(filepath.Join(s.audioDir, filepath.Base(filename)))
}

// OpenMusic opens a bundled music asset by relative path. The path is cleaned
// and confined to the music root; anything escaping it reads as not found.
func (s *Store) OpenMusic(relPath string) (*os.File, os.FileInfo, error) {
	clean := filepath.Clean("/" + relPath)
	full := filepath.Join(s.musicDir, clean)
	if !strings.HasPrefix(full, filepath.Clean(s.musicDir)+string(os.PathSeparator)) {
		return nil, nil, model.ErrNotFound
	}
	return s.open(full)
}

func (s *Store) open(path string) (*os.File, os.FileInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, model.ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		f.Close()
		return nil, nil, model.ErrNotFound
	}
	return f, info, nil
}
