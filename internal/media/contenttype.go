// Package media maps filenames to MIME types for every file-serving route.
package media

import (
	"path/filepath"
	"strings"
)

var audioTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".flac": "audio/flac",
}

var imageTypes = map[string]string{
	".png":  "image/png",
	".webp": "image/webp",
}

// AudioContentType resolves an audio filename to a MIME type by its lowercased
// extension. Unrecognized or missing extensions resolve to audio/mpeg rather
// than failing; serving with a permissive default is intentional.
func AudioContentType(filename string) string {
	if ct, ok := audioTypes[ext(filename)]; ok {
		return ct
	}
	return "audio/mpeg"
}

// ImageContentType resolves an image filename to a MIME type, defaulting to
// image/jpeg for anything unrecognized.
func ImageContentType(filename string) string {
	if ct, ok := imageTypes[ext(filename)]; ok {
		return ct
	}
	return "image/jpeg"
}

func ext(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}
