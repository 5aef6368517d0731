package model

// AudioUploadResponse is returned after a successful audio upload.
type AudioUploadResponse struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	Size         int64  `json:"size"`
	ContentType  string `json:"contentType"`
	AudioURL     string `json:"audioUrl"`
}

// VideoUploadResponse is returned after a successful video upload to the
// external blob store.
type VideoUploadResponse struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Type     string `json:"type"`
}
