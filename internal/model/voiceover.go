package model

// DefaultSpeakerID is used when a voiceover request omits speaker_id.
const DefaultSpeakerID = "adam"

// VoiceoverRequest is the JSON body for POST /voiceover/generate.
type VoiceoverRequest struct {
	Text      string `json:"text" validate:"required"`
	SpeakerID string `json:"speaker_id"`
}

// VoiceoverResponse reshapes the backend's generation result for the caller.
type VoiceoverResponse struct {
	Message  string  `json:"message"`
	Filename string  `json:"filename"`
	AudioURL string  `json:"audioUrl"`
	Duration float64 `json:"duration"`
}
