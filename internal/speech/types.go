package speech

const (
	// DefaultBaseURL is the ElevenLabs REST endpoint.
	DefaultBaseURL = "https://api.elevenlabs.io"

	// DefaultVoiceID is used when neither the request nor the configuration names a voice.
	DefaultVoiceID = "21m00Tcm4TlvDQ8ikWAM"

	// DefaultModelID is the synthesis model sent with every request.
	DefaultModelID = "eleven_monolingual_v1"

	// AudioContentType is the only encoding requested from the provider.
	AudioContentType = "audio/mpeg"
)

// VoiceSettings controls prosody.
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// DefaultVoiceSettings returns stability 0.5 and similarity boost 0.75.
func DefaultVoiceSettings() VoiceSettings {
	return VoiceSettings{
		Stability:       0.5,
		SimilarityBoost: 0.75,
	}
}

// Voice describes one synthesis voice.
type Voice struct {
	VoiceID     string            `json:"voice_id"`
	Name        string            `json:"name"`
	Category    string            `json:"category,omitempty"`
	Description string            `json:"description,omitempty"`
	PreviewURL  string            `json:"preview_url,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

type synthesisRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

type voicesResponse struct {
	Voices []Voice `json:"voices"`
}
