// Package speech is the ElevenLabs text-to-speech gateway.
//
// Synthesize returns a complete audio/mpeg payload. SynthesizeStream returns
// the provider's chunked response body so callers can pipe audio as it
// arrives; the stream is finite and cannot be restarted. ListVoices returns
// the voices available to the configured API key.
//
// Any transport failure, timeout or non-2xx answer is reported as ErrUnavailable.
package speech
