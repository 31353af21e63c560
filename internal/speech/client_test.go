package speech

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/voicecal/internal/logging"
	"github.com/teemow/voicecal/internal/resilience"
)

var fakeAudio = []byte("ID3\x03\x00fake-mpeg-frames")

func newTestClient(t *testing.T, handler http.HandlerFunc, cfg Config, opts ...Option) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg.BaseURL = srv.URL
	if cfg.APIKey == "" {
		cfg.APIKey = "test-key"
	}

	opts = append([]Option{WithHTTPClient(srv.Client()), WithLogger(logging.NopLogger())}, opts...)
	client, err := NewClient(cfg, opts...)
	require.NoError(t, err)
	return client
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)

	client, err := NewClient(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultVoiceID, client.DefaultVoice())
	assert.Equal(t, DefaultBaseURL, client.baseURL)
	assert.Equal(t, DefaultModelID, client.modelID)
	assert.Equal(t, DefaultTimeout, client.timeout)

	client, err = NewClient(Config{APIKey: "k", VoiceID: "custom", BaseURL: "http://localhost:9/"})
	require.NoError(t, err)
	assert.Equal(t, "custom", client.DefaultVoice())
	assert.Equal(t, "http://localhost:9", client.baseURL)
}

func TestResolveVoice(t *testing.T) {
	client, err := NewClient(Config{APIKey: "k"})
	require.NoError(t, err)

	assert.Equal(t, DefaultVoiceID, client.ResolveVoice(""))
	assert.Equal(t, DefaultVoiceID, client.ResolveVoice("  "))
	assert.Equal(t, "pNInz6obpgDQGcFmaJgB", client.ResolveVoice("pNInz6obpgDQGcFmaJgB"))
}

func TestSynthesize(t *testing.T) {
	tests := []struct {
		name      string
		voiceID   string
		settings  *VoiceSettings
		wantPath  string
		wantStab  float64
		wantBoost float64
	}{
		{
			name:      "default voice and settings",
			wantPath:  "/v1/text-to-speech/" + DefaultVoiceID,
			wantStab:  0.5,
			wantBoost: 0.75,
		},
		{
			name:      "explicit voice and settings",
			voiceID:   "abc123",
			settings:  &VoiceSettings{Stability: 0.2, SimilarityBoost: 0.9},
			wantPath:  "/v1/text-to-speech/abc123",
			wantStab:  0.2,
			wantBoost: 0.9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, tt.wantPath, r.URL.Path)
				assert.Equal(t, "test-key", r.Header.Get("xi-api-key"))
				assert.Equal(t, AudioContentType, r.Header.Get("Accept"))

				var body synthesisRequest
				if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				assert.Equal(t, "Hello there", body.Text)
				assert.Equal(t, DefaultModelID, body.ModelID)
				assert.InDelta(t, tt.wantStab, body.VoiceSettings.Stability, 1e-9)
				assert.InDelta(t, tt.wantBoost, body.VoiceSettings.SimilarityBoost, 1e-9)

				w.Header().Set("Content-Type", AudioContentType)
				_, _ = w.Write(fakeAudio)
			}, Config{})

			audio, err := client.Synthesize(context.Background(), "Hello there", tt.voiceID, tt.settings)
			require.NoError(t, err)
			assert.Equal(t, fakeAudio, audio)
		})
	}
}

func TestSynthesize_EmptyText(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	}, Config{})

	_, err := client.Synthesize(context.Background(), "  ", "", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.NotErrorIs(t, err, ErrUnavailable)

	_, err = client.SynthesizeStream(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, calls.Load())
}

func TestSynthesize_ProviderErrorIsUnavailable(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"unauthorized", http.StatusUnauthorized},
		{"quota", http.StatusTooManyRequests},
		{"server error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"detail":{"status":"failed"}}`))
			}, Config{})

			audio, err := client.Synthesize(context.Background(), "hi", "", nil)
			assert.ErrorIs(t, err, ErrUnavailable)
			assert.Nil(t, audio)

			var se *StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.status, se.HTTPStatus())
		})
	}
}

func TestSynthesize_Timeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
			_, _ = w.Write(fakeAudio)
		}
	}, Config{Timeout: 20 * time.Millisecond})

	_, err := client.Synthesize(context.Background(), "hi", "", nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestSynthesizeStream(t *testing.T) {
	chunks := []string{"chunk-1|", "chunk-2|", "chunk-3"}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/text-to-speech/"+DefaultVoiceID+"/stream", r.URL.Path)

		w.Header().Set("Content-Type", AudioContentType)
		flusher, _ := w.(http.Flusher)
		for _, c := range chunks {
			_, _ = w.Write([]byte(c))
			if flusher != nil {
				flusher.Flush()
			}
		}
	}, Config{Timeout: 50 * time.Millisecond})

	body, err := client.SynthesizeStream(context.Background(), "stream me", "")
	require.NoError(t, err)

	// Reading past the header timeout must not cut the stream.
	time.Sleep(100 * time.Millisecond)

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "chunk-1|chunk-2|chunk-3", string(data))
	assert.NoError(t, body.Close())
	assert.NoError(t, body.Close())
}

func TestSynthesizeStream_ProviderError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}, Config{})

	body, err := client.SynthesizeStream(context.Background(), "hi", "voice-x")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Nil(t, body)
}

func TestListVoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/voices", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("xi-api-key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"voices":[
			{"voice_id":"21m00Tcm4TlvDQ8ikWAM","name":"Rachel","category":"premade","labels":{"accent":"american"}},
			{"voice_id":"AZnzlk1XvdvUeBnXmlld","name":"Domi","category":"premade"}
		]}`))
	}, Config{})

	voices, err := client.ListVoices(context.Background())
	require.NoError(t, err)
	require.Len(t, voices, 2)
	assert.Equal(t, "Rachel", voices[0].Name)
	assert.Equal(t, "american", voices[0].Labels["accent"])
	assert.Equal(t, "AZnzlk1XvdvUeBnXmlld", voices[1].VoiceID)
}

func TestListVoices_Empty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}, Config{})

	voices, err := client.ListVoices(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, voices)
	assert.Empty(t, voices)
}

func TestOpenBreakerFailsFast(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, Config{}, WithBreakerSettings(resilience.BreakerSettings{MinRequests: 2, FailureRatio: 1, OpenTimeout: time.Minute}))

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := client.Synthesize(ctx, "hi", "", nil)
		assert.ErrorIs(t, err, ErrUnavailable)
	}

	before := calls.Load()
	_, err := client.Synthesize(ctx, "hi", "", nil)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.True(t, resilience.IsOpen(err))
	assert.Equal(t, before, calls.Load())
}

func TestBadVoiceDoesNotTripBreaker(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/text-to-speech/bogus" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"detail":{"status":"voice_not_found"}}`))
			return
		}
		_, _ = w.Write(fakeAudio)
	}, Config{}, WithBreakerSettings(resilience.BreakerSettings{MinRequests: 2, FailureRatio: 0.5, OpenTimeout: time.Minute}))

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := client.Synthesize(ctx, "hi", "bogus", nil)
		require.ErrorIs(t, err, ErrUnavailable)
		assert.False(t, resilience.IsOpen(err))
	}

	audio, err := client.Synthesize(ctx, "hi", "", nil)
	require.NoError(t, err)
	assert.Equal(t, fakeAudio, audio)
}

func TestCanceledCallerDoesNotTripBreaker(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(fakeAudio)
	}, Config{}, WithBreakerSettings(resilience.BreakerSettings{MinRequests: 2, FailureRatio: 0.5, OpenTimeout: time.Minute}))

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 3; i++ {
		_, err := client.Synthesize(canceled, "hi", "", nil)
		require.Error(t, err)
		assert.False(t, resilience.IsOpen(err))
	}

	_, err := client.Synthesize(context.Background(), "hi", "", nil)
	assert.NoError(t, err)
}

func TestStreamTimeoutTripsBreaker(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}, Config{Timeout: 20 * time.Millisecond},
		WithBreakerSettings(resilience.BreakerSettings{MinRequests: 2, FailureRatio: 1, OpenTimeout: time.Minute}))

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := client.SynthesizeStream(ctx, "hi", "")
		require.ErrorIs(t, err, ErrUnavailable)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	}

	_, err := client.SynthesizeStream(ctx, "hi", "")
	assert.True(t, resilience.IsOpen(err))
}
