package speech

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *openai.Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	return openai.NewClientWithConfig(cfg)
}

func TestWhisperRecognizer(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		if assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			assert.Equal(t, "ko", r.FormValue("language"))
			assert.Equal(t, openai.Whisper1, r.FormValue("model"))
			_, header, err := r.FormFile("file")
			if assert.NoError(t, err) {
				assert.Equal(t, "speech.wav", header.Filename)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":" 30분 뒤 알람 "}`))
	})

	r := NewWhisperRecognizer(client, "", zap.NewNop())
	text, err := r.Transcribe(context.Background(), []byte("RIFF...."), "audio/wav", "ko-KR")

	require.NoError(t, err)
	assert.Equal(t, "30분 뒤 알람", text)
}

func TestWhisperRecognizerRejectsWebm(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	core, logs := observer.New(zap.WarnLevel)
	_, err := NewWhisperRecognizer(client, "", zap.New(core)).Transcribe(context.Background(), []byte("x"), "audio/webm", "ko-KR")

	assert.ErrorIs(t, err, ErrUnsupportedEncoding)
	assert.False(t, called)

	entries := logs.FilterMessage("Rejected audio upload").All()
	require.Len(t, entries, 1)
	assert.Equal(t, string(EncodingWebmOpus), entries[0].ContextMap()["encoding"])
}

func TestOpenAISynthesizer(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/speech", r.URL.Path)
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("ID3-audio"))
	})

	s := NewOpenAISynthesizer(client, "", "")
	audio, err := s.Synthesize(context.Background(), "15시 30분에 알람을 설정했습니다.", "ko-KR")

	require.NoError(t, err)
	assert.Equal(t, []byte("ID3-audio"), audio)
}

func TestOpenAISynthesizerErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	})
	s := NewOpenAISynthesizer(client, "", "")

	_, err := s.Synthesize(context.Background(), "   ", "ko-KR")
	assert.ErrorIs(t, err, errEmptyText)

	_, err = s.Synthesize(context.Background(), "안녕하세요", "ko-KR")
	assert.Error(t, err)
}
