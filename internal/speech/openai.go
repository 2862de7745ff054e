package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Recognizer turns recorded speech into text.
type Recognizer interface {
	Transcribe(ctx context.Context, audio []byte, contentType, languageCode string) (string, error)
}

// Synthesizer turns text into encoded audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, languageCode string) ([]byte, error)
}

var errEmptyText = errors.New("nothing to synthesize")

// WhisperRecognizer transcribes audio with the OpenAI transcription API.
type WhisperRecognizer struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

func NewWhisperRecognizer(client *openai.Client, model string, logger *zap.Logger) *WhisperRecognizer {
	if model == "" {
		model = openai.Whisper1
	}
	return &WhisperRecognizer{client: client, model: model, logger: logger}
}

func (r *WhisperRecognizer) Transcribe(ctx context.Context, audio []byte, contentType, languageCode string) (string, error) {
	format, err := FormatFor(contentType)
	log := r.logger.With(
		zap.String("encoding", string(format.Encoding)),
		zap.Int("sample_rate_hertz", format.SampleRateHertz))
	if err != nil {
		log.Warn("Rejected audio upload", zap.String("content_type", contentType))
		return "", fmt.Errorf("transcribe %q: %w", contentType, err)
	}
	log.Debug("Transcribing audio", zap.Int("bytes", len(audio)))

	resp, err := r.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    r.model,
		FilePath: "speech" + format.Extension,
		Reader:   bytes.NewReader(audio),
		Language: baseLanguage(languageCode),
	})
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

// OpenAISynthesizer speaks text with the OpenAI speech API. The voice
// models detect the language from the input, so languageCode is unused.
type OpenAISynthesizer struct {
	client *openai.Client
	model  string
	voice  string
}

func NewOpenAISynthesizer(client *openai.Client, model, voice string) *OpenAISynthesizer {
	if model == "" {
		model = string(openai.TTSModel1)
	}
	if voice == "" {
		voice = string(openai.VoiceAlloy)
	}
	return &OpenAISynthesizer{client: client, model: model, voice: voice}
}

func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text, languageCode string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errEmptyText
	}

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.model),
		Input:          text,
		Voice:          openai.SpeechVoice(s.voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("speech request: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read speech audio: %w", err)
	}
	return audio, nil
}
