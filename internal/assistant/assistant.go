// Package assistant ties intent detection, time parsing, the answer chain
// and speech synthesis together for one question at a time.
package assistant

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xaenox/drive-assist/internal/answer"
	"github.com/xaenox/drive-assist/internal/classifier"
	"github.com/xaenox/drive-assist/internal/models"
	"github.com/xaenox/drive-assist/internal/speech"
	"github.com/xaenox/drive-assist/internal/storage"
	"github.com/xaenox/drive-assist/internal/timeparse"
)

// RecognitionFailed stands in for the question when a voice upload could
// not be transcribed. It is answered like any other question.
const RecognitionFailed = "(음성인식 실패)"

type Config struct {
	DefaultVehicleModel string
	SessionID           string
	Language            string
	SpeechTimeout       time.Duration
}

// Answerer is satisfied by *answer.Chain.
type Answerer interface {
	Answer(ctx context.Context, q answer.Question) answer.Result
}

type Service struct {
	cfg        Config
	answers    Answerer
	store      storage.ReminderStore
	recognizer speech.Recognizer
	synth      speech.Synthesizer
	logger     *zap.Logger
	now        func() time.Time
}

// New builds the service. recognizer and synth may be nil, in which case
// voice input always fails recognition and answers carry no audio.
func New(cfg Config, answers Answerer, store storage.ReminderStore, recognizer speech.Recognizer, synth speech.Synthesizer, logger *zap.Logger) *Service {
	return &Service{
		cfg:        cfg,
		answers:    answers,
		store:      store,
		recognizer: recognizer,
		synth:      synth,
		logger:     logger,
		now:        time.Now,
	}
}

// Ask answers a single question. It never fails: every downstream error
// degrades to a textual answer without audio.
func (s *Service) Ask(ctx context.Context, req models.AskRequest) models.AskResponse {
	question := strings.TrimSpace(req.Question)
	car := s.vehicleModel(req.CarModel)
	session := s.session(req.SessionID)

	log := s.logger.With(
		zap.String("request_id", uuid.NewString()),
		zap.String("session_id", session))

	cls := classifier.Classify(question)
	if cls.Intent == models.IntentSchedule {
		if at, ok := timeparse.Parse(question, s.now()); ok {
			return s.schedule(ctx, log, session, req.Question, at, car)
		}
		log.Info("Alarm requested without a recognizable time", zap.String("question", question))
	}

	res := s.answers.Answer(ctx, answer.Question{Text: question, VehicleModel: car})
	resp := models.AskResponse{
		Answer:   res.Text,
		CarModel: car,
		Intent:   models.IntentQuestion,
	}

	if cls.Shopping {
		resp.Answer = classifier.ShoppingMessage(cls.Label, car)
		resp.Intent = models.IntentPurchase
		resp.Category = string(cls.Category)
	}

	log.Info("Answered question",
		zap.String("source", res.Source),
		zap.String("intent", string(resp.Intent)))

	resp.Audio = s.speak(ctx, log, resp.Answer)
	return resp
}

// schedule stores the reminder and confirms it. A storage failure is
// logged but still confirmed to the user.
func (s *Service) schedule(ctx context.Context, log *zap.Logger, session, message string, at time.Time, car string) models.AskResponse {
	r := &models.Reminder{
		SessionID:   session,
		Message:     message,
		ScheduledAt: at,
	}
	if err := s.store.CreateReminder(ctx, r); err != nil {
		log.Error("Failed to save alarm",
			zap.Error(err),
			zap.Time("scheduled_at", at))
	} else {
		log.Info("Alarm saved",
			zap.Int64("alarm_id", r.ID),
			zap.Time("scheduled_at", at))
	}

	text := Confirmation(at)
	return models.AskResponse{
		Answer:   text,
		CarModel: car,
		Intent:   models.IntentSchedule,
		Audio:    s.speak(ctx, log, text),
	}
}

// Confirmation is the sentence read back after an alarm is set.
func Confirmation(at time.Time) string {
	return fmt.Sprintf("%02d시 %02d분에 알람을 설정했습니다.", at.Hour(), at.Minute())
}

// Voice transcribes an uploaded recording and answers it.
func (s *Service) Voice(ctx context.Context, audio []byte, contentType, carModel, sessionID string) models.VoiceResponse {
	text := s.transcribe(ctx, audio, contentType)
	if text == "" {
		text = RecognitionFailed
	}

	resp := s.Ask(ctx, models.AskRequest{Question: text, CarModel: carModel, SessionID: sessionID})
	return models.VoiceResponse{Text: text, AskResponse: resp}
}

func (s *Service) transcribe(ctx context.Context, audio []byte, contentType string) string {
	if s.recognizer == nil || len(audio) == 0 {
		return ""
	}

	ctx, cancel := s.withSpeechTimeout(ctx)
	defer cancel()

	text, err := s.recognizer.Transcribe(ctx, audio, contentType, s.cfg.Language)
	if err != nil {
		s.logger.Warn("Speech recognition failed",
			zap.Error(err),
			zap.String("content_type", contentType))
		return ""
	}
	return strings.TrimSpace(text)
}

// speak returns base64 encoded audio for answer, or nil when synthesis is
// unavailable.
func (s *Service) speak(ctx context.Context, log *zap.Logger, text string) *string {
	if s.synth == nil {
		return nil
	}

	ctx, cancel := s.withSpeechTimeout(ctx)
	defer cancel()

	audio, err := s.synth.Synthesize(ctx, speech.Sanitize(text), s.cfg.Language)
	if err != nil {
		log.Warn("Speech synthesis failed", zap.Error(err))
		return nil
	}

	encoded := base64.StdEncoding.EncodeToString(audio)
	return &encoded
}

func (s *Service) withSpeechTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.SpeechTimeout > 0 {
		return context.WithTimeout(ctx, s.cfg.SpeechTimeout)
	}
	return context.WithCancel(ctx)
}

func (s *Service) vehicleModel(car string) string {
	if car = strings.TrimSpace(car); car != "" {
		return car
	}
	return s.cfg.DefaultVehicleModel
}

func (s *Service) session(id string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return s.cfg.SessionID
}
