package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xaenox/drive-assist/internal/answer"
	"github.com/xaenox/drive-assist/internal/assistant"
	"github.com/xaenox/drive-assist/internal/models"
	"github.com/xaenox/drive-assist/internal/storage"
)

type stubRecognizer struct{ text string }

func (s stubRecognizer) Transcribe(ctx context.Context, audio []byte, contentType, languageCode string) (string, error) {
	if strings.Contains(contentType, "webm") {
		return "", assert.AnError
	}
	return s.text, nil
}

type stubSynth struct{}

func (stubSynth) Synthesize(ctx context.Context, text, languageCode string) ([]byte, error) {
	return []byte(text), nil
}

func newTestRouter(t *testing.T, answerText string) http.Handler {
	t.Helper()
	h, _ := newTestRouterWithStore(t, answerText)
	return h
}

func newTestRouterWithStore(t *testing.T, answerText string) (http.Handler, *storage.MemoryStorage) {
	t.Helper()
	store := storage.NewMemoryStorage()
	chain := answer.NewChain(zap.NewNop(), time.Second, answer.Func{
		SourceName: "stub",
		Fn: func(ctx context.Context, q answer.Question) (string, error) {
			return answerText, nil
		},
	})
	svc := assistant.New(assistant.Config{
		DefaultVehicleModel: "아반떼",
		SessionID:           "demo-session",
		Language:            "ko-KR",
	}, chain, store, stubRecognizer{text: "엔진오일 추천해줘"}, stubSynth{}, zap.NewNop())

	return NewRouter(svc, store, zap.NewNop(), 5*time.Second), store
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAskEndpoint(t *testing.T) {
	h := newTestRouter(t, "")

	rec := do(t, h, http.MethodPost, "/api/ask", `{"question":"오늘 날씨 어때"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "(임시응답) 질문을 받았습니다: 오늘 날씨 어때", resp["answer"])
	assert.Equal(t, "아반떼", resp["carModel"])
	assert.Contains(t, resp, "audio")
}

func TestAskEndpointShopping(t *testing.T) {
	h := newTestRouter(t, "일반 답변")

	rec := do(t, h, http.MethodPost, "/api/ask", `{"question":"와이퍼 골라줘","carModel":"K5"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.AskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "wiper", resp.Category)
	assert.Equal(t, "K5", resp.CarModel)
	assert.Contains(t, resp.Answer, "/search/all?query=K5%20")
	assert.NotNil(t, resp.Audio)
}

func TestAskEndpointBadRequest(t *testing.T) {
	h := newTestRouter(t, "")

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/ask", `{`).Code)
}

func TestAskEndpointBlankQuestionGetsPlaceholder(t *testing.T) {
	h := newTestRouter(t, "")

	rec := do(t, h, http.MethodPost, "/api/ask", `{"question":"  "}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.AskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "(임시응답) 질문을 받았습니다: ", resp.Answer)
	assert.Equal(t, models.IntentQuestion, resp.Intent)
}

func uploadVoice(t *testing.T, h http.Handler, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {`form-data; name="file"; filename="voice"`},
		"Content-Type":        {contentType},
	})
	require.NoError(t, err)
	part.Write([]byte("audio-bytes"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/voice?carModel=%EC%8F%98%EB%82%98%ED%83%80", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestVoiceEndpoint(t *testing.T) {
	h := newTestRouter(t, "")

	rec := uploadVoice(t, h, "audio/ogg")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.VoiceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "엔진오일 추천해줘", resp.Text)
	assert.Equal(t, "쏘나타", resp.CarModel)
	assert.Equal(t, "engine-oil", resp.Category)
}

func TestVoiceEndpointRecognitionFailure(t *testing.T) {
	h := newTestRouter(t, "")

	rec := uploadVoice(t, h, "audio/webm")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.VoiceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, assistant.RecognitionFailed, resp.Text)
}

func TestVoiceEndpointRequiresFile(t *testing.T) {
	h := newTestRouter(t, "")
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/voice", "").Code)
}

func TestAlarmEndpoints(t *testing.T) {
	h := newTestRouter(t, "")
	past := time.Now().Add(-time.Minute).Format(time.RFC3339)
	future := time.Now().Add(time.Hour).Format(time.RFC3339)

	rec := do(t, h, http.MethodPost, "/api/alarm/create",
		`{"session_id":"s1","message":"주차 확인","scheduled_at":"`+future+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodPost, "/api/alarm/create",
		`{"session_id":"s1","message":"타이어 점검","scheduled_at":"`+past+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var created okResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.True(t, created.OK)
	require.NotNil(t, created.ID)

	rec = do(t, h, http.MethodGet, "/api/alarms?session_id=s1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.Reminder
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "타이어 점검", list[0].Message)

	rec = do(t, h, http.MethodGet, "/api/alarm/pending?session_id=s1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var pending pendingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pending))
	require.NotNil(t, pending.Alarm)
	assert.Equal(t, *created.ID, pending.Alarm.ID)

	rec = do(t, h, http.MethodGet, "/api/alarm/pending?session_id=s1", "")
	assert.JSONEq(t, `{"alarm":null}`, rec.Body.String())

	rec = do(t, h, http.MethodDelete, "/api/alarm/"+strconv.FormatInt(list[1].ID, 10), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/api/alarm/"+strconv.FormatInt(list[1].ID, 10), "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodDelete, "/api/alarm/abc", "").Code)
}

func TestCreateAlarmRejectsBadTimestamp(t *testing.T) {
	h := newTestRouter(t, "")
	rec := do(t, h, http.MethodPost, "/api/alarm/create", `{"session_id":"s1","message":"m","scheduled_at":"내일"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAskEndpointSchedulesAlarm(t *testing.T) {
	h := newTestRouter(t, "")

	rec := do(t, h, http.MethodPost, "/api/ask", `{"question":"30분 뒤 알람","sessionId":"s2"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "알람을 설정했습니다.")

	rec = do(t, h, http.MethodGet, "/api/alarms?session_id=s2", "")
	var list []models.Reminder
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), list[0].ScheduledAt, 5*time.Second)
}

func TestHealthAndCORS(t *testing.T) {
	h := newTestRouter(t, "")

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodOptions, "/api/ask", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Less(t, rec.Code, 300)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")

	rec = do(t, h, http.MethodGet, "/health", "")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestAddManualEndpoint(t *testing.T) {
	h, store := newTestRouterWithStore(t, "")

	rec := do(t, h, http.MethodPost, "/api/manual", `{"carModel":"아반떼","content":"엔진오일은 10,000km마다 교체합니다."}`)
	require.Equal(t, http.StatusOK, rec.Code)

	passages, err := store.SearchManual(context.Background(), "아반떼", "엔진오일 교체", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"엔진오일은 10,000km마다 교체합니다."}, passages)

	rec = do(t, h, http.MethodPost, "/api/manual", `{"carModel":"아반떼","content":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
