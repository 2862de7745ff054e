package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xaenox/drive-assist/internal/assistant"
	"github.com/xaenox/drive-assist/internal/models"
	"github.com/xaenox/drive-assist/internal/storage"
)

const maxUploadBytes = 25 << 20

type handler struct {
	svc     *assistant.Service
	manuals storage.ManualStore
	logger  *zap.Logger
}

type alarmRequest struct {
	SessionID   string `json:"session_id"`
	Message     string `json:"message"`
	ScheduledAt string `json:"scheduled_at"`
}

type manualRequest struct {
	CarModel string `json:"carModel"`
	Content  string `json:"content"`
}

type okResponse struct {
	OK bool   `json:"ok"`
	ID *int64 `json:"id,omitempty"`
}

type pendingResponse struct {
	Alarm *models.Reminder `json:"alarm"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *handler) ask(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Ask(r.Context(), req))
}

func (h *handler) voice(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	resp := h.svc.Voice(r.Context(), audio,
		header.Header.Get("Content-Type"),
		r.FormValue("carModel"),
		r.FormValue("sessionId"))

	h.logger.Info("Voice question transcribed", zap.String("text", resp.Text))
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) createAlarm(w http.ResponseWriter, r *http.Request) {
	var req alarmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	at, err := parseTimestamp(req.ScheduledAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "scheduled_at must be an ISO-8601 timestamp")
		return
	}

	reminder, err := h.svc.CreateReminder(r.Context(), req.SessionID, req.Message, at)
	if err != nil {
		h.logger.Error("Failed to create alarm", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create alarm")
		return
	}

	writeJSON(w, http.StatusOK, okResponse{OK: true, ID: &reminder.ID})
}

func (h *handler) listAlarms(w http.ResponseWriter, r *http.Request) {
	reminders, err := h.svc.Reminders(r.Context(), r.URL.Query().Get("session_id"))
	if err != nil {
		h.logger.Error("Failed to list alarms", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list alarms")
		return
	}

	writeJSON(w, http.StatusOK, reminders)
}

func (h *handler) deleteAlarm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid alarm id")
		return
	}

	err = h.svc.DeleteReminder(r.Context(), id)
	if errors.Is(err, storage.ErrReminderNotFound) {
		writeError(w, http.StatusNotFound, "alarm not found")
		return
	}
	if err != nil {
		h.logger.Error("Failed to delete alarm", zap.Error(err), zap.Int64("alarm_id", id))
		writeError(w, http.StatusInternalServerError, "failed to delete alarm")
		return
	}

	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *handler) pendingAlarm(w http.ResponseWriter, r *http.Request) {
	reminder, err := h.svc.PendingReminder(r.Context(), r.URL.Query().Get("session_id"))
	if err != nil {
		h.logger.Error("Failed to fetch pending alarm", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch pending alarm")
		return
	}

	writeJSON(w, http.StatusOK, pendingResponse{Alarm: reminder})
}

// addManual stores an owner's manual passage used as context by the
// retrieval answerer. An empty carModel applies to every vehicle.
func (h *handler) addManual(w http.ResponseWriter, r *http.Request) {
	var req manualRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	if err := h.manuals.AddManualPassage(r.Context(), strings.TrimSpace(req.CarModel), req.Content); err != nil {
		h.logger.Error("Failed to add manual passage", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to add manual passage")
		return
	}

	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// parseTimestamp accepts RFC 3339 and zone-less local timestamps.
func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05", s, time.Local)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
