package models

import "time"

// Reminder is a scheduled alarm owned by a session.
type Reminder struct {
	ID          int64     `json:"id"`
	SessionID   string    `json:"session_id"`
	Message     string    `json:"message"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Fired       bool      `json:"fired"`
	CreatedAt   time.Time `json:"created_at"`
}

// AskRequest is a single question about the vehicle.
type AskRequest struct {
	Question  string `json:"question"`
	CarModel  string `json:"carModel,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// AskResponse carries the answer text and, when synthesis succeeded,
// base64 encoded speech audio.
type AskResponse struct {
	Answer   string  `json:"answer"`
	CarModel string  `json:"carModel"`
	Category string  `json:"category,omitempty"`
	Intent   Intent  `json:"intent"`
	Audio    *string `json:"audio"`
}

// VoiceResponse is an AskResponse plus the recognized text.
type VoiceResponse struct {
	Text string `json:"text"`
	AskResponse
}
