package domain

import (
	"encoding/json"
	"time"
)

// SignalEnvelope — транзитный конверт WebRTC-переговоров; payload не
// интерпретируется и нигде не сохраняется.
type SignalEnvelope struct {
	RoomID       string          `json:"roomId"`
	SourceUserID string          `json:"sourceUserId"`
	TargetUserID string          `json:"targetUserId"`
	Payload      json.RawMessage `json:"payload"`
}

type ChatMessage struct {
	RoomID    string    `json:"roomId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
