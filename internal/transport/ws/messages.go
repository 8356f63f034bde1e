package ws

import (
	"encoding/json"
	"time"
)

// Типы событий сигнального транспорта
const (
	EventJoinRoom    = "join-room"    // вход в комнату: привязка identity
	EventSignal      = "signal"       // WebRTC negotiation, адресный relay
	EventSendMessage = "send-message" // чат в комнату

	EventRoomUsers        = "room-users"        // снапшот участников (unicast вошедшему)
	EventUserConnected    = "user-connected"    // presence: кто-то вошёл
	EventUserDisconnected = "user-disconnected" // presence: транспорт закрылся
	EventReceiveMessage   = "receive-message"   // чат-рассылка
)

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type JoinRoomPayload struct {
	RoomID   string          `json:"roomId"`
	UserID   string          `json:"userId"`
	UserData json.RawMessage `json:"userData,omitempty"`
}

type SignalPayload struct {
	RoomID       string          `json:"roomId"`
	TargetUserID string          `json:"targetUserId"`
	Signal       json.RawMessage `json:"signal"`
}

// SignalOutPayload — то же opaque-содержимое плюс отправитель.
type SignalOutPayload struct {
	UserID string          `json:"userId"`
	Signal json.RawMessage `json:"signal"`
}

type ChatPayload struct {
	RoomID    string    `json:"roomId"`
	UserName  string    `json:"userName"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type RoomUsersPayload struct {
	RoomID string     `json:"roomId"`
	Users  []Identity `json:"users"`
}

type PresencePayload struct {
	UserID   string          `json:"userId"`
	UserData json.RawMessage `json:"userData,omitempty"`
}
