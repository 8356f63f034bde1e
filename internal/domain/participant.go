package domain

import "time"

// Participant никогда не удаляется из митинга — только закрывается через LeftAt.
type Participant struct {
	UserID   string     `json:"userId"`
	UserName string     `json:"userName"`
	JoinedAt time.Time  `json:"joinedAt"`
	LeftAt   *time.Time `json:"leftAt,omitempty"`
	IsHost   bool       `json:"isHost"`
	CameraOn bool       `json:"cameraOn"`
	MicOn    bool       `json:"micOn"`
}
