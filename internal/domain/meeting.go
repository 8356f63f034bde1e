package domain

import "time"

type Meeting struct {
	RoomCode     string        `json:"roomCode"`
	MeetingID    string        `json:"meetingId"`
	RoomName     string        `json:"roomName"`
	HostUserID   string        `json:"hostUserId"`
	HostName     string        `json:"hostName"`
	Participants []Participant `json:"participants"`
	Settings     Settings      `json:"settings"`
	IsActive     bool          `json:"isActive"`
	IsInstant    bool          `json:"isInstant"`
	StartTime    time.Time     `json:"startTime"`
	EndTime      *time.Time    `json:"endTime,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

type Settings struct {
	Password           string `json:"password,omitempty"`
	MaxParticipants    int    `json:"maxParticipants"`
	RecordingEnabled   bool   `json:"recordingEnabled"`
	WaitingRoom        bool   `json:"waitingRoom"`
	MuteOnJoin         bool   `json:"muteOnJoin"`
	VideoOnJoin        bool   `json:"videoOnJoin"`
	ChatEnabled        bool   `json:"chatEnabled"`
	ScreenShareEnabled bool   `json:"screenShareEnabled"`
}

const DefaultMaxParticipants = 100

func DefaultSettings(password string) Settings {
	return Settings{
		Password:           password,
		MaxParticipants:    DefaultMaxParticipants,
		RecordingEnabled:   false,
		WaitingRoom:        false,
		MuteOnJoin:         false,
		VideoOnJoin:        true,
		ChatEnabled:        true,
		ScreenShareEnabled: true,
	}
}

// ActiveParticipants всегда считается живым фильтром по leftAt, без кеша.
func (m *Meeting) ActiveParticipants() []Participant {
	out := make([]Participant, 0, len(m.Participants))
	for _, p := range m.Participants {
		if p.LeftAt == nil {
			out = append(out, p)
		}
	}
	return out
}

func (m *Meeting) ActiveCount() int {
	return len(m.ActiveParticipants())
}

func (m *Meeting) FindParticipant(userID string) *Participant {
	for i := range m.Participants {
		if m.Participants[i].UserID == userID {
			return &m.Participants[i]
		}
	}
	return nil
}
