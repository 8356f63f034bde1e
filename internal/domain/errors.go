package domain

import "errors"

var (
	ErrMeetingNotFound  = errors.New("meeting not found")
	ErrMeetingFull      = errors.New("meeting is full")
	ErrWrongPassword    = errors.New("wrong meeting password")
	ErrNotHost          = errors.New("only the host can end the meeting")
	ErrNotParticipant   = errors.New("user is not a participant of the meeting")
	ErrStoreUnavailable = errors.New("meeting store unavailable")
)
