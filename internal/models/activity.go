// internal/models/activity.go
package models

// Activity is one extracurricular offering. Its name is the registry key and
// is not repeated inside the record.
type Activity struct {
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

// Clone returns a copy that shares no participant storage with a.
func (a Activity) Clone() Activity {
	out := a
	out.Participants = make([]string, len(a.Participants))
	copy(out.Participants, a.Participants)
	return out
}

// SpotsLeft is capacity minus current participants. It goes negative when an
// activity is over-subscribed, since capacity is advisory.
func (a Activity) SpotsLeft() int {
	return a.MaxParticipants - len(a.Participants)
}

// MessageResponse is the success envelope of a membership change.
type MessageResponse struct {
	Message string `json:"message"`
}
