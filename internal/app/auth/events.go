package auth

import "github.com/parivartan/hub/internal/app/models"

// EventType is a change of a user's authentication state.
type EventType int

const (
	SignedIn EventType = iota + 1
	SignedOut
	ProfileUpdated
)

func (t EventType) String() string {
	switch t {
	case SignedIn:
		return "signed_in"
	case SignedOut:
		return "signed_out"
	case ProfileUpdated:
		return "profile_updated"
	}
	return "unknown"
}

// Event is delivered asynchronously to whoever drives the sessions.
type Event struct {
	Type   EventType
	UserID string
	User   *models.User // nil for SignedOut
}
