package session

import "github.com/parivartan/hub/internal/app/models"

// State is where the Session Gate places a visitor.
type State int

const (
	Unauthenticated State = iota
	ProfileIncomplete
	Authenticated
)

func (s State) String() string {
	switch s {
	case ProfileIncomplete:
		return "profile_incomplete"
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Evaluate maps the signed-in user to a gate state. A nil user is
// unauthenticated; a user without a name or handle still has to finish
// their profile.
func Evaluate(u *models.User) State {
	switch {
	case u == nil:
		return Unauthenticated
	case !u.ProfileComplete():
		return ProfileIncomplete
	default:
		return Authenticated
	}
}
