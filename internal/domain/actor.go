package domain

// Actor identifies who performs a write. It is stamped into created_by and
// updated_by. The zero value is the system itself (background jobs, signup
// before the user exists).
type Actor struct {
	UserID string
	Role   string
}

// SystemActor performs writes that no user initiated.
var SystemActor = Actor{}

// UserActor returns the actor for an authenticated user.
func UserActor(userID, role string) Actor {
	return Actor{UserID: userID, Role: role}
}

// IsSystem reports whether the write is not attributed to a user.
func (a Actor) IsSystem() bool {
	return a.UserID == ""
}

// StampID is the value written to created_by / updated_by; nil for the system.
func (a Actor) StampID() *string {
	if a.IsSystem() {
		return nil
	}
	id := a.UserID
	return &id
}

// HasRole reports whether the actor holds any of roles.
func (a Actor) HasRole(roles ...string) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}
