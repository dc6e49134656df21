package model

// RoleAdmin is the role claim granted to chat moderators.
const RoleAdmin = "admin"

// Identity represents the authenticated caller, taken from verified token claims
type Identity struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role,omitempty"`
}

// IsAdmin reports whether the identity carries the admin role claim
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Name returns the display name, falling back to the anonymous label used across the portal
func (i Identity) Name() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return AnonymousName
}

// AnonymousName is shown when a user has not set a display name.
const AnonymousName = "Usuario Anónimo"
