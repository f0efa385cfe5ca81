package domain

// IdentityKind distinguishes registered users from guest sessions
type IdentityKind string

const (
	IdentityUser  IdentityKind = "USER"
	IdentityGuest IdentityKind = "GUEST"
)

// Identity is the single owner key of a cart: either a registered user id or
// a guest session id. Resolved once at the service boundary, never inferred
// per handler.
type Identity struct {
	Kind IdentityKind
	ID   string
}

// UserIdentity returns an identity for a registered user
func UserIdentity(userID string) Identity {
	return Identity{Kind: IdentityUser, ID: userID}
}

// GuestIdentity returns an identity for an unauthenticated browsing session
func GuestIdentity(sessionID string) Identity {
	return Identity{Kind: IdentityGuest, ID: sessionID}
}

// IsUser reports whether the identity belongs to a registered user
func (i Identity) IsUser() bool {
	return i.Kind == IdentityUser
}
