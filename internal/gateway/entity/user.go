package entity

import "strings"

// AnonymousUserID is used for callers that present no identity. Runs for
// anonymous users are not persisted.
const AnonymousUserID UserID = ""

// UserID identifies a logical user boundary in gateway services.
type UserID string

func NormalizeUserID(raw string) UserID {
	return UserID(strings.TrimSpace(raw))
}

func (id UserID) String() string {
	return strings.TrimSpace(string(id))
}

func (id UserID) IsZero() bool {
	return id.String() == ""
}
