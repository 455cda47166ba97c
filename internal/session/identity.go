// ABOUTME: Identity model for the signed-in actor
// ABOUTME: Defines validity rules and display-name resolution policies

package session

import "strings"

// Identity is the client's view of the signed-in actor. An Identity with no
// identifying field at all is treated as absent.
type Identity struct {
	Username    string `json:"username,omitempty"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"name,omitempty"`

	// GoogleToken holds the third-party ID token when the session came
	// from Google sign-in. Opaque to the client.
	GoogleToken string `json:"google_token,omitempty"`
}

// Valid reports whether the Identity carries at least one identifying field.
func (id Identity) Valid() bool {
	return id.Username != "" || id.Email != "" || id.DisplayName != ""
}

// AttributionName is the name used for post attribution and ownership
// comparisons. Username first, so it lines up with the author field the
// backend stores on posts.
func (id Identity) AttributionName() string {
	switch {
	case id.Username != "":
		return id.Username
	case id.Email != "":
		return id.Email
	case id.DisplayName != "":
		return id.DisplayName
	}
	return "User"
}

// GreetingName is the name used in header and greeting contexts, where a
// human-friendly name beats the registered username.
func (id Identity) GreetingName() string {
	switch {
	case id.DisplayName != "":
		return id.DisplayName
	case id.Username != "":
		return id.Username
	case id.Email != "":
		return id.Email
	}
	return "User"
}

// Owns reports whether this identity may edit or delete a post authored by
// the given username. Case-insensitive after trimming both sides.
func (id Identity) Owns(authorUsername string) bool {
	if !id.Valid() {
		return false
	}
	mine := strings.TrimSpace(strings.ToLower(id.AttributionName()))
	theirs := strings.TrimSpace(strings.ToLower(authorUsername))
	return mine != "" && mine == theirs
}
