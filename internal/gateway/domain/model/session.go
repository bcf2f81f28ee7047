package model

import "strings"

// RoleUser is the default role assigned to sessions without a stored profile.
const RoleUser = "user"

// RoleAdmin marks moderators; access rules grant it blanket mutation rights.
const RoleAdmin = "admin"

// Session is the resolved, merged identity used to gate and attribute
// actions: the provider identity (uid, email) unioned with the user's
// profile document. A session either fully resolves or the gateway reports
// not-authenticated; there is no partially-valid state.
type Session struct {
	// UID is the auth provider's stable subject identifier.
	UID string `json:"uid"`
	// DocumentID is the users-collection document key. It equals UID for
	// session-keyed documents but differs for legacy records found by
	// scanning the uid field; the two must not be conflated.
	DocumentID string `json:"document_id,omitempty"`
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	Role       string `json:"role"`
	// Profile holds the merged profile fields, including any beyond the
	// well-known ones above.
	Profile Entity `json:"profile"`
}

// IsAdmin reports whether the session carries the admin role.
func (s *Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// Vars renders the session as the variable map the access-rule engine
// evaluates against.
func (s *Session) Vars() map[string]interface{} {
	return map[string]interface{}{
		"uid":       s.UID,
		"email":     s.Email,
		"full_name": s.FullName,
		"role":      s.Role,
	}
}

// DisplayNameFromEmail derives a fallback display name: the local part of
// the address.
func DisplayNameFromEmail(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}
