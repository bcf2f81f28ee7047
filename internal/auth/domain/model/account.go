package model

import "time"

// Account is a provider identity: the credential record behind a session.
// It is distinct from the users-collection profile document; the two are
// created together at registration but not atomically, and a missing
// profile document is tolerated by session resolution.
type Account struct {
	// UID is the stable subject identifier, also used as the document key
	// of the corresponding users-collection record.
	UID          string    `json:"uid" bson:"_id"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	DisplayName  string    `json:"display_name,omitempty" bson:"display_name,omitempty"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}
