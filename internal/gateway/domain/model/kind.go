package model

import (
	"fmt"

	"buildmarket/internal/shared/errors"
)

// Kind identifies one of the fixed record categories the platform stores.
type Kind string

const (
	KindListing     Kind = "Listing"
	KindBooking     Kind = "Booking"
	KindFavorite    Kind = "Favorite"
	KindLeadRequest Kind = "LeadRequest"
	KindMessage     Kind = "Message"
	KindProfile     Kind = "Profile"
	KindReport      Kind = "Report"
	KindReview      Kind = "Review"
	KindUser        Kind = "User"
)

// collections maps each kind to exactly one collection name. This mapping is
// the on-the-wire contract with the store and must be preserved exactly for
// data continuity. It is immutable at runtime.
var collections = map[Kind]string{
	KindListing:     "listings",
	KindBooking:     "bookings",
	KindFavorite:    "favorites",
	KindLeadRequest: "lead_requests",
	KindMessage:     "messages",
	KindProfile:     "profiles",
	KindReport:      "reports",
	KindReview:      "reviews",
	KindUser:        "users",
}

var byCollection = func() map[string]Kind {
	m := make(map[string]Kind, len(collections))
	for k, c := range collections {
		m[c] = k
	}
	return m
}()

// Kinds returns every registered kind.
func Kinds() []Kind {
	out := make([]Kind, 0, len(collections))
	for k := range collections {
		out = append(out, k)
	}
	return out
}

// Collection returns the collection name bound to the kind.
func (k Kind) Collection() string {
	return collections[k]
}

// Valid reports whether the kind is registered.
func (k Kind) Valid() bool {
	_, ok := collections[k]
	return ok
}

func (k Kind) String() string {
	return string(k)
}

// KindFromCollection resolves a collection name back to its kind.
func KindFromCollection(name string) (Kind, error) {
	if k, ok := byCollection[name]; ok {
		return k, nil
	}
	return "", fmt.Errorf("collection %q: %w", name, errors.ErrUnknownKind)
}
