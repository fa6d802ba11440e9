// Package entity defines the entities and errors used in the application.
// It includes the ShortLink record, which maps a short ID to a long URL, along with its
// associated analytics, and the error taxonomy shared by every layer.
package entity

import (
	"errors"
	"time"
)

// AnonymousOwner is the owner ID recorded for links created without an authenticated caller.
const AnonymousOwner = "anon"

var (
	// ErrInvalidInput is returned when a request is missing required values.
	ErrInvalidInput = errors.New("invalid input")
	// ErrShortIDExists is returned when attempting to create a link with a short ID that is already in use.
	ErrShortIDExists = errors.New("short id exists")
	// ErrGenerationExhausted is returned when no unique short ID was found within the allowed attempts.
	ErrGenerationExhausted = errors.New("short id generation exhausted")
	// ErrStoreUnavailable is returned when the underlying key-value store fails.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrLinkNotFound is returned when a link with the specified short ID cannot be found or has expired.
	ErrLinkNotFound = errors.New("link not found")
)

// ShortLink represents a shortened URL.
type ShortLink struct {
	ShortID   string            // ShortID is the unique key of the link.
	LongURL   string            // LongURL is the target the short ID redirects to.
	ShortURL  string            // ShortURL is the public link, base URL followed by the short ID.
	OwnerID   string            // OwnerID is the creator's username or AnonymousOwner.
	CreatedAt time.Time         // CreatedAt is the creation time with second precision.
	ExpiresAt int64             // ExpiresAt is the epoch second at which the store drops the link.
	HitCount  int64             // HitCount is the best-effort number of redirects served.
	Analytics map[string]string // Analytics holds request metadata captured at creation.
}

// Expired reports whether the link is past its expiry at the given time.
func (l *ShortLink) Expired(now time.Time) bool {
	return l.ExpiresAt <= now.Unix()
}

// IsAnonymous reports whether the owner is the anonymous sentinel or empty.
func IsAnonymous(ownerID string) bool {
	return ownerID == "" || ownerID == AnonymousOwner
}
