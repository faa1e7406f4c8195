package types

import (
	"time"

	"github.com/google/uuid"
)

// Prefixes distinguish rule ids from group ids at a glance.
const (
	RuleIDPrefix  = "r-"
	GroupIDPrefix = "g-"
)

// IDProvider generates unique identifiers for new tree nodes.
type IDProvider interface {
	RuleID() string
	GroupID() string
}

// UUIDProvider generates prefixed UUIDv7 identifiers.
// Time-ordered ids keep saved filters sortable by creation.
type UUIDProvider struct{}

// RuleID generates a UUIDv7 rule identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func (UUIDProvider) RuleID() string {
	return RuleIDPrefix + uuid.Must(uuid.NewV7()).String()
}

// GroupID generates a UUIDv7 group identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func (UUIDProvider) GroupID() string {
	return GroupIDPrefix + uuid.Must(uuid.NewV7()).String()
}

// NewSessionID generates a UUIDv7 editor session identifier.
func NewSessionID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewFilterID generates a UUIDv7 saved filter identifier.
func NewFilterID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// ParseSessionID validates a session identifier.
// Rejects malformed UUIDs to prevent invalid IDs from entering the system.
func ParseSessionID(s string) (string, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", err
	}
	return s, nil
}

// NodeIDTime extracts the timestamp embedded in a prefixed UUIDv7 node id.
// Returns zero time for ids not produced by UUIDProvider; caller should check IsZero().
func NodeIDTime(id string) time.Time {
	if len(id) > 2 && (id[:2] == RuleIDPrefix || id[:2] == GroupIDPrefix) {
		id = id[2:]
	}
	u, err := uuid.Parse(id)
	if err != nil || u.Version() != 7 {
		return time.Time{}
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec)
}
