package storage

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a user, quote or pending quote id does
	// not resolve to a row.
	ErrNotFound = errors.New("storage: not found")

	// ErrExists is returned when inserting a user that is already registered.
	ErrExists = errors.New("storage: already exists")

	// ErrAlreadyDecided is returned when a pending quote has already been
	// accepted or rejected. A proposal is decided at most once.
	ErrAlreadyDecided = errors.New("storage: proposal already decided")
)

// Pending quote lifecycle. A row starts as StatusPending and moves to
// StatusAccepted or StatusRejected exactly once.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// User is a subscribed recipient.
type User struct {
	ID       int64  // telegram user id (stable external identity)
	Username string // display name, may be empty
	SendTime string // "HH:MM", 24-hour clock
	Active   bool
}

// Quote is one entry of the accepted corpus.
type Quote struct {
	ID     int64
	Text   string
	Author string
}

// PendingQuote is a recipient proposal awaiting moderation.
type PendingQuote struct {
	ID     int64
	UserID int64
	Text   string
	Author string
	Status string
}

// Config configures the SQLite store.
type Config struct {
	Path        string
	BusyTimeout time.Duration // 0 means default
}
