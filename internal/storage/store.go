package storage

import "context"

// Store is the persistence API used by the bot's components.
type Store interface {
	// Users.
	AddUser(ctx context.Context, u User) error
	GetUser(ctx context.Context, id int64) (User, error)
	DeleteUser(ctx context.Context, id int64) error
	UpdateUserTime(ctx context.Context, id int64, sendTime string) error
	ListActiveUsers(ctx context.Context) ([]User, error)
	SetAllActive(ctx context.Context, active bool) error

	// Quotes.
	AddQuote(ctx context.Context, text, author string) (int64, error)
	DeleteQuote(ctx context.Context, id int64) error
	RandomQuote(ctx context.Context) (Quote, error)
	ListQuotes(ctx context.Context) ([]Quote, error)
	CountQuotes(ctx context.Context) (int, error)

	// Pending quotes (moderation).
	AddPendingQuote(ctx context.Context, userID int64, text, author string) (int64, error)
	GetPendingQuote(ctx context.Context, id int64) (PendingQuote, error)
	// AcceptPendingQuote flips the proposal to accepted and inserts the
	// quote in one transaction. It returns the new quote id.
	AcceptPendingQuote(ctx context.Context, id int64) (int64, error)
	// RejectPendingQuote flips the proposal to rejected.
	RejectPendingQuote(ctx context.Context, id int64) error

	Close() error
}
