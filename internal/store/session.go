package store

import "context"

// Session groups the stores bound to a single transaction.
// A Session is valid only inside the SessionFn it was handed to.
type Session interface {
	Users() UserStore
	Tasks() TaskStore
	Projects() ProjectStore
}

// SessionFn is a unit of work executed against one Session.
type SessionFn func(ctx context.Context, session Session) error

// Transactor opens a transaction, hands fn a Session bound to it and commits
// when fn returns nil. Any error or panic rolls back every write made through
// the Session.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn SessionFn) error
}
