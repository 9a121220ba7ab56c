// Package store defines the persistence contracts for users, tasks and projects
// and the transaction boundary that every service operation runs inside.
//
// Services never hold a store directly. They ask a Transactor for a Session,
// perform their reads and writes through it, and the Transactor commits or
// rolls back the whole unit of work.
package store
