// Package service holds the entity services for users, tasks and projects.
//
// Every service method runs as one unit of work through store.Transactor:
// reads, version checks, cascades and writes happen against a single
// store.Session and either all commit or all roll back. The caller's
// identity is passed explicitly; ownership checks run inside the unit of
// work after the target row has been loaded, so a missing row is reported as
// not found before any authorization failure.
//
// Domain events are published only after a successful commit.
package service
