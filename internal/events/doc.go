// Package events carries post-commit domain events from the entity services
// to interested handlers.
//
// Services emit a DomainEvent only after the transaction that produced the
// change has committed; rolled back work never produces an event. The
// in-memory emitter delivers events synchronously, and AuditHandler records
// them in the log and in the tasker_domain_events_total counter.
package events
