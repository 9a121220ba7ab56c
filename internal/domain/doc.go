// Package domain defines the core business entities of the task manager:
// users, the projects they own and the tasks they track. Entities are plain
// records with constructors and validation; persistence and business rules
// that span entities live in the store and service packages.
package domain
