// Package logger configures the structured JSON logger and carries
// request-scoped loggers through context.Context.
package logger
