// Package api handles incoming HTTP requests, request validation and
// response formatting. Handlers pass the authenticated caller to the
// services explicitly and turn every service failure into a response
// through the outcome package, so the status and body for a given failure
// are the same on every route.
package api
