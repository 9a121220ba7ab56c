// Package auth verifies credentials, issues HMAC-signed access tokens and
// validates them for the HTTP boundary.
package auth
