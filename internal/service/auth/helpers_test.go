package auth

import "time"

const testIssuer = "https://tasker.test/issuer"

// NewTestJWTService creates a JWT service with a fixed clock for testing.
func NewTestJWTService(secret string, lifetime time.Duration, timeFunc func() time.Time) JWTService {
	return newHMACJWTService(secret, testIssuer, lifetime, timeFunc)
}
