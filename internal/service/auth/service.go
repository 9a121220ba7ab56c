package auth

import (
	"context"
	"log/slog"
	"sync"

	"github.com/phrazzld/tasker-api/internal/platform/logger"
	"github.com/phrazzld/tasker-api/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// defaultDummyHash is the hash an unknown name is compared against when no
// hash was set with WithDummyHash.
var defaultDummyHash = sync.OnceValue(func() string {
	hash, err := bcrypt.GenerateFromPassword([]byte("tasker-unknown-user"), bcrypt.DefaultCost)
	if err != nil {
		return ""
	}
	return string(hash)
})

// Service exchanges a name and password for an access token.
type Service struct {
	tx       store.Transactor
	verifier PasswordVerifier
	tokens   JWTService
	logger   *slog.Logger

	// dummyHash is verified against on the unknown-name path so that both
	// failures cost one password comparison.
	dummyHash string
}

// NewService creates an authentication Service.
func NewService(tx store.Transactor, verifier PasswordVerifier, tokens JWTService, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		tx:       tx,
		verifier: verifier,
		tokens:   tokens,
		logger:   logger.With(slog.String("component", "auth_service")),
	}
}

// WithDummyHash sets the hash compared against when the name is unknown. It
// should come from the same hasher, at the same cost, as real user hashes.
func (s *Service) WithDummyHash(hash string) *Service {
	s.dummyHash = hash
	return s
}

func (s *Service) unknownUserHash() string {
	if s.dummyHash != "" {
		return s.dummyHash
	}
	return defaultDummyHash()
}

// Authenticate verifies the credentials and returns a signed access token.
// An unknown name and a wrong password both yield ErrAuthenticationFailed.
// Store failures other than not-found are returned as they are.
func (s *Service) Authenticate(ctx context.Context, name, password string) (string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var token string
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, session store.Session) error {
		user, err := session.Users().GetByName(ctx, name)
		if err != nil {
			if store.IsNotFoundError(err) {
				_ = s.verifier.Compare(s.unknownUserHash(), password)
				log.Debug("authentication failed: unknown user")
				return ErrAuthenticationFailed
			}
			return err
		}

		if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
			log.Debug("authentication failed: password mismatch",
				slog.String("user_id", user.ID.String()))
			return ErrAuthenticationFailed
		}

		token, err = s.tokens.GenerateToken(ctx, user.Name, user.Roles)
		return err
	})
	if err != nil {
		return "", err
	}

	log.Info("user authenticated", slog.String("subject", name))
	return token, nil
}
