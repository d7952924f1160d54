package middleware

import (
	"context"
	"errors"

	"account_service/internal/utils"

	"github.com/sirupsen/logrus"
)

var (
	ErrUnauthorized = errors.New("missing or invalid token")
	ErrForbidden    = errors.New("insufficient role")
)

// TokenVerifier verifies a bearer token and returns its claims
type TokenVerifier interface {
	Verify(token string) (*utils.TokenClaims, error)
}

// AccessGate checks tokens and role claims before privileged operations.
// It has no side effects besides logging.
type AccessGate struct {
	verifier TokenVerifier
	log      logrus.FieldLogger
}

// NewAccessGate creates a new AccessGate
func NewAccessGate(verifier TokenVerifier, log logrus.FieldLogger) *AccessGate {
	return &AccessGate{verifier: verifier, log: log}
}

// Authenticate verifies the token and returns its claims, or ErrUnauthorized
func (g *AccessGate) Authenticate(ctx context.Context, token string) (*utils.TokenClaims, error) {
	if token == "" {
		g.log.WithField("request_id", RequestIDFrom(ctx)).Warn("request without bearer token")
		return nil, ErrUnauthorized
	}

	claims, err := g.verifier.Verify(token)
	if err != nil {
		g.log.WithFields(logrus.Fields{
			"request_id": RequestIDFrom(ctx),
			"reason":     utils.TokenErrorKind(err),
		}).Warn("token rejected")
		return nil, ErrUnauthorized
	}
	return claims, nil
}

// RequireRole authenticates the token and checks that its role claim equals role.
// Returns ErrUnauthorized for a bad token and ErrForbidden for a role mismatch.
func (g *AccessGate) RequireRole(ctx context.Context, token, role string) (*utils.TokenClaims, error) {
	claims, err := g.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	if claims.Role != role {
		g.log.WithFields(logrus.Fields{
			"request_id":    RequestIDFrom(ctx),
			"subject":       claims.Subject,
			"role":          claims.Role,
			"required_role": role,
		}).Warn("role check failed")
		return claims, ErrForbidden
	}
	return claims, nil
}
