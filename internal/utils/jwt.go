package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token failure kinds. All of them end up as a 401 for the client,
// the kind is only used for server-side logging.
const (
	TokenKindExpired          = "expired"
	TokenKindInvalidSignature = "invalid_signature"
	TokenKindMalformed        = "malformed"
)

var (
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenInvalidSignature = errors.New("token signature is invalid")
	ErrTokenMalformed        = errors.New("token is malformed")
)

// DefaultTokenTTL is the lifetime of an access token
const DefaultTokenTTL = time.Hour

// TokenClaims custom claims for JWT
type TokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTUtil provides JWT generation and validation
type JWTUtil struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

// Option configures a JWTUtil
type Option func(*JWTUtil)

// WithClock overrides the time source used for issuing and validating tokens
func WithClock(now func() time.Time) Option {
	return func(ju *JWTUtil) { ju.now = now }
}

// NewJWTUtil creates a new JWTUtil
func NewJWTUtil(secretKey string, ttl time.Duration, opts ...Option) *JWTUtil {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	ju := &JWTUtil{secretKey: []byte(secretKey), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(ju)
	}
	return ju
}

// TTL returns the lifetime applied by Issue
func (ju *JWTUtil) TTL() time.Duration {
	return ju.ttl
}

// Issue signs a token for subject carrying the role claim, valid for the configured TTL
func (ju *JWTUtil) Issue(subject, role string) (string, *TokenClaims, error) {
	return ju.IssueWithTTL(subject, role, ju.ttl)
}

// IssueWithTTL signs a token for subject that expires ttl after issuance
func (ju *JWTUtil) IssueWithTTL(subject, role string, ttl time.Duration) (string, *TokenClaims, error) {
	issuedAt := ju.now()
	claims := &TokenClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(ju.secretKey)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, claims, nil
}

// Verify checks the signature and the [iat, exp) window of a token and returns its claims.
// Errors are one of ErrTokenExpired, ErrTokenInvalidSignature or ErrTokenMalformed.
func (ju *JWTUtil) Verify(tokenString string) (*TokenClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ju.now),
	)

	claims := &TokenClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ju.secretKey, nil
	})
	if err != nil {
		return nil, classifyTokenError(err)
	}
	if !token.Valid {
		return nil, ErrTokenMalformed
	}
	if claims.Subject == "" || claims.Role == "" {
		return nil, fmt.Errorf("%w: missing subject or role claim", ErrTokenMalformed)
	}
	return claims, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrTokenInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired),
		errors.Is(err, jwt.ErrTokenUsedBeforeIssued),
		errors.Is(err, jwt.ErrTokenNotValidYet):
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
}

// TokenErrorKind names the failure class of an error returned by Verify
func TokenErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return TokenKindExpired
	case errors.Is(err, ErrTokenInvalidSignature):
		return TokenKindInvalidSignature
	default:
		return TokenKindMalformed
	}
}
