package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"account_service/internal/model"
	"account_service/internal/repository"
	"account_service/internal/utils"

	"github.com/sirupsen/logrus"
)

const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "adminpass"
)

// Gate authorizes a bearer token for a role
type Gate interface {
	RequireRole(ctx context.Context, token, role string) (*utils.TokenClaims, error)
}

// TokenIssuer signs access tokens
type TokenIssuer interface {
	Issue(subject, role string) (string, *utils.TokenClaims, error)
}

// RegisterInput carries the fields of a registration request
type RegisterInput struct {
	Username string
	Password string
	Role     string
}

// LoginResult is returned by a successful login
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      model.PublicAccount
}

// AccountService provides account management and authentication.
// Privileged operations take the caller's raw bearer token and authorize it first.
type AccountService interface {
	Register(ctx context.Context, token string, in RegisterInput) (*model.PublicAccount, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	ListUsers(ctx context.Context, token string) ([]model.PublicAccount, error)
	DeleteUser(ctx context.Context, token string, id int64) error
	BootstrapAdmin(ctx context.Context, password string) error
}

type accountService struct {
	repo   repository.AccountRepository
	issuer TokenIssuer
	gate   Gate
	log    logrus.FieldLogger
}

// NewAccountService creates a new AccountService
func NewAccountService(repo repository.AccountRepository, issuer TokenIssuer, gate Gate, log logrus.FieldLogger) AccountService {
	return &accountService{
		repo:   repo,
		issuer: issuer,
		gate:   gate,
		log:    log,
	}
}

// Register creates a new account on behalf of an administrator
func (s *accountService) Register(ctx context.Context, token string, in RegisterInput) (*model.PublicAccount, error) {
	caller, err := s.gate.RequireRole(ctx, token, model.RoleAdmin)
	if err != nil {
		return nil, err
	}

	if verr := missingFields(map[string]string{"username": in.Username, "password": in.Password}, "username", "password"); verr != nil {
		return nil, verr
	}
	if verr := checkLimits(in.Username, in.Password); verr != nil {
		return nil, verr
	}
	role, ok := model.NormalizeRole(in.Role)
	if !ok {
		return nil, &ValidationError{Code: CodeInvalidRole, Message: "role must be user or admin", Fields: []string{"role"}}
	}

	existing, err := s.repo.FindByUsername(ctx, in.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if existing != nil {
		s.log.WithField("username", in.Username).Warn("registration rejected, username taken")
		return nil, ErrUsernameTaken
	}

	hashedPassword, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	account := &model.Account{
		Username:     in.Username,
		PasswordHash: hashedPassword,
		Role:         role,
	}
	// The unique constraint still decides when two registrations race past the check above
	if err := s.repo.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create account in repository: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"account_id": account.ID,
		"username":   account.Username,
		"role":       account.Role,
		"created_by": caller.Subject,
	}).Info("account registered")

	public := account.Public()
	return &public, nil
}

// Login authenticates a user and returns a signed access token
func (s *accountService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if verr := missingFields(map[string]string{"username": username, "password": password}, "username", "password"); verr != nil {
		return nil, verr
	}

	account, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("error finding account by username: %w", err)
	}
	if account == nil {
		s.log.WithFields(logrus.Fields{"username": username, "reason": "unknown_user"}).Warn("login failed")
		return nil, ErrInvalidCredentials
	}

	if !utils.CheckPasswordHash(password, account.PasswordHash) {
		s.log.WithFields(logrus.Fields{"username": username, "reason": "bad_password"}).Warn("login failed")
		return nil, ErrInvalidCredentials
	}

	token, claims, err := s.issuer.Issue(account.Username, account.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.WithField("username", username).Info("login succeeded")
	return &LoginResult{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      account.Public(),
	}, nil
}

// ListUsers returns the public projection of every account
func (s *accountService) ListUsers(ctx context.Context, token string) ([]model.PublicAccount, error) {
	if _, err := s.gate.RequireRole(ctx, token, model.RoleAdmin); err != nil {
		return nil, err
	}

	accounts, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	users := make([]model.PublicAccount, 0, len(accounts))
	for i := range accounts {
		users = append(users, accounts[i].Public())
	}
	return users, nil
}

// DeleteUser removes an account. Deleting a missing account yields ErrNotFound.
func (s *accountService) DeleteUser(ctx context.Context, token string, id int64) error {
	caller, err := s.gate.RequireRole(ctx, token, model.RoleAdmin)
	if err != nil {
		return err
	}

	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to look up account %d: %w", id, err)
	}
	if account == nil {
		return ErrNotFound
	}

	// The delete itself still decides when a concurrent request removed the row first
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete account %d: %w", id, err)
	}

	s.log.WithFields(logrus.Fields{
		"account_id": id,
		"username":   account.Username,
		"deleted_by": caller.Subject,
	}).Info("account deleted")
	return nil
}

// BootstrapAdmin seeds the "admin" account when it does not exist yet
func (s *accountService) BootstrapAdmin(ctx context.Context, password string) error {
	if password == "" {
		password = DefaultAdminPassword
	}
	if verr := checkLimits(DefaultAdminUsername, password); verr != nil {
		return fmt.Errorf("invalid admin bootstrap password: %w", verr)
	}

	existing, err := s.repo.FindByUsername(ctx, DefaultAdminUsername)
	if err != nil {
		return fmt.Errorf("failed to look up admin account: %w", err)
	}
	if existing != nil {
		s.log.Info("admin account already present")
		return nil
	}

	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	admin := &model.Account{Username: DefaultAdminUsername, PasswordHash: hashedPassword, Role: model.RoleAdmin}
	if err := s.repo.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			// Another instance seeded it between our lookup and insert
			return nil
		}
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	entry := s.log.WithField("account_id", admin.ID)
	if password == DefaultAdminPassword {
		entry.Warn("admin account created with the default password, change ADMIN_BOOTSTRAP_PASSWORD")
		return nil
	}
	entry.Info("admin account created")
	return nil
}
