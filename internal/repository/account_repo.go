package repository

import (
	"context"
	"errors"
	"fmt"

	"account_service/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint violation
const uniqueViolation = "23505"

var (
	ErrUsernameTaken = errors.New("username already taken")
	ErrNotFound      = errors.New("account not found")
)

// AccountRepository defines operations for account data
type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	FindByUsername(ctx context.Context, username string) (*model.Account, error)
	FindByID(ctx context.Context, id int64) (*model.Account, error)
	List(ctx context.Context) ([]model.Account, error)
	Delete(ctx context.Context, id int64) error
}

// DBTX is the subset of pgxpool.Pool used by the repository
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type accountRepository struct {
	db DBTX
}

// NewAccountRepository creates a PostgreSQL backed AccountRepository
func NewAccountRepository(db DBTX) AccountRepository {
	return &accountRepository{db: db}
}

// Create inserts a new account and sets its ID.
// The username unique constraint turns concurrent duplicates into ErrUsernameTaken.
func (r *accountRepository) Create(ctx context.Context, account *model.Account) error {
	sql := `INSERT INTO accounts (username, password_hash, role)
            VALUES ($1, $2, $3) RETURNING id`
	err := r.db.QueryRow(ctx, sql, account.Username, account.PasswordHash, account.Role).Scan(&account.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrUsernameTaken
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// FindByUsername retrieves an account by its username, nil if absent
func (r *accountRepository) FindByUsername(ctx context.Context, username string) (*model.Account, error) {
	account := &model.Account{}
	sql := `SELECT id, username, password_hash, role FROM accounts WHERE username = $1`
	err := r.db.QueryRow(ctx, sql, username).Scan(&account.ID, &account.Username, &account.PasswordHash, &account.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find account by username: %w", err)
	}
	return account, nil
}

// FindByID retrieves an account by its ID, nil if absent
func (r *accountRepository) FindByID(ctx context.Context, id int64) (*model.Account, error) {
	account := &model.Account{}
	sql := `SELECT id, username, password_hash, role FROM accounts WHERE id = $1`
	err := r.db.QueryRow(ctx, sql, id).Scan(&account.ID, &account.Username, &account.PasswordHash, &account.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find account by ID: %w", err)
	}
	return account, nil
}

// List returns every account in insertion order
func (r *accountRepository) List(ctx context.Context) ([]model.Account, error) {
	sql := `SELECT id, username, password_hash, role FROM accounts ORDER BY id`
	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []model.Account{}
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Role); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}
	return accounts, nil
}

// Delete removes an account in a single statement, ErrNotFound if no row matched
func (r *accountRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
