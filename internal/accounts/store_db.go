package accounts

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second

	pgUniqueViolation = "23505"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresStore) Register(ctx context.Context, acct Account, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO accounts (id, email, pass_hash, role)
			VALUES ($1, $2, $3, $4)
		`, acct.ID, acct.Email, hash, acct.Role)

		if err == nil {
			return nil
		}
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return err
	})
}

func (s *PostgresStore) Authenticate(ctx context.Context, email, password string) (Account, error) {
	var acct Account

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			SELECT id, email, pass_hash, role
			FROM accounts
			WHERE email = $1
		`, email).Scan(&acct.ID, &acct.Email, &acct.Hash, &acct.Role)
	})

	if err == sql.ErrNoRows {
		return Account{}, ErrBadCredentials
	}
	if err != nil {
		return Account{}, err
	}

	if err := bcrypt.CompareHashAndPassword(acct.Hash, []byte(password)); err != nil {
		return Account{}, ErrBadCredentials
	}

	return acct, nil
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
