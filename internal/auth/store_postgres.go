package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const pgUniqueViolation = "23505"

type PostgresUserStore struct {
	db *sql.DB
}

func NewPostgresUserStore(db *sql.DB) (*PostgresUserStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	return &PostgresUserStore{db: db}, nil
}

func (s *PostgresUserStore) FindByCredentials(ctx context.Context, username, password string) (PersistedUser, error) {
	var u PersistedUser
	const q = `SELECT id, username, password FROM users WHERE username = $1 AND password = $2`
	if err := s.db.QueryRowContext(ctx, q, username, password).Scan(&u.ID, &u.Username, &u.Password); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PersistedUser{}, ErrUserNotFound
		}
		return PersistedUser{}, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

func (s *PostgresUserStore) Create(ctx context.Context, username, password string) (PersistedUser, error) {
	if username == "" || password == "" {
		return PersistedUser{}, fmt.Errorf("username and password are required")
	}

	u := PersistedUser{Username: username, Password: password}
	const q = `INSERT INTO users (username, password) VALUES ($1, $2) RETURNING id`
	if err := s.db.QueryRowContext(ctx, q, username, password).Scan(&u.ID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return PersistedUser{}, ErrUserExists
		}
		return PersistedUser{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}
