package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type SQLiteUserStore struct {
	db *sql.DB
}

func NewSQLiteUserStore(db *sql.DB) (*SQLiteUserStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	return &SQLiteUserStore{db: db}, nil
}

func (s *SQLiteUserStore) FindByCredentials(ctx context.Context, username, password string) (PersistedUser, error) {
	var u PersistedUser
	const q = `SELECT id, username, password FROM users WHERE username = ? AND password = ?`
	err := s.db.QueryRowContext(ctx, q, username, password).Scan(&u.ID, &u.Username, &u.Password)
	if errors.Is(err, sql.ErrNoRows) {
		return PersistedUser{}, ErrUserNotFound
	}
	if err != nil {
		return PersistedUser{}, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

func (s *SQLiteUserStore) Create(ctx context.Context, username, password string) (PersistedUser, error) {
	if username == "" || password == "" {
		return PersistedUser{}, fmt.Errorf("username and password are required")
	}

	u := PersistedUser{Username: username, Password: password}
	const q = `INSERT INTO users (username, password) VALUES (?, ?) RETURNING id`
	if err := s.db.QueryRowContext(ctx, q, username, password).Scan(&u.ID); err != nil {
		if isUniqueViolation(err) {
			return PersistedUser{}, ErrUserExists
		}
		return PersistedUser{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
