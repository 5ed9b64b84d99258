package auth

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
)

func TestNewPostgresUserStoreRequiresDB(t *testing.T) {
	if _, err := NewPostgresUserStore(nil); err == nil {
		t.Fatalf("expected error for nil database")
	}
}

func TestPostgresUserStoreFindByCredentials(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()

	store, err := NewPostgresUserStore(db)
	if err != nil {
		t.Fatalf("NewPostgresUserStore() error: %v", err)
	}

	mock.ExpectQuery("SELECT id, username, password FROM users WHERE username = \\$1 AND password = \\$2").
		WithArgs("jane", "secret99").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password"}).AddRow(7, "jane", "secret99"))

	u, err := store.FindByCredentials(context.Background(), "jane", "secret99")
	if err != nil {
		t.Fatalf("FindByCredentials() error: %v", err)
	}
	if u.ID != 7 || u.Username != "jane" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestPostgresUserStoreFindByCredentialsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()

	store, _ := NewPostgresUserStore(db)
	mock.ExpectQuery("SELECT id, username, password FROM users").
		WithArgs("missing", "pw").
		WillReturnError(sql.ErrNoRows)

	_, err = store.FindByCredentials(context.Background(), "missing", "pw")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestPostgresUserStoreFindByCredentialsQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()

	store, _ := NewPostgresUserStore(db)
	mock.ExpectQuery("SELECT id, username, password FROM users").
		WillReturnError(errors.New("connection reset"))

	_, err = store.FindByCredentials(context.Background(), "jane", "pw")
	if err == nil || errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected query error, got %v", err)
	}
}

func TestPostgresUserStoreCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()

	store, _ := NewPostgresUserStore(db)
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("jane", "secret99").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

	u, err := store.Create(context.Background(), "jane", "secret99")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if u.ID != 3 {
		t.Fatalf("expected id 3, got %d", u.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestPostgresUserStoreCreateDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()

	store, _ := NewPostgresUserStore(db)
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("jane", "secret99").
		WillReturnError(&pq.Error{Code: pgUniqueViolation})

	if _, err := store.Create(context.Background(), "jane", "secret99"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}
