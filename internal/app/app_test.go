package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"companyportal/login-service/internal/auth"
	"companyportal/login-service/internal/config"
	"companyportal/login-service/internal/employees"
)

func TestOpenDatabase_SQLiteWiresStores(t *testing.T) {
	ctx := context.Background()
	url := filepath.Join(t.TempDir(), "nested", "database.db")

	db, stores, err := OpenDatabase(ctx, config.DatabaseConfig{Driver: config.DriverSQLite, URL: url}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.IsType(t, &auth.SQLiteUserStore{}, stores.Users)
	assert.IsType(t, &employees.SQLiteStore{}, stores.Employees)

	_, err = stores.Users.Create(ctx, "jane", "secret99")
	require.NoError(t, err)
	_, err = stores.Users.FindByCredentials(ctx, "jane", "secret99")
	require.NoError(t, err)

	saved, err := stores.Employees.Upsert(ctx, employees.Record{Name: "A", Email: "a@b.com", Role: "hr"})
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)
}

func TestOpenDatabase_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	cfg := config.DatabaseConfig{Driver: config.DriverSQLite, URL: filepath.Join(t.TempDir(), "database.db")}

	db, stores, err := OpenDatabase(ctx, cfg, nil)
	require.NoError(t, err)
	_, err = stores.Users.Create(ctx, "jane", "secret99")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, stores, err = OpenDatabase(ctx, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	u, err := stores.Users.FindByCredentials(ctx, "jane", "secret99")
	require.NoError(t, err)
	assert.Equal(t, "jane", u.Username)
}

func TestOpenDatabase_UnknownDriver(t *testing.T) {
	_, _, err := OpenDatabase(context.Background(), config.DatabaseConfig{Driver: "mysql", URL: "x"}, nil)
	require.Error(t, err)
}
