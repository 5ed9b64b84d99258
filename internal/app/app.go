package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"companyportal/login-service/internal/audit"
	"companyportal/login-service/internal/auth"
	"companyportal/login-service/internal/config"
	"companyportal/login-service/internal/employees"
	"companyportal/login-service/internal/httpserver"
	"companyportal/login-service/internal/migrations"
	"companyportal/login-service/internal/observability"
)

type App struct {
	cfg    config.Config
	log    *slog.Logger
	db     *sql.DB
	server *httpserver.Server
}

// Stores bundles the SQL-backed stores of one database connection.
type Stores struct {
	Users     auth.UserStore
	Employees employees.Store
}

// OpenDatabase opens the configured database, applies migrations, and
// builds the stores on top of it. SQLite is limited to a single connection.
func OpenDatabase(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*sql.DB, Stores, error) {
	var (
		db      *sql.DB
		err     error
		dialect migrations.Dialect
	)
	switch cfg.Driver {
	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.URL); cfg.URL != ":memory:" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, Stores{}, fmt.Errorf("mkdir database dir: %w", err)
			}
		}
		db, err = sql.Open("sqlite", cfg.URL)
		dialect = migrations.DialectSQLite
	case config.DriverPostgres:
		db, err = sql.Open("postgres", cfg.URL)
		dialect = migrations.DialectPostgres
	default:
		return nil, Stores{}, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, Stores{}, fmt.Errorf("open database: %w", err)
	}
	if cfg.Driver == config.DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, Stores{}, fmt.Errorf("ping database: %w", err)
	}
	if err := migrations.Up(ctx, db, dialect, log); err != nil {
		_ = db.Close()
		return nil, Stores{}, err
	}

	var stores Stores
	if dialect == migrations.DialectSQLite {
		stores.Users, err = auth.NewSQLiteUserStore(db)
		if err == nil {
			stores.Employees, err = employees.NewSQLiteStore(db)
		}
	} else {
		stores.Users, err = auth.NewPostgresUserStore(db)
		if err == nil {
			stores.Employees, err = employees.NewPostgresStore(db)
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, Stores{}, fmt.Errorf("create stores: %w", err)
	}
	return db, stores, nil
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger := observability.NewLogger(cfg.Log.Level, cfg.Log.Format)

	db, stores, err := OpenDatabase(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	var demo *auth.DemoDirectory
	if cfg.Auth.DemoAccountsEnabled {
		demo, err = auth.NewDemoDirectory(auth.DefaultDemoAccounts()...)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create demo directory: %w", err)
		}
		logger.Info("demo accounts enabled", "count", demo.Len(), "accounts", demo.Emails())
	}
	verifier, err := auth.NewDefaultVerifier(demo, stores.Users)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create verifier: %w", err)
	}

	server := httpserver.New(cfg.HTTP, httpserver.Deps{
		Verifier:  verifier,
		Employees: stores.Employees,
		Audit:     audit.NewLogger(cfg.AuditLogFile),
		DB:        db,
		Log:       logger,

		TrustProxyHeaders: cfg.HTTP.TrustProxyHeaders,
	})

	return &App{
		cfg:    cfg,
		log:    logger,
		db:     db,
		server: server,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	defer func() {
		_ = a.db.Close()
	}()

	errCh := make(chan error, 1)

	go func() {
		a.log.Info("http server starting", "addr", a.cfg.HTTP.Addr, "driver", a.cfg.Database.Driver)
		errCh <- a.server.Start()
	}()

	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server exited: %w", err)
	}
}
