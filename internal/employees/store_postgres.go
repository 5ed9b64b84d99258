package employees

import (
	"context"
	"database/sql"
	"fmt"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Record, error) {
	const q = `SELECT id, name, email, role FROM employees ORDER BY id DESC`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Name, &r.Email, &r.Role); err != nil {
			return nil, fmt.Errorf("scan employee row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate employee rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, r Record) (Record, error) {
	if err := Validate(r); err != nil {
		return Record{}, err
	}

	const q = `
INSERT INTO employees (name, email, role)
VALUES ($1, $2, $3)
ON CONFLICT (email) DO UPDATE
SET name = EXCLUDED.name,
	role = EXCLUDED.role
RETURNING id, name, email, role`
	var saved Record
	if err := s.db.QueryRowContext(ctx, q, r.Name, r.Email, r.Role).Scan(&saved.ID, &saved.Name, &saved.Email, &saved.Role); err != nil {
		return Record{}, fmt.Errorf("upsert employee: %w", err)
	}
	return saved, nil
}
