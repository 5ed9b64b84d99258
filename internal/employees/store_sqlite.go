package employees

import (
	"context"
	"database/sql"
	"fmt"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, email, role FROM employees ORDER BY id DESC`)
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

func (s *SQLiteStore) Upsert(ctx context.Context, r Record) (Record, error) {
	if err := Validate(r); err != nil {
		return Record{}, err
	}

	const q = `
INSERT INTO employees (name, email, role) VALUES (?, ?, ?)
ON CONFLICT(email) DO UPDATE SET name = excluded.name, role = excluded.role
RETURNING id, name, email, role`
	var saved Record
	if err := s.db.QueryRowContext(ctx, q, r.Name, r.Email, r.Role).Scan(&saved.ID, &saved.Name, &saved.Email, &saved.Role); err != nil {
		return Record{}, fmt.Errorf("upsert employee: %w", err)
	}
	return saved, nil
}
