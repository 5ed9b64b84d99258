package employees

import "context"

type Store interface {
	// List returns every record, newest first.
	List(ctx context.Context) ([]Record, error)
	// Upsert inserts r, or updates name and role of the row with the same
	// email, and returns the saved row.
	Upsert(ctx context.Context, r Record) (Record, error)
}
