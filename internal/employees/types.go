package employees

import "errors"

var ErrInvalidInput = errors.New("name, email, role required")

// Record is a row of the employees table. Email is the upsert key.
type Record struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func Validate(r Record) error {
	if r.Name == "" || r.Email == "" || r.Role == "" {
		return ErrInvalidInput
	}
	return nil
}
