package auth

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrStorage            = errors.New("storage error")
)

// Lookup resolves a credential against one source of accounts. A miss is
// reported as ok == false with a nil error; err is reserved for faults of
// the source itself.
type Lookup interface {
	Lookup(ctx context.Context, cred Credential) (IdentitySummary, bool, error)
}

type DemoLookup struct {
	dir *DemoDirectory
}

func NewDemoLookup(dir *DemoDirectory) *DemoLookup {
	return &DemoLookup{dir: dir}
}

func (l *DemoLookup) Lookup(_ context.Context, cred Credential) (IdentitySummary, bool, error) {
	a, ok := l.dir.Get(cred.Username)
	if !ok || a.Password != cred.Password {
		return IdentitySummary{}, false, nil
	}
	return IdentitySummary{
		Email:       cred.Username,
		Role:        a.Role,
		DisplayName: a.DisplayName,
	}, true, nil
}

// StoreLookup matches against persisted users. The table has no role or
// display name columns, so every match is an employee named after its
// username.
type StoreLookup struct {
	users UserStore
}

func NewStoreLookup(users UserStore) *StoreLookup {
	return &StoreLookup{users: users}
}

func (l *StoreLookup) Lookup(ctx context.Context, cred Credential) (IdentitySummary, bool, error) {
	u, err := l.users.FindByCredentials(ctx, cred.Username, cred.Password)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return IdentitySummary{}, false, nil
		}
		return IdentitySummary{}, false, err
	}
	return IdentitySummary{
		Email:       u.Username,
		Role:        RoleEmployee,
		DisplayName: u.Username,
	}, true, nil
}

// Verifier tries its lookups in order and stops at the first match. It holds
// no mutable state.
type Verifier struct {
	lookups []Lookup
}

func NewVerifier(lookups ...Lookup) (*Verifier, error) {
	if len(lookups) == 0 {
		return nil, fmt.Errorf("at least one lookup is required")
	}
	for i, l := range lookups {
		if l == nil {
			return nil, fmt.Errorf("lookup %d is nil", i)
		}
	}
	return &Verifier{lookups: append([]Lookup(nil), lookups...)}, nil
}

// NewDefaultVerifier checks the demo table first and the user store second.
// A nil directory skips the demo step.
func NewDefaultVerifier(demo *DemoDirectory, users UserStore) (*Verifier, error) {
	if users == nil {
		return nil, fmt.Errorf("user store is required")
	}
	var lookups []Lookup
	if demo != nil {
		lookups = append(lookups, NewDemoLookup(demo))
	}
	lookups = append(lookups, NewStoreLookup(users))
	return NewVerifier(lookups...)
}

// Verify compares username and password exactly as given: no trimming, no
// case folding, no hashing. Unknown users and wrong passwords both yield
// ErrInvalidCredentials.
func (v *Verifier) Verify(ctx context.Context, cred Credential) (IdentitySummary, error) {
	for _, l := range v.lookups {
		id, ok, err := l.Lookup(ctx, cred)
		if err != nil {
			return IdentitySummary{}, fmt.Errorf("%w: %w", ErrStorage, err)
		}
		if ok {
			return id, nil
		}
	}
	return IdentitySummary{}, ErrInvalidCredentials
}
