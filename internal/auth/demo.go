package auth

import (
	"fmt"
	"sort"
	"strings"
)

// DemoDirectory is the fixed table of demo accounts. It is built once at
// startup and never mutated afterwards, so it can be shared freely between
// goroutines.
type DemoDirectory struct {
	accounts map[string]DemoAccount
}

func DefaultDemoAccounts() []DemoAccount {
	return []DemoAccount{
		{Email: "admin@company.com", Password: "admin123", Role: RoleAdmin, DisplayName: "Admin User"},
		{Email: "hr@company.com", Password: "hr123", Role: RoleHR, DisplayName: "HR Manager"},
		{Email: "manager@company.com", Password: "manager123", Role: RoleManager, DisplayName: "Team Manager"},
		{Email: "employee@company.com", Password: "emp123", Role: RoleEmployee, DisplayName: "John Employee"},
	}
}

func NewDemoDirectory(accounts ...DemoAccount) (*DemoDirectory, error) {
	d := &DemoDirectory{accounts: make(map[string]DemoAccount, len(accounts))}
	for _, a := range accounts {
		if strings.TrimSpace(a.Email) == "" {
			return nil, fmt.Errorf("demo account email is required")
		}
		if !a.Role.Valid() {
			return nil, fmt.Errorf("demo account %s: invalid role %q", a.Email, a.Role)
		}
		if _, dup := d.accounts[a.Email]; dup {
			return nil, fmt.Errorf("duplicate demo account %s", a.Email)
		}
		d.accounts[a.Email] = a
	}
	return d, nil
}

func (d *DemoDirectory) Get(email string) (DemoAccount, bool) {
	if d == nil {
		return DemoAccount{}, false
	}
	a, ok := d.accounts[email]
	return a, ok
}

func (d *DemoDirectory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.accounts)
}

// Emails returns the account keys in sorted order.
func (d *DemoDirectory) Emails() []string {
	if d == nil {
		return nil
	}
	out := make([]string, 0, len(d.accounts))
	for email := range d.accounts {
		out = append(out, email)
	}
	sort.Strings(out)
	return out
}
