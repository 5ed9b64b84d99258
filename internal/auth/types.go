package auth

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleHR       Role = "hr"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleHR, RoleManager, RoleEmployee:
		return true
	}
	return false
}

// Credential is the username/password pair of a single verification call.
// It is never persisted.
type Credential struct {
	Username string
	Password string
}

type DemoAccount struct {
	Email       string
	Password    string
	Role        Role
	DisplayName string
}

// PersistedUser is a row of the users table. Passwords are stored as plain
// text; production use would require a salted password hash instead.
type PersistedUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"`
}

// IdentitySummary is what a successful verification hands back to the
// client. It carries no signature or expiry: whoever reads it trusts it at
// face value, so it is suitable for demos only.
type IdentitySummary struct {
	Email       string `json:"email"`
	Role        Role   `json:"role"`
	DisplayName string `json:"name"`
}
