package client

import (
	"regexp"
	"strings"
	"sync"
	"unicode/utf16"
)

const (
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldRole     = "role"

	minPasswordLength = 6
)

const (
	msgEmailRequired    = "Email is required"
	msgEmailInvalid     = "Please enter a valid email address"
	msgPasswordRequired = "Password is required"
	msgPasswordShort    = "Password must be at least 6 characters"
	msgRoleRequired     = "Please select your role"
)

// notSpaceOrAt excludes every character a browser regexp treats as \s,
// which is wider than Go's ASCII-only \s.
const notSpaceOrAt = `[^\s\x{0B}\p{Zs}\x{2028}\x{2029}\x{FEFF}@]+`

// emailPattern is a loose local@domain.tld shape, not an RFC 5322 parser.
var emailPattern = regexp.MustCompile(`^` + notSpaceOrAt + `@` + notSpaceOrAt + `\.` + notSpaceOrAt + `$`)

type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

type ValidationErrors []*FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "; ")
}

// ValidateEmail trims surrounding whitespace before checking.
func ValidateEmail(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return &FieldError{Field: FieldEmail, Message: msgEmailRequired}
	}
	if !emailPattern.MatchString(v) {
		return &FieldError{Field: FieldEmail, Message: msgEmailInvalid}
	}
	return nil
}

// ValidatePassword measures length in UTF-16 code units, the way browsers
// count string length, so characters outside the BMP count twice.
// Whitespace is significant.
func ValidatePassword(v string) error {
	if v == "" {
		return &FieldError{Field: FieldPassword, Message: msgPasswordRequired}
	}
	if passwordLength(v) < minPasswordLength {
		return &FieldError{Field: FieldPassword, Message: msgPasswordShort}
	}
	return nil
}

func passwordLength(v string) int {
	return len(utf16.Encode([]rune(v)))
}

func ValidateRole(v string) error {
	if v == "" {
		return &FieldError{Field: FieldRole, Message: msgRoleRequired}
	}
	return nil
}

// Form is what the user typed. Role is collected and checked on selection
// but is not part of the submit gate and is never sent to the server.
type Form struct {
	Email    string
	Password string
	Role     string
	Remember bool
}

// Validate gates a submit on email and password.
func (f Form) Validate() error {
	var errs ValidationErrors
	for _, err := range []error{ValidateEmail(f.Email), ValidatePassword(f.Password)} {
		if fe, ok := err.(*FieldError); ok {
			errs = append(errs, fe)
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// FieldErrors holds the message currently shown next to each field.
type FieldErrors struct {
	mu   sync.Mutex
	msgs map[string]string
}

func NewFieldErrors() *FieldErrors {
	return &FieldErrors{msgs: make(map[string]string)}
}

// Show records err against its field. Errors that are not field errors are
// ignored; a ValidationErrors shows every entry.
func (f *FieldErrors) Show(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch e := err.(type) {
	case *FieldError:
		f.msgs[e.Field] = e.Message
	case ValidationErrors:
		for _, fe := range e {
			f.msgs[fe.Field] = fe.Message
		}
	case *LoginError:
		f.msgs[e.Field] = e.Message
	}
}

// Clear is called whenever the user edits field.
func (f *FieldErrors) Clear(field string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.msgs, field)
}

func (f *FieldErrors) ClearAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = make(map[string]string)
}

func (f *FieldErrors) Get(field string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.msgs[field]
}

func (f *FieldErrors) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs)
}
