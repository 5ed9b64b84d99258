package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"companyportal/login-service/internal/auth"
	"companyportal/login-service/internal/client"
	"companyportal/login-service/internal/prompt"
)

const maxRoleAttempts = 3

var readPassword = prompt.Password

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "login-client.json")
	}
	return filepath.Join(dir, "login-service", "client.json")
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(stderr)
	serverURL := fs.String("server", envOr("LOGIN_SERVER_URL", "http://localhost:3000"), "login service base URL")
	statePath := fs.String("state", defaultStatePath(), "client state file")
	timeout := fs.Duration("timeout", 10*time.Second, "request timeout")
	remember := fs.Bool("remember", false, "remember the email for the next login")
	whoami := fs.Bool("whoami", false, "print the current identity and exit")
	logout := fs.Bool("logout", false, "clear the current identity and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	store, err := client.NewFileIdentityStore(*statePath)
	if err != nil {
		fmt.Fprintf(stderr, "open client state: %v\n", err)
		return 1
	}

	switch {
	case *logout:
		if err := store.ClearCurrent(); err != nil {
			fmt.Fprintf(stderr, "logout: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, "Logged out")
		return 0
	case *whoami:
		id, err := store.Current()
		if errors.Is(err, client.ErrNoIdentity) {
			fmt.Fprintln(stderr, "Not logged in")
			return 1
		}
		if err != nil {
			fmt.Fprintf(stderr, "whoami: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "%s <%s> role=%s\n", id.Name, id.Email, id.Role)
		return 0
	}

	c, err := client.New(*serverURL, store, client.WithHTTPClient(&http.Client{Timeout: *timeout}))
	if err != nil {
		fmt.Fprintf(stderr, "create client: %v\n", err)
		return 1
	}

	in := bufio.NewReader(stdin)
	form, err := readForm(in, stdout, store)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	form.Remember = *remember

	fmt.Fprintln(stdout, "Logging in...")
	id, err := c.Login(ctx, form)
	if err != nil {
		printFieldErrors(stderr, err)
		return 1
	}
	fmt.Fprintf(stdout, "Welcome, %s (%s)\n", id.Name, id.Role)
	return 0
}

func readForm(in *bufio.Reader, out io.Writer, store client.IdentityStore) (client.Form, error) {
	remembered, err := store.Remembered()
	if err != nil {
		return client.Form{}, fmt.Errorf("read remembered user: %w", err)
	}

	email, err := prompt.Line(in, out, "Email", remembered)
	if err != nil {
		return client.Form{}, fmt.Errorf("read email: %w", err)
	}

	role, err := readRole(in, out)
	if err != nil {
		return client.Form{}, err
	}

	password, err := readPassword(out, "Password")
	if err != nil {
		return client.Form{}, err
	}

	return client.Form{Email: email, Password: password, Role: role}, nil
}

func readRole(in *bufio.Reader, out io.Writer) (string, error) {
	label := "Role (" + strings.Join([]string{
		string(auth.RoleAdmin), string(auth.RoleHR), string(auth.RoleManager), string(auth.RoleEmployee),
	}, "/") + ")"

	for attempt := 0; attempt < maxRoleAttempts; attempt++ {
		v, err := prompt.Line(in, out, label, "")
		if err != nil {
			return "", fmt.Errorf("read role: %w", err)
		}
		v = strings.ToLower(strings.TrimSpace(v))
		if err := client.ValidateRole(v); err != nil {
			printFieldErrors(out, err)
			continue
		}
		if !auth.Role(v).Valid() {
			printFieldErrors(out, client.ValidateRole(""))
			continue
		}
		return v, nil
	}
	return "", errors.New("no role selected")
}

func printFieldErrors(w io.Writer, err error) {
	fe := client.NewFieldErrors()
	fe.Show(err)
	if fe.Len() == 0 {
		fmt.Fprintln(w, err)
		return
	}
	for _, field := range []string{client.FieldEmail, client.FieldPassword, client.FieldRole} {
		if msg := fe.Get(field); msg != "" {
			fmt.Fprintf(w, "%s: %s\n", field, msg)
		}
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
