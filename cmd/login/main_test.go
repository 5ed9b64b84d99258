package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"companyportal/login-service/internal/auth"
	"companyportal/login-service/internal/httpserver"
)

func newServer(t *testing.T) string {
	t.Helper()
	demo, err := auth.NewDemoDirectory(auth.DefaultDemoAccounts()...)
	require.NoError(t, err)
	v, err := auth.NewDefaultVerifier(demo, auth.NewInMemoryUserStore())
	require.NoError(t, err)
	srv := httptest.NewServer(httpserver.NewHandler(httpserver.Deps{Verifier: v}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	orig := readPassword
	t.Cleanup(func() { readPassword = orig })
	readPassword = func(w io.Writer, _ string) (string, error) { return pw, nil }
}

func TestRun_LoginThenWhoamiThenLogout(t *testing.T) {
	url := newServer(t)
	state := filepath.Join(t.TempDir(), "client.json")
	stubPassword(t, "hr123456")

	var out, errOut bytes.Buffer
	// hr123456 is wrong for the demo HR account.
	code := run(context.Background(), []string{"-server", url, "-state", state},
		strings.NewReader("hr@company.com\nhr\n"), &out, &errOut)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut.String(), "password: Invalid credentials")

	stubPassword(t, "admin123")
	out.Reset()
	errOut.Reset()
	code = run(context.Background(), []string{"-server", url, "-state", state, "-remember"},
		strings.NewReader("admin@company.com\nadmin\n"), &out, &errOut)
	require.Equal(t, 0, code, errOut.String())
	assert.Contains(t, out.String(), "Welcome, Admin User (admin)")

	out.Reset()
	code = run(context.Background(), []string{"-state", state, "-whoami"}, strings.NewReader(""), &out, &errOut)
	require.Equal(t, 0, code)
	assert.Equal(t, "Admin User <admin@company.com> role=admin\n", out.String())

	out.Reset()
	code = run(context.Background(), []string{"-state", state, "-logout"}, strings.NewReader(""), &out, &errOut)
	require.Equal(t, 0, code)

	errOut.Reset()
	code = run(context.Background(), []string{"-state", state, "-whoami"}, strings.NewReader(""), &out, &errOut)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut.String(), "Not logged in")
}

func TestRun_RememberedEmailIsDefault(t *testing.T) {
	url := newServer(t)
	state := filepath.Join(t.TempDir(), "client.json")
	stubPassword(t, "emp123")

	var out, errOut bytes.Buffer
	code := run(context.Background(), []string{"-server", url, "-state", state, "-remember"},
		strings.NewReader("employee@company.com\nemployee\n"), &out, &errOut)
	require.Equal(t, 0, code, errOut.String())

	out.Reset()
	code = run(context.Background(), []string{"-server", url, "-state", state},
		strings.NewReader("\nemployee\n"), &out, &errOut)
	require.Equal(t, 0, code, errOut.String())
	assert.Contains(t, out.String(), "Email [employee@company.com]: ")
	assert.Contains(t, out.String(), "Welcome, John Employee (employee)")
}

func TestRun_RoleIsReprompted(t *testing.T) {
	url := newServer(t)
	stubPassword(t, "manager123")

	var out, errOut bytes.Buffer
	code := run(context.Background(), []string{"-server", url, "-state", filepath.Join(t.TempDir(), "c.json")},
		strings.NewReader("manager@company.com\n\nceo\nmanager\n"), &out, &errOut)
	require.Equal(t, 0, code, errOut.String())
	assert.Equal(t, 2, strings.Count(out.String(), "role: Please select your role"))
}

func TestRun_InvalidFormNeverReachesServer(t *testing.T) {
	stubPassword(t, "123")

	var out, errOut bytes.Buffer
	code := run(context.Background(), []string{"-server", "http://127.0.0.1:1", "-state", filepath.Join(t.TempDir(), "c.json")},
		strings.NewReader("not-an-email\nadmin\n"), &out, &errOut)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut.String(), "email: Please enter a valid email address")
	assert.Contains(t, errOut.String(), "password: Password must be at least 6 characters")
}

func TestRun_UnreachableServer(t *testing.T) {
	srv := httptest.NewServer(nil)
	url := srv.URL
	srv.Close()
	stubPassword(t, "admin123")

	var out, errOut bytes.Buffer
	code := run(context.Background(), []string{"-server", url, "-state", filepath.Join(t.TempDir(), "c.json")},
		strings.NewReader("admin@company.com\nadmin\n"), &out, &errOut)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut.String(), "email: Server error, please try again later")
}

func TestRun_BadFlag(t *testing.T) {
	assert.Equal(t, 2, run(context.Background(), []string{"-nope"}, strings.NewReader(""), io.Discard, io.Discard))
}

func TestRun_TimeoutAppliesToRequest(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })
	stubPassword(t, "admin123")

	var out, errOut bytes.Buffer
	code := run(context.Background(), []string{"-server", srv.URL, "-timeout", "50ms", "-state", filepath.Join(t.TempDir(), "c.json")},
		strings.NewReader("admin@company.com\nadmin\n"), &out, &errOut)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut.String(), "email: Server error, please try again later")
}
