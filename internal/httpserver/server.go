package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/cors"

	"companyportal/login-service/internal/audit"
	"companyportal/login-service/internal/auth"
	"companyportal/login-service/internal/config"
	"companyportal/login-service/internal/employees"
)

const maxBodyBytes = 1 << 20

const (
	msgLoginSuccess       = "Login successful"
	msgInvalidCredentials = "Invalid credentials"
	msgDatabaseError      = "Database error"
)

type Verifier interface {
	Verify(ctx context.Context, cred auth.Credential) (auth.IdentitySummary, error)
}

type EmployeeStore interface {
	List(ctx context.Context) ([]employees.Record, error)
	Upsert(ctx context.Context, r employees.Record) (employees.Record, error)
}

type AuditLogger interface {
	Log(e audit.Event) error
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	Verifier  Verifier
	Employees EmployeeStore
	Audit     AuditLogger
	DB        Pinger
	Log       *slog.Logger

	// TrustProxyHeaders takes the client address from X-Forwarded-For or
	// X-Real-IP. Enable it only behind a proxy that overwrites them.
	TrustProxyHeaders bool
}

type Server struct {
	httpServer *http.Server
}

func New(cfg config.HTTPConfig, deps Deps) *Server {
	if deps.Log == nil {
		deps.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	handler := NewHandler(deps)

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      corsMiddleware(cfg.CORSAllowedOrigins, loggingMiddleware(deps.Log, deps.TrustProxyHeaders, handler)),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		},
	}
}

func NewHandler(deps Deps) http.Handler {
	if deps.Log == nil {
		deps.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if deps.DB != nil {
			if err := deps.DB.PingContext(r.Context()); err != nil {
				deps.Log.ErrorContext(r.Context(), "readiness ping failed", "error", err)
				writeError(w, http.StatusServiceUnavailable, "database unavailable")
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	registerLoginHandler(mux, deps)
	registerEmployeeHandlers(mux, deps)

	return mux
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string               `json:"message"`
	User    auth.IdentitySummary `json:"user"`
}

func registerLoginHandler(mux *http.ServeMux, deps Deps) {
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if deps.Verifier == nil {
			writeError(w, http.StatusServiceUnavailable, "auth service unavailable")
			return
		}

		// An empty body is treated like missing fields and fails verification.
		var req loginRequest
		if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		id, err := deps.Verifier.Verify(r.Context(), auth.Credential{Username: req.Username, Password: req.Password})
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				auditReq(deps.Audit, r, req.Username, audit.ActionLogin, "", audit.OutcomeDenied, "")
				writeError(w, http.StatusUnauthorized, msgInvalidCredentials)
				return
			}
			deps.Log.ErrorContext(r.Context(), "login verification failed",
				"username", req.Username, "request_id", requestIDFromContext(r.Context()), "error", err)
			auditReq(deps.Audit, r, req.Username, audit.ActionLogin, "", audit.OutcomeError, "storage fault")
			writeError(w, http.StatusInternalServerError, msgDatabaseError)
			return
		}

		auditReq(deps.Audit, r, id.Email, audit.ActionLogin, "", audit.OutcomeSuccess, "role="+string(id.Role))
		writeJSON(w, http.StatusOK, loginResponse{Message: msgLoginSuccess, User: id})
	})
}

func registerEmployeeHandlers(mux *http.ServeMux, deps Deps) {
	mux.HandleFunc("/employees", func(w http.ResponseWriter, r *http.Request) {
		if deps.Employees == nil {
			writeError(w, http.StatusServiceUnavailable, "employee service unavailable")
			return
		}

		switch r.Method {
		case http.MethodGet:
			list, err := deps.Employees.List(r.Context())
			if err != nil {
				deps.Log.ErrorContext(r.Context(), "list employees failed", "error", err)
				writeError(w, http.StatusInternalServerError, msgDatabaseError)
				return
			}
			writeJSON(w, http.StatusOK, list)
		case http.MethodPost:
			var req employees.Record
			if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			req.ID = 0
			if err := employees.Validate(req); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			saved, err := deps.Employees.Upsert(r.Context(), req)
			if err != nil {
				if errors.Is(err, employees.ErrInvalidInput) {
					writeError(w, http.StatusBadRequest, err.Error())
					return
				}
				deps.Log.ErrorContext(r.Context(), "upsert employee failed", "email", req.Email, "error", err)
				auditReq(deps.Audit, r, "", audit.ActionEmployeeUpsert, req.Email, audit.OutcomeError, "storage fault")
				writeError(w, http.StatusInternalServerError, msgDatabaseError)
				return
			}
			auditReq(deps.Audit, r, "", audit.ActionEmployeeUpsert, saved.Email, audit.OutcomeSuccess, "")
			writeJSON(w, http.StatusOK, saved)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func corsMiddleware(origins []string, next http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
	}).Handler(next)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.status = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func loggingMiddleware(log *slog.Logger, trustProxy bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := strings.TrimSpace(r.Header.Get("X-Request-Id"))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", reqID)
		ip := clientIP(r, trustProxy)
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		r = r.WithContext(context.WithValue(ctx, clientIPKey{}, ip))
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		log.InfoContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", reqID,
			"client_ip", ip,
		)
	})
}

type requestIDKey struct{}

func requestIDFromContext(ctx context.Context) string {
	s, _ := ctx.Value(requestIDKey{}).(string)
	return s
}

type clientIPKey struct{}

// requestClientIP returns the address resolved by loggingMiddleware, or the
// peer address when the handler runs without it.
func requestClientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(clientIPKey{}).(string); ok {
		return ip
	}
	return clientIP(r, false)
}

func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
			parts := strings.Split(fwd, ",")
			return strings.TrimSpace(parts[0])
		}
		if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
			return realIP
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

func auditReq(a AuditLogger, r *http.Request, actor, action, target, outcome, detail string) {
	if a == nil {
		return
	}
	_ = a.Log(audit.Event{
		Actor:     actor,
		Action:    action,
		Target:    target,
		Outcome:   outcome,
		RequestID: requestIDFromContext(r.Context()),
		ClientIP:  requestClientIP(r),
		Detail:    detail,
	})
}
