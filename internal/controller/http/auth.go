package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/comments-fetcher/internal/httpx/response"
)

const (
	apiKeyHeader = "X-API-Key"
	apiKeyCookie = "apiKey"
	apiKeyQuery  = "api_key"
	adminName    = "admin"
)

// User is the caller identified by an API key
type User struct {
	ID      string `json:"user_id"`
	Name    string `json:"user_name"`
	IsAdmin bool   `json:"is_admin"`
}

type userKey struct{}

// UserFromContext returns the authenticated caller, if any
func UserFromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userKey{}).(User)
	return u, ok
}

// WithUser stores the caller in ctx
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// Authenticator resolves API keys to users
type Authenticator struct {
	users    map[string]string
	adminKey string
}

// NewAuthenticator creates an authenticator from a key to name map and an admin key
func NewAuthenticator(users map[string]string, adminKey string) *Authenticator {
	return &Authenticator{users: users, adminKey: adminKey}
}

// Lookup resolves an API key
func (a *Authenticator) Lookup(key string) (User, bool) {
	if key == "" {
		return User{}, false
	}
	if a.adminKey != "" && subtle.ConstantTimeCompare([]byte(key), []byte(a.adminKey)) == 1 {
		return User{ID: adminName, Name: adminName, IsAdmin: true}, true
	}
	name, ok := a.users[key]
	if !ok {
		return User{}, false
	}
	return User{ID: name, Name: name}, true
}

// Middleware rejects requests without a valid API key
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := apiKeyFromRequest(r)
		if key == "" {
			response.Unauthorized(w, "api key is required")
			return
		}

		u, ok := a.Lookup(key)
		if !ok {
			response.Unauthorized(w, "invalid api key")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

// RequireAdmin rejects authenticated callers that are not admins
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFromContext(r.Context())
		if !ok {
			response.Unauthorized(w, "api key is required")
			return
		}
		if !u.IsAdmin {
			response.Forbidden(w, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// apiKeyFromRequest reads the key from the header, then the cookie, then the query
func apiKeyFromRequest(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get(apiKeyHeader)); key != "" {
		return key
	}
	if c, err := r.Cookie(apiKeyCookie); err == nil && strings.TrimSpace(c.Value) != "" {
		return strings.TrimSpace(c.Value)
	}
	return strings.TrimSpace(r.URL.Query().Get(apiKeyQuery))
}

// AuthHandler handles HTTP requests about the caller's identity
type AuthHandler struct {
	auth *Authenticator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth *Authenticator) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// RegisterPublicRoutes registers routes reachable without a key
func (h *AuthHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/auth/validate", h.Validate())
}

// RegisterRoutes registers routes behind the auth middleware
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/auth/me", h.Me())
}

// ValidateRequest represents the request body for validating a key
type ValidateRequest struct {
	APIKey string `json:"api_key"`
}

// ValidateResponse represents the response for a valid key
type ValidateResponse struct {
	Valid    bool   `json:"valid"`
	UserName string `json:"user_name"`
	IsAdmin  bool   `json:"is_admin"`
}

// Validate handles POST /auth/validate
func (h *AuthHandler) Validate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ValidateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid request body")
			return
		}
		if strings.TrimSpace(req.APIKey) == "" {
			response.BadRequest(w, "api_key is required")
			return
		}

		u, ok := h.auth.Lookup(strings.TrimSpace(req.APIKey))
		if !ok {
			response.Unauthorized(w, "invalid api key")
			return
		}

		response.OK(w, ValidateResponse{Valid: true, UserName: u.Name, IsAdmin: u.IsAdmin})
	}
}

// Me handles GET /auth/me
func (h *AuthHandler) Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFromContext(r.Context())
		if !ok {
			response.Unauthorized(w, "api key is required")
			return
		}
		response.OK(w, u)
	}
}
