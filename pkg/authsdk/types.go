package authsdk

import "time"

// Roles as they appear on the wire.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// SessionCookieName carries the session token for browser clients.
const SessionCookieName = "shopauth.session-token"

// ============================================================================
// Registration and sign-in
// ============================================================================

type RegisterRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type RegisterResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

type CredentialsRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	CallbackURL string `json:"callbackUrl,omitempty"`
}

// SignInResponse is returned by every successful sign-in. URL is the
// validated post-login redirect target.
type SignInResponse struct {
	URL     string       `json:"url"`
	Token   string       `json:"token"`
	Expires time.Time    `json:"expires"`
	User    UserResponse `json:"user"`
}

type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// SessionResponse is empty when the caller has no valid session.
type SessionResponse struct {
	User    *UserResponse `json:"user,omitempty"`
	Expires *time.Time    `json:"expires,omitempty"`
}

// CSRFResponse carries the token browser forms echo back as csrfToken.
type CSRFResponse struct {
	CSRFToken string `json:"csrfToken"`
}

type SignOutResponse struct {
	URL string `json:"url"`
}

// Provider describes one enabled sign-in method.
type Provider struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	SignInURL   string `json:"signinUrl"`
	CallbackURL string `json:"callbackUrl"`
}

type ProvidersResponse map[string]Provider

// ============================================================================
// Verification tokens
// ============================================================================

type VerificationRequest struct {
	Identifier string `json:"identifier"`
}

type VerificationResponse struct {
	Message string    `json:"message"`
	Expires time.Time `json:"expires"`
}

type VerifyResponse struct {
	Identifier string `json:"identifier"`
	Verified   bool   `json:"verified"`
}

// ============================================================================
// Administration
// ============================================================================

type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// ============================================================================
// Health
// ============================================================================

// LivezResponse is the liveness probe body.
type LivezResponse struct {
	Status string `json:"status"`
}

const (
	HealthOK        = "ok"
	HealthHealthy   = "healthy"
	HealthUnhealthy = "unhealthy"
)

type HealthServices struct {
	Database string `json:"database"`
	Server   string `json:"server"`
}

// HealthResponse reports store reachability.
type HealthResponse struct {
	Status    string         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Services  HealthServices `json:"services"`
	Version   string         `json:"version"`
}
