package http_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
	authhttp "github.com/aussiebroadwan/shopauth/internal/auth/http"
	"github.com/aussiebroadwan/shopauth/internal/auth/metrics"
	"github.com/aussiebroadwan/shopauth/internal/auth/service"
	"github.com/aussiebroadwan/shopauth/pkg/authsdk"
	"github.com/aussiebroadwan/shopauth/pkg/httpx"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestRegisterAndSignIn(t *testing.T) {
	env := newTestEnv(t, withStrategy(service.StrategyDatabase))
	srv := httptest.NewServer(env.Router)
	defer srv.Close()

	client := authsdk.NewSDKClient(srv.URL)
	ctx := t.Context()

	reg, err := client.Register(ctx, authsdk.RegisterRequest{
		Name:            "Jane Shopper",
		Email:           "Jane@Example.com",
		Password:        "Sup3rSecret!",
		ConfirmPassword: "Sup3rSecret!",
	})
	require.NoError(t, err)
	require.Equal(t, "Account created successfully", reg.Message)
	require.Equal(t, "Jane@Example.com", reg.User.Email)
	require.Equal(t, authsdk.RoleUser, reg.User.Role)

	t.Run("duplicate email conflicts", func(t *testing.T) {
		_, err := client.Register(ctx, authsdk.RegisterRequest{
			Name: "Jane Again", Email: "jane@example.com",
			Password: "Sup3rSecret!", ConfirmPassword: "Sup3rSecret!",
		})
		var apiErr *authsdk.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusConflict, apiErr.StatusCode)
		require.Equal(t, "User already exists", apiErr.Description)
	})

	t.Run("validation reports fields", func(t *testing.T) {
		_, err := client.Register(ctx, authsdk.RegisterRequest{
			Name: "J", Email: "not-an-email", Password: "weak", ConfirmPassword: "other",
		})
		var apiErr *authsdk.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		require.Contains(t, apiErr.Fields, "name")
		require.Contains(t, apiErr.Fields, "email")
		require.Contains(t, apiErr.Fields, "password")
		require.Equal(t, "Passwords don't match", apiErr.Fields["confirmPassword"])
	})

	session, err := client.SignInWithCredentials(ctx, "jane@example.com", "Sup3rSecret!")
	require.NoError(t, err)
	require.NotEmpty(t, session.Token())

	me, err := session.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, reg.User.ID, me.ID)
	require.Equal(t, authsdk.RoleUser, me.Role)

	current, err := session.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, current.User)
	require.Equal(t, "Jane@Example.com", current.User.Email)

	token := session.Token()
	require.NoError(t, session.SignOut(ctx))

	// The database row is gone, so the old token no longer authenticates.
	_, err = client.NewSession(token).Me(ctx)
	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	require.Equal(t, 1.0, testutil.ToFloat64(env.Metrics.AuthRegistrationsTotal.WithLabelValues("success")))
	require.Equal(t, 1.0, testutil.ToFloat64(env.Metrics.AuthLoginsTotal.WithLabelValues("credentials", "success")))
}

func TestCredentialFailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice@example.com", "AlicePassw0rd!", domain.RoleUser)

	wrongPassword := serve(env.Router, jsonRequest(http.MethodPost, "/api/auth/callback/credentials",
		`{"email":"alice@example.com","password":"WrongPassw0rd!"}`))
	unknownEmail := serve(env.Router, jsonRequest(http.MethodPost, "/api/auth/callback/credentials",
		`{"email":"nobody@example.com","password":"WrongPassw0rd!"}`))

	require.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	require.Equal(t, wrongPassword.Code, unknownEmail.Code)
	require.Equal(t, wrongPassword.Body.Bytes(), unknownEmail.Body.Bytes())
	require.Contains(t, wrongPassword.Body.String(), "invalid credentials")
	require.Empty(t, wrongPassword.Header().Get("Set-Cookie"))
}

// csrfCookie fetches a CSRF token the way a browser form would.
func csrfCookie(t *testing.T, h http.Handler) *http.Cookie {
	t.Helper()

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/auth/csrf", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body authsdk.CSRFResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.CSRFToken)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, authhttp.CSRFCookieName, cookies[0].Name)
	require.Equal(t, body.CSRFToken, cookies[0].Value)
	require.True(t, cookies[0].HttpOnly)
	return cookies[0]
}

func TestFormSignIn(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "bob@example.com", "BobPassw0rd!", domain.RoleUser)
	csrf := csrfCookie(t, env.Router)

	post := func(form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/callback/credentials", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(csrf)
		return serve(env.Router, req)
	}

	t.Run("success redirects to the callback", func(t *testing.T) {
		rec := post(url.Values{
			"email":       {"bob@example.com"},
			"password":    {"BobPassw0rd!"},
			"callbackUrl": {"/dashboard/orders"},
			"csrfToken":   {csrf.Value},
		})
		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, testBaseURL+"/dashboard/orders", rec.Header().Get("Location"))

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		require.Equal(t, authsdk.SessionCookieName, cookies[0].Name)
		require.True(t, cookies[0].HttpOnly)
		require.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	})

	t.Run("foreign callback falls back to base", func(t *testing.T) {
		rec := post(url.Values{
			"email":       {"bob@example.com"},
			"password":    {"BobPassw0rd!"},
			"callbackUrl": {"https://evil.example/phish"},
			"csrfToken":   {csrf.Value},
		})
		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, testBaseURL, rec.Header().Get("Location"))
	})

	t.Run("failure returns to login", func(t *testing.T) {
		rec := post(url.Values{"email": {"bob@example.com"}, "password": {"nope-nope"}, "csrfToken": {csrf.Value}})
		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, "/auth/login?error=CredentialsSignin", rec.Header().Get("Location"))
	})

	t.Run("multipart form signs in", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("email", "bob@example.com"))
		require.NoError(t, mw.WriteField("password", "BobPassw0rd!"))
		require.NoError(t, mw.WriteField("callbackUrl", "/dashboard"))
		require.NoError(t, mw.WriteField("csrfToken", csrf.Value))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/auth/callback/credentials", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.AddCookie(csrf)
		rec := serve(env.Router, req)

		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, testBaseURL+"/dashboard", rec.Header().Get("Location"))
		require.Equal(t, authsdk.SessionCookieName, rec.Result().Cookies()[0].Name)
	})

	t.Run("missing csrf token is refused", func(t *testing.T) {
		rec := post(url.Values{"email": {"bob@example.com"}, "password": {"BobPassw0rd!"}})
		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, "/auth/login?error=MissingCSRF", rec.Header().Get("Location"))
		require.Empty(t, rec.Result().Cookies())
	})

	t.Run("token without its cookie is refused", func(t *testing.T) {
		form := url.Values{"email": {"bob@example.com"}, "password": {"BobPassw0rd!"}, "csrfToken": {csrf.Value}}
		req := httptest.NewRequest(http.MethodPost, "/api/auth/callback/credentials", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := serve(env.Router, req)
		require.Equal(t, "/auth/login?error=MissingCSRF", rec.Header().Get("Location"))
	})

	t.Run("login page reuses the cookie token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
		req.AddCookie(csrf)
		rec := serve(env.Router, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"csrfToken":"`+csrf.Value+`"`)
		require.Empty(t, rec.Result().Cookies())
	})
}

func TestGatekeeper(t *testing.T) {
	env := newTestEnv(t)

	t.Run("api clients get 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Accept", "application/json")
		rec := serve(env.Router, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), authsdk.ErrorCodeUnauthenticated)
	})

	t.Run("browsers are sent to login", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard/products?page=2", nil)
		req.Header.Set("Accept", "text/html,application/xhtml+xml")
		rec := serve(env.Router, req)
		require.Equal(t, http.StatusFound, rec.Code)
		require.Equal(t, "/auth/login?callbackUrl="+url.QueryEscape("/dashboard/products?page=2"),
			rec.Header().Get("Location"))
		require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")
		require.Equal(t, http.StatusUnauthorized, serve(env.Router, req).Code)
	})

	t.Run("public paths pass", func(t *testing.T) {
		for _, p := range []string{"/", "/auth/login", "/auth/register", "/api/auth/providers", "/api/auth/session", "/livez"} {
			rec := serve(env.Router, httptest.NewRequest(http.MethodGet, p, nil))
			require.Equal(t, http.StatusOK, rec.Code, p)
		}
	})

	t.Run("session cookie authenticates", func(t *testing.T) {
		env.seedUser(t, "carol@example.com", "CarolPassw0rd!", domain.RoleUser)
		login := serve(env.Router, jsonRequest(http.MethodPost, "/api/auth/callback/credentials",
			`{"email":"carol@example.com","password":"CarolPassw0rd!"}`))
		require.Equal(t, http.StatusOK, login.Code)

		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		for _, c := range login.Result().Cookies() {
			req.AddCookie(c)
		}
		rec := serve(env.Router, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), "carol@example.com")
	})

	t.Run("unknown protected route is 404 once authenticated", func(t *testing.T) {
		env.seedUser(t, "dave@example.com", "DavePassw0rd!", domain.RoleUser)
		login := serve(env.Router, jsonRequest(http.MethodPost, "/api/auth/callback/credentials",
			`{"email":"dave@example.com","password":"DavePassw0rd!"}`))
		var out authsdk.SignInResponse
		require.NoError(t, json.Unmarshal(login.Body.Bytes(), &out))

		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		req.Header.Set("Authorization", "Bearer "+out.Token)
		require.Equal(t, http.StatusNotFound, serve(env.Router, req).Code)
	})
}

func TestGatekeeperRateLimit(t *testing.T) {
	env := newTestEnv(t, withLimiter(httpx.NewFixedWindowLimiter(2, time.Hour)))

	get := func(method string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/livez", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		return serve(env.Router, req)
	}

	require.Equal(t, http.StatusOK, get(http.MethodGet).Code)
	require.Equal(t, http.StatusOK, get(http.MethodGet).Code)

	rec := get(http.MethodGet)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
	require.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Equal(t, httpx.ContentSecurityPolicy, rec.Header().Get("Content-Security-Policy"))

	// Preflight is answered before the limiter.
	rec = get(http.MethodOptions)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))

	// Answers from the gatekeeper are counted alongside routed ones.
	require.Equal(t, 2.0, testutil.ToFloat64(
		env.Metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "GET /livez", "200")))
	require.Equal(t, 1.0, testutil.ToFloat64(
		env.Metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, metrics.RouteGatekeeper, "429")))
	require.Equal(t, 1.0, testutil.ToFloat64(
		env.Metrics.HTTPRequestsTotal.WithLabelValues(http.MethodOptions, metrics.RouteGatekeeper, "200")))
}

func TestAdminRoleChange(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser(t, "admin@example.com", "AdminPassword123!", domain.RoleAdmin)
	user := env.seedUser(t, "user@example.com", "UserPassword123!", domain.RoleUser)

	srv := httptest.NewServer(env.Router)
	defer srv.Close()
	client := authsdk.NewSDKClient(srv.URL)
	ctx := t.Context()

	adminSession, err := client.SignInWithCredentials(ctx, "admin@example.com", "AdminPassword123!")
	require.NoError(t, err)
	userSession, err := client.SignInWithCredentials(ctx, "user@example.com", "UserPassword123!")
	require.NoError(t, err)

	t.Run("users cannot change roles", func(t *testing.T) {
		_, err := userSession.UpdateUserRole(ctx, user.ID, authsdk.RoleAdmin)
		var apiErr *authsdk.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	})

	t.Run("last admin cannot be demoted", func(t *testing.T) {
		_, err := adminSession.UpdateUserRole(ctx, admin.ID, authsdk.RoleUser)
		var apiErr *authsdk.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusConflict, apiErr.StatusCode)
	})

	t.Run("invalid role", func(t *testing.T) {
		_, err := adminSession.UpdateUserRole(ctx, user.ID, "OWNER")
		var apiErr *authsdk.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := adminSession.UpdateUserRole(ctx, "01J00000000000000000000000", authsdk.RoleAdmin)
		var apiErr *authsdk.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	})

	t.Run("admin promotes user", func(t *testing.T) {
		updated, err := adminSession.UpdateUserRole(ctx, user.ID, authsdk.RoleAdmin)
		require.NoError(t, err)
		require.Equal(t, authsdk.RoleAdmin, updated.Role)

		me, err := userSession.Me(ctx)
		require.NoError(t, err)
		require.Equal(t, authsdk.RoleAdmin, me.Role)
	})
}

func TestVerificationEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := serve(env.Router, jsonRequest(http.MethodPost, "/api/auth/verification", `{"identifier":"Erin@Example.com"}`))
	require.Equal(t, http.StatusAccepted, rec.Code)

	token := env.Tokens.Token("erin@example.com")
	require.NotEmpty(t, token)
	require.NotContains(t, rec.Body.String(), token)

	verify := "/api/auth/verify?" + url.Values{"identifier": {"erin@example.com"}, "token": {token}}.Encode()
	rec = serve(env.Router, httptest.NewRequest(http.MethodGet, verify, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"verified":true`)

	rec = serve(env.Router, httptest.NewRequest(http.MethodGet, verify, nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), authsdk.ErrorCodeInvalidToken)

	rec = serve(env.Router, jsonRequest(http.MethodPost, "/api/auth/verification", `{"identifier":"nope"}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	require.Equal(t, 1.0, testutil.ToFloat64(env.Metrics.VerificationTotal.WithLabelValues("redeem", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(env.Metrics.VerificationTotal.WithLabelValues("redeem", "failure")))
}

func TestSessionEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := serve(env.Router, httptest.NewRequest(http.MethodGet, "/api/auth/session", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	req.Header.Set("Authorization", "Bearer expired.or.forged")
	rec = serve(env.Router, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{}`, rec.Body.String())
}

func TestProvidersAndOAuthDisabled(t *testing.T) {
	env := newTestEnv(t)

	rec := serve(env.Router, httptest.NewRequest(http.MethodGet, "/api/auth/providers", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var providers authsdk.ProvidersResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &providers))
	require.Len(t, providers, 1)
	require.Equal(t, "credentials", providers["credentials"].Type)
	require.Equal(t, testBaseURL+"/api/auth/callback/credentials", providers["credentials"].CallbackURL)

	rec = serve(env.Router, httptest.NewRequest(http.MethodGet, "/api/auth/signin/google", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), authsdk.ErrorCodeProviderDisabled)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := serve(env.Router, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var health authsdk.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	require.Equal(t, authsdk.HealthOK, health.Status)
	require.Equal(t, authsdk.HealthHealthy, health.Services.Database)
	require.Equal(t, "test", health.Version)

	require.NoError(t, env.Store.Close())
	rec = serve(env.Router, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), authsdk.HealthUnhealthy)
}

func TestIsPublicPath(t *testing.T) {
	cases := map[string]bool{
		"/":                       true,
		"/auth/login":             true,
		"/auth/login/":            true,
		"/auth/loginx":            false,
		"/auth/register":          true,
		"/api/auth/session":       true,
		"/api/authz":              false,
		"/api/health":             true,
		"/api/healthcheck":        false,
		"/livez":                  true,
		"/metrics":                true,
		"/swagger/index.html":     true,
		"/dashboard":              false,
		"/api/me":                 false,
		"/api/admin/users/x/role": false,
	}
	for path, want := range cases {
		require.Equal(t, want, authhttp.IsPublicPath(path), path)
	}
}
