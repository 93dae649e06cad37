package http

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
	"github.com/aussiebroadwan/shopauth/internal/auth/metrics"
	"github.com/aussiebroadwan/shopauth/internal/auth/service"
	"github.com/aussiebroadwan/shopauth/pkg/authsdk"
	"github.com/aussiebroadwan/shopauth/pkg/httpx"
	"github.com/aussiebroadwan/shopauth/pkg/slogx"
)

// AuthHandler serves the /api/auth surface: registration, sign-in with any
// enabled provider, the session endpoint and sign-out.
type AuthHandler struct {
	Sessions     *service.SessionService
	Providers    *service.Providers
	Registration *service.RegistrationService
	Metrics      *metrics.Metrics
	BaseURL      string

	router *Router
}

func userResponse(id, email, name string, role domain.Role) authsdk.UserResponse {
	return authsdk.UserResponse{ID: id, Email: email, Name: name, Role: string(role)}
}

// HandleRegister creates a credentials account.
//
//	@Summary		Register
//	@Description	Creates a USER account with a password. Name, email and password rules are reported per field.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RegisterRequest		true	"Account details"
//	@Success		201		{object}	authsdk.RegisterResponse	"Account created"
//	@Failure		400		{object}	authsdk.APIError			"Validation failed"
//	@Failure		409		{object}	authsdk.APIError			"User already exists"
//	@Failure		429		{object}	authsdk.APIError			"Rate limited"
//	@Router			/api/auth/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.Registration.Register(r.Context(), service.RegisterInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) || errors.Is(err, service.ErrEmailTaken) {
			h.Metrics.Registration(metrics.ResultFailure)
		} else {
			h.Metrics.Registration(metrics.ResultError)
		}
		writeError(w, r, err)
		return
	}

	h.Metrics.Registration(metrics.ResultSuccess)
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusCreated, authsdk.RegisterResponse{
		Message: "Account created successfully",
		User:    userResponse(user.ID, user.Email, user.Name, user.Role),
	})
}

// HandleCredentials signs in with email and password.
//
//	@Summary		Credentials sign-in
//	@Description	Accepts JSON or a form post. JSON callers receive the session token in the body; form posts must carry the csrfToken from /api/auth/csrf and are redirected to the validated callbackUrl with the session cookie set.
//	@Description	Unknown emails and wrong passwords produce the same response.
//	@Tags			Auth
//	@Accept			json,x-www-form-urlencoded,mpfd
//	@Produce		json
//	@Param			request	body		authsdk.CredentialsRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.SignInResponse		"Signed in"
//	@Success		303		"Form post redirected"
//	@Failure		401		{object}	authsdk.APIError	"Invalid credentials"
//	@Failure		429		{object}	authsdk.APIError	"Rate limited"
//	@Router			/api/auth/callback/credentials [post].
func (h *AuthHandler) HandleCredentials(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.Providers.Credentials == nil {
		authsdk.ErrProviderDisabled.WriteError(w)
		return
	}

	form := isFormPost(r)
	var req authsdk.CredentialsRequest
	if form {
		if err := parseForm(w, r); err != nil {
			authsdk.ErrInvalidRequest.WriteError(w)
			return
		}
		// JSON posts need a CORS preflight; forms do not, so they carry
		// the double-submit token instead.
		if !validCSRF(r) {
			slogx.FromContext(ctx).Warn("credentials form post without a valid csrf token")
			http.Redirect(w, r, LoginPath+"?error=MissingCSRF", http.StatusSeeOther)
			return
		}
		req.Email = r.PostForm.Get("email")
		req.Password = r.PostForm.Get("password")
		req.CallbackURL = r.PostForm.Get("callbackUrl")
	} else if !decodeJSON(w, r, &req) {
		return
	}

	id, err := h.Providers.Credentials.Authorize(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.Metrics.Login(service.ProviderCredentials, metrics.ResultFailure)
			if form {
				http.Redirect(w, r, LoginPath+"?error=CredentialsSignin", http.StatusSeeOther)
				return
			}
		} else {
			h.Metrics.Login(service.ProviderCredentials, metrics.ResultError)
		}
		writeError(w, r, err)
		return
	}

	issued, err := h.Sessions.SignIn(ctx, id, service.ProviderCredentials)
	if err != nil {
		h.Metrics.Login(service.ProviderCredentials, metrics.ResultError)
		writeError(w, r, err)
		return
	}
	h.Metrics.Login(service.ProviderCredentials, metrics.ResultSuccess)

	target := h.Sessions.SafeRedirect(req.CallbackURL)
	h.router.setSessionCookie(w, issued.Token, issued.Expires)

	if form {
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.SignInResponse{
		URL:     target,
		Token:   issued.Token,
		Expires: issued.Expires,
		User:    userResponse(id.UserID, id.Email, id.Name, id.Role),
	})
}

// HandleProviders lists the enabled sign-in methods.
//
//	@Summary		List providers
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	authsdk.ProvidersResponse	"Enabled providers keyed by id"
//	@Router			/api/auth/providers [get].
func (h *AuthHandler) HandleProviders(w http.ResponseWriter, r *http.Request) {
	base := strings.TrimSuffix(h.BaseURL, "/")

	resp := authsdk.ProvidersResponse{}
	for _, name := range h.Providers.Names() {
		p := authsdk.Provider{
			ID:          name,
			Type:        "oauth",
			SignInURL:   base + "/api/auth/signin/" + url.PathEscape(name),
			CallbackURL: base + "/api/auth/callback/" + url.PathEscape(name),
		}
		if name == service.ProviderCredentials {
			p.Name = "Credentials"
			p.Type = "credentials"
			p.SignInURL = base + LoginPath
		} else if o, err := h.Providers.OAuthProvider(name); err == nil {
			p.Name = o.DisplayName
		}
		resp[name] = p
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleSession returns the caller's session, extending it when due.
//
//	@Summary		Current session
//	@Description	Returns an empty object when there is no valid session. When the session is extended the new token is set as a cookie and returned in the X-Session-Token header.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.SessionResponse	"Session or empty object"
//	@Router			/api/auth/session [get].
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	httpx.NoCache(w)

	token := sessionToken(r)
	if token == "" {
		httpx.WriteJSON(w, http.StatusOK, authsdk.SessionResponse{})
		return
	}

	view, refreshed, err := h.Sessions.Refresh(ctx, token)
	if err != nil {
		if !errors.Is(err, service.ErrUnauthenticated) {
			writeError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, authsdk.SessionResponse{})
		return
	}

	if refreshed != "" {
		h.router.setSessionCookie(w, refreshed, view.Expires)
		w.Header().Set(authsdk.RefreshedTokenHeader, refreshed)
		h.Metrics.SessionEventsTotal.WithLabelValues("refresh").Inc()
		slogx.FromContext(ctx).Debug("session extended", slog.String("user_id", view.UserID))
	}

	user := userResponse(view.UserID, view.Email, view.Name, view.Role)
	expires := view.Expires
	httpx.WriteJSON(w, http.StatusOK, authsdk.SessionResponse{User: &user, Expires: &expires})
}

// HandleSignOut ends the caller's session and clears the cookie.
//
//	@Summary		Sign out
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.SignOutResponse	"Signed out"
//	@Router			/api/auth/signout [post].
func (h *AuthHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.SignOut(r.Context(), sessionToken(r)); err != nil {
		writeError(w, r, err)
		return
	}

	h.router.clearSessionCookie(w)
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.SignOutResponse{URL: h.Sessions.SafeRedirect(LoginPath)})
}
