package http

import (
	"crypto/sha256"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/shopauth/internal/auth/metrics"
	"github.com/aussiebroadwan/shopauth/internal/auth/service"
	"github.com/aussiebroadwan/shopauth/pkg/cryptox"
	"github.com/aussiebroadwan/shopauth/pkg/slogx"
	"github.com/gorilla/sessions"
)

const (
	oauthStateCookie = "shopauth.oauth-state"
	oauthStateMaxAge = 10 * 60
)

// newStateStore keys the OAuth state cookie from the application secret.
// The cookie is signed and encrypted so the callback target cannot be
// tampered with in transit.
func newStateStore(secret string, production bool) *sessions.CookieStore {
	hashKey := sha256.Sum256([]byte("shopauth/oauth-state/hash:" + secret))
	encKey := sha256.Sum256([]byte("shopauth/oauth-state/enc:" + secret))

	st := sessions.NewCookieStore(hashKey[:], encKey[:])
	st.Options = &sessions.Options{
		Path:     "/api/auth",
		MaxAge:   oauthStateMaxAge,
		HttpOnly: true,
		Secure:   production,
		SameSite: http.SameSiteLaxMode,
	}
	return st
}

func oauthFailure(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, LoginPath+"?error="+code, http.StatusFound)
}

// HandleOAuthSignIn starts an OAuth flow.
//
//	@Summary		Start OAuth sign-in
//	@Description	Stores a random state and the requested callbackUrl in a short-lived cookie and redirects to the provider.
//	@Tags			Auth
//	@Param			provider	path	string	true	"Provider id"
//	@Param			callbackUrl	query	string	false	"Post-login target"
//	@Success		302			"Redirect to the provider"
//	@Failure		404			{object}	authsdk.APIError	"Provider not enabled"
//	@Router			/api/auth/signin/{provider} [get].
func (h *AuthHandler) HandleOAuthSignIn(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("provider")
	provider, err := h.Providers.OAuthProvider(name)
	if err != nil {
		writeError(w, r, err)
		return
	}

	state, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// A stale or tampered cookie decodes with an error; a fresh session is
	// returned either way.
	session, _ := h.router.state.Get(r, oauthStateCookie)
	session.Values["state"] = state
	session.Values["provider"] = name
	session.Values["callback"] = h.Sessions.SafeRedirect(r.URL.Query().Get("callbackUrl"))
	if err := session.Save(r, w); err != nil {
		writeError(w, r, err)
		return
	}

	http.Redirect(w, r, provider.AuthCodeURL(state), http.StatusFound)
}

// HandleOAuthCallback completes an OAuth flow.
//
//	@Summary		OAuth callback
//	@Description	Verifies state, exchanges the code, signs the user in and redirects to the stored callbackUrl. Failures redirect to the login page with an error code.
//	@Tags			Auth
//	@Param			provider	path	string	true	"Provider id"
//	@Param			code		query	string	true	"Authorization code"
//	@Param			state		query	string	true	"State from the sign-in redirect"
//	@Success		302			"Signed in"
//	@Router			/api/auth/callback/{provider} [get].
func (h *AuthHandler) HandleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := slogx.FromContext(ctx)

	name := r.PathValue("provider")
	provider, err := h.Providers.OAuthProvider(name)
	if err != nil {
		writeError(w, r, err)
		return
	}

	session, _ := h.router.state.Get(r, oauthStateCookie)
	saved, _ := session.Values["state"].(string)
	savedProvider, _ := session.Values["provider"].(string)
	callback, _ := session.Values["callback"].(string)

	// The state is single use.
	session.Options.MaxAge = -1
	_ = session.Save(r, w)

	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		l.Info("oauth provider returned an error", slog.String("provider", name), slog.String("error", e))
		h.Metrics.Login(name, metrics.ResultFailure)
		oauthFailure(w, r, "OAuthCallback")
		return
	}
	if saved == "" || savedProvider != name || !cryptox.TokensEqual(saved, q.Get("state")) {
		l.Warn("oauth state mismatch", slog.String("provider", name))
		h.Metrics.Login(name, metrics.ResultFailure)
		oauthFailure(w, r, "OAuthCallback")
		return
	}

	id, err := provider.Exchange(ctx, q.Get("code"))
	if err != nil {
		if errors.Is(err, service.ErrOAuthExchange) {
			l.Warn("oauth exchange failed", slog.String("provider", name), slog.Any("error", err))
			h.Metrics.Login(name, metrics.ResultFailure)
			oauthFailure(w, r, "OAuthCallback")
			return
		}
		if errors.Is(err, service.ErrOAuthAccountNotLinked) {
			h.Metrics.Login(name, metrics.ResultFailure)
			oauthFailure(w, r, "OAuthAccountNotLinked")
			return
		}
		h.Metrics.Login(name, metrics.ResultError)
		writeError(w, r, err)
		return
	}

	issued, err := h.Sessions.SignIn(ctx, id, name)
	if err != nil {
		h.Metrics.Login(name, metrics.ResultError)
		writeError(w, r, err)
		return
	}
	h.Metrics.Login(name, metrics.ResultSuccess)

	h.router.setSessionCookie(w, issued.Token, issued.Expires)
	if callback == "" {
		callback = h.Sessions.SafeRedirect("/")
	}
	http.Redirect(w, r, callback, http.StatusFound)
}
