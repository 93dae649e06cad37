package http

import (
	"net/http"

	"github.com/aussiebroadwan/shopauth/pkg/authsdk"
	"github.com/aussiebroadwan/shopauth/pkg/cryptox"
	"github.com/aussiebroadwan/shopauth/pkg/httpx"
)

// CSRFCookieName holds the double-submit token for form posts.
const CSRFCookieName = "shopauth.csrf-token"

// csrfFormField is the form field the token is submitted in.
const csrfFormField = "csrfToken"

// csrfToken returns the caller's CSRF token, minting one and setting the
// cookie when there is none yet.
func (rt *Router) csrfToken(w http.ResponseWriter, r *http.Request) (string, error) {
	if c, err := r.Cookie(CSRFCookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   rt.cfg.Production,
		SameSite: http.SameSiteLaxMode,
	})
	return token, nil
}

// validCSRF checks the submitted form token against the cookie. The form
// must already be parsed.
func validCSRF(r *http.Request) bool {
	c, err := r.Cookie(CSRFCookieName)
	if err != nil || c.Value == "" {
		return false
	}
	submitted := r.PostForm.Get(csrfFormField)
	return submitted != "" && cryptox.TokensEqual(c.Value, submitted)
}

// HandleCSRF returns the token browser forms must echo back.
//
//	@Summary		CSRF token
//	@Description	Returns the double-submit token and sets it as a cookie. Form posts to the credentials callback must include it as the csrfToken field.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	authsdk.CSRFResponse	"Token"
//	@Router			/api/auth/csrf [get].
func (h *AuthHandler) HandleCSRF(w http.ResponseWriter, r *http.Request) {
	token, err := h.router.csrfToken(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.CSRFResponse{CSRFToken: token})
}
