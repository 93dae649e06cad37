package http

import (
	"encoding/json"
	"mime"
	"net/http"
	"time"

	"github.com/aussiebroadwan/shopauth/pkg/authsdk"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a JSON body into v. It writes the error response itself
// and reports whether the handler may continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return false
	}
	return true
}

func isFormPost(r *http.Request) bool {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt == "application/x-www-form-urlencoded" || mt == "multipart/form-data"
}

// parseForm fills r.PostForm from either form encoding.
func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "multipart/form-data" {
		return r.ParseMultipartForm(maxBodyBytes)
	}
	return r.ParseForm()
}

// setSessionCookie hands the session token to browsers. API clients use the
// token from the response body instead.
func (rt *Router) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     authsdk.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   rt.cfg.Production,
		SameSite: http.SameSiteLaxMode,
	})
}

func (rt *Router) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     authsdk.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   rt.cfg.Production,
		SameSite: http.SameSiteLaxMode,
	})
}
