package http

import (
	"net/http"

	"github.com/aussiebroadwan/shopauth/internal/auth/service"
	"github.com/aussiebroadwan/shopauth/pkg/authsdk"
	"github.com/aussiebroadwan/shopauth/pkg/httpx"
)

// PagesHandler serves JSON stand-ins for the public pages. The shop's UI
// renders them; this service only says what they need.
type PagesHandler struct {
	Providers *service.Providers
	Sessions  *service.SessionService
	Version   string

	router *Router
}

type bannerResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
}

type loginPageResponse struct {
	Providers   []string `json:"providers"`
	CallbackURL string   `json:"callbackUrl"`
	Error       string   `json:"error,omitempty"`
	Action      string   `json:"action"`
	CSRFToken   string   `json:"csrfToken"`
}

type fieldRule struct {
	Name  string   `json:"name"`
	Rules []string `json:"rules"`
}

type registerPageResponse struct {
	Action string      `json:"action"`
	Fields []fieldRule `json:"fields"`
}

// registrationFields mirrors the RegisterInput validation tags for clients
// that validate before submitting.
var registrationFields = []fieldRule{
	{Name: "name", Rules: []string{"required", "min:2", "max:100"}},
	{Name: "email", Rules: []string{"required", "email", "max:254"}},
	{Name: "password", Rules: []string{"required", "min:8", "max:128", "lowercase", "uppercase", "digit", "special:@$!%*?&"}},
	{Name: "confirmPassword", Rules: []string{"required", "equals:password"}},
}

// HandleIndex godoc
//
//	@Summary	Service banner
//	@Tags		Pages
//	@Produce	json
//	@Success	200	{object}	bannerResponse
//	@Router		/ [get].
func (h *PagesHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, bannerResponse{Service: "shopauth", Version: h.Version})
}

// HandleLogin godoc
//
//	@Summary		Login page data
//	@Description	Enabled providers, the validated callbackUrl and the csrfToken the sign-in form should post back.
//	@Tags			Pages
//	@Produce		json
//	@Param			callbackUrl	query		string	false	"Post-login target"
//	@Param			error		query		string	false	"Error code from a failed attempt"
//	@Success		200			{object}	loginPageResponse
//	@Router			/auth/login [get].
func (h *PagesHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	csrf, err := h.router.csrfToken(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, loginPageResponse{
		Providers:   h.Providers.Names(),
		CallbackURL: h.Sessions.SafeRedirect(q.Get("callbackUrl")),
		Error:       q.Get("error"),
		Action:      "/api/auth/callback/credentials",
		CSRFToken:   csrf,
	})
}

// HandleRegister godoc
//
//	@Summary	Registration page data
//	@Tags		Pages
//	@Produce	json
//	@Success	200	{object}	registerPageResponse
//	@Router		/auth/register [get].
func (h *PagesHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, registerPageResponse{
		Action: "/api/auth/register",
		Fields: registrationFields,
	})
}

func notFound(w http.ResponseWriter, r *http.Request) {
	authsdk.ErrNotFound.WriteError(w)
}
