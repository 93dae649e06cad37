package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/shopauth/internal/auth/metrics"
	"github.com/aussiebroadwan/shopauth/internal/auth/service"
	"github.com/aussiebroadwan/shopauth/pkg/authsdk"
	"github.com/aussiebroadwan/shopauth/pkg/httpx"
)

type VerificationHandler struct {
	Verification *service.VerificationService
	Metrics      *metrics.Metrics
}

func (h *VerificationHandler) record(action string, err error) {
	result := metrics.ResultSuccess
	var verr *service.ValidationError
	switch {
	case err == nil:
	case errors.As(err, &verr), errors.Is(err, service.ErrTokenNotFound), errors.Is(err, service.ErrTokenExpired):
		result = metrics.ResultFailure
	default:
		result = metrics.ResultError
	}
	h.Metrics.VerificationTotal.WithLabelValues(action, result).Inc()
}

// HandleIssue creates a verification token and delivers it out of band.
//
//	@Summary		Request a verification token
//	@Tags			Verification
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.VerificationRequest		true	"Email to verify"
//	@Success		202		{object}	authsdk.VerificationResponse	"Token issued"
//	@Failure		400		{object}	authsdk.APIError				"Invalid identifier"
//	@Failure		429		{object}	authsdk.APIError				"Rate limited"
//	@Router			/api/auth/verification [post].
func (h *VerificationHandler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	var req authsdk.VerificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	expires, err := h.Verification.Issue(r.Context(), req.Identifier)
	h.record("issue", err)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusAccepted, authsdk.VerificationResponse{
		Message: "Verification token sent",
		Expires: expires,
	})
}

// HandleVerify redeems a verification token. Each token works once.
//
//	@Summary		Redeem a verification token
//	@Tags			Verification
//	@Produce		json
//	@Param			identifier	query		string	true	"Email the token was issued for"
//	@Param			token		query		string	true	"Token value"
//	@Success		200			{object}	authsdk.VerifyResponse	"Verified"
//	@Failure		400			{object}	authsdk.APIError		"Unknown, used or expired token"
//	@Router			/api/auth/verify [get].
func (h *VerificationHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	identifier := q.Get("identifier")

	err := h.Verification.Redeem(r.Context(), identifier, q.Get("token"))
	h.record("redeem", err)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.VerifyResponse{Identifier: identifier, Verified: true})
}
