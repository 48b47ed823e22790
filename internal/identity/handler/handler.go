// Package handler exposes sign-in over HTTP. Blocked sign-ins are
// translated into account-status advice so the client can tell the
// applicant what to do next instead of showing a bare 403.
package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mssola/useragent"

	"jiran/internal/audit"
	"jiran/internal/identity/service"
	"jiran/internal/signup/advisor"
	dErrors "jiran/pkg/domain-errors"
	"jiran/pkg/platform/httputil"
	"jiran/pkg/requestcontext"
)

// Handler handles authentication endpoints.
type Handler struct {
	identity *service.Service
	audit    audit.Publisher
	logger   *slog.Logger
}

// New creates the auth handler.
func New(identity *service.Service, publisher audit.Publisher, logger *slog.Logger) *Handler {
	if publisher == nil {
		publisher = audit.NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{identity: identity, audit: publisher, logger: logger}
}

// Register mounts the auth routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/signin", h.handleSignIn)
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// blockedResponse extends the error envelope with the advisor's verdict.
type blockedResponse struct {
	httputil.ErrorResponse
	Advice advisor.Advice `json:"advice"`
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	session, err := h.identity.SignIn(ctx, req.Email, req.Password)
	if err == nil {
		httputil.WriteJSON(w, http.StatusOK, signInResponse{
			Token:     session.Token,
			ExpiresAt: session.ExpiresAt,
		})
		return
	}

	advice, blocked := advisor.FromError(err)
	if !blocked {
		httputil.WriteError(w, err)
		return
	}

	h.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionSignInBlocked,
		Email:     req.Email,
		RequestID: requestcontext.RequestID(ctx),
		ClientIP:  requestcontext.ClientIP(ctx),
		Device:    deviceSummary(requestcontext.UserAgent(ctx)),
		Details:   map[string]string{"status": advice.Status},
		Timestamp: requestcontext.Now(ctx),
	})

	code := dErrors.CodeOf(err)
	httputil.WriteJSON(w, httputil.StatusFor(code), blockedResponse{
		ErrorResponse: httputil.ErrorResponse{
			Error:   "request_failed",
			Code:    string(code),
			Message: dErrors.MessageOf(err),
		},
		Advice: advice,
	})
}

// deviceSummary condenses a raw User-Agent header into "browser/os" for
// the audit trail.
func deviceSummary(rawUA string) string {
	if rawUA == "" {
		return ""
	}
	ua := useragent.New(rawUA)
	browser, version := ua.Browser()
	if ua.Mobile() {
		return fmt.Sprintf("%s %s / %s (mobile)", browser, version, ua.OS())
	}
	return fmt.Sprintf("%s %s / %s", browser, version, ua.OS())
}
