package authhandler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"scorecard/internal/domain/audit"
	"scorecard/internal/domain/auth"
	"scorecard/internal/domain/directory"
	"scorecard/internal/transport/http/api"
	"scorecard/internal/transport/http/middleware"
	"scorecard/internal/transport/http/shared"
)

type Handler struct {
	Service   *auth.Service
	Directory *directory.Service
	Audit     *audit.Service
}

func NewHandler(service *auth.Service, directorySvc *directory.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Directory: directorySvc, Audit: auditSvc}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type meResponse struct {
	UserID     string   `json:"userId"`
	TenantID   string   `json:"tenantId"`
	Role       string   `json:"role"`
	Name       string   `json:"name,omitempty"`
	Department string   `json:"department,omitempty"`
	Email      string   `json:"email,omitempty"`
	Can        []string `json:"capabilities"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.HandleLogin)
		r.Get("/me", h.HandleMe)
	})
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, requestID) {
		return
	}

	result, err := h.Service.Login(r.Context(), payload.Email, payload.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
		return
	}
	if err != nil {
		slog.Error("login failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "login_failed", "failed to sign in", requestID)
		return
	}

	if h.Audit != nil {
		if err := h.Audit.Record(r.Context(), result.TenantID, result.UserID, audit.ActionLogin, "user", result.UserID, requestID, shared.ClientIP(r), nil, nil); err != nil {
			slog.Warn("audit login failed", "err", err)
		}
	}
	api.Success(w, result, requestID)
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	resp := meResponse{UserID: user.UserID, TenantID: user.TenantID, Role: user.RoleName, Can: capabilitiesFor(user.RoleName)}
	if h.Directory != nil {
		person, err := h.Directory.Get(r.Context(), user.TenantID, user.UserID)
		if err != nil && !errors.Is(err, directory.ErrPersonNotFound) {
			slog.Warn("me directory lookup failed", "userId", user.UserID, "err", err)
		}
		resp.Name = person.Name
		resp.Department = person.Department
		resp.Email = person.Email
	}
	api.Success(w, resp, requestID)
}

func capabilitiesFor(role string) []string {
	out := []string{}
	for _, capability := range auth.Capabilities() {
		if auth.Allowed(role, capability) {
			out = append(out, capability)
		}
	}
	return out
}

