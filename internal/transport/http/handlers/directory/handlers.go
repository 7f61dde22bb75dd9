package directoryhandler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"scorecard/internal/domain/audit"
	"scorecard/internal/domain/auth"
	"scorecard/internal/domain/directory"
	"scorecard/internal/transport/http/api"
	"scorecard/internal/transport/http/middleware"
	"scorecard/internal/transport/http/shared"
)

type Handler struct {
	Service *directory.Service
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

func NewHandler(service *directory.Service, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/directory", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.CapDirectoryRead, h.Perms)).Get("/people", h.handleList)
		r.With(middleware.RequirePermission(auth.CapDirectoryWrite, h.Perms)).Post("/people", h.handleCreate)
		r.With(middleware.RequirePermission(auth.CapDirectoryRead, h.Perms)).Get("/people/{personID}", h.handleGet)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	page := shared.ParsePagination(r, 50, 200)
	filter := directory.Filter{
		Department: r.URL.Query().Get("department"),
		Role:       r.URL.Query().Get("role"),
		Limit:      page.Limit,
		Offset:     page.Offset,
	}
	v := shared.NewValidator()
	if filter.Role != "" && !auth.ValidRole(filter.Role) {
		v.Add("role", "must be one of: admin leader employee")
	}
	if v.Reject(w, requestID) {
		return
	}

	people, total, err := h.Service.List(r.Context(), user.TenantID, filter)
	if err != nil {
		slog.Error("directory list failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "directory_list_failed", "failed to list people", requestID)
		return
	}
	if people == nil {
		people = []directory.Person{}
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, api.Page{Items: people, Total: total, Limit: page.Limit, Offset: page.Offset}, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	person, err := h.Service.Get(r.Context(), user.TenantID, chi.URLParam(r, "personID"))
	if errors.Is(err, directory.ErrPersonNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "person not found", requestID)
		return
	}
	if err != nil {
		slog.Error("directory get failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "directory_get_failed", "failed to load person", requestID)
		return
	}
	api.Success(w, person, requestID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload directory.NewPerson
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, requestID) {
		return
	}

	id, err := h.Service.Create(r.Context(), user.TenantID, payload)
	if errors.Is(err, directory.ErrEmailTaken) {
		api.Fail(w, http.StatusConflict, "email_taken", "email already in use", requestID)
		return
	}
	if err != nil {
		slog.Error("directory create failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "directory_create_failed", "failed to create person", requestID)
		return
	}

	if h.Audit != nil {
		after := map[string]string{"email": payload.Email, "name": payload.Name, "department": payload.Department, "role": payload.Role}
		if err := h.Audit.Record(r.Context(), user.TenantID, user.UserID, audit.ActionCreate, "person", id, requestID, shared.ClientIP(r), nil, after); err != nil {
			slog.Warn("audit person create failed", "err", err)
		}
	}
	api.Created(w, map[string]string{"id": id}, requestID)
}
