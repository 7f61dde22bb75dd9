package jobshandler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"scorecard/internal/domain/auth"
	"scorecard/internal/platform/jobs"
	"scorecard/internal/transport/http/api"
	"scorecard/internal/transport/http/middleware"
	"scorecard/internal/transport/http/shared"
)

type Handler struct {
	Service *jobs.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *jobs.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.CapJobsRead, h.Perms)).Get("/jobs", h.handleList)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	page := shared.ParsePagination(r, 25, 100)
	jobType := strings.TrimSpace(r.URL.Query().Get("type"))
	runs, total, err := h.Service.List(r.Context(), user.TenantID, jobType, page.Limit, page.Offset)
	if err != nil {
		slog.Error("job run list failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "job_list_failed", "failed to list job runs", requestID)
		return
	}
	if runs == nil {
		runs = []jobs.Run{}
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, api.Page{Items: runs, Total: total, Limit: page.Limit, Offset: page.Offset}, requestID)
}
