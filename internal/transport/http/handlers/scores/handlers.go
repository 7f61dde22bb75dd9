package scoreshandler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"scorecard/internal/domain/audit"
	"scorecard/internal/domain/auth"
	"scorecard/internal/domain/scores"
	"scorecard/internal/domain/scoring"
	"scorecard/internal/transport/http/api"
	"scorecard/internal/transport/http/middleware"
	"scorecard/internal/transport/http/shared"
)

type Handler struct {
	Service *scores.Service
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

func NewHandler(service *scores.Service, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.CapScoresRead, h.Perms)).Get("/categories", h.handleCategories)
	r.Route("/scores", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.CapScoresRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.CapScoresWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.CapScoresRead, h.Perms)).Get("/subtotals", h.handleSubtotal)
		r.With(middleware.RequirePermission(auth.CapScoresRead, h.Perms)).Get("/summary", h.handleSummary)
		r.With(middleware.RequirePermission(auth.CapScoresRead, h.Perms)).Get("/{entryID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.CapScoresWrite, h.Perms)).Put("/{entryID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.CapScoresWrite, h.Perms)).Delete("/{entryID}", h.handleDelete)
	})
}

type categoryGroup struct {
	Group      string             `json:"group"`
	Categories []scoring.Category `json:"categories"`
}

func (h *Handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	all := scoring.Categories()
	out := make([]categoryGroup, 0, len(scoring.Groups()))
	for _, group := range scoring.Groups() {
		item := categoryGroup{Group: group, Categories: []scoring.Category{}}
		for _, c := range all {
			if c.Group == group {
				item.Categories = append(item.Categories, c)
			}
		}
		out = append(out, item)
	}
	api.Success(w, out, requestID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	filter, ok := parseFilter(w, r, requestID)
	if !ok {
		return
	}
	entries, total, err := h.Service.List(r.Context(), user, filter)
	if err != nil {
		slog.Error("score list failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "score_list_failed", "failed to list score entries", requestID)
		return
	}
	if entries == nil {
		entries = []scoring.ScoreEntry{}
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, api.Page{Items: entries, Total: total, Limit: filter.Limit, Offset: filter.Offset}, requestID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload scores.EntryInput
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	v.Period("period", payload.Period)
	if v.Reject(w, requestID) {
		return
	}

	entry, err := h.Service.Create(r.Context(), user, payload)
	if err != nil {
		writeError(w, err, requestID, "score_create_failed", "failed to record score")
		return
	}
	h.record(r, user, audit.ActionCreate, entry.ID, nil, entry)
	api.Created(w, entry, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	entry, err := h.Service.Get(r.Context(), user, chi.URLParam(r, "entryID"))
	if err != nil {
		writeError(w, err, requestID, "score_get_failed", "failed to load score entry")
		return
	}
	api.Success(w, entry, requestID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	entryID := chi.URLParam(r, "entryID")

	var payload scores.EntryInput
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	v.Period("period", payload.Period)
	if v.Reject(w, requestID) {
		return
	}

	before, _ := h.Service.Get(r.Context(), user, entryID)
	entry, err := h.Service.Update(r.Context(), user, entryID, payload)
	if err != nil {
		writeError(w, err, requestID, "score_update_failed", "failed to update score entry")
		return
	}
	h.record(r, user, audit.ActionUpdate, entry.ID, before, entry)
	api.Success(w, entry, requestID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	entryID := chi.URLParam(r, "entryID")

	before, _ := h.Service.Get(r.Context(), user, entryID)
	if err := h.Service.Delete(r.Context(), user, entryID); err != nil {
		writeError(w, err, requestID, "score_delete_failed", "failed to delete score entry")
		return
	}
	h.record(r, user, audit.ActionDelete, entryID, before, nil)
	api.Success(w, map[string]string{"status": "deleted"}, requestID)
}

func (h *Handler) handleSubtotal(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	query := r.URL.Query()

	v := shared.NewValidator()
	group := strings.TrimSpace(query.Get("group"))
	v.Required("group", group, "group is required")
	v.Enum("group", group, scoring.Groups(), "must be one of: "+strings.Join(scoring.Groups(), " "))
	v.ID("subjectId", query.Get("subjectId"))
	v.Period("period", query.Get("period"))
	if v.Reject(w, requestID) {
		return
	}

	subtotal, err := h.Service.Subtotal(r.Context(), user, query.Get("subjectId"), query.Get("period"), group)
	if err != nil {
		writeError(w, err, requestID, "score_subtotal_failed", "failed to compute subtotal")
		return
	}
	api.Success(w, subtotal, requestID)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	query := r.URL.Query()

	v := shared.NewValidator()
	v.ID("subjectId", query.Get("subjectId"))
	v.Period("period", query.Get("period"))
	if v.Reject(w, requestID) {
		return
	}

	summary, err := h.Service.Summary(r.Context(), user, query.Get("subjectId"), query.Get("period"))
	if err != nil {
		writeError(w, err, requestID, "score_summary_failed", "failed to compute summary")
		return
	}
	api.Success(w, summary, requestID)
}

func (h *Handler) record(r *http.Request, user auth.UserContext, action, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	if err := h.Audit.Record(r.Context(), user.TenantID, user.UserID, action, "score_entry", entityID, requestID, shared.ClientIP(r), before, after); err != nil {
		slog.Warn("audit score entry failed", "action", action, "err", err)
	}
}

func parseFilter(w http.ResponseWriter, r *http.Request, requestID string) (scores.Filter, bool) {
	query := r.URL.Query()
	page := shared.ParsePagination(r, 50, 200)
	filter := scores.Filter{
		SubjectID:  strings.TrimSpace(query.Get("subjectId")),
		RecorderID: strings.TrimSpace(query.Get("recorderId")),
		Period:     strings.TrimSpace(query.Get("period")),
		Group:      strings.TrimSpace(query.Get("group")),
		CategoryID: strings.TrimSpace(query.Get("categoryId")),
		Limit:      page.Limit,
		Offset:     page.Offset,
	}

	v := shared.NewValidator()
	v.ID("subjectId", filter.SubjectID)
	v.ID("recorderId", filter.RecorderID)
	v.Period("period", filter.Period)
	v.Enum("group", filter.Group, scoring.Groups(), "must be one of: "+strings.Join(scoring.Groups(), " "))
	if filter.CategoryID != "" {
		if _, ok := scoring.CategoryByCode(filter.CategoryID); !ok {
			v.Add("categoryId", "unknown category")
		}
	}
	var from, to time.Time
	if raw := strings.TrimSpace(query.Get("from")); raw != "" {
		from, _ = v.Date("from", raw)
	}
	rawTo := strings.TrimSpace(query.Get("to"))
	if rawTo != "" {
		to, _ = v.Date("to", rawTo)
	}
	v.DateOrder("from", from, "to", to)
	if v.Reject(w, requestID) {
		return scores.Filter{}, false
	}
	filter.From = from
	filter.To = to
	// A bare date includes the whole day; a timestamp is used as given.
	if !to.IsZero() && shared.IsDateOnly(rawTo) {
		filter.To = to.AddDate(0, 0, 1)
	}
	return filter, true
}

func writeError(w http.ResponseWriter, err error, requestID, code, message string) {
	switch {
	case errors.Is(err, scores.ErrEntryNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "score entry not found", requestID)
	case errors.Is(err, scores.ErrNotEntryOwner):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), requestID)
	case errors.Is(err, scores.ErrUnknownCategory),
		errors.Is(err, scores.ErrValueOutOfRange),
		errors.Is(err, scores.ErrReasonRequired),
		errors.Is(err, scores.ErrInvalidPeriod),
		errors.Is(err, scores.ErrSubjectRequired),
		errors.Is(err, scores.ErrUnknownGroup),
		errors.Is(err, scoring.ErrInvalidInput):
		api.Fail(w, http.StatusBadRequest, "invalid_score", err.Error(), requestID)
	case errors.Is(err, scores.ErrSubjectNotFound):
		api.Fail(w, http.StatusBadRequest, "unknown_subject", err.Error(), requestID)
	default:
		slog.Error("score request failed", "code", code, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}
