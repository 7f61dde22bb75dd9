package evaluationshandler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"scorecard/internal/domain/audit"
	"scorecard/internal/domain/auth"
	"scorecard/internal/domain/evaluations"
	"scorecard/internal/domain/scoring"
	"scorecard/internal/transport/http/api"
	"scorecard/internal/transport/http/middleware"
	"scorecard/internal/transport/http/shared"
)

type Handler struct {
	Service *evaluations.Service
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

func NewHandler(service *evaluations.Service, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/evaluations", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.CapEvaluationsRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.CapEvaluationsWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.CapEvaluationsRead, h.Perms)).Get("/{evaluationID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.CapEvaluationsWrite, h.Perms)).Put("/{evaluationID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.CapEvaluationsWrite, h.Perms)).Delete("/{evaluationID}", h.handleDelete)
		r.With(middleware.RequirePermission(auth.CapEvaluationsApprove, h.Perms)).Post("/{evaluationID}/review", h.handleReview)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	query := r.URL.Query()

	page := shared.ParsePagination(r, 50, 200)
	filter := evaluations.Filter{
		SubjectID:   strings.TrimSpace(query.Get("subjectId")),
		EvaluatorID: strings.TrimSpace(query.Get("evaluatorId")),
		Period:      strings.TrimSpace(query.Get("period")),
		Kind:        strings.TrimSpace(query.Get("kind")),
		Status:      strings.TrimSpace(query.Get("status")),
		BatchID:     strings.TrimSpace(query.Get("batchId")),
		Limit:       page.Limit,
		Offset:      page.Offset,
	}

	v := shared.NewValidator()
	v.ID("subjectId", filter.SubjectID)
	v.ID("evaluatorId", filter.EvaluatorID)
	v.Period("period", filter.Period)
	v.Enum("kind", filter.Kind, []string{scoring.KindDaily, scoring.KindAnnual}, "must be daily or annual")
	v.Enum("status", filter.Status, []string{scoring.StatusPending, scoring.StatusApproved, scoring.StatusRejected}, "must be pending, approved or rejected")
	if v.Reject(w, requestID) {
		return
	}

	items, total, err := h.Service.List(r.Context(), user, filter)
	if err != nil {
		slog.Error("evaluation list failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "evaluation_list_failed", "failed to list evaluations", requestID)
		return
	}
	if items == nil {
		items = []scoring.Evaluation{}
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, api.Page{Items: items, Total: total, Limit: filter.Limit, Offset: filter.Offset}, requestID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	payload, ok := decodeInput(w, r, requestID)
	if !ok {
		return
	}
	evaluation, err := h.Service.Create(r.Context(), user, payload)
	if err != nil {
		writeError(w, err, requestID, "evaluation_create_failed", "failed to create evaluation")
		return
	}
	h.record(r, user, audit.ActionCreate, evaluation.ID, nil, evaluation)
	api.Created(w, evaluation, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	evaluation, err := h.Service.Get(r.Context(), user, chi.URLParam(r, "evaluationID"))
	if err != nil {
		writeError(w, err, requestID, "evaluation_get_failed", "failed to load evaluation")
		return
	}
	api.Success(w, evaluation, requestID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	evaluationID := chi.URLParam(r, "evaluationID")

	payload, ok := decodeInput(w, r, requestID)
	if !ok {
		return
	}
	before, _ := h.Service.Get(r.Context(), user, evaluationID)
	evaluation, err := h.Service.Update(r.Context(), user, evaluationID, payload)
	if err != nil {
		writeError(w, err, requestID, "evaluation_update_failed", "failed to update evaluation")
		return
	}
	h.record(r, user, audit.ActionUpdate, evaluationID, before, evaluation)
	api.Success(w, evaluation, requestID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	evaluationID := chi.URLParam(r, "evaluationID")

	if err := h.Service.Delete(r.Context(), user, evaluationID); err != nil {
		writeError(w, err, requestID, "evaluation_delete_failed", "failed to delete evaluation")
		return
	}
	h.record(r, user, audit.ActionDelete, evaluationID, nil, nil)
	api.Success(w, map[string]string{"status": "deleted"}, requestID)
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	evaluationID := chi.URLParam(r, "evaluationID")

	var payload evaluations.ReviewInput
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, requestID) {
		return
	}

	evaluation, err := h.Service.Review(r.Context(), user, evaluationID, payload.Decision)
	if err != nil {
		writeError(w, err, requestID, "evaluation_review_failed", "failed to review evaluation")
		return
	}
	h.record(r, user, audit.ActionReview, evaluationID, map[string]string{"status": scoring.StatusPending}, map[string]string{"status": evaluation.Status})
	api.Success(w, evaluation, requestID)
}

func decodeInput(w http.ResponseWriter, r *http.Request, requestID string) (evaluations.EvaluationInput, bool) {
	var payload evaluations.EvaluationInput
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return payload, false
	}
	v := shared.NewValidator()
	v.Struct(payload)
	v.Period("period", payload.Period)
	if payload.Kind == scoring.KindDaily && payload.KeyWorkScore != 0 {
		v.Add("keyWorkScore", "only applies to annual evaluations")
	}
	if v.Reject(w, requestID) {
		return payload, false
	}
	return payload, true
}

func (h *Handler) record(r *http.Request, user auth.UserContext, action, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	if err := h.Audit.Record(r.Context(), user.TenantID, user.UserID, action, "evaluation", entityID, requestID, shared.ClientIP(r), before, after); err != nil {
		slog.Warn("audit evaluation failed", "action", action, "err", err)
	}
}

func writeError(w http.ResponseWriter, err error, requestID, code, message string) {
	switch {
	case errors.Is(err, evaluations.ErrEvaluationNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "evaluation not found", requestID)
	case errors.Is(err, evaluations.ErrNotEvaluator):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), requestID)
	case errors.Is(err, evaluations.ErrNotPending):
		api.Fail(w, http.StatusConflict, "not_pending", err.Error(), requestID)
	case errors.Is(err, evaluations.ErrInvalidKind),
		errors.Is(err, evaluations.ErrScoreOutOfRange),
		errors.Is(err, evaluations.ErrKeyWorkNotAllowed),
		errors.Is(err, evaluations.ErrInvalidPeriod),
		errors.Is(err, evaluations.ErrInvalidDecision),
		errors.Is(err, evaluations.ErrSubjectRequired):
		api.Fail(w, http.StatusBadRequest, "invalid_evaluation", err.Error(), requestID)
	case errors.Is(err, evaluations.ErrSubjectNotFound):
		api.Fail(w, http.StatusBadRequest, "unknown_subject", err.Error(), requestID)
	default:
		slog.Error("evaluation request failed", "code", code, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}
