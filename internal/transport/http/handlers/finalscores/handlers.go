package finalscoreshandler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"scorecard/internal/domain/audit"
	"scorecard/internal/domain/auth"
	"scorecard/internal/domain/finalscores"
	"scorecard/internal/domain/scoring"
	"scorecard/internal/transport/http/api"
	"scorecard/internal/transport/http/middleware"
	"scorecard/internal/transport/http/shared"
)

// PeriodJobs runs whole-period recomputation through the job queue.
type PeriodJobs interface {
	EnqueueRecompute(tenantID, period string) bool
	RecomputeNow(ctx context.Context, tenantID, period string) (any, error)
}

type Handler struct {
	Service   *finalscores.Service
	Jobs      PeriodJobs
	Perms     middleware.PermissionStore
	Audit     *audit.Service
	ReportDir string
	Sealer    finalscores.Sealer
}

func NewHandler(service *finalscores.Service, jobs PeriodJobs, perms middleware.PermissionStore, auditSvc *audit.Service, reportDir string, sealer finalscores.Sealer) *Handler {
	return &Handler{Service: service, Jobs: jobs, Perms: perms, Audit: auditSvc, ReportDir: reportDir, Sealer: sealer}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/final-scores/{period}", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.CapFinalScoresRead, h.Perms)).Get("/", h.handleRanking)
		r.With(middleware.RequirePermission(auth.CapFinalScoresRead, h.Perms)).Get("/report.pdf", h.handleReport)
		r.With(middleware.RequirePermission(auth.CapFinalScoresCompute, h.Perms)).Post("/recompute", h.handleRecomputePeriod)
		r.With(middleware.RequirePermission(auth.CapFinalScoresRead, h.Perms)).Get("/{subjectID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.CapFinalScoresCompute, h.Perms)).Post("/{subjectID}/recompute", h.handleRecompute)
		r.With(middleware.RequirePermission(auth.CapFinalScoresFinal, h.Perms)).Post("/{subjectID}/finalize", h.handleFinalize)
		r.With(middleware.RequirePermission(auth.CapFinalScoresFinal, h.Perms)).Post("/{subjectID}/unlock", h.handleUnlock)
	})
}

func (h *Handler) handleRanking(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	ranking, err := h.Service.Ranking(r.Context(), user.TenantID, chi.URLParam(r, "period"))
	if err != nil {
		writeError(w, err, requestID, "ranking_failed", "failed to build ranking")
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(len(ranking.Entries)))
	api.Success(w, ranking, requestID)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	ranking, err := h.Service.Ranking(r.Context(), user.TenantID, chi.URLParam(r, "period"))
	if err != nil {
		writeError(w, err, requestID, "report_failed", "failed to build ranking report")
		return
	}
	var buf bytes.Buffer
	if err := finalscores.WriteRankingReport(&buf, ranking); err != nil {
		slog.Error("ranking report render failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to render ranking report", requestID)
		return
	}
	if h.ReportDir != "" && user.Can(auth.CapFinalScoresCompute) {
		if path, err := finalscores.ArchiveRankingReport(h.ReportDir, user.TenantID, ranking.Period, buf.Bytes(), h.Sealer); err != nil {
			slog.Warn("ranking report archive failed", "err", err)
		} else {
			slog.Info("ranking report archived", "path", path)
		}
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=ranking-%s.pdf", ranking.Period))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Warn("ranking report write failed", "err", err)
	}
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	result, err := h.Service.Get(r.Context(), user, chi.URLParam(r, "subjectID"), chi.URLParam(r, "period"))
	if err != nil {
		writeError(w, err, requestID, "final_score_get_failed", "failed to load final score")
		return
	}
	api.Success(w, result, requestID)
}

func (h *Handler) handleRecompute(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	subjectID := chi.URLParam(r, "subjectID")

	result, err := h.Service.Recompute(r.Context(), user.TenantID, subjectID, chi.URLParam(r, "period"))
	if err != nil {
		writeError(w, err, requestID, "recompute_failed", "failed to recompute final score")
		return
	}
	h.record(r, user, audit.ActionCompute, subjectID, nil, result)
	api.Success(w, result, requestID)
}

func (h *Handler) handleRecomputePeriod(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	period := chi.URLParam(r, "period")

	if !scoring.ValidPeriod(period) {
		writeError(w, finalscores.ErrInvalidPeriod, requestID, "", "")
		return
	}
	if h.Jobs == nil {
		api.Fail(w, http.StatusServiceUnavailable, "jobs_unavailable", "job runner not configured", requestID)
		return
	}

	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		details, err := h.Jobs.RecomputeNow(r.Context(), user.TenantID, period)
		h.record(r, user, audit.ActionCompute, period, nil, details)
		if err != nil {
			slog.Warn("period recompute finished with failures", "period", period, "err", err)
			api.FailWithDetails(w, http.StatusInternalServerError, "recompute_failed", "some final scores could not be recomputed", details, requestID)
			return
		}
		api.Success(w, details, requestID)
		return
	}

	if !h.Jobs.EnqueueRecompute(user.TenantID, period) {
		api.Fail(w, http.StatusServiceUnavailable, "queue_full", "job queue is full, retry later", requestID)
		return
	}
	h.record(r, user, audit.ActionCompute, period, nil, map[string]string{"mode": "queued"})
	api.Accepted(w, map[string]string{"status": "queued", "period": period}, requestID)
}

func (h *Handler) handleFinalize(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	subjectID := chi.URLParam(r, "subjectID")

	result, err := h.Service.Finalize(r.Context(), user, subjectID, chi.URLParam(r, "period"))
	if err != nil {
		writeError(w, err, requestID, "finalize_failed", "failed to finalize final score")
		return
	}
	h.record(r, user, audit.ActionFinalize, subjectID, map[string]bool{"isFinal": false}, result)
	api.Success(w, result, requestID)
}

func (h *Handler) handleUnlock(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	subjectID := chi.URLParam(r, "subjectID")

	result, err := h.Service.Unlock(r.Context(), user, subjectID, chi.URLParam(r, "period"))
	if err != nil {
		writeError(w, err, requestID, "unlock_failed", "failed to unlock final score")
		return
	}
	h.record(r, user, audit.ActionUnlock, subjectID, map[string]bool{"isFinal": true}, result)
	api.Success(w, result, requestID)
}

func (h *Handler) record(r *http.Request, user auth.UserContext, action, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	if err := h.Audit.Record(r.Context(), user.TenantID, user.UserID, action, "final_score", entityID, requestID, shared.ClientIP(r), before, after); err != nil {
		slog.Warn("audit final score failed", "action", action, "err", err)
	}
}

func writeError(w http.ResponseWriter, err error, requestID, code, message string) {
	switch {
	case errors.Is(err, finalscores.ErrFinalScoreNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "final score not found", requestID)
	case errors.Is(err, finalscores.ErrSubjectNotFound):
		api.Fail(w, http.StatusNotFound, "unknown_subject", err.Error(), requestID)
	case errors.Is(err, finalscores.ErrLocked):
		api.Fail(w, http.StatusConflict, "locked", err.Error(), requestID)
	case errors.Is(err, finalscores.ErrInvalidPeriod),
		errors.Is(err, finalscores.ErrSubjectRequired),
		errors.Is(err, scoring.ErrInvalidInput):
		api.Fail(w, http.StatusBadRequest, "invalid_request", err.Error(), requestID)
	default:
		slog.Error("final score request failed", "code", code, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}
