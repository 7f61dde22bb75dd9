package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"scorecard/internal/transport/http/api"
	"scorecard/internal/transport/http/shared"
)

// sweepEvery bounds how many counters a window holds before expired ones are dropped.
const sweepEvery = 1024

type counter struct {
	hits    int
	resetAt time.Time
}

// fixedWindow counts requests per key and resets each key once its span elapses.
type fixedWindow struct {
	mu       sync.Mutex
	limit    int
	span     time.Duration
	keyOf    func(*http.Request) string
	counters map[string]*counter
	now      func() time.Time
}

func newFixedWindow(limit int, span time.Duration, keyOf func(*http.Request) string) *fixedWindow {
	return &fixedWindow{limit: limit, span: span, keyOf: keyOf, counters: map[string]*counter{}, now: time.Now}
}

// take records one hit for key and reports the remaining budget and time to reset.
func (fw *fixedWindow) take(key string) (remaining int, reset time.Duration, allowed bool) {
	now := fw.now()

	fw.mu.Lock()
	defer fw.mu.Unlock()

	c, ok := fw.counters[key]
	if !ok || !now.Before(c.resetAt) {
		if len(fw.counters) >= sweepEvery {
			fw.sweep(now)
		}
		c = &counter{resetAt: now.Add(fw.span)}
		fw.counters[key] = c
	}
	c.hits++
	return fw.limit - c.hits, c.resetAt.Sub(now), c.hits <= fw.limit
}

func (fw *fixedWindow) sweep(now time.Time) {
	for key, c := range fw.counters {
		if !now.Before(c.resetAt) {
			delete(fw.counters, key)
		}
	}
}

// admit charges the request to its key and writes the 429 response when over budget.
func (fw *fixedWindow) admit(w http.ResponseWriter, r *http.Request) bool {
	if fw.limit <= 0 {
		return true
	}
	key := fw.keyOf(r)
	if key == "" {
		key = "ip:" + shared.ClientIP(r)
	}
	remaining, reset, allowed := fw.take(key)
	resetSec := int((reset + time.Second - 1) / time.Second)

	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(fw.limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(remaining, 0)))
	w.Header().Set("X-RateLimit-Reset", strconv.Itoa(resetSec))
	if allowed {
		return true
	}

	w.Header().Set("Retry-After", strconv.Itoa(max(resetSec, 1)))
	slog.Warn("rate limit exceeded", "key", key, "method", r.Method, "path", r.URL.Path, "limit", fw.limit)
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
	return false
}

// RateLimit allows limit requests per span for each signed-in user, or per
// client address for anonymous callers.
func RateLimit(limit int, span time.Duration) func(http.Handler) http.Handler {
	fw := newFixedWindow(limit, span, actorKey)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if fw.admit(w, r) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// SensitiveMutationRateLimit adds tighter budgets on top of RateLimit: login is
// limited per address and per submitted email, reviews and final score
// mutations per actor.
func SensitiveMutationRateLimit(baseLimit int, span time.Duration) func(http.Handler) http.Handler {
	loginLimit := max(baseLimit/4, 1)
	loginByIP := newFixedWindow(loginLimit, span, func(r *http.Request) string { return "ip:" + shared.ClientIP(r) })
	loginByEmail := newFixedWindow(loginLimit, span, loginEmailKey)
	mutations := newFixedWindow(max(baseLimit/2, 1), span, actorKey)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch sensitiveRateScope(r) {
			case sensitiveScopeAuth:
				if !loginByIP.admit(w, r) || !loginByEmail.admit(w, r) {
					return
				}
			case sensitiveScopeActor:
				if !mutations.admit(w, r) {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func actorKey(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.UserID != "" {
		return "user:" + user.TenantID + ":" + user.UserID
	}
	return ""
}

// loginEmailKey peeks at the login body and restores it for the handler.
func loginEmailKey(r *http.Request) string {
	if r.Body == nil || !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return ""
	}
	var body struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(raw, &body) != nil {
		return ""
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if email == "" {
		return ""
	}
	return "email:" + email
}

type sensitiveScope string

const (
	sensitiveScopeNone  sensitiveScope = ""
	sensitiveScopeAuth  sensitiveScope = "auth"
	sensitiveScopeActor sensitiveScope = "actor"
)

var actorMutationSuffixes = map[string][]string{
	"evaluations":  {"review"},
	"final-scores": {"recompute", "finalize", "unlock"},
}

func sensitiveRateScope(r *http.Request) sensitiveScope {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return sensitiveScopeNone
	}

	segments := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1"), "/"), "/")
	if len(segments) == 2 && segments[0] == "auth" && segments[1] == "login" {
		return sensitiveScopeAuth
	}
	if len(segments) < 3 {
		return sensitiveScopeNone
	}
	last := segments[len(segments)-1]
	for _, suffix := range actorMutationSuffixes[segments[0]] {
		if last == suffix {
			return sensitiveScopeActor
		}
	}
	return sensitiveScopeNone
}
