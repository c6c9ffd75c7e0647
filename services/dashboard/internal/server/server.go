package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"alliancedash/internal/metrics"
	"alliancedash/internal/ratelimit"
	"alliancedash/internal/util"
	"alliancedash/pkg/auth"
	"alliancedash/pkg/domain"
	"alliancedash/pkg/store"
	"alliancedash/services/dashboard/internal/app"
	"alliancedash/services/dashboard/internal/security"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App *app.App
	// Counter backs rate limits and security alerts. nil uses process memory.
	Counter                    ratelimit.Counter
	TrustedProxies             util.TrustedProxies
	CORSOrigins                []string
	LoginRateLimitPerMinute    int
	PasswordRateLimitPerMinute int
	MaxUploadBytes             int64
}

// Server exposes the dashboard HTTP API.
type Server struct {
	app             *app.App
	mux             *http.ServeMux
	trustedProxies  util.TrustedProxies
	corsOrigins     []string
	maxUploadBytes  int64
	loginLimiter    *ratelimit.FixedWindowLimiter
	passwordLimiter *ratelimit.FixedWindowLimiter
	alerter         *security.AuditAlerter
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("server requires an app")
	}
	counter := cfg.Counter
	if counter == nil {
		counter = ratelimit.NewMemoryCounter()
	}
	loginLimit := cfg.LoginRateLimitPerMinute
	if loginLimit <= 0 {
		loginLimit = 10
	}
	passwordLimit := cfg.PasswordRateLimitPerMinute
	if passwordLimit <= 0 {
		passwordLimit = 5
	}
	newLimiter := func(name string, limit int) (*ratelimit.FixedWindowLimiter, error) {
		limiter, err := ratelimit.NewFixedWindowLimiter(counter, "alliancedash:ratelimit:"+name, limit, time.Minute)
		if err != nil {
			return nil, fmt.Errorf("init %s limiter: %w", name, err)
		}
		return limiter, nil
	}
	loginLimiter, err := newLimiter("login", loginLimit)
	if err != nil {
		return nil, err
	}
	passwordLimiter, err := newLimiter("password", passwordLimit)
	if err != nil {
		return nil, err
	}
	s := &Server{
		app:             cfg.App,
		mux:             http.NewServeMux(),
		trustedProxies:  cfg.TrustedProxies,
		corsOrigins:     cfg.CORSOrigins,
		maxUploadBytes:  normalizeMaxBytes(cfg.MaxUploadBytes),
		loginLimiter:    loginLimiter,
		passwordLimiter: passwordLimiter,
		alerter:         security.NewAuditAlerter(counter, ""),
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithSecurityHeaders(
		util.WithCORS(s.corsOrigins)(
			util.WithRequestID(
				util.WithRequestLog(
					metrics.Middleware(s.mux)))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.Handle("GET /metrics", metrics.Handler())

	// auth
	s.mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	s.mux.HandleFunc("POST /api/auth/guest", s.handleGuest)
	s.mux.Handle("POST /api/auth/logout", s.authenticated(s.handleLogout))
	s.mux.Handle("GET /api/auth/me", s.authenticated(s.handleMe))
	s.mux.Handle("POST /api/auth/password", s.adminOnly(s.handleChangePassword))

	// performance records
	s.mux.Handle("GET /api/performance", s.authenticated(s.handleListPerformance))
	s.mux.Handle("POST /api/performance", s.adminOnly(s.handleAddRecord))
	s.mux.Handle("DELETE /api/performance", s.adminOnly(s.handleDeleteAll))
	s.mux.Handle("PUT /api/performance/{id}", s.adminOnly(s.handleUpdateRecord))
	s.mux.Handle("DELETE /api/performance/{id}", s.adminOnly(s.handleDeleteRecord))

	// uploads
	s.mux.Handle("POST /api/admin/uploads/{table}", s.adminOnly(s.handleUpload))

	// read models
	s.mux.Handle("GET /api/metrics/{table}", s.authenticated(s.handleMetrics))
	s.mux.Handle("GET /api/reports/summary", s.authenticated(s.handleSummary))
	s.mux.Handle("GET /api/reports/breakdown", s.authenticated(s.handleBreakdown))
	s.mux.Handle("GET /api/export/performance", s.authenticated(s.handleExportPerformance))
	s.mux.Handle("GET /api/export/breakdown", s.authenticated(s.handleExportBreakdown))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// auth wrappers
type authHandler func(http.ResponseWriter, *http.Request, domain.Session)

func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := s.authorize(r)
		if !ok {
			s.audit(r, "dashboard.authorize", "fail")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, session)
	})
}

func (s *Server) adminOnly(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := s.authorize(r)
		if !ok {
			s.audit(r, "dashboard.admin.authorize", "fail", "reason", "invalid_session")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if !session.IsAdmin() {
			s.audit(r, "dashboard.admin.authorize", "fail", "role", string(session.Role), "reason", "forbidden")
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		s.audit(r, "dashboard.admin.authorize", "success", "username", session.Username)
		next(w, r, session)
	})
}

func (s *Server) authorize(r *http.Request) (domain.Session, bool) {
	token, ok := bearerToken(r)
	if !ok {
		return domain.Session{}, false
	}
	session, err := s.app.SessionFromToken(token)
	if err != nil {
		util.LoggerFromContext(r.Context()).Debug("session rejected", "err", err)
		return domain.Session{}, false
	}
	return session, true
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.allowRate(w, r, s.loginLimiter, "too many login attempts") {
		s.audit(r, "dashboard.login", "rate_limited")
		metrics.ObserveLogin("rate_limited")
		return
	}
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.audit(r, "dashboard.login", "fail", "reason", "invalid_json")
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	session, token, err := s.app.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, app.ErrInvalidCredentials) {
			s.audit(r, "dashboard.login", "fail", "username", req.Username)
			metrics.ObserveLogin("fail")
		} else {
			metrics.ObserveLogin("error")
		}
		s.writeAppError(w, r, err)
		return
	}
	s.audit(r, "dashboard.login", "success", "username", session.Username)
	metrics.ObserveLogin("success")
	writeJSON(w, http.StatusOK, sessionResponse{Token: token, Session: session})
}

func (s *Server) handleGuest(w http.ResponseWriter, r *http.Request) {
	session, token, err := s.app.Guest()
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.audit(r, "dashboard.guest", "success")
	writeJSON(w, http.StatusOK, sessionResponse{Token: token, Session: session})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, session domain.Session) {
	token, _ := bearerToken(r)
	if err := s.app.Logout(token); err != nil {
		s.audit(r, "dashboard.logout", "fail", "reason", err.Error())
		s.writeAppError(w, r, err)
		return
	}
	s.audit(r, "dashboard.logout", "success", "role", string(session.Role))
	writeJSON(w, http.StatusOK, messageResponse{Message: "Logged out."})
}

func (s *Server) handleMe(w http.ResponseWriter, _ *http.Request, session domain.Session) {
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request, session domain.Session) {
	if !s.allowRate(w, r, s.passwordLimiter, "too many password change attempts") {
		s.audit(r, "dashboard.password.change", "rate_limited", "username", session.Username)
		return
	}
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		s.audit(r, "dashboard.password.change", "fail", "username", session.Username, "reason", "invalid_json")
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	msg, err := s.app.ChangePassword(session, req.CurrentPassword, req.NewPassword)
	if err != nil {
		s.audit(r, "dashboard.password.change", "fail", "username", session.Username, "reason", err.Error())
		s.writeAppError(w, r, err)
		return
	}
	s.audit(r, "dashboard.password.change", "success", "username", session.Username)
	writeJSON(w, http.StatusOK, messageResponse{Message: msg})
}

func (s *Server) handleListPerformance(w http.ResponseWriter, r *http.Request, session domain.Session) {
	records, err := s.app.ListPerformance(session, filterFromQuery(r))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": records,
		"count": len(records),
	})
}

func (s *Server) handleAddRecord(w http.ResponseWriter, r *http.Request, session domain.Session) {
	var rec domain.PerformanceRecord
	if err := decodeJSON(r, &rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	saved, msg, err := s.app.AddPerformanceRecord(session, rec)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, recordResponse{Message: msg, Record: &saved})
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request, session domain.Session) {
	id, ok := recordID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid record id")
		return
	}
	var rec domain.PerformanceRecord
	if err := decodeJSON(r, &rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	msg, err := s.app.UpdatePerformanceRecord(session, id, rec)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: msg})
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request, session domain.Session) {
	id, ok := recordID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid record id")
		return
	}
	msg, err := s.app.DeletePerformanceRecord(session, id)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: msg})
}

func (s *Server) handleDeleteAll(w http.ResponseWriter, r *http.Request, session domain.Session) {
	n, msg, err := s.app.DeleteAllPerformance(session)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.audit(r, "dashboard.performance.delete_all", "success", "username", session.Username, "rows", n)
	writeJSON(w, http.StatusOK, map[string]any{"message": msg, "deleted": n})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, session domain.Session) {
	table, ok := domain.ParseTable(r.PathValue("table"))
	if !ok {
		notFound(w, "unknown table")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		if isTooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required (field: file)")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	dryRun, _ := strconv.ParseBool(r.URL.Query().Get("dryRun"))

	report, err := s.app.Ingest(r.Context(), session, app.Upload{
		Table:       table,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
		DryRun:      dryRun,
	})
	if err != nil {
		s.audit(r, "dashboard.upload", "fail", "table", string(table), "state", string(report.State), "run_id", report.RunID)
		s.writeAppError(w, r, err)
		return
	}
	s.audit(r, "dashboard.upload", "success", "table", string(table), "run_id", report.RunID, "rows", report.RowsCommitted, "dry_run", dryRun)
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request, session domain.Session) {
	table, ok := domain.ParseTable(r.PathValue("table"))
	if !ok || table == domain.TablePerformance {
		notFound(w, "unknown table")
		return
	}
	rows, err := s.app.ListMetrics(session, table)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"table": table, "items": rows})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, session domain.Session) {
	summary, err := s.app.Summary(session, filterFromQuery(r))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request, session domain.Session) {
	dim, err := app.ParseDimension(r.URL.Query().Get("by"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	counts, err := s.app.Breakdown(session, dim, filterFromQuery(r))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"by": dim, "items": counts})
}

func (s *Server) handleExportPerformance(w http.ResponseWriter, r *http.Request, session domain.Session) {
	file, err := s.app.ExportPerformance(session, filterFromQuery(r), r.URL.Query().Get("format"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeFile(w, file)
}

func (s *Server) handleExportBreakdown(w http.ResponseWriter, r *http.Request, session domain.Session) {
	dim, err := app.ParseDimension(r.URL.Query().Get("by"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	file, err := s.app.ExportBreakdown(session, dim, filterFromQuery(r), r.URL.Query().Get("format"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeFile(w, file)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type sessionResponse struct {
	Token   string         `json:"token"`
	Session domain.Session `json:"session"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type recordResponse struct {
	Message string                    `json:"message"`
	Record  *domain.PerformanceRecord `json:"record,omitempty"`
}

func filterFromQuery(r *http.Request) domain.PerformanceFilter {
	q := r.URL.Query()
	return domain.PerformanceFilter{
		AllianceType: q.Get("alliance"),
		BusinessUnit: q.Get("bu"),
		Geo:          q.Get("geo"),
		From:         q.Get("from"),
		To:           q.Get("to"),
	}
}

func recordID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst)
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}

func normalizeMaxBytes(value int64) int64 {
	if value <= 0 {
		return 10 * 1024 * 1024
	}
	return value
}

func (s *Server) audit(r *http.Request, event, outcome string, attrs ...any) {
	ip := util.ClientIP(r, s.trustedProxies)
	logAttrs := []any{
		"event", event,
		"outcome", outcome,
		"path", r.URL.Path,
		"method", r.Method,
		"ip", ip,
	}
	logAttrs = append(logAttrs, attrs...)
	logger := util.LoggerFromContext(r.Context())
	if outcome == "success" {
		logger.Info("security_event", logAttrs...)
	} else {
		logger.Warn("security_event", logAttrs...)
	}

	result, err := s.alerter.Observe(r.Context(), event, outcome, ip)
	if err != nil {
		logger.Warn("security alert evaluation failed", "event", event, "err", err)
		return
	}
	if result.Triggered {
		logger.Error("security_alert",
			"event", event,
			"outcome", outcome,
			"ip", ip,
			"count", result.Count,
			"threshold", result.Threshold,
			"window", result.Window.String(),
		)
	}
}

func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, limiter *ratelimit.FixedWindowLimiter, msg string) bool {
	key := r.URL.Path + "|" + util.ClientIP(r, s.trustedProxies)
	if limiter.Allow(r.Context(), key) {
		return true
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(limiter.Window().Seconds())))
	writeError(w, http.StatusTooManyRequests, msg)
	return false
}

// writeAppError maps core errors to statuses. Unexpected errors are logged
// and reported without detail.
func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *app.ValidationError
	switch {
	case errors.As(err, &verr):
		writeErrorDetails(w, http.StatusBadRequest, verr.Message, verr.Errors)
	case errors.Is(err, app.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, app.ErrInvalidCredentials.Error())
	case errors.Is(err, app.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, app.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, app.ErrCurrentPasswordIncorrect):
		writeError(w, http.StatusBadRequest, app.ErrCurrentPasswordIncorrect.Error())
	case errors.Is(err, auth.ErrPasswordTooShort), errors.Is(err, auth.ErrPasswordTooLong):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		notFound(w, store.ErrNotFound.Error())
	case errors.Is(err, app.ErrEmptyUpload),
		errors.Is(err, app.ErrUnsupportedTable),
		errors.Is(err, app.ErrUnsupportedDimension),
		errors.Is(err, app.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrArchiveFailed):
		writeError(w, http.StatusInternalServerError, app.ErrArchiveFailed.Error())
	case errors.Is(err, app.ErrCommitFailed):
		writeError(w, http.StatusInternalServerError, app.ErrCommitFailed.Error())
	case errors.Is(err, app.ErrPasswordUpdateFailed):
		writeError(w, http.StatusInternalServerError, app.ErrPasswordUpdateFailed.Error())
	default:
		util.LoggerFromContext(r.Context()).Error("request failed", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func notFound(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusNotFound, msg)
}

func writeFile(w http.ResponseWriter, file app.ExportFile) {
	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Data)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorDetail struct {
	Reason string `json:"reason"`
}

type errorResponse struct {
	Error     string        `json:"error"`
	Code      string        `json:"code"`
	RequestID string        `json:"requestId,omitempty"`
	Details   []errorDetail `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeErrorDetails(w, status, msg, nil)
}

func writeErrorDetails(w http.ResponseWriter, status int, msg string, reasons []string) {
	resp := errorResponse{
		Error:     msg,
		Code:      errorCode(status, msg),
		RequestID: strings.TrimSpace(w.Header().Get(util.RequestIDHeader)),
	}
	for _, reason := range reasons {
		resp.Details = append(resp.Details, errorDetail{Reason: reason})
	}
	writeJSON(w, status, resp)
}

func errorCode(status int, msg string) string {
	message := strings.ToLower(strings.TrimSpace(msg))
	switch {
	case message == "unauthorized":
		return "AUTH_INVALID_TOKEN"
	case message == strings.ToLower(app.ErrInvalidCredentials.Error()):
		return "AUTH_INVALID_CREDENTIALS"
	case message == strings.ToLower(app.ErrCurrentPasswordIncorrect.Error()):
		return "AUTH_CURRENT_PASSWORD_INCORRECT"
	case message == strings.ToLower(auth.ErrPasswordTooShort.Error()):
		return "AUTH_PASSWORD_TOO_SHORT"
	case message == strings.ToLower(auth.ErrPasswordTooLong.Error()):
		return "AUTH_PASSWORD_TOO_LONG"
	case strings.HasPrefix(message, "too many"):
		return "SYSTEM_RATE_LIMITED"
	case message == "forbidden":
		return "AUTH_FORBIDDEN"
	case strings.HasPrefix(message, "upload rejected"):
		return "UPLOAD_VALIDATION_FAILED"
	case message == "file too large":
		return "UPLOAD_FILE_TOO_LARGE"
	case strings.Contains(message, "file is required"), message == strings.ToLower(app.ErrEmptyUpload.Error()):
		return "UPLOAD_FILE_REQUIRED"
	case message == "invalid form data":
		return "UPLOAD_INVALID_FORM"
	case message == strings.ToLower(app.ErrArchiveFailed.Error()):
		return "UPLOAD_ARCHIVE_FAILED"
	case message == strings.ToLower(app.ErrCommitFailed.Error()):
		return "UPLOAD_COMMIT_FAILED"
	case message == "invalid record", message == "invalid record id":
		return "RECORD_INVALID"
	case message == strings.ToLower(store.ErrNotFound.Error()):
		return "RECORD_NOT_FOUND"
	case message == "invalid filter":
		return "REPORT_INVALID_FILTER"
	case message == strings.ToLower(app.ErrUnsupportedDimension.Error()):
		return "REPORT_UNSUPPORTED_DIMENSION"
	case message == strings.ToLower(app.ErrUnsupportedFormat.Error()):
		return "EXPORT_UNSUPPORTED_FORMAT"
	case message == "invalid json body":
		return "REQUEST_INVALID_JSON"
	}

	switch status {
	case http.StatusBadRequest:
		return "REQUEST_INVALID"
	case http.StatusUnauthorized:
		return "AUTH_INVALID_TOKEN"
	case http.StatusForbidden:
		return "AUTH_FORBIDDEN"
	case http.StatusNotFound:
		return "SYSTEM_NOT_FOUND"
	case http.StatusRequestEntityTooLarge:
		return "UPLOAD_FILE_TOO_LARGE"
	case http.StatusTooManyRequests:
		return "SYSTEM_RATE_LIMITED"
	default:
		if status >= http.StatusInternalServerError {
			return "SYSTEM_INTERNAL_ERROR"
		}
		return "REQUEST_ERROR"
	}
}
