package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"alliancedash/internal/ratelimit"
	"alliancedash/services/dashboard/internal/app"
)

const performanceCSV = "Associate ID,Associate Name,Alliance Type,Business Unit,Geo,Certification Name,Completion Date\n"

func newTestServer(t *testing.T, mutate ...func(*Config)) *httptest.Server {
	t.Helper()
	a, err := app.New(app.Config{
		DatabaseURL:   "sqlite::memory:",
		SessionSecret: []byte("server-test-secret-0123456789"),
		ArchiveDir:    t.TempDir(),
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	cfg := Config{App: a}
	for _, m := range mutate {
		m(&cfg)
	}
	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func login(t *testing.T, baseURL, username, password string) string {
	t.Helper()
	resp := doJSON(t, http.MethodPost, baseURL+"/api/auth/login", "", loginRequest{Username: username, Password: password})
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		t.Fatalf("login expected 200, got %d", resp.StatusCode)
	}
	return decode[sessionResponse](t, resp).Token
}

func guest(t *testing.T, baseURL string) string {
	t.Helper()
	resp := doJSON(t, http.MethodPost, baseURL+"/api/auth/guest", "", nil)
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		t.Fatalf("guest expected 200, got %d", resp.StatusCode)
	}
	return decode[sessionResponse](t, resp).Token
}

func upload(t *testing.T, url, token, filename, content string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	return resp
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	ts := newTestServer(t)
	for _, path := range []string{"/healthz", "/metrics"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s expected 200, got %d", path, resp.StatusCode)
		}
	}
}

func TestLoginRateLimit(t *testing.T) {
	redis := miniredis.RunT(t)
	counter, err := ratelimit.NewRedisCounter(redis.Addr(), "")
	if err != nil {
		t.Fatalf("redis counter: %v", err)
	}
	t.Cleanup(func() { _ = counter.Close() })
	ts := newTestServer(t, func(c *Config) {
		c.Counter = counter
		c.LoginRateLimitPerMinute = 1
	})

	login(t, ts.URL, "admin", "adminpass")

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/auth/login", "", loginRequest{Username: "admin", Password: "adminpass"})
	if resp.StatusCode != http.StatusTooManyRequests {
		resp.Body.Close()
		t.Fatalf("second request expected 429, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Retry-After"); got != "60" {
		t.Fatalf("expected Retry-After 60, got %q", got)
	}
	body := decode[errorResponse](t, resp)
	if body.Code != "SYSTEM_RATE_LIMITED" {
		t.Fatalf("unexpected code %q", body.Code)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ts := newTestServer(t)
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/auth/login", "", loginRequest{Username: "admin", Password: "nope"})
	if resp.StatusCode != http.StatusUnauthorized {
		resp.Body.Close()
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	body := decode[errorResponse](t, resp)
	if body.Error != "Invalid username or password" || body.Code != "AUTH_INVALID_CREDENTIALS" {
		t.Fatalf("unexpected error body %+v", body)
	}
	if body.RequestID == "" {
		t.Fatalf("error body should carry the request id")
	}
}

func TestSessionRequiredAndGuestIsReadOnly(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/performance", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing token expected 401, got %d", resp.StatusCode)
	}

	token := guest(t, ts.URL)
	resp = doJSON(t, http.MethodGet, ts.URL+"/api/performance", token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("guest list expected 200, got %d", resp.StatusCode)
	}

	resp = upload(t, ts.URL+"/api/admin/uploads/performance", token, "p.csv", performanceCSV+"A1,Ann,AWS,BU1,India,SA,2025-05-01\n")
	if resp.StatusCode != http.StatusForbidden {
		resp.Body.Close()
		t.Fatalf("guest upload expected 403, got %d", resp.StatusCode)
	}
	if body := decode[errorResponse](t, resp); body.Code != "AUTH_FORBIDDEN" {
		t.Fatalf("unexpected code %q", body.Code)
	}

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/performance", token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("guest delete all expected 403, got %d", resp.StatusCode)
	}
}

func TestUploadThenQueryAndExport(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts.URL, "admin", "adminpass")

	resp := upload(t, ts.URL+"/api/admin/uploads/performance", token, "performance.csv",
		performanceCSV+"A1,Ann,AWS,BU1,India,SA,2025-05-01\nA2,Bob,Azure,BU2,NA,AZ-900,2025-06-02\n")
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		t.Fatalf("upload expected 200, got %d", resp.StatusCode)
	}
	report := decode[map[string]any](t, resp)
	if report["state"] != "done" || report["rowsCommitted"] != float64(2) {
		t.Fatalf("unexpected report %+v", report)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/performance?geo=India", token, nil)
	list := decode[map[string]any](t, resp)
	if list["count"] != float64(1) {
		t.Fatalf("expected one India record, got %+v", list)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/reports/breakdown?by=month", token, nil)
	breakdown := decode[struct {
		Items []struct {
			Label string `json:"label"`
			Total int64  `json:"total"`
		} `json:"items"`
	}](t, resp)
	if len(breakdown.Items) != 2 || breakdown.Items[0].Label != "2025-05" {
		t.Fatalf("unexpected breakdown %+v", breakdown)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/reports/breakdown?by=partner", token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown dimension expected 400, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/export/performance?format=csv", token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export expected 200, got %d", resp.StatusCode)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment;") || !strings.Contains(cd, ".csv") {
		t.Fatalf("unexpected Content-Disposition %q", cd)
	}
	data, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(data), "A2,Bob") {
		t.Fatalf("export missing rows: %q", data)
	}
}

func TestUploadRejectionReturnsDetails(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts.URL, "admin", "adminpass")

	resp := upload(t, ts.URL+"/api/admin/uploads/performance", token, "performance.csv",
		performanceCSV+"A1,Ann,AWS,BU1,India,SA,not-a-date\n")
	if resp.StatusCode != http.StatusBadRequest {
		resp.Body.Close()
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	body := decode[errorResponse](t, resp)
	if body.Code != "UPLOAD_VALIDATION_FAILED" {
		t.Fatalf("unexpected code %q", body.Code)
	}
	if len(body.Details) != 1 || body.Details[0].Reason != "Row 2: invalid date in 'Completion Date'" {
		t.Fatalf("unexpected details %+v", body.Details)
	}

	resp = upload(t, ts.URL+"/api/admin/uploads/users", token, "users.csv", "a,b\n1,2\n")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown table expected 404, got %d", resp.StatusCode)
	}
}

func TestDryRunUploadDoesNotLoad(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts.URL, "admin", "adminpass")

	resp := upload(t, ts.URL+"/api/admin/uploads/performance?dryRun=true", token, "performance.csv",
		performanceCSV+"A1,Ann,AWS,BU1,India,SA,2025-05-01\n")
	report := decode[map[string]any](t, resp)
	if report["state"] != "staged" || report["dryRun"] != true {
		t.Fatalf("unexpected dry run report %+v", report)
	}
	resp = doJSON(t, http.MethodGet, ts.URL+"/api/performance", token, nil)
	if list := decode[map[string]any](t, resp); list["count"] != float64(0) {
		t.Fatalf("dry run must not load rows, got %+v", list)
	}
}

func TestRecordRoutes(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts.URL, "admin", "adminpass")

	rec := map[string]string{
		"associateId": "A1", "associateName": "Ann", "allianceType": "AWS", "businessUnit": "BU1",
		"geo": "India", "certificationName": "SA", "completionDate": "2025-05-01",
	}
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/performance", token, rec)
	if resp.StatusCode != http.StatusCreated {
		resp.Body.Close()
		t.Fatalf("add expected 201, got %d", resp.StatusCode)
	}
	created := decode[recordResponse](t, resp)
	if created.Message != "Record added successfully." || created.Record == nil || created.Record.ID == 0 {
		t.Fatalf("unexpected add response %+v", created)
	}

	delete(rec, "geo")
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/performance", token, rec)
	if resp.StatusCode != http.StatusBadRequest {
		resp.Body.Close()
		t.Fatalf("invalid record expected 400, got %d", resp.StatusCode)
	}
	if body := decode[errorResponse](t, resp); len(body.Details) != 1 || body.Details[0].Reason != "'Geo' is required" {
		t.Fatalf("unexpected details %+v", body.Details)
	}

	resp = doJSON(t, http.MethodPut, ts.URL+"/api/performance/abc", token, rec)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad id expected 400, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/performance/999", token, nil)
	if resp.StatusCode != http.StatusNotFound {
		resp.Body.Close()
		t.Fatalf("missing record expected 404, got %d", resp.StatusCode)
	}
	if body := decode[errorResponse](t, resp); body.Code != "RECORD_NOT_FOUND" {
		t.Fatalf("unexpected code %q", body.Code)
	}

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/performance", token, nil)
	deleted := decode[map[string]any](t, resp)
	if deleted["deleted"] != float64(1) || deleted["message"] != "All performance records deleted." {
		t.Fatalf("unexpected delete all response %+v", deleted)
	}
}

func TestChangePasswordRevokesExistingSessions(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts.URL, "admin", "adminpass")

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/auth/password", token, changePasswordRequest{CurrentPassword: "wrong", NewPassword: "new-password"})
	if resp.StatusCode != http.StatusBadRequest {
		resp.Body.Close()
		t.Fatalf("wrong current password expected 400, got %d", resp.StatusCode)
	}
	if body := decode[errorResponse](t, resp); body.Error != "Current password is incorrect." {
		t.Fatalf("unexpected error %q", body.Error)
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/auth/password", token, changePasswordRequest{CurrentPassword: "adminpass", NewPassword: strings.Repeat("x", 80)})
	if resp.StatusCode != http.StatusBadRequest {
		resp.Body.Close()
		t.Fatalf("overlong password expected 400, got %d", resp.StatusCode)
	}
	if body := decode[errorResponse](t, resp); body.Code != "AUTH_PASSWORD_TOO_LONG" {
		t.Fatalf("unexpected error code %q", body.Code)
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/auth/password", token, changePasswordRequest{CurrentPassword: "adminpass", NewPassword: "new-password"})
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		t.Fatalf("change password expected 200, got %d", resp.StatusCode)
	}
	if body := decode[messageResponse](t, resp); body.Message != "Password updated successfully." {
		t.Fatalf("unexpected message %q", body.Message)
	}

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/auth/me", token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("old token expected 401 after change, got %d", resp.StatusCode)
	}

	fresh := login(t, ts.URL, "admin", "new-password")
	resp = doJSON(t, http.MethodGet, ts.URL+"/api/auth/me", fresh, nil)
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		t.Fatalf("fresh token expected 200, got %d", resp.StatusCode)
	}
	if me := decode[map[string]any](t, resp); me["username"] != "admin" || me["role"] != "admin" {
		t.Fatalf("unexpected session %+v", me)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	ts := newTestServer(t)
	token := guest(t, ts.URL)
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/auth/logout", token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout expected 200, got %d", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodGet, ts.URL+"/api/auth/me", token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("revoked token expected 401, got %d", resp.StatusCode)
	}
}

func TestMetricsRouteRejectsPerformanceTable(t *testing.T) {
	ts := newTestServer(t)
	token := guest(t, ts.URL)
	resp := doJSON(t, http.MethodGet, ts.URL+"/api/metrics/performance", token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodGet, ts.URL+"/api/metrics/bu", token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestNewRequiresApp(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected error without app")
	}
}
