package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/me/gohm/internal/config"
	"github.com/me/gohm/internal/store"
	"github.com/me/gohm/pkg/health"
	"github.com/me/gohm/pkg/model"
)

// stubPolicy is a registered-but-idle policy for API tests.
type stubPolicy struct {
	name  string
	delay time.Duration
}

func (p *stubPolicy) Name() string                                { return p.name }
func (p *stubPolicy) Delay() time.Duration                        { return p.delay }
func (p *stubPolicy) Initialize(_ *health.ExecutionContext) error { return nil }
func (p *stubPolicy) ExecuteSensors(_ context.Context) ([]health.Measurement, error) {
	return nil, nil
}
func (p *stubPolicy) ExecuteDetectors(_ context.Context, _ []health.Measurement) ([]health.Symptom, error) {
	return nil, nil
}
func (p *stubPolicy) ExecuteDiagnosers(_ context.Context, _ []health.Symptom) ([]health.Diagnosis, error) {
	return nil, nil
}
func (p *stubPolicy) ExecuteResolvers(_ context.Context, _ []health.Diagnosis) ([]health.Action, error) {
	return nil, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testServer(t *testing.T, policies ...health.Policy) (*Server, store.Store) {
	t.Helper()
	exec, err := health.NewExecutor(testLogger(), policies...)
	if err != nil {
		t.Fatalf("new executor: %v", err)
	}
	st, err := store.NewSQLiteStore(":memory:", testLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return New(config.DefaultServerConfig(), exec, st, testLogger()), st
}

// envelope is used to decode the standard response envelope.
type envelope struct {
	Status     string            `json:"status"`
	RequestID  string            `json:"request_id"`
	Timestamp  string            `json:"timestamp"`
	Data       json.RawMessage   `json:"data"`
	Pagination *model.Pagination `json:"pagination"`
	Error      *model.APIError   `json:"error"`
}

func doGet(t *testing.T, srv *Server, path string, wantStatus int) envelope {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != wantStatus {
		t.Fatalf("GET %s: status=%d, want %d, body=%s", path, w.Code, wantStatus, w.Body.String())
	}
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("GET %s: invalid JSON: %v", path, err)
	}
	return env
}

func TestDiscovery(t *testing.T) {
	srv, _ := testServer(t)
	env := doGet(t, srv, "/api/v1/", http.StatusOK)
	if env.Status != "ok" {
		t.Errorf("status = %q, want ok", env.Status)
	}
	if env.RequestID == "" {
		t.Error("request_id is empty")
	}

	var data struct {
		Name      string `json:"name"`
		Endpoints []struct {
			Path string `json:"path"`
		} `json:"endpoints"`
	}
	json.Unmarshal(env.Data, &data)
	if data.Name != "GoHM API" {
		t.Errorf("name = %q, want GoHM API", data.Name)
	}
	if len(data.Endpoints) < 4 {
		t.Errorf("endpoints count = %d, want >= 4", len(data.Endpoints))
	}
}

func TestHealth(t *testing.T) {
	srv, _ := testServer(t, &stubPolicy{name: "disk-pressure", delay: time.Minute})
	env := doGet(t, srv, "/api/v1/health", http.StatusOK)

	var data struct {
		Status   string `json:"status"`
		Policies int    `json:"policies"`
		Store    string `json:"store"`
	}
	json.Unmarshal(env.Data, &data)
	if data.Status != "healthy" {
		t.Errorf("status = %q, want healthy", data.Status)
	}
	if data.Policies != 1 {
		t.Errorf("policies = %d, want 1", data.Policies)
	}
	if data.Store != "available" {
		t.Errorf("store = %q, want available", data.Store)
	}
}

// The policy list preserves registration order and reports all four tables.
func TestListPolicies(t *testing.T) {
	srv, _ := testServer(t,
		&stubPolicy{name: "disk-pressure", delay: time.Minute},
		&stubPolicy{name: "mem-pressure", delay: 0},
	)
	env := doGet(t, srv, "/api/v1/policies", http.StatusOK)

	var data []model.PolicyStatus
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(data) != 2 {
		t.Fatalf("len = %d, want 2", len(data))
	}
	if data[0].Name != "disk-pressure" || data[1].Name != "mem-pressure" {
		t.Errorf("order = %s,%s, want disk-pressure,mem-pressure", data[0].Name, data[1].Name)
	}
	if data[1].Delay != "0s" {
		t.Errorf("mem-pressure delay = %q, want 0s", data[1].Delay)
	}
	if len(data[0].Tables) != 4 {
		t.Errorf("tables = %v, want all four kinds", data[0].Tables)
	}
	for kind, n := range data[0].Tables {
		if n != 0 {
			t.Errorf("table %s = %d, want 0 before any cycle", kind, n)
		}
	}
}

func TestGetPolicy_NotFound(t *testing.T) {
	srv, _ := testServer(t, &stubPolicy{name: "disk-pressure"})
	env := doGet(t, srv, "/api/v1/policies/nope", http.StatusNotFound)
	if env.Error == nil || env.Error.Code != model.ErrNotFound {
		t.Errorf("error = %+v, want NOT_FOUND", env.Error)
	}
}

func TestGetTable(t *testing.T) {
	srv, _ := testServer(t, &stubPolicy{name: "disk-pressure"})
	env := doGet(t, srv, "/api/v1/policies/disk-pressure/measurements", http.StatusOK)

	var data model.TableSnapshot
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if data.Policy != "disk-pressure" || data.Kind != "measurements" {
		t.Errorf("snapshot = %s/%s, want disk-pressure/measurements", data.Policy, data.Kind)
	}
}

func TestGetTable_UnknownKind(t *testing.T) {
	srv, _ := testServer(t, &stubPolicy{name: "disk-pressure"})
	env := doGet(t, srv, "/api/v1/policies/disk-pressure/bogus", http.StatusNotFound)
	if env.Error == nil || env.Error.Code != model.ErrNotFound {
		t.Errorf("error = %+v, want NOT_FOUND", env.Error)
	}
}

func TestListArtifacts(t *testing.T) {
	srv, st := testServer(t, &stubPolicy{name: "disk-pressure"})

	rows := make([]*model.Artifact, 0, 3)
	for i := 0; i < 3; i++ {
		rows = append(rows, &model.Artifact{
			Policy: "disk-pressure", Kind: "actions", Seq: i,
			Payload: `{"name":"restart"}`, RecordedAt: time.Now().UTC(),
		})
	}
	if err := st.AppendArtifacts(context.Background(), rows); err != nil {
		t.Fatalf("append: %v", err)
	}

	env := doGet(t, srv, "/api/v1/policies/disk-pressure/actions/artifacts?limit=2", http.StatusOK)
	var data []model.Artifact
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(data) != 2 {
		t.Fatalf("len = %d, want 2", len(data))
	}
	if env.Pagination == nil {
		t.Fatal("pagination missing")
	}
	if env.Pagination.Total != 3 || !env.Pagination.HasMore {
		t.Errorf("pagination = %+v, want total=3 has_more=true", env.Pagination)
	}
}

func TestListArtifacts_BadLimit(t *testing.T) {
	srv, _ := testServer(t, &stubPolicy{name: "disk-pressure"})
	env := doGet(t, srv, "/api/v1/policies/disk-pressure/actions/artifacts?limit=abc", http.StatusBadRequest)
	if env.Error == nil || env.Error.Code != model.ErrValidation {
		t.Errorf("error = %+v, want VALIDATION_ERROR", env.Error)
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv, _ := testServer(t)
	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got == "" {
		t.Error("X-Request-ID header missing")
	}
}

// TestRequestLogging verifies the logging middleware records method, path,
// final status, and the same request ID the client sees.
func TestRequestLogging(t *testing.T) {
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))

	exec, err := health.NewExecutor(testLogger())
	if err != nil {
		t.Fatalf("new executor: %v", err)
	}
	srv := New(config.DefaultServerConfig(), exec, nil, logger)

	req := httptest.NewRequest("GET", "/api/v1/policies/nope", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	line := logBuf.String()
	for _, want := range []string{
		"method=GET",
		"path=/api/v1/policies/nope",
		"status=404",
		"request_id=" + w.Header().Get("X-Request-ID"),
	} {
		if !strings.Contains(line, want) {
			t.Errorf("request log missing %q, got: %s", want, line)
		}
	}
}

// TestEnvelope_ErrorShape verifies error responses fill status, request_id,
// timestamp, and error while leaving data null.
func TestEnvelope_ErrorShape(t *testing.T) {
	srv, _ := testServer(t)
	env := doGet(t, srv, "/api/v1/policies/nope", http.StatusNotFound)

	if env.Status != "error" {
		t.Errorf("status = %q, want error", env.Status)
	}
	if env.RequestID == "" {
		t.Error("request_id is empty")
	}
	if env.Timestamp == "" {
		t.Error("timestamp is empty")
	}
	if string(env.Data) != "null" {
		t.Errorf("data = %s, want null", env.Data)
	}
	if env.Error == nil {
		t.Fatal("error field missing")
	}
}
