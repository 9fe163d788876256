package server

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsxbet/sql-optimizer/pkg/advisor"
	"github.com/nsxbet/sql-optimizer/pkg/analyzer"
	"github.com/nsxbet/sql-optimizer/pkg/config"
	"github.com/nsxbet/sql-optimizer/pkg/types"
)

func newTestServer(t *testing.T, opts ...Option) (*Server, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, nil))
	opts = append([]Option{WithLogger(l)}, opts...)
	return New(analyzer.New(analyzer.WithLogger(l)), opts...), &buf
}

func do(s *Server, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_Endpoints(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		status int
		want   string
	}{
		{"root", http.MethodGet, "/", "", http.StatusOK, `{"message":"SQL Optimizer API is running"}`},
		{"health", http.MethodGet, "/health", "", http.StatusOK, `{"status":"healthy"}`},
		{"empty query", http.MethodPost, "/analyze", `{"query":"   "}`, http.StatusBadRequest, `{"detail":"Query cannot be empty"}`},
		{"missing query", http.MethodPost, "/analyze", `{}`, http.StatusBadRequest, `{"detail":"Query cannot be empty"}`},
		{"malformed json", http.MethodPost, "/analyze", `{"query":`, http.StatusBadRequest, `{"detail":"Invalid request body"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(s, tt.method, tt.target, tt.body, nil)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.want, rec.Body.String())
		})
	}
}

func TestServer_UnknownRoutes(t *testing.T) {
	s, _ := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, do(s, http.MethodGet, "/nope", "", nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(s, http.MethodGet, "/analyze", "", nil).Code)
}

func TestServer_Analyze(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(s, http.MethodPost, "/analyze", `{"query":"SELECT * FROM users WHERE UPPER(name) = 'JOHN'","dialect":"mysql"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result types.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, types.Dialect_MYSQL, result.Dialect)
	assert.Empty(t, result.SyntaxErrors)

	var typesSeen []string
	for _, s := range result.Suggestions {
		typesSeen = append(typesSeen, s.Type)
	}
	assert.Contains(t, typesSeen, string(advisor.RuleNonSargable))
	assert.Contains(t, typesSeen, string(advisor.RuleSelectStar))
	assert.Equal(t, 1, result.ComplexityScore)
}

func TestServer_AnalyzeSyntaxError(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(s, http.MethodPost, "/analyze", `{"query":"selet * from users;"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["syntax_errors"])
	assert.Empty(t, body["suggestions"])
	assert.EqualValues(t, 0, body["complexity_score"])
}

func TestServer_BodyLimit(t *testing.T) {
	s, _ := newTestServer(t, WithConfig(config.ServerConfig{MaxBodyBytes: 32}))

	body := `{"query":"SELECT id FROM users WHERE id = 1 AND name = 'a long enough name'"}`
	rec := do(s, http.MethodPost, "/analyze", body, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestServer_Rules(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(s, http.MethodGet, "/rules", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var rules []advisor.Rule
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rules))
	assert.Len(t, rules, len(s.Analyzer().Rules()))
}

func TestServer_SetAnalyzer(t *testing.T) {
	s, _ := newTestServer(t)
	before := len(s.Analyzer().Rules())

	s.SetAnalyzer(analyzer.New(analyzer.WithDisabledRules(string(advisor.RuleSelectStar))))
	assert.Len(t, s.Analyzer().Rules(), before-1)

	rec := do(s, http.MethodPost, "/analyze", `{"query":"SELECT * FROM users WHERE id = 1"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), string(advisor.RuleSelectStar))
}

func TestServer_RequestID(t *testing.T) {
	s, logs := newTestServer(t)

	rec := do(s, http.MethodGet, "/health", "", nil)
	generated := rec.Header().Get(HeaderRequestID)
	assert.Len(t, generated, 36)
	assert.Contains(t, logs.String(), generated)

	rec = do(s, http.MethodGet, "/health", "", map[string]string{HeaderRequestID: "abc-123"})
	assert.Equal(t, "abc-123", rec.Header().Get(HeaderRequestID))
}

func TestServer_CORS(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name    string
		method  string
		headers map[string]string
		status  int
		origin  string
	}{
		{
			name:    "allowed origin",
			method:  http.MethodGet,
			headers: map[string]string{"Origin": config.DefaultOrigin},
			status:  http.StatusOK,
			origin:  config.DefaultOrigin,
		},
		{
			name:    "other origin",
			method:  http.MethodGet,
			headers: map[string]string{"Origin": "http://evil.example"},
			status:  http.StatusOK,
			origin:  "",
		},
		{
			name:   "preflight",
			method: http.MethodOptions,
			headers: map[string]string{
				"Origin":                         config.DefaultOrigin,
				"Access-Control-Request-Method":  "POST",
				"Access-Control-Request-Headers": "content-type",
			},
			status: http.StatusNoContent,
			origin: config.DefaultOrigin,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(s, tt.method, "/health", "", tt.headers)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.origin, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestServer_Defaults(t *testing.T) {
	s, _ := newTestServer(t)
	assert.Equal(t, config.DefaultAddr, s.Addr())
}
