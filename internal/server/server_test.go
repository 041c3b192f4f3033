package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reportql/internal/engine"
	"github.com/roach88/reportql/internal/output"
	"github.com/roach88/reportql/internal/report"
	"github.com/roach88/reportql/internal/schema"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

const testSchema = `
base: "people"

columns: {
	name: {sql: true, label: "Name"}
	salary: {type: "number", sql: true, label: "Salary", format: "number"}
	rank: {type: "number", label: "Rank"}
}
`

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	reg, err := schema.LoadString(testSchema, "people.cue")
	require.NoError(t, err)

	rows := engine.Rows{
		report.MapRow{"name": "Ada", "salary": 1200.5},
		report.MapRow{"name": "Grace", "salary": nil},
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.IDs == nil {
		opts.IDs = engine.NewSequenceGenerator(100)
	}
	s, err := New(reg, rows, opts)
	require.NoError(t, err)
	return s
}

func get(t *testing.T, s *Server, path string, params url.Values) *httptest.ResponseRecorder {
	t.Helper()
	if params != nil {
		path += "?" + params.Encode()
	}
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, body []byte) output.Response {
	t.Helper()
	var resp output.Response
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp
}

func TestNew_Origins(t *testing.T) {
	reg, err := schema.LoadString(testSchema, "people.cue")
	require.NoError(t, err)

	tests := []struct {
		name    string
		origins []string
		wantErr bool
	}{
		{"none", nil, false},
		{"wildcard", []string{"*"}, false},
		{"http and https", []string{"http://localhost:3000", "https://example.com"}, false},
		{"missing scheme", []string{"example.com"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(reg, engine.Rows{}, Options{AllowOrigins: tt.origins})
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid origin")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestHealth(t *testing.T) {
	w := get(t, newTestServer(t, Options{}), "/healthz", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","columns":3}`, w.Body.String())
}

func TestColumns(t *testing.T) {
	w := get(t, newTestServer(t, Options{}), "/columns", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var cols []ColumnInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cols))
	assert.Equal(t, []ColumnInfo{
		{ID: "name", Label: "Name", Type: "string", SQL: "name"},
		{ID: "salary", Label: "Salary", Type: "number", SQL: "salary"},
		{ID: "rank", Label: "Rank", Type: "number"},
	}, cols)
}

func TestQuery_JSON(t *testing.T) {
	w := get(t, newTestServer(t, Options{}), "/query", url.Values{"tq": {"select name, salary"}})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	resp := decodeResponse(t, w.Body.Bytes())
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "100", resp.ReqID)
	require.NotNil(t, resp.Table)
	require.Len(t, resp.Table.Rows, 2)
	assert.Equal(t, "Ada", resp.Table.Rows[0].C[0].V)
	assert.Equal(t, 1200.5, resp.Table.Rows[0].C[1].V)
	assert.Equal(t, "1,200.5", resp.Table.Rows[0].C[1].F)
}

func TestQuery_EmptySelectsAll(t *testing.T) {
	w := get(t, newTestServer(t, Options{}), "/query", nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w.Body.Bytes())
	require.NotNil(t, resp.Table)
	assert.Len(t, resp.Table.Cols, 3)
}

func TestQuery_Script(t *testing.T) {
	w := get(t, newTestServer(t, Options{}), "/query", url.Values{
		"tq":  {"select name"},
		"tqx": {"reqId:7;responseHandler:handle"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/javascript; charset=utf-8", w.Header().Get("Content-Type"))

	body := w.Body.String()
	require.True(t, strings.HasPrefix(body, "handle("), body)
	require.True(t, strings.HasSuffix(body, ");"), body)

	resp := decodeResponse(t, []byte(strings.TrimSuffix(strings.TrimPrefix(body, "handle("), ");")))
	assert.Equal(t, "7", resp.ReqID)
	assert.Equal(t, "ok", resp.Status)
}

func TestQuery_UnmappedConditionWarns(t *testing.T) {
	w := get(t, newTestServer(t, Options{}), "/query", url.Values{"tq": {"select name where rank = 1"}})

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w.Body.Bytes())
	assert.Equal(t, "warning", resp.Status)
	require.NotNil(t, resp.Table)
	assert.Len(t, resp.Table.Rows, 2)
	require.Len(t, resp.Warnings, 1)
	assert.Equal(t, output.ReasonOther, resp.Warnings[0].Reason)
	assert.Contains(t, resp.Warnings[0].Message, "condition on rank was not applied")
}

func TestQuery_CSV(t *testing.T) {
	w := get(t, newTestServer(t, Options{}), "/query", url.Values{
		"tq":  {"select name, salary"},
		"tqx": {"reqId:1;out:csv"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "Name,Salary\nAda,1200.5\nGrace,\n", w.Body.String())
}

func TestQuery_Errors(t *testing.T) {
	tests := []struct {
		name       string
		params     url.Values
		wantStatus int
		wantType   string
		wantBody   string
	}{
		{
			name:       "syntax error",
			params:     url.Values{"tq": {"select name name"}},
			wantStatus: http.StatusBadRequest,
			wantType:   "application/json; charset=utf-8",
			wantBody:   `"status":"error"`,
		},
		{
			name:       "unsupported",
			params:     url.Values{"tq": {"order by name, salary"}},
			wantStatus: http.StatusBadRequest,
			wantType:   "application/json; charset=utf-8",
			wantBody:   `"reason":"invalid_request"`,
		},
		{
			name:       "script errors are 200",
			params:     url.Values{"tq": {"select name name"}, "tqx": {"reqId:4"}},
			wantStatus: http.StatusOK,
			wantType:   "text/javascript; charset=utf-8",
			wantBody:   `"reqId":"4"`,
		},
		{
			name:       "missing reqId",
			params:     url.Values{"tqx": {"out:json"}},
			wantStatus: http.StatusOK,
			wantType:   "text/javascript; charset=utf-8",
			wantBody:   "Missing required parameter reqId",
		},
		{
			name:       "script handler rejected",
			params:     url.Values{"tq": {"select name"}, "tqx": {"reqId:5;responseHandler:alert(document.domain)//"}},
			wantStatus: http.StatusOK,
			wantType:   "text/javascript; charset=utf-8",
			wantBody:   "google.visualization.Query.setResponse({",
		},
		{
			name:       "invalid out",
			params:     url.Values{"tqx": {"reqId:1;out:xml"}},
			wantStatus: http.StatusOK,
			wantType:   "text/javascript; charset=utf-8",
			wantBody:   "Invalid output format: xml",
		},
		{
			name:       "csv error is text",
			params:     url.Values{"tq": {"select name name"}, "tqx": {"reqId:1;out:csv"}},
			wantStatus: http.StatusBadRequest,
			wantType:   "text/plain; charset=utf-8",
			wantBody:   "",
		},
	}

	s := newTestServer(t, Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, s, "/query", tt.params)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantType, w.Header().Get("Content-Type"))
			assert.Contains(t, w.Body.String(), tt.wantBody)
			assert.NotContains(t, w.Body.String(), "alert(")
		})
	}
}

func TestQuery_NoStatement(t *testing.T) {
	reg, err := schema.LoadString(`columns: name: {label: "Name"}`, "no_base.cue")
	require.NoError(t, err)
	s, err := New(reg, engine.Rows{}, Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	require.NoError(t, err)

	w := get(t, s, "/query", url.Values{"tq": {"select name"}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, Options{AllowOrigins: []string{"https://reports.example.com"}})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://reports.example.com")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, "https://reports.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListenAndServe_Shutdown(t *testing.T) {
	s := newTestServer(t, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("server did not shut down")
	}
}
