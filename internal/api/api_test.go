package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegors/procroute/internal/config"
	"github.com/yegors/procroute/internal/procdb"
	"github.com/yegors/procroute/internal/refdata"
	"github.com/yegors/procroute/internal/route"
	"github.com/yegors/procroute/internal/routepoints"
	"github.com/yegors/procroute/pkg/logger"
)

const (
	dpCSV = "EFF_DATE,DP_NAME,DP_COMPUTER_CODE,ORIG_GROUP,TRANSITION_COMPUTER_CODE,ROUTE_POINTS\n" +
		"2024-01-25,KAYLN THREE,KAYLN3.KAYLN,KSFO,KAYLN3.SMUUV,KAYLN SMUUV\n"
	starCSV = "EFF_DATE,ARRIVAL_NAME,STAR_COMPUTER_CODE,DEST_GROUP,TRANSITION_COMPUTER_CODE,ROUTE_POINTS\n" +
		"2024-01-25,WYNDE THREE,WYNDE.WYNDE3,KJFK,SMUUV.WYNDE3,SMUUV WYNDE\n"
)

type testServer struct {
	store   *procdb.Store
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()
	dpPath := filepath.Join(dir, "dp.csv")
	starPath := filepath.Join(dir, "star.csv")
	require.NoError(t, os.WriteFile(dpPath, []byte(dpCSV), 0o644))
	require.NoError(t, os.WriteFile(starPath, []byte(starCSV), 0o644))

	log := logger.NewNop()
	store := procdb.NewStore(log)
	loader := refdata.NewLoader(refdata.NewCSVSource(dpPath, starPath), store, log)
	service := route.NewService(store, routepoints.NewSet(), log)

	router := NewRouter(NewHandler(store, loader, service, log), config.Default().Server, log)
	return &testServer{store: store, handler: router.Routes()}
}

func (s *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func (s *testServer) reload(t *testing.T) {
	t.Helper()
	rec, body := s.do(t, http.MethodPost, "/api/v1/reference/reload", "")
	require.Equal(t, http.StatusOK, rec.Code, body)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	s.reload(t)
	_, body = s.do(t, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, "ok", body["status"])
}

func TestReferenceStatusAndReload(t *testing.T) {
	s := newTestServer(t)

	_, body := s.do(t, http.MethodGet, "/api/v1/reference/status", "")
	assert.Equal(t, "csv", body["source"])
	families := body["families"].([]any)
	require.Len(t, families, 2)
	assert.Equal(t, false, families[0].(map[string]any)["loaded"])

	rec, body := s.do(t, http.MethodPost, "/api/v1/reference/reload", "")
	require.Equal(t, http.StatusOK, rec.Code)
	results := body["results"].([]any)
	require.Len(t, results, 2)
	first := results[0].(map[string]any)
	assert.Equal(t, "DP", first["family"])
	assert.Equal(t, float64(1), first["changes"].(map[string]any)["added"])

	_, body = s.do(t, http.MethodGet, "/api/v1/reference/status", "")
	families = body["families"].([]any)
	assert.Equal(t, true, families[1].(map[string]any)["loaded"])
}

func TestReloadWithoutLoader(t *testing.T) {
	log := logger.NewNop()
	store := procdb.NewStore(log)
	h := NewRouter(NewHandler(store, nil, route.NewService(store, nil, log), log), config.Default().Server, log).Routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/reference/reload", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestResolveToken(t *testing.T) {
	s := newTestServer(t)
	s.reload(t)

	rec, body := s.do(t, http.MethodGet, "/api/v1/procedures/dp/resolve?token=KAYLN3SMUUV", "")
	require.Equal(t, http.StatusOK, rec.Code)
	res := body["resolution"].(map[string]any)
	assert.Equal(t, "transition", res["kind"])
	assert.Equal(t, "KAYLN3.SMUUV", res["code"])
	assert.Equal(t, true, res["reconstructed"])
	assert.Equal(t, []any{"KSFO"}, body["served_airports"])

	_, body = s.do(t, http.MethodGet, "/api/v1/procedures/star/resolve?token=NOPE1", "")
	assert.Equal(t, "no_match", body["resolution"].(map[string]any)["kind"])

	rec, _ = s.do(t, http.MethodGet, "/api/v1/procedures/xyz/resolve?token=A", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = s.do(t, http.MethodGet, "/api/v1/procedures/dp/resolve", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "token is required", body["error"])
	assert.NotEmpty(t, body["request_id"])
}

func TestResolveCombined(t *testing.T) {
	s := newTestServer(t)
	s.reload(t)

	_, body := s.do(t, http.MethodGet, "/api/v1/procedures/combined?token=KAYLN3.SMUUV.WYNDE3", "")
	assert.Equal(t, true, body["matched"])
	assert.Equal(t, "SMUUV", body["combined"].(map[string]any)["shared_fix"])

	_, body = s.do(t, http.MethodGet, "/api/v1/procedures/combined?token=KAYLN3.SMUUV", "")
	assert.Equal(t, false, body["matched"])
}

func TestSearchAndFix(t *testing.T) {
	s := newTestServer(t)
	s.reload(t)

	_, body := s.do(t, http.MethodGet, "/api/v1/procedures/dp/search?q=kayln", "")
	assert.Equal(t, []any{"KAYLN3.SMUUV"}, body["results"])

	_, body = s.do(t, http.MethodGet, "/api/v1/procedures/star/search?q=wynde&kind=pattern", "")
	assert.Equal(t, "pattern", body["kind"])
	assert.NotEmpty(t, body["results"])

	rec, _ := s.do(t, http.MethodGet, "/api/v1/procedures/dp/search?q=k&kind=other", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/procedures/dp/search?q=k&limit=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, body = s.do(t, http.MethodGet, "/api/v1/procedures/dp/fix/smuuv", "")
	assert.Equal(t, "SMUUV", body["fix"])
	assert.Len(t, body["records"], 1)

	_, body = s.do(t, http.MethodGet, "/api/v1/procedures/dp/fix/NOWHERE", "")
	assert.Empty(t, body["records"])
}

func TestRouteEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.reload(t)

	rec, body := s.do(t, http.MethodPost, "/api/v1/routes/preprocess", `{"route":"KSFO KAYLN3SMUUV KJFK"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"KSFO", "KAYLN3.SMUUV", "KJFK"}, body["tokens"])

	rec, body = s.do(t, http.MethodPost, "/api/v1/routes/expand", `{"tokens":["KSFO","KAYLN3.SMUUV","KJFK"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	expansion := body["expansion"].(map[string]any)
	assert.Contains(t, expansion["waypoints"], "KAYLN")

	rec, _ = s.do(t, http.MethodPost, "/api/v1/routes/expand", `{"route":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/routes/preprocess", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORS(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "X-Request-Id", rec.Header().Get("Access-Control-Expose-Headers"))
	assert.Equal(t, "Origin", rec.Header().Get("Vary"))
}

func TestCORS_RejectsUnlistedOrigin(t *testing.T) {
	log := logger.NewNop()
	store := procdb.NewStore(log)
	server := config.Default().Server
	server.CORSAllowedOrigins = []string{"https://ops.example.test"}
	h := NewRouter(NewHandler(store, nil, route.NewService(store, nil, log), log), server, log).Routes()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("Origin", "https://elsewhere.test")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDEchoed(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodGet, "/api/v1/procedures/dp/resolve", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	id := rec.Header().Get("X-Request-Id")
	assert.NotEmpty(t, id)
	assert.Equal(t, id, body["request_id"])

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-Id", "caller-42")
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, "caller-42", rec.Header().Get("X-Request-Id"))
}
