package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pvbess-model/internal/api/models"
	"pvbess-model/internal/metrics"
)

const plantYAML = `
plant:
  name: Site A
  bess_capacity_kwh: 100
  bess_power_kw: 50
  bess_efficiency: 0.9
  ca_peak: 1
  ca_normal: 0.5
  ca_offpeak: 0.1
`

const timelineCSV = `timestamp,solar_kw,load_kw,period
2025-01-01T08:00:00Z,100,50,P
2025-01-01T09:00:00Z,100,50,P
2025-01-01T10:00:00Z,0,40,P
2025-01-01T11:00:00Z,0,40,P
`

const inlineRows = `[
 {"timestamp": "2025-01-01T08:00:00Z", "solar_kw": 100, "load_kw": 50, "period": "peak"},
 {"timestamp": "2025-01-01T09:00:00Z", "solar_kw": 100, "load_kw": 50, "period": "peak"},
 {"timestamp": "2025-01-01T10:00:00Z", "solar_kw": 0, "load_kw": 40, "period": "peak"},
 {"timestamp": "2025-01-01T11:00:00Z", "solar_kw": 0, "load_kw": 40, "period": "peak"}
]`

type testServer struct {
	router *gin.Engine
	reg    *prometheus.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	plants := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(plants, "site_a.yaml"), []byte(plantYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(plants, "broken.yaml"), []byte("plant: ["), 0o644))
	timelines := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(timelines, "jan.csv"), []byte(timelineCSV), 0o644))

	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSink(reg)
	require.NoError(t, err)

	return &testServer{
		router: NewRouter(Options{
			PlantDir:    plants,
			TimelineDir: timelines,
			Gatherer:    reg,
			Recorder:    sink,
		}),
		reg: reg,
	}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestListStrategies(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/api/v1/strategies", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[struct {
		Strategies []models.StrategyInfo `json:"strategies"`
	}](t, w)
	require.Len(t, body.Strategies, 4)
	assert.Equal(t, 0, body.Strategies[0].Mode)
	assert.Equal(t, "window", body.Strategies[3].Name)
	assert.Len(t, body.Strategies[3].Parameters, 2)
}

func TestListPlants(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/api/v1/plants", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[struct {
		Plants []models.PlantInfo `json:"plants"`
	}](t, w)
	require.Len(t, body.Plants, 1, "unparseable presets are skipped")
	assert.Equal(t, "site_a", body.Plants[0].ID)
	assert.Equal(t, "Site A", body.Plants[0].Name)
	assert.Equal(t, 100.0, body.Plants[0].Specs.BESSCapacityKWh)
}

func TestSimulate_InlineTimelineAndStoredRun(t *testing.T) {
	s := newTestServer(t)
	body := `{
		"name": "inline",
		"plant": {"bess_capacity_kwh": 100, "bess_power_kw": 50, "bess_efficiency": 0.9},
		"lifetime": {"pv_degradation": [1, 0.99], "bess_degradation": [1, 0.98]},
		"timeline": {"data": ` + inlineRows + `},
		"options": {"include_ledger": true}
	}`
	w := s.do(t, http.MethodPost, "/api/v1/simulate", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[models.SimulateResponse](t, w)
	require.NotEmpty(t, resp.ID)
	assert.Equal(t, "completed", resp.Status)
	assert.Equal(t, 4, resp.Summary.TotalHours)
	assert.InDelta(t, 0.2, resp.Summary.Totals.SolarGenMWh, 1e-12)
	assert.InDelta(t, 0.08, resp.Summary.Totals.DischargeMWh, 1e-9)
	assert.Len(t, resp.Ledger, 4)
	assert.Nil(t, resp.Yearly)
	require.NotNil(t, resp.Lifetime)
	assert.Equal(t, 2, resp.Lifetime.Years)
	assert.Nil(t, resp.Finance, "no revenue rate, no finance run")

	w = s.do(t, http.MethodGet, "/api/v1/runs/"+resp.ID+"/ledger", "")
	require.Equal(t, http.StatusOK, w.Code)
	ledger := decode[models.LedgerResponse](t, w)
	assert.Equal(t, "inline", ledger.Name)
	assert.Len(t, ledger.Ledger, 4)

	w = s.do(t, http.MethodGet, "/api/v1/runs/"+resp.ID+"/ledger?format=csv", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Len(t, strings.Split(strings.TrimSpace(w.Body.String()), "\n"), 5)

	w = s.do(t, http.MethodGet, "/api/v1/runs/"+resp.ID+"/yearly", "")
	require.Equal(t, http.StatusOK, w.Code)
	yearly := decode[models.YearlyResponse](t, w)
	assert.Len(t, yearly.Yearly, 2)
	assert.Equal(t, 2, yearly.Summary.Years)

	w = s.do(t, http.MethodDelete, "/api/v1/runs/"+resp.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(t, http.MethodGet, "/api/v1/runs/"+resp.ID+"/ledger", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	errResp := decode[models.ErrorResponse](t, w)
	assert.Equal(t, "NOT_FOUND", errResp.Error.Code)
}

func TestSimulate_PresetsAndFinance(t *testing.T) {
	s := newTestServer(t)
	body := `{
		"plant_file": "site_a",
		"plant": {"bess_power_kw": 25},
		"lifetime": {"pv_degradation": [1, 0.99], "bess_degradation": [1, 0.98]},
		"finance": {"revenue_per_mwh": 80, "pv_cost_usd": 100},
		"timeline": {"preset": "jan"},
		"options": {"include_yearly": true}
	}`
	w := s.do(t, http.MethodPost, "/api/v1/simulate", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[models.SimulateResponse](t, w)
	assert.Len(t, resp.Yearly, 2)
	assert.Nil(t, resp.Ledger)
	require.NotNil(t, resp.Finance)
	assert.Equal(t, 100.0, resp.Finance.TotalCAPEXUSD)
	// the 25 kW override caps each charging hour at 25 kWh
	assert.InDelta(t, 0.05, resp.Summary.Totals.ChargeMWh, 1e-12)
}

func TestSimulate_Errors(t *testing.T) {
	s := newTestServer(t)
	cases := map[string]struct {
		body  string
		code  string
		field string
	}{
		"malformed json": {
			body: `{"plant": `,
			code: "INVALID_REQUEST",
		},
		"bad efficiency": {
			body:  `{"plant": {"bess_capacity_kwh": 100, "bess_power_kw": 50, "bess_efficiency": 1.5}, "timeline": {"preset": "jan"}}`,
			code:  "INVALID_CONFIG",
			field: "bess_efficiency",
		},
		"no timeline": {
			body:  `{"plant": {"bess_capacity_kwh": 100, "bess_power_kw": 50, "bess_efficiency": 0.9}}`,
			code:  "INVALID_CONFIG",
			field: "timeline",
		},
		"unknown preset": {
			body:  `{"plant": {"bess_capacity_kwh": 100, "bess_power_kw": 50, "bess_efficiency": 0.9}, "timeline": {"preset": "../../etc/passwd"}}`,
			code:  "INVALID_CONFIG",
			field: "timeline.preset",
		},
		"unknown plant": {
			body:  `{"plant_file": "nope", "timeline": {"preset": "jan"}}`,
			code:  "INVALID_CONFIG",
			field: "plant_file",
		},
		"negative load": {
			body:  `{"plant": {"bess_capacity_kwh": 100, "bess_power_kw": 50, "bess_efficiency": 0.9}, "timeline": {"data": [{"timestamp": "2025-01-01T00:00:00Z", "solar_kw": 1, "load_kw": -1}]}}`,
			code:  "INVALID_CONFIG",
			field: "load_kw",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/v1/simulate", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			resp := decode[models.ErrorResponse](t, w)
			assert.Equal(t, tc.code, resp.Error.Code)
			if tc.field != "" {
				assert.Equal(t, tc.field, resp.Error.Details["field"])
			}
		})
	}
}

func TestCompare(t *testing.T) {
	s := newTestServer(t)
	body := `{
		"timeline": {"preset": "jan.csv"},
		"base_config": {"plant_file": "site_a"},
		"truth_totals": {"solar_gen_mwh": 0.2},
		"variations": [
			{"name": "base"},
			{"name": "small", "overrides": {"plant.bess_capacity_kwh": 10}},
			{"name": "bad", "overrides": {"plant.no_such_key": 1}}
		]
	}`
	w := s.do(t, http.MethodPost, "/api/v1/simulate/compare", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[models.CompareResponse](t, w)
	require.Len(t, resp.Comparison, 3)
	assert.Equal(t, "base", resp.Comparison[0].Name)
	require.NotNil(t, resp.Comparison[0].Totals)
	assert.Equal(t, 0.0, resp.Comparison[0].MaxPercentError)
	require.NotNil(t, resp.Comparison[1].Totals)
	assert.Less(t, resp.Comparison[1].Totals.DischargeMWh, resp.Comparison[0].Totals.DischargeMWh)
	require.NotNil(t, resp.Comparison[2].Error)
	assert.Equal(t, "INVALID_CONFIG", resp.Comparison[2].Error.Code)
}

func TestCompare_LockedOverride(t *testing.T) {
	s := newTestServer(t)
	body := `{
		"timeline": {"preset": "jan"},
		"base_config": {"plant_file": "site_a"},
		"variations": [{"name": "sneaky", "overrides": {"timeline.file": "/etc/passwd"}}]
	}`
	w := s.do(t, http.MethodPost, "/api/v1/simulate/compare", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/simulate/compare", `{"timeline": {"preset": "jan"}, "variations": []}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", decode[models.ErrorResponse](t, w).Error.Code)
}

func TestFinance(t *testing.T) {
	s := newTestServer(t)
	body := `{
		"yearly": [{"year": 1, "solar_gen_mwh": 1000}, {"year": 2, "solar_gen_mwh": 990}],
		"revenue_per_mwh": 100,
		"config": {"pv_cost_usd": 150000, "project_years": 2, "depreciation_years": 2, "leverage_ratio": 0, "mra_by_year": {}}
	}`
	w := s.do(t, http.MethodPost, "/api/v1/finance", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[models.FinanceResponse](t, w)
	assert.Equal(t, 150000.0, resp.Summary.TotalCAPEXUSD)
	require.NotNil(t, resp.Results)
	assert.Len(t, resp.Results.Yearly, 2)
	assert.Equal(t, 0.0, resp.Results.Yearly[0].MRAUSD, "an explicit empty MRA table replaces the default")

	w = s.do(t, http.MethodPost, "/api/v1/finance", `{"yearly": [{"year": 1}], "revenue_per_mwh": -1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_CONFIG", decode[models.ErrorResponse](t, w).Error.Code)
}

func TestMetricsAndCORS(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/v1/simulate",
		`{"plant_file": "site_a", "timeline": {"preset": "jan"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `pvbess_simulations_total{kind="dispatch",outcome="ok"} 1`)
	assert.Contains(t, w.Body.String(), "pvbess_simulated_hours_total 4")

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/simulate", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNoRoute(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/api/v1/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.True(t, bytes.Contains(w.Body.Bytes(), []byte("NOT_FOUND")))
}
