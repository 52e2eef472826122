package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/prodtrack/internal/domain/models"
	"github.com/mamadbah2/prodtrack/internal/repository/memory"
	"github.com/mamadbah2/prodtrack/internal/server/handlers"
	"github.com/mamadbah2/prodtrack/internal/service/nonconformity"
	"github.com/mamadbah2/prodtrack/internal/service/planning"
	"github.com/mamadbah2/prodtrack/internal/service/reporting"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	store := memory.NewStore()
	catalog := memory.NewCatalog([]models.CatalogReference{
		{Line: "L1", Reference: "REF-A", CycleTimeSeconds: 10},
		{Line: "L1", Reference: "REF-B", CycleTimeSeconds: 36},
	}, []models.CatalogPhase{{Line: "L1", Phase: "assembly"}})

	stats := reporting.NewService(store, nil)
	return New(Handlers{
		Planning:      handlers.NewPlanningHandler(planning.NewService(store, catalog, nil), nil),
		NonConformity: handlers.NewNonConformityHandler(nonconformity.NewReconciler(store, nil), nil),
		Stats:         handlers.NewStatsHandler(stats, reporting.NewDispatcher(stats, reporting.Sinks{}, nil), nil, nil),
		Catalog:       handlers.NewCatalogHandler(catalog, nil),
	}, nil)
}

func doRequest(t *testing.T, r *gin.Engine, method, path, role string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("X-User-Role", role)
		req.Header.Set("X-User-ID", "u-1")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return out
}

const recordPath = "/api/v1/planning/semaine47/lundi/L1/REF-A"

func initWeek(t *testing.T, r *gin.Engine) {
	t.Helper()
	w := doRequest(t, r, http.MethodPost, "/api/v1/weeks", RoleAdmin, map[string]any{
		"name": "semaine47", "startDate": "2026-11-16", "endDate": "2026-11-21",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("init week: %d %s", w.Code, w.Body.String())
	}
}

func TestPlanningReconciliationFlow(t *testing.T) {
	r := setupRouter(t)
	initWeek(t, r)

	w := doRequest(t, r, http.MethodPatch, recordPath, RoleAdmin, map[string]any{"plannedQty": 1000})
	if w.Code != http.StatusOK {
		t.Fatalf("patch: %d %s", w.Code, w.Body.String())
	}
	rec := decode[models.PlanningRecord](t, w)
	if rec.PlannedHours != 2.77 || rec.OperatorCount != 0.34 {
		t.Fatalf("planning fields = %v / %v", rec.PlannedHours, rec.OperatorCount)
	}

	w = doRequest(t, r, http.MethodPut, recordPath+"/declaration", RoleSupervisor, map[string]any{"declaredProduction": 970})
	if w.Code != http.StatusOK {
		t.Fatalf("declare: %d %s", w.Code, w.Body.String())
	}
	if rec = decode[models.PlanningRecord](t, w); rec.Delta != -30 || rec.ProductionPercent != 97 {
		t.Fatalf("declared record = %+v", rec)
	}

	w = doRequest(t, r, http.MethodPut, recordPath+"/non-conformity", RoleSupervisor, map[string]any{"absence": 20, "maintenance": 10, "comment": "press down"})
	if w.Code != http.StatusOK {
		t.Fatalf("reconcile: %d %s", w.Code, w.Body.String())
	}
	res := decode[models.ReconcileResult](t, w)
	if res.Action != models.ActionCreated || res.Delta != -30 || res.QuantitySource != 1000 || res.Report.Total != 30 {
		t.Fatalf("reconcile result = %+v", res)
	}

	w = doRequest(t, r, http.MethodGet, recordPath, RoleSupervisor, nil)
	view := decode[planning.RecordView](t, w)
	if !view.HasNonConformity || view.State != models.StateReconciled {
		t.Fatalf("view = %+v", view)
	}

	w = doRequest(t, r, http.MethodGet, "/api/v1/stats/weeks/semaine47/lines/L1", RoleSupervisor, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats: %d %s", w.Code, w.Body.String())
	}
	st := decode[models.LineWeekStats](t, w)
	if st.Total.ProductionPercent != 97 || st.Total.LossPercent != 3 || st.Total.CauseShares.Absence != 66.67 {
		t.Fatalf("stats total = %+v", st.Total)
	}

	w = doRequest(t, r, http.MethodPost, "/api/v1/reports/weekly/semaine47", RoleAdmin, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("weekly report: %d %s", w.Code, w.Body.String())
	}

	w = doRequest(t, r, http.MethodDelete, recordPath+"/non-conformity", RoleAdmin, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete report: %d %s", w.Code, w.Body.String())
	}
	w = doRequest(t, r, http.MethodGet, recordPath+"/non-conformity", RoleAdmin, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("report after delete: %d", w.Code)
	}
}

func TestErrorMapping(t *testing.T) {
	r := setupRouter(t)
	initWeek(t, r)

	tests := []struct {
		name   string
		method string
		path   string
		role   string
		body   any
		want   int
		kind   string
	}{
		{name: "duplicate week", method: http.MethodPost, path: "/api/v1/weeks", role: RoleAdmin,
			body: map[string]any{"name": "semaine47", "startDate": "2026-11-16", "endDate": "2026-11-21"}, want: http.StatusConflict, kind: "conflict"},
		{name: "unknown record", method: http.MethodGet, path: "/api/v1/planning/semaine47/lundi/L9/REF-A", role: RoleAdmin, want: http.StatusNotFound, kind: "not_found"},
		{name: "sunday", method: http.MethodPut, path: "/api/v1/planning/semaine47/dimanche/L1/REF-A/declaration", role: RoleAdmin,
			body: map[string]any{"declaredProduction": 3}, want: http.StatusBadRequest, kind: "validation"},
		{name: "nothing to reconcile", method: http.MethodPut, path: recordPath + "/non-conformity", role: RoleAdmin,
			body: map[string]any{"absence": 1}, want: http.StatusBadRequest, kind: "validation"},
		{name: "malformed body", method: http.MethodPatch, path: recordPath, role: RoleAdmin, body: "plannedQty", want: http.StatusBadRequest, kind: "validation"},
		{name: "no stats", method: http.MethodGet, path: "/api/v1/stats/lines/L9/causes", role: RoleAdmin, want: http.StatusNotFound, kind: "not_found"},
		{name: "anonymous", method: http.MethodGet, path: "/api/v1/weeks", want: http.StatusUnauthorized, kind: "unauthorized"},
		{name: "supervisor patch", method: http.MethodPatch, path: recordPath, role: RoleSupervisor,
			body: map[string]any{"plannedQty": 1}, want: http.StatusForbidden, kind: "forbidden"},
		{name: "supervisor week", method: http.MethodDelete, path: "/api/v1/weeks/semaine47", role: RoleSupervisor, want: http.StatusForbidden, kind: "forbidden"},
		{name: "archive disabled", method: http.MethodGet, path: "/api/v1/reports/weekly", role: RoleAdmin, want: http.StatusNotFound, kind: "not_found"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(t, r, tc.method, tc.path, tc.role, tc.body)
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tc.want, w.Body.String())
			}
			if body := decode[handlers.ErrorResponse](t, w); body.Kind != tc.kind {
				t.Fatalf("kind = %q, want %q", body.Kind, tc.kind)
			}
		})
	}
}

func TestValidationFieldsAreReturned(t *testing.T) {
	r := setupRouter(t)

	w := doRequest(t, r, http.MethodPost, "/api/v1/weeks", RoleAdmin, map[string]any{
		"name": "week-47", "startDate": "2026-11-16", "endDate": "16/11/2026",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	body := decode[handlers.ErrorResponse](t, w)
	fields := map[string]bool{}
	for _, f := range body.Fields {
		fields[f.Field] = true
	}
	if !fields["name"] || !fields["endDate"] {
		t.Fatalf("fields = %+v", body.Fields)
	}
}

func TestCatalogLookups(t *testing.T) {
	r := setupRouter(t)

	tests := []struct {
		path   string
		exists bool
	}{
		{path: "/api/v1/catalog/lines/L1/phases/assembly", exists: true},
		{path: "/api/v1/catalog/lines/L1/phases/painting", exists: false},
		{path: "/api/v1/catalog/lines/L2/phases/assembly", exists: false},
	}
	for _, tc := range tests {
		w := doRequest(t, r, http.MethodGet, tc.path, RoleSupervisor, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: %d", tc.path, w.Code)
		}
		if got := decode[struct{ Exists bool }](t, w); got.Exists != tc.exists {
			t.Errorf("%s: exists = %v, want %v", tc.path, got.Exists, tc.exists)
		}
	}

	w := doRequest(t, r, http.MethodGet, "/api/v1/catalog/lines/L1/references/REF-B", RoleSupervisor, nil)
	if ct := decode[struct{ CycleTimeSeconds float64 }](t, w); ct.CycleTimeSeconds != 36 {
		t.Fatalf("cycle time = %v", ct.CycleTimeSeconds)
	}
	w = doRequest(t, r, http.MethodGet, "/api/v1/catalog/lines/L1/references/REF-Z", RoleSupervisor, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown reference: %d", w.Code)
	}

	w = doRequest(t, r, http.MethodGet, "/api/v1/catalog/pairs", RoleSupervisor, nil)
	pairs := decode[struct{ Data []models.CatalogPair }](t, w)
	if len(pairs.Data) != 2 || pairs.Data[0].Reference != "REF-A" {
		t.Fatalf("pairs = %+v", pairs.Data)
	}
}

func TestRequestIDAndHealth(t *testing.T) {
	r := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Header().Get("X-Request-ID") != "req-42" {
		t.Fatalf("health: %d request id %q", w.Code, w.Header().Get("X-Request-ID"))
	}

	w = doRequest(t, r, http.MethodGet, "/healthz", "", nil)
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("request id not generated")
	}
}
