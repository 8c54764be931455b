// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/armonia/auth"
	"github.com/danielhkuo/armonia/cliparse"
	"github.com/danielhkuo/armonia/export"
	"github.com/danielhkuo/armonia/metrics"
	"github.com/danielhkuo/armonia/models"
	"github.com/danielhkuo/armonia/realtime"
	"github.com/danielhkuo/armonia/service"
	"github.com/danielhkuo/armonia/store"
	"github.com/danielhkuo/armonia/testutil"
)

func newTestRouter(t *testing.T, cfg cliparse.Config) *http.ServeMux {
	t.Helper()

	conn := testutil.SetupTestDB(t)
	m := metrics.New()
	hub := realtime.NewHub(nil, m)
	svc := service.New(store.New(conn), service.Config{PreserveOriginalWeight: cfg.PreserveOriginalWeight}, service.Deps{
		Publisher: hub,
		Renderer:  export.XLSX{},
		Metrics:   m,
	})
	gateway := realtime.NewGateway(hub, svc, cfg.JWTSecret, cfg.IPHashSalt, nil)

	return NewRouter(svc, gateway, m, cfg)
}

func TestHealthEndpoint(t *testing.T) {
	mux := newTestRouter(t, testutil.GetTestConfig())

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	if w.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
	}
}

func TestRootEndpoint(t *testing.T) {
	mux := newTestRouter(t, testutil.GetTestConfig())

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	expected := "armonia API v1"
	if w.Body.String() != expected {
		t.Errorf("Expected body '%s', got '%s'", expected, w.Body.String())
	}
}

func TestRouteExistence(t *testing.T) {
	cfg := testutil.GetTestConfig()
	mux := newTestRouter(t, cfg)
	headers := testutil.AuthHeaders(t, cfg, auth.Principal{UserID: "admin-1", TenantID: testutil.TestTenant, Role: models.RoleAdmin})

	// Handlers may answer 400 or 404 for made-up ids; only routing is checked here
	testCases := []struct {
		method string
		path   string
	}{
		{"POST", "/properties"},
		{"POST", "/properties/p1/units"},
		{"GET", "/properties/p1/units"},
		{"PUT", "/units/u1/coefficient"},
		{"POST", "/units/u1/members"},
		{"POST", "/users"},

		{"POST", "/assemblies"},
		{"GET", "/assemblies"},
		{"GET", "/assemblies/a1"},
		{"PUT", "/assemblies/a1"},
		{"DELETE", "/assemblies/a1"},
		{"POST", "/assemblies/a1/start"},
		{"POST", "/assemblies/a1/end"},
		{"POST", "/assemblies/a1/cancel"},
		{"POST", "/assemblies/a1/attendance"},
		{"GET", "/assemblies/a1/attendance"},
		{"GET", "/assemblies/a1/quorum-status"},

		{"POST", "/assemblies/a1/votes"},
		{"GET", "/assemblies/a1/votes"},
		{"GET", "/votes/v1"},
		{"POST", "/votes/v1/submit-vote"},
		{"GET", "/votes/v1/results"},
		{"POST", "/votes/v1/end"},

		{"POST", "/assemblies/a1/generate-minutes"},
		{"GET", "/assemblies/a1/minutes"},
		{"GET", "/assemblies/a1/minutes/export"},
		{"POST", "/minutes/m1/signers"},
		{"GET", "/minutes/m1/signatures"},
		{"POST", "/signatures/s1/sign"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := testutil.MakeRequest(tc.method, tc.path, map[string]any{}, headers)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code == http.StatusMethodNotAllowed {
				t.Errorf("Route %s %s not registered (405)", tc.method, tc.path)
			}
			if w.Code == http.StatusUnauthorized || w.Code == http.StatusForbidden {
				t.Errorf("Route %s %s rejected an admin token: %d", tc.method, tc.path, w.Code)
			}
			if w.Code == http.StatusOK && w.Body.String() == "armonia API v1" {
				t.Errorf("Route %s %s fell through to the root handler", tc.method, tc.path)
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	mux := newTestRouter(t, testutil.GetTestConfig())

	testCases := []struct {
		method string
		path   string
	}{
		{"DELETE", "/health"},
		{"PATCH", "/assemblies/a1"},
		{"PUT", "/votes/v1/submit-vote"},
		{"DELETE", "/properties"},
		{"POST", "/assemblies/a1/quorum-status"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != http.StatusMethodNotAllowed {
				t.Errorf("Expected 405 for %s %s, got %d", tc.method, tc.path, w.Code)
			}
		})
	}
}

func TestAuthenticationRequired(t *testing.T) {
	cfg := testutil.GetTestConfig()
	mux := newTestRouter(t, cfg)

	resident := testutil.AuthHeaders(t, cfg, auth.Principal{UserID: "user-1", TenantID: testutil.TestTenant, Role: models.RoleResident})

	tests := []struct {
		name       string
		method     string
		path       string
		headers    map[string]string
		wantStatus int
	}{
		{"no token", "GET", "/assemblies", nil, http.StatusUnauthorized},
		{"bad token", "GET", "/assemblies", map[string]string{"Authorization": "Bearer nope"}, http.StatusUnauthorized},
		{"resident on admin route", "POST", "/assemblies", resident, http.StatusForbidden},
		{"resident ends vote", "POST", "/votes/v1/end", resident, http.StatusForbidden},
		{"resident lists assemblies", "GET", "/assemblies", resident, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest(tt.method, tt.path, nil, tt.headers)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			testutil.AssertStatus(t, w, tt.wantStatus)
		})
	}
}

func TestPathParameterExtraction(t *testing.T) {
	cfg := testutil.GetTestConfig()
	mux := newTestRouter(t, cfg)
	headers := testutil.AuthHeaders(t, cfg, auth.Principal{UserID: "admin-1", TenantID: testutil.TestTenant, Role: models.RoleAdmin})

	// Unknown ids reach the handler and come back as 404 from the service
	for _, path := range []string{"/assemblies/missing-id", "/votes/missing-vote/results", "/assemblies/missing-id/quorum-status"} {
		req := testutil.MakeRequest("GET", path, nil, headers)
		w := httptest.NewRecorder()

		mux.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("GET %s: expected 404, got %d. Body: %s", path, w.Code, w.Body.String())
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	cfg := testutil.GetTestConfig()
	mux := newTestRouter(t, cfg)

	// One request so the duration histogram has a sample
	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/assemblies", nil))

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	testutil.AssertStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), "armonia_http_request_duration_seconds") {
		t.Errorf("metrics output missing request histogram:\n%s", w.Body.String())
	}
}

func TestMetricsDisabled(t *testing.T) {
	cfg := testutil.GetTestConfig()
	cfg.MetricsEnabled = false
	mux := newTestRouter(t, cfg)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	// Falls through to the root handler
	if w.Body.String() != "armonia API v1" {
		t.Errorf("expected /metrics to be unregistered, got %d %q", w.Code, w.Body.String())
	}
}
