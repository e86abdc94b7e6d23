// README: Integration tests for alert endpoint authorization and validation.
package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fleetwatch/internal/auth"
	"fleetwatch/internal/http/handlers"
	httpmiddleware "fleetwatch/internal/http/middleware"
	"fleetwatch/internal/modules/alerts"
)

// stubVerifier is a test double for auth.Verifier.
type stubVerifier struct {
	claims *auth.Claims
	err    error
}

func (s *stubVerifier) Verify(string) (*auth.Claims, error) {
	return s.claims, s.err
}

// buildAlertRouter wires a minimal engine with the auth middleware and the
// alert handler. alerts.NewService(nil, nil, ...) is safe here because every
// request under test is rejected before a service method runs.
func buildAlertRouter(verifier auth.Verifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := alerts.NewService(nil, nil, zap.NewNop())
	h := handlers.NewAlertHandler(svc)
	r := gin.New()
	api := r.Group("/api", httpmiddleware.Auth(verifier))
	api.POST("/alerts", h.Create)
	admin := api.Group("", httpmiddleware.RequireRole(auth.RoleAdmin))
	admin.GET("/alerts/active", h.Active)
	admin.POST("/alerts/:id/ack", h.Acknowledge)
	admin.POST("/alerts/:id/resolve", h.Resolve)
	return r
}

func makeVerifier(uid, role string) *stubVerifier {
	return &stubVerifier{claims: &auth.Claims{Subject: uid, Name: uid, Role: role}}
}

func doRequest(r *gin.Engine, method, path string, body any, authHeader string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// TestCreate_Unauthenticated verifies that requests without a valid token are rejected.
func TestCreate_Unauthenticated(t *testing.T) {
	r := buildAlertRouter(&stubVerifier{err: auth.ErrInvalidToken})
	w := doRequest(r, http.MethodPost, "/api/alerts", map[string]any{
		"lat": 24.97, "lng": 121.54,
	}, "Bearer badtoken")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

// TestCreate_MalformedBody verifies that invalid JSON is rejected before the service runs.
func TestCreate_MalformedBody(t *testing.T) {
	r := buildAlertRouter(makeVerifier("bus-17", auth.RoleDriver))
	req := httptest.NewRequest(http.MethodPost, "/api/alerts", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer sometoken")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

// TestActive_RequiresAdminRole checks that a driver cannot read the active alert queue.
func TestActive_RequiresAdminRole(t *testing.T) {
	r := buildAlertRouter(makeVerifier("bus-17", auth.RoleDriver))
	w := doRequest(r, http.MethodGet, "/api/alerts/active", nil, "Bearer sometoken")
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

// TestAcknowledge_RequiresAdminRole checks that observers cannot advance the lifecycle.
func TestAcknowledge_RequiresAdminRole(t *testing.T) {
	r := buildAlertRouter(makeVerifier("viewer-1", auth.RoleObserver))
	w := doRequest(r, http.MethodPost, "/api/alerts/a1/ack", nil, "Bearer sometoken")
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

// TestResolve_Unauthenticated verifies the lifecycle endpoints sit behind auth at all.
func TestResolve_Unauthenticated(t *testing.T) {
	r := buildAlertRouter(&stubVerifier{err: auth.ErrInvalidToken})
	w := doRequest(r, http.MethodPost, "/api/alerts/a1/resolve", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}
