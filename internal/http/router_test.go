package httpapi

import (
	"net/http"
	"strings"
	"testing"

	"swad-order-service/internal/config"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func routeSet(t *testing.T) map[string]bool {
	t.Helper()

	router, ok := NewRouter(nil, zap.NewNop(), config.Config{}, nil, nil).(chi.Router)
	if !ok {
		t.Fatal("NewRouter did not return a chi router")
	}

	routes := make(map[string]bool)
	walker := func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes[method+" "+route] = true
		return nil
	}
	if err := chi.Walk(router, walker); err != nil {
		t.Fatalf("walk routes: %v", err)
	}
	return routes
}

func TestShiftsHaveNoHardDelete(t *testing.T) {
	routes := routeSet(t)

	if !routes["PATCH /api/admin/shifts/{id}/toggle"] {
		t.Error("shift toggle route is not registered")
	}
	for route := range routes {
		if strings.HasPrefix(route, "DELETE ") && strings.Contains(route, "/shifts") {
			t.Errorf("shift records must be deactivated, not deleted; found %s", route)
		}
	}
}

func TestPublicAndAdminSurface(t *testing.T) {
	routes := routeSet(t)

	want := []string{
		"GET /api/public/store/status",
		"POST /api/public/orders",
		"GET /api/public/orders/search",
		"GET /api/public/orders/{orderNumber}",
		"GET /api/public/orders/{orderNumber}/receipt",
		"PUT /api/public/carts/{sessionKey}",
		"POST /api/admin/login",
		"PUT /api/admin/store/status",
		"POST /api/admin/store/exceptions",
		"POST /api/admin/shifts",
		"PATCH /api/admin/orders/{id}/status",
	}
	for _, route := range want {
		if !routes[route] {
			t.Errorf("route %s is not registered", route)
		}
	}
}
