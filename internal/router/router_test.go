package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lenslog/internal/asset"
	"github.com/lenslog/internal/db"
	"github.com/lenslog/internal/handler"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type noopGateway struct {
	configured bool
}

func (g *noopGateway) Store(ctx context.Context, data []byte, folder string) (asset.StoredAsset, error) {
	return asset.StoredAsset{URL: "https://res.cloudinary.com/demo/image/upload/v1/gallery/x.jpg", PublicID: "gallery/x"}, nil
}

func (g *noopGateway) Delete(ctx context.Context, publicID string) error { return nil }

func (g *noopGateway) Configured() bool { return g.configured }

func setupTestRouter(t *testing.T, gateway asset.Gateway, corsOrigins []string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := gdb.AutoMigrate(&db.GalleryImage{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	api := handler.NewAPI(gdb, gateway, "", "gallery", 80)
	return SetupRouter(api, "test-secret", corsOrigins)
}

var testOrigins = []string{"https://gallery.example.com"}

func TestHealthEndpoints(t *testing.T) {
	r := setupTestRouter(t, &noopGateway{configured: true}, testOrigins)

	for _, path := range []string{"/", "/health", "/health/db", "/health/storage"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s, got %d", path, w.Code)
		}
	}
}

func TestCMSRoutesRequireAuth(t *testing.T) {
	r := setupTestRouter(t, &noopGateway{}, testOrigins)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cms/gallery-images", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without credentials, got %d", w.Code)
	}
}

func TestPublicGalleryRouteIsOpen(t *testing.T) {
	r := setupTestRouter(t, &noopGateway{}, testOrigins)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/gallery-images", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for public gallery, got %d", w.Code)
	}
}

func TestCORSAllowedOrigin(t *testing.T) {
	r := setupTestRouter(t, &noopGateway{}, testOrigins)

	req := httptest.NewRequest(http.MethodGet, "/api/gallery-images", nil)
	req.Header.Set("Origin", "https://gallery.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://gallery.example.com" {
		t.Fatalf("expected allow-origin header, got %q", got)
	}
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	r := setupTestRouter(t, &noopGateway{}, testOrigins)

	req := httptest.NewRequest(http.MethodGet, "/api/gallery-images", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allow-origin header, got %q", got)
	}
}

func TestCORSClosedWithoutConfiguredOrigins(t *testing.T) {
	r := setupTestRouter(t, &noopGateway{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/gallery-images", nil)
	req.Header.Set("Origin", "https://gallery.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allow-origin header without configured origins, got %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	r := setupTestRouter(t, &noopGateway{}, testOrigins)

	req := httptest.NewRequest(http.MethodOptions, "/api/cms/gallery-images", nil)
	req.Header.Set("Origin", "https://gallery.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got == "" {
		t.Fatal("expected allow-methods header on preflight")
	}
}
