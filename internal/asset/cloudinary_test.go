package asset

import (
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) (*CloudinaryGateway, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	gateway := NewCloudinaryGateway("demo", "key123", "secret456")
	gateway.SetBaseURL(server.URL)
	gateway.now = func() time.Time { return time.Unix(1700000000, 0) }
	return gateway, server
}

func TestCloudinaryStoreSuccess(t *testing.T) {
	var gotPath string
	var gotPublicID string
	var gotSignature string

	gateway, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("failed to parse multipart form: %v", err)
		}
		gotPublicID = r.FormValue("public_id")
		gotSignature = r.FormValue("signature")

		if r.FormValue("api_key") != "key123" {
			t.Errorf("unexpected api_key %q", r.FormValue("api_key"))
		}
		if file, _, err := r.FormFile("file"); err != nil {
			t.Errorf("missing file field: %v", err)
		} else {
			file.Close()
		}

		fmt.Fprintf(w, `{"secure_url":"https://res.cloudinary.com/demo/image/upload/v1/gallery/%s.jpg","public_id":"gallery/%s"}`, gotPublicID, gotPublicID)
	})

	stored, err := gateway.Store(context.Background(), []byte("fake-image"), "gallery")
	if err != nil {
		t.Fatalf("store failed: %v", err)
	}

	if gotPath != "/demo/image/upload" {
		t.Fatalf("unexpected upload path %q", gotPath)
	}
	if stored.PublicID != "gallery/"+gotPublicID {
		t.Fatalf("unexpected public id %q", stored.PublicID)
	}
	if !strings.Contains(stored.URL, gotPublicID) {
		t.Fatalf("asset url %q does not reference public id %q", stored.URL, gotPublicID)
	}

	expected := fmt.Sprintf("%x", sha1.Sum([]byte(fmt.Sprintf("folder=gallery&public_id=%s&timestamp=1700000000secret456", gotPublicID))))
	if gotSignature != expected {
		t.Fatalf("expected signature %q, got %q", expected, gotSignature)
	}
}

func TestCloudinaryStoreServerError(t *testing.T) {
	gateway, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"Invalid image file"}}`)
	})

	_, err := gateway.Store(context.Background(), []byte("broken"), "gallery")
	if !errors.Is(err, ErrUploadFailed) {
		t.Fatalf("expected ErrUploadFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid image file") {
		t.Fatalf("expected error detail, got %v", err)
	}
}

func TestCloudinaryStoreNotConfigured(t *testing.T) {
	gateway := NewCloudinaryGateway("", "", "")
	if gateway.Configured() {
		t.Fatal("expected gateway to report not configured")
	}
	if _, err := gateway.Store(context.Background(), []byte("x"), "gallery"); !errors.Is(err, ErrUploadFailed) {
		t.Fatalf("expected ErrUploadFailed, got %v", err)
	}
}

func TestCloudinaryDelete(t *testing.T) {
	var gotPath, gotPublicID string
	result := `"ok"`

	gateway, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse form: %v", err)
		}
		gotPublicID = r.FormValue("public_id")
		fmt.Fprintf(w, `{"result":%s}`, result)
	})

	if err := gateway.Delete(context.Background(), "gallery/photo"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if gotPath != "/demo/image/destroy" {
		t.Fatalf("unexpected destroy path %q", gotPath)
	}
	if gotPublicID != "gallery/photo" {
		t.Fatalf("unexpected public id %q", gotPublicID)
	}

	// 远端对象已不存在时不视为错误
	result = `"not found"`
	if err := gateway.Delete(context.Background(), "gallery/gone"); err != nil {
		t.Fatalf("expected missing remote object to be tolerated, got %v", err)
	}
}

func TestCloudinaryDeleteFailure(t *testing.T) {
	gateway, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"Invalid signature"}}`)
	})

	err := gateway.Delete(context.Background(), "gallery/photo")
	if !errors.Is(err, ErrDeleteFailed) {
		t.Fatalf("expected ErrDeleteFailed, got %v", err)
	}
}
