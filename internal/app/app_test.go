package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"immitrack/internal/config"
)

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("DATABASE_DRIVER", "memory")
	t.Setenv("DATABASE_URL", "")
	cfg, err := config.Load(t.TempDir() + "/none.yaml")
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestNew_Memory(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a, err := New(context.Background(), memoryConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	if a.DB != nil || a.Notifier != nil || a.Seeder == nil {
		t.Fatalf("app = %+v", a)
	}

	r := a.Router()
	for _, path := range []string{"/healthz", "/tasks", "/stats", "/board"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("%s = %d", path, w.Code)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a, err := New(context.Background(), memoryConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	w := httptest.NewRecorder()
	a.Router().ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/tasks", nil))
	if w.Code != http.StatusNoContent || w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("preflight = %d", w.Code)
	}
}
