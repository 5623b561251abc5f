package sources

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrSnakeDoc/opphub/internal/logger"
)

func testDeps() Deps {
	return Deps{
		Client: &http.Client{Timeout: 2 * time.Second},
		Log:    logger.NewNop(),
	}
}

// settingsFor returns the built-in settings of key pointed at url.
func settingsFor(key, url string) Settings {
	s := Defaults().Sources[key]
	s.BaseURL = url
	return s
}

func serveJSON(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func serveStatus(t *testing.T, code int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", code)
	}))
	t.Cleanup(srv.Close)
	return srv
}
