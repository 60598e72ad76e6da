package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ayusman/ffbridge/internal/hands"
	"github.com/ayusman/ffbridge/internal/skeleton"
	"github.com/ayusman/ffbridge/internal/transport"
)

// newTestHands builds a started coordinator whose hands write to in-memory conns.
func newTestHands(t *testing.T) (*hands.Coordinator, [skeleton.SideCount]*transport.TestableConn) {
	t.Helper()

	var conns [skeleton.SideCount]*transport.TestableConn
	var cfg hands.Config
	for _, side := range skeleton.Sides() {
		conns[side] = transport.NewTestableConn()
		dialer := &transport.MockDialer{Conn: conns[side]}
		ep := transport.Endpoint{Side: side}
		cfg.Transports[side] = transport.NewStream(ep, ep.Name(), dialer.Dial, transport.DefaultOptions(), nil)
	}

	coord, err := hands.New(cfg)
	if err != nil {
		t.Fatalf("hands.New() error = %v", err)
	}
	coord.Start(context.Background())
	t.Cleanup(func() { coord.Shutdown() })
	return coord, conns
}

func TestServer_Health(t *testing.T) {
	s := New(Config{})

	t.Run("returns 200 with JSON response", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", ct)
		}

		var response map[string]any
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response["status"] != "ok" {
			t.Errorf("expected status 'ok', got %v", response["status"])
		}
		if _, exists := response["uptime"]; !exists {
			t.Error("expected 'uptime' field in response")
		}
	})

	t.Run("only allows GET method", func(t *testing.T) {
		for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
			req := httptest.NewRequest(method, "/api/health", nil)
			rec := httptest.NewRecorder()

			s.ServeHTTP(rec, req)

			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("method %s: expected status %d, got %d", method, http.StatusMethodNotAllowed, rec.Code)
			}
		}
	})
}

func TestServer_RoutesRequireComponents(t *testing.T) {
	s := New(Config{})

	for _, path := range []string{"/api/hands", "/api/poses", "/api/reports", "/"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected status %d, got %d", path, http.StatusNotFound, rec.Code)
		}
	}
}

func TestServer_StaticFiles(t *testing.T) {
	dir := t.TempDir()
	content := "<html><body>ffbridge</body></html>"
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	s := New(Config{StaticDir: dir})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if rec.Body.String() != content {
		t.Errorf("expected body %q, got %q", content, rec.Body.String())
	}
}

func TestServer_Hands(t *testing.T) {
	coord, conns := newTestHands(t)
	s := New(Config{Hands: coord})

	t.Run("status lists both hands", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/hands", nil)
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		var response struct {
			Hands []struct {
				Hand  string `json:"hand"`
				State string `json:"state"`
			} `json:"hands"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(response.Hands) != 2 || response.Hands[0].Hand != "left" || response.Hands[1].State != "connected" {
			t.Errorf("unexpected status %+v", response.Hands)
		}
	})

	t.Run("relax writes a zero record", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/hands/left/relax", nil)
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
		}
		if got := conns[skeleton.Left].Written(); !bytes.Equal(got, make([]byte, 10)) {
			t.Errorf("expected ten zero bytes, got % x", got)
		}
	})

	t.Run("malformed pose is rejected", func(t *testing.T) {
		body := `{"rotations":[{"w":1,"x":0,"y":0,"z":0}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/hands/right/pose", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
		}
		if conns[skeleton.Right].Calls() != 0 {
			t.Error("malformed pose must not be sent")
		}
	})

	t.Run("unknown hand", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/hands/middle/relax", nil)
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func TestNew(t *testing.T) {
	s := New(Config{StaticDir: "/some/path"})
	if s.config.StaticDir != "/some/path" {
		t.Errorf("expected StaticDir /some/path, got %s", s.config.StaticDir)
	}
	if s.Reports() != nil {
		t.Error("reports handler requires a coordinator")
	}

	var _ http.Handler = s
}
