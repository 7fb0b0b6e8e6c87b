package debug

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	logx "prospector/pkg/logx"
)

func startServer(t *testing.T, cfg Config, health Health) *Service {
	t.Helper()
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:0"
	}
	s := New(cfg, health, logx.Nop())
	s.Start(context.Background())
	t.Cleanup(func() { s.Stop(context.Background()) })
	return s
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()
	s := startServer(t, Config{Enabled: true}, func() any {
		return map[string]any{"status": "ok", "prospected": 3}
	})
	addr := s.Addr()
	if addr == "" {
		t.Fatal("server not listening")
	}

	resp, err := http.Get("http://" + addr + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var got map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got["status"] != "ok" || got["prospected"] != float64(3) {
		t.Fatalf("payload = %v", got)
	}
}

func TestTokenGuardsAllRoutes(t *testing.T) {
	t.Parallel()
	s := startServer(t, Config{Enabled: true, Token: "sekret"}, nil)
	addr := s.Addr()

	resp, err := http.Get("http://" + addr + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status without token = %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, "http://"+addr+"/health", nil)
	req.Header.Set("Authorization", "Bearer sekret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status with token = %d", resp.StatusCode)
	}
}

func TestDisabledServerDoesNotListen(t *testing.T) {
	t.Parallel()
	s := startServer(t, Config{Enabled: false}, nil)
	if s.Addr() != "" {
		t.Fatal("disabled server bound a listener")
	}
}

func TestNonLoopbackWithoutTokenStaysOff(t *testing.T) {
	t.Parallel()
	s := New(Config{Enabled: true, Addr: "0.0.0.0:0"}, nil, logx.Nop())
	s.Start(context.Background())
	defer s.Stop(context.Background())
	if s.Addr() != "" {
		t.Fatal("insecure bind should be refused")
	}
}
