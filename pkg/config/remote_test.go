package config

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type mockAliasSetter struct {
	mu      sync.Mutex
	aliases map[string]string
}

func (m *mockAliasSetter) SetAlias(alias, model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.aliases == nil {
		m.aliases = map[string]string{}
	}
	m.aliases[alias] = model
}

func (m *mockAliasSetter) get(alias string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.aliases[alias]
	return v, ok
}

func TestRemoteAliases_Parsed(t *testing.T) {
	raw := `{"model_aliases": {"gpt4": "gpt-4o", "fast": ""}, "updated_at": "2026-03-01"}`
	var doc RemoteAliases
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("unexpected unmarshal error: %v", err)
	}
	if len(doc.ModelAliases) != 2 || doc.UpdatedAt != "2026-03-01" {
		t.Errorf("unexpected document: %+v", doc)
	}
}

func TestRemoteManager_FetchAppliesAliases(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"model_aliases": {"gpt4": "gpt-4.1", "empty": ""}, "updated_at": "now"}`))
	}))
	defer srv.Close()

	setter := &mockAliasSetter{}
	rm := NewRemoteManager(srv.URL, time.Minute, setter)
	if err := rm.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if got, _ := setter.get("gpt4"); got != "gpt-4.1" {
		t.Errorf("expected alias pushed, got %q", got)
	}
	if _, ok := setter.get("empty"); ok {
		t.Error("empty alias values must be ignored")
	}
	if rm.Current().UpdatedAt != "now" {
		t.Errorf("Current not updated: %+v", rm.Current())
	}
}

func TestRemoteManager_FetchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad-json" {
			w.Write([]byte("{"))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	for _, url := range []string{"", srv.URL + "/status", srv.URL + "/bad-json"} {
		rm := NewRemoteManager(url, time.Minute, nil)
		if err := rm.Fetch(context.Background()); err == nil {
			t.Errorf("expected error for %q", url)
		}
		if rm.Current() == nil || rm.Current().ModelAliases != nil {
			t.Errorf("failed fetch should keep the empty document, got %+v", rm.Current())
		}
	}
}

func TestRemoteManager_Start(t *testing.T) {
	var fetchCount atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetchCount.Add(1)
		w.Write([]byte(`{"model_aliases": {}}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rm := NewRemoteManager(srv.URL, 10*time.Millisecond, nil)
	rm.Start(ctx)
	time.Sleep(60 * time.Millisecond)

	if fetchCount.Load() < 2 {
		t.Errorf("expected initial fetch plus ticker fetches, got %d", fetchCount.Load())
	}
}

func TestRemoteFromConfig(t *testing.T) {
	if rm := RemoteFromConfig(NewStore(nil), nil); rm != nil {
		t.Error("expected nil manager without remote.url")
	}
	s := NewStore(map[string]any{"remote": map[string]any{"url": "http://x", "poll_interval": "5s"}})
	rm := RemoteFromConfig(s, nil)
	if rm == nil || rm.interval != 5*time.Second || rm.url != "http://x" {
		t.Errorf("unexpected manager: %+v", rm)
	}
	if NewRemoteManager("http://x", 0, nil).interval != DefaultPollInterval {
		t.Error("zero interval should use the default")
	}
}
