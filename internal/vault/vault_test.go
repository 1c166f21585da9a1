package vault

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const kvBody = `{
  "data": {
    "data": {"password": "s3cret", "port": 3306},
    "metadata": {
      "created_time": "2024-01-01T00:00:00.000000Z",
      "custom_metadata": null,
      "deletion_time": "",
      "destroyed": false,
      "version": 1
    }
  }
}`

// fakeVault answers KV-v2 reads for secret/blog/db and 404s everything else.
func fakeVault(t *testing.T) (*httptest.Server, *int32) {
	t.Helper()
	var reads int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/v1/secret/data/blog/db" {
			atomic.AddInt32(&reads, 1)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(kvBody))
			return
		}
		http.Error(w, `{"errors":[]}`, http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)
	return srv, &reads
}

func newTestClient(t *testing.T, addr string) *Client {
	t.Helper()
	t.Setenv("VAULT_ADDR", addr)
	t.Setenv("VAULT_TOKEN", "test-token")
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	c, err := New(ctx)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestGetKV_CachesWithinTTL(t *testing.T) {
	srv, reads := fakeVault(t)
	c := newTestClient(t, srv.URL)

	for i := 0; i < 3; i++ {
		v, err := c.GetKV(context.Background(), "secret/blog/db", "password", time.Minute)
		if err != nil {
			t.Fatalf("GetKV: %v", err)
		}
		if v != "s3cret" {
			t.Fatalf("value = %q", v)
		}
	}
	if n := atomic.LoadInt32(reads); n != 1 {
		t.Fatalf("reads = %d, want 1", n)
	}

	if _, err := c.GetKV(context.Background(), "secret/blog/db", "password", 0); err != nil {
		t.Fatalf("uncached GetKV: %v", err)
	}
	if n := atomic.LoadInt32(reads); n != 2 {
		t.Fatalf("reads after ttl=0 = %d, want 2", n)
	}
}

func TestGetKV_Errors(t *testing.T) {
	srv, _ := fakeVault(t)
	c := newTestClient(t, srv.URL)

	cases := []struct {
		path, key, want string
	}{
		{"", "password", "non‑empty"},
		{"secret/blog/db", "missing", "not found"},
		{"secret/blog/db", "port", "not a string"},
		{"secret/other", "password", "vault get"},
	}
	for _, tc := range cases {
		_, err := c.GetKV(context.Background(), tc.path, tc.key, 0)
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Errorf("GetKV(%q, %q) err = %v, want %q", tc.path, tc.key, err, tc.want)
		}
	}
}

func TestSplitMount(t *testing.T) {
	cases := map[string][2]string{
		"secret/blog/db":  {"secret", "blog/db"},
		"/secret/blog/db": {"secret", "blog/db"},
		"kv":              {"kv", ""},
	}
	for in, want := range cases {
		m, r := splitMount(in)
		if m != want[0] || r != want[1] {
			t.Errorf("splitMount(%q) = %q, %q", in, m, r)
		}
	}
}

func TestConfigured(t *testing.T) {
	t.Setenv("VAULT_ADDR", "")
	if Configured() {
		t.Fatal("empty VAULT_ADDR should be unconfigured")
	}
	t.Setenv("VAULT_ADDR", "http://127.0.0.1:8200")
	if !Configured() {
		t.Fatal("VAULT_ADDR set should be configured")
	}
}
