package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/branchweb/branchweb-go/internal/core/domain"
	"github.com/branchweb/branchweb-go/internal/core/service"
	"github.com/branchweb/branchweb-go/internal/server/httpserver"
	"github.com/branchweb/branchweb-go/internal/storage/memory"
	"github.com/branchweb/branchweb-go/internal/storage/userfile"
	"github.com/branchweb/branchweb-go/pkg/crypto/passhash"
)

const alicePassword = "wonderland"

type fixture struct {
	dispatcher *httpserver.Dispatcher
	dir        *service.Directory
	keys       *memory.KeyStore
	store      *userfile.File

	mu  sync.Mutex
	now time.Time
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hasher := passhash.NewBcrypt(bcrypt.MinCost)

	hash, err := hasher.Hash(alicePassword)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	store := userfile.New(filepath.Join(t.TempDir(), "users.meta"))
	if err := store.Save(ctx, []*domain.User{{Name: "alice", PasswordHash: hash}}); err != nil {
		t.Fatalf("seed users: %v", err)
	}

	f := &fixture{store: store, now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	f.keys = memory.NewKeyStore(memory.WithClock(f.clock), memory.WithTimeout(time.Minute), memory.WithLogger(logger))
	f.dir, err = service.OpenDirectory(ctx, store, f.keys,
		service.WithHasher(hasher),
		service.WithDirectoryLogger(logger),
	)
	if err != nil {
		t.Fatalf("OpenDirectory() error = %v", err)
	}

	reg := httpserver.NewRegistry(logger)
	New(f.dir, f.keys, logger).Register(reg)
	f.dispatcher = httpserver.NewDispatcher(reg, httpserver.Options{}, logger, nil)
	return f
}

func (f *fixture) post(t *testing.T, path string, form url.Values) httpserver.Envelope {
	t.Helper()
	r := httptest.NewRequest("POST", "/"+path, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return f.serve(t, r)
}

func (f *fixture) postJSON(t *testing.T, path string, body map[string]any) httpserver.Envelope {
	t.Helper()
	data, _ := json.Marshal(body)
	r := httptest.NewRequest("POST", "/"+path, strings.NewReader(string(data)))
	r.Header.Set("Content-Type", "application/json")
	return f.serve(t, r)
}

func (f *fixture) get(t *testing.T, target string) httpserver.Envelope {
	t.Helper()
	return f.serve(t, httptest.NewRequest("GET", target, nil))
}

func (f *fixture) serve(t *testing.T, r *http.Request) httpserver.Envelope {
	t.Helper()
	rec := httptest.NewRecorder()
	f.dispatcher.ServeHTTP(rec, r)
	if rec.Code != http.StatusOK {
		t.Fatalf("transport status = %d", rec.Code)
	}
	var env httpserver.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v (%q)", err, rec.Body.String())
	}
	return env
}

func (f *fixture) login(t *testing.T, user, pass string) string {
	t.Helper()
	env := f.post(t, "auth", url.Values{"user": {user}, "pass": {pass}})
	if env.Status != "SUCCESS" {
		t.Fatalf("login %s: %+v", user, env)
	}
	key, ok := env.Payload.(string)
	if !ok || key == "" {
		t.Fatalf("login payload = %v", env.Payload)
	}
	return key
}

func assertEnvelope(t *testing.T, env httpserver.Envelope, status string, payload any) {
	t.Helper()
	if env.Status != status {
		t.Errorf("status = %s, want %s (payload %v)", env.Status, status, env.Payload)
	}
	if payload != nil && env.Payload != payload {
		t.Errorf("payload = %v, want %v", env.Payload, payload)
	}
}

func TestAuth(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name    string
		form    url.Values
		status  string
		payload any
	}{
		{"missing pass", url.Values{"user": {"alice"}}, "MISSING_DATA", "Missing data."},
		{"missing user", url.Values{"pass": {"x"}}, "MISSING_DATA", "Missing data."},
		{"empty user", url.Values{"user": {""}, "pass": {"x"}}, "MISSING_DATA", "Missing data."},
		{"wrong password", url.Values{"user": {"alice"}, "pass": {"nope"}}, "AUTH_FAILURE", "Authentication failed."},
		{"unknown user", url.Values{"user": {"mallory"}, "pass": {"nope"}}, "AUTH_FAILURE", "Authentication failed."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := f.dir.Users()
			assertEnvelope(t, f.post(t, "auth", tt.form), tt.status, tt.payload)
			if f.keys.Len() != 0 {
				t.Errorf("failed login stored %d keys", f.keys.Len())
			}
			if got := f.dir.Users(); !slices.Equal(got, users) {
				t.Errorf("Users() = %v, want %v", got, users)
			}
			if got := f.dir.KeysOf("alice"); len(got) != 0 {
				t.Errorf("KeysOf(alice) = %v, want none", got)
			}
		})
	}

	t.Run("json body", func(t *testing.T) {
		env := f.postJSON(t, "auth", map[string]any{"user": "alice", "pass": alicePassword})
		assertEnvelope(t, env, "SUCCESS", nil)
	})

	t.Run("keys are distinct", func(t *testing.T) {
		if f.login(t, "alice", alicePassword) == f.login(t, "alice", alicePassword) {
			t.Error("two logins returned the same key")
		}
	})
}

func TestCheckAuthAndExpiry(t *testing.T) {
	f := newFixture(t)
	key := f.login(t, "alice", alicePassword)

	assertEnvelope(t, f.post(t, "checkauth", url.Values{"authkey": {key}}), "SUCCESS", "Authentication key is valid.")

	// Each check refreshes the key.
	for i := 0; i < 3; i++ {
		f.advance(50 * time.Second)
		assertEnvelope(t, f.post(t, "checkauth", url.Values{"authkey": {key}}), "SUCCESS", nil)
	}

	f.advance(61 * time.Second)
	assertEnvelope(t, f.post(t, "checkauth", url.Values{"authkey": {key}}), "AUTH_FAILURE", "Authentication failed.")
	if f.keys.Len() != 0 {
		t.Errorf("expired key still stored")
	}

	assertEnvelope(t, f.post(t, "checkauth", url.Values{}), "AUTH_FAILURE", nil)
	assertEnvelope(t, f.post(t, "checkauth", url.Values{"authkey": {"not-a-key"}}), "AUTH_FAILURE", nil)
}

func TestLogoff(t *testing.T) {
	f := newFixture(t)
	key := f.login(t, "alice", alicePassword)
	other := f.login(t, "alice", alicePassword)

	assertEnvelope(t, f.post(t, "logoff", url.Values{"authkey": {key}}), "SUCCESS", "Logged off.")
	assertEnvelope(t, f.post(t, "checkauth", url.Values{"authkey": {key}}), "AUTH_FAILURE", nil)
	assertEnvelope(t, f.post(t, "logoff", url.Values{"authkey": {key}}), "AUTH_FAILURE", nil)

	// Other keys of the same user stay valid.
	assertEnvelope(t, f.post(t, "checkauth", url.Values{"authkey": {other}}), "SUCCESS", nil)
}

func TestWhoAmIAndKeys(t *testing.T) {
	f := newFixture(t)
	key := f.login(t, "alice", alicePassword)
	f.advance(time.Second)
	second := f.login(t, "alice", alicePassword)

	assertEnvelope(t, f.get(t, "/?whoami="+key), "SUCCESS", "alice")
	assertEnvelope(t, f.get(t, "/?whoami=bogus"), "AUTH_FAILURE", nil)
	assertEnvelope(t, f.get(t, "/whoami"), "AUTH_FAILURE", nil)

	env := f.get(t, "/?keys="+second)
	assertEnvelope(t, env, "SUCCESS", nil)
	list, ok := env.Payload.([]any)
	if !ok || len(list) != 2 {
		t.Fatalf("keys payload = %v", env.Payload)
	}
	ids := map[string]bool{}
	for _, item := range list {
		entry := item.(map[string]any)
		ids[entry["id"].(string)] = true
		if _, ok := entry["last_seen"].(string); !ok {
			t.Errorf("entry without last_seen: %v", entry)
		}
	}
	if !ids[key] || !ids[second] {
		t.Errorf("keys = %v", ids)
	}
}

func TestCreateUser(t *testing.T) {
	f := newFixture(t)
	key := f.login(t, "alice", alicePassword)

	tests := []struct {
		name    string
		form    url.Values
		status  string
		payload any
	}{
		{"no key", url.Values{"cuser": {"bob"}, "cpass": {"pw"}}, "AUTH_FAILURE", "Authentication failed."},
		{"bad key", url.Values{"authkey": {"x"}, "cuser": {"bob"}, "cpass": {"pw"}}, "AUTH_FAILURE", nil},
		{"missing cpass", url.Values{"authkey": {key}, "cuser": {"bob"}}, "MISSING_DATA", "Missing data."},
		{"created", url.Values{"authkey": {key}, "cuser": {"bob"}, "cpass": {"builder"}}, "SUCCESS", "User created."},
		{"exists", url.Values{"authkey": {key}, "cuser": {"bob"}, "cpass": {"other"}}, "SERV_FAILURE", "User already exists."},
		{"invalid name", url.Values{"authkey": {key}, "cuser": {"a=b"}, "cpass": {"pw"}}, "SERV_FAILURE", "Invalid user name."},
		{"password too long", url.Values{"authkey": {key}, "cuser": {"carol"}, "cpass": {strings.Repeat("x", 73)}}, "SERV_FAILURE", "Password too long."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertEnvelope(t, f.post(t, "createuser", tt.form), tt.status, tt.payload)
		})
	}

	f.login(t, "bob", "builder")

	users, err := f.store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(users) != 2 || users[1].Name != "bob" {
		t.Errorf("persisted users = %v", users)
	}
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	key := f.login(t, "alice", alicePassword)

	assertEnvelope(t, f.post(t, "changepw", url.Values{"authkey": {key}}), "MISSING_DATA", nil)
	assertEnvelope(t, f.post(t, "changepw", url.Values{"pass": {"new"}}), "AUTH_FAILURE", nil)
	assertEnvelope(t, f.post(t, "changepw", url.Values{"authkey": {key}, "pass": {strings.Repeat("x", 73)}}), "SERV_FAILURE", "Password too long.")
	assertEnvelope(t, f.post(t, "changepw", url.Values{"authkey": {key}, "pass": {"looking-glass"}}), "SUCCESS", "Password changed.")

	assertEnvelope(t, f.post(t, "auth", url.Values{"user": {"alice"}, "pass": {alicePassword}}), "AUTH_FAILURE", nil)
	f.login(t, "alice", "looking-glass")

	// Existing keys survive a password change.
	assertEnvelope(t, f.post(t, "checkauth", url.Values{"authkey": {key}}), "SUCCESS", nil)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	f.login(t, "alice", alicePassword)

	env := f.get(t, "/health")
	assertEnvelope(t, env, "SUCCESS", nil)

	payload, ok := env.Payload.(map[string]any)
	if !ok {
		t.Fatalf("payload = %v", env.Payload)
	}
	if payload["status"] != "healthy" || payload["active_keys"] != float64(1) || payload["users"] != float64(1) {
		t.Errorf("health = %v", payload)
	}
	if payload["version"] == "" {
		t.Error("version empty")
	}
}

func TestConcurrentLogins(t *testing.T) {
	f := newFixture(t)

	const n = 20
	keys := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := httptest.NewRequest("POST", "/auth", strings.NewReader("user=alice&pass="+alicePassword))
			r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			rec := httptest.NewRecorder()
			f.dispatcher.ServeHTTP(rec, r)
			var env httpserver.Envelope
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err == nil && env.Status == "SUCCESS" {
				keys <- env.Payload.(string)
			}
		}()
	}
	wg.Wait()
	close(keys)

	seen := map[string]bool{}
	for k := range keys {
		if seen[k] {
			t.Errorf("duplicate key %s", k)
		}
		seen[k] = true
	}
	if len(seen) != n {
		t.Errorf("got %d keys, want %d", len(seen), n)
	}
	if got := len(f.dir.KeysOf("alice")); got != n {
		t.Errorf("KeysOf(alice) = %d, want %d", got, n)
	}
}
