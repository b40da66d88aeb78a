package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/crypto/bcrypt"

	"github.com/branchweb/branchweb-go/internal/core/domain"
	"github.com/branchweb/branchweb-go/internal/storage/memory"
	"github.com/branchweb/branchweb-go/internal/storage/userfile"
	"github.com/branchweb/branchweb-go/internal/telemetry/metric"
	"github.com/branchweb/branchweb-go/pkg/crypto/passhash"
)

var testHasher = passhash.NewArgon2id(passhash.Argon2Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32, SaltLen: 16})

// mockUserRepo is an in-memory UserRepository with failure injection.
type mockUserRepo struct {
	mu      sync.Mutex
	users   []*domain.User
	exists  bool
	failErr error
	saves   int
}

func newMockUserRepo(users ...*domain.User) *mockUserRepo {
	return &mockUserRepo{users: users, exists: true}
}

func (m *mockUserRepo) Load(ctx context.Context) ([]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.exists {
		return nil, domain.ErrStoreNotFound
	}
	out := make([]*domain.User, len(m.users))
	for i, u := range m.users {
		c := *u
		out[i] = &c
	}
	return out, nil
}

func (m *mockUserRepo) Save(ctx context.Context, users []*domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	m.saves++
	m.exists = true
	m.users = make([]*domain.User, len(users))
	for i, u := range users {
		c := *u
		m.users[i] = &c
	}
	return nil
}

func (m *mockUserRepo) names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var names []string
	for _, u := range m.users {
		names = append(names, u.Name)
	}
	return names
}

func mustHash(t *testing.T, pw string) string {
	t.Helper()
	h, err := testHasher.Hash(pw)
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func newTestDirectory(t *testing.T, repo UserRepository, opts ...DirectoryOption) (*Directory, *memory.KeyStore) {
	t.Helper()
	keys := memory.NewKeyStore()
	opts = append([]DirectoryOption{WithHasher(testHasher)}, opts...)
	d, err := OpenDirectory(context.Background(), repo, keys, opts...)
	if err != nil {
		t.Fatalf("OpenDirectory() error = %v", err)
	}
	return d, keys
}

// recordingHandler keeps every log message verbatim.
type recordingHandler struct {
	mu   sync.Mutex
	msgs []string
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = append(h.msgs, r.Message)
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordingHandler) find(prefix string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, m := range h.msgs {
		if strings.HasPrefix(m, prefix) {
			return strings.TrimPrefix(m, prefix), true
		}
	}
	return "", false
}

func TestOpenDirectory_Bootstrap(t *testing.T) {
	repo := &mockUserRepo{}
	rec := &recordingHandler{}

	d, _ := newTestDirectory(t, repo, WithDirectoryLogger(slog.New(rec)))

	if got := d.Users(); len(got) != 1 || got[0] != domain.RootUserName {
		t.Fatalf("Users() = %v, want [root]", got)
	}
	if got := repo.names(); len(got) != 1 || got[0] != domain.RootUserName {
		t.Errorf("persisted users = %v, want [root]", got)
	}

	if _, ok := rec.find("NEW ROOT PASSWORD GENERATED!"); !ok {
		t.Error("banner not logged")
	}
	pw, ok := rec.find("Password: ")
	if !ok {
		t.Fatal("password line not logged")
	}
	if len(pw) != 16 {
		t.Errorf("password length = %d, want 16", len(pw))
	}

	root, _ := d.Lookup(domain.RootUserName)
	if strings.Contains(root.PasswordHash, pw) {
		t.Error("persisted hash contains plaintext password")
	}
	if !d.VerifyPassword(domain.RootUserName, pw) {
		t.Error("logged root password does not verify")
	}
}

func TestOpenDirectory_BootstrapSaveFails(t *testing.T) {
	repo := &mockUserRepo{failErr: errors.New("read-only fs")}
	_, err := OpenDirectory(context.Background(), repo, memory.NewKeyStore(), WithHasher(testHasher))
	if !errors.Is(err, domain.ErrPersistence) {
		t.Errorf("OpenDirectory() error = %v, want ErrPersistence", err)
	}
}

func TestOpenDirectory_Load(t *testing.T) {
	repo := newMockUserRepo(
		&domain.User{Name: "root", PasswordHash: mustHash(t, "rootpw")},
		&domain.User{Name: "alice", PasswordHash: mustHash(t, "alicepw")},
	)
	d, _ := newTestDirectory(t, repo)

	if got := d.Users(); len(got) != 2 || got[1] != "alice" {
		t.Errorf("Users() = %v", got)
	}
	if repo.saves != 0 {
		t.Error("loading an existing store must not rewrite it")
	}
	if !d.VerifyPassword("alice", "alicepw") {
		t.Error("alice password should verify")
	}
}

func TestOpenDirectory_LoadError(t *testing.T) {
	repo := &failingLoadRepo{err: errors.New("permission denied")}
	_, err := OpenDirectory(context.Background(), repo, memory.NewKeyStore())
	if err == nil || !strings.Contains(err.Error(), "permission denied") {
		t.Errorf("OpenDirectory() error = %v", err)
	}
}

type failingLoadRepo struct{ err error }

func (r *failingLoadRepo) Load(context.Context) ([]*domain.User, error) { return nil, r.err }
func (r *failingLoadRepo) Save(context.Context, []*domain.User) error   { return nil }

func TestDirectory_Register(t *testing.T) {
	repo := newMockUserRepo(&domain.User{Name: "root", PasswordHash: mustHash(t, "rootpw")})
	d, _ := newTestDirectory(t, repo)
	ctx := context.Background()

	if err := d.Register(ctx, "alice", "secret"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, ok := d.Lookup("alice"); !ok {
		t.Error("alice not found after Register")
	}
	if got := repo.names(); len(got) != 2 || got[1] != "alice" {
		t.Errorf("persisted = %v", got)
	}
	if !d.VerifyPassword("alice", "secret") {
		t.Error("registered password should verify")
	}

	err := d.Register(ctx, "alice", "other")
	if !errors.Is(err, domain.ErrUserExists) {
		t.Errorf("duplicate Register() error = %v, want ErrUserExists", err)
	}
	if !d.VerifyPassword("alice", "secret") {
		t.Error("duplicate registration must not change the password")
	}

	if err := d.Register(ctx, "bad=name", "pw"); !errors.Is(err, domain.ErrInvalidUserName) {
		t.Errorf("Register(bad=name) error = %v, want ErrInvalidUserName", err)
	}
}

func TestDirectory_RegisterRollback(t *testing.T) {
	repo := newMockUserRepo(&domain.User{Name: "root", PasswordHash: mustHash(t, "rootpw")})
	d, _ := newTestDirectory(t, repo)

	repo.failErr = errors.New("disk full")
	err := d.Register(context.Background(), "alice", "secret")
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("Register() error = %v, want ErrPersistence", err)
	}
	if _, ok := d.Lookup("alice"); ok {
		t.Error("failed registration must be rolled back in memory")
	}
	if d.Len() != 1 {
		t.Errorf("Len() = %d, want 1", d.Len())
	}

	repo.failErr = nil
	if err := d.Register(context.Background(), "alice", "secret"); err != nil {
		t.Errorf("retry after rollback failed: %v", err)
	}
}

func TestDirectory_ConcurrentRegisterSameName(t *testing.T) {
	repo := newMockUserRepo()
	d, _ := newTestDirectory(t, repo)

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := d.Register(context.Background(), "alice", "pw"); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("successful registrations = %d, want 1", successes)
	}
	if d.Len() != 1 {
		t.Errorf("Len() = %d, want 1", d.Len())
	}
}

func TestDirectory_SetPassword(t *testing.T) {
	repo := newMockUserRepo(&domain.User{Name: "alice", PasswordHash: mustHash(t, "old")})
	d, _ := newTestDirectory(t, repo)
	ctx := context.Background()

	if err := d.SetPassword(ctx, "alice", "new"); err != nil {
		t.Fatalf("SetPassword() error = %v", err)
	}
	if d.VerifyPassword("alice", "old") || !d.VerifyPassword("alice", "new") {
		t.Error("password not replaced")
	}

	if err := d.SetPassword(ctx, "nobody", "x"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("SetPassword(nobody) error = %v, want ErrUserNotFound", err)
	}

	repo.failErr = errors.New("read-only fs")
	if err := d.SetPassword(ctx, "alice", "newer"); !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("SetPassword() error = %v, want ErrPersistence", err)
	}
	if !d.VerifyPassword("alice", "new") {
		t.Error("failed SetPassword must restore the old hash")
	}
}

func TestDirectory_PasswordTooLong(t *testing.T) {
	repo := newMockUserRepo(&domain.User{Name: "alice", PasswordHash: mustHash(t, "old")})
	d, _ := newTestDirectory(t, repo, WithHasher(passhash.NewBcrypt(bcrypt.MinCost)))
	ctx := context.Background()
	long := strings.Repeat("p", passhash.BcryptMaxPasswordBytes+1)

	tests := []struct {
		name string
		call func() error
	}{
		{"register", func() error { return d.Register(ctx, "bob", long) }},
		{"set password", func() error { return d.SetPassword(ctx, "alice", long) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if !errors.Is(err, domain.ErrPasswordTooLong) {
				t.Fatalf("error = %v, want ErrPasswordTooLong", err)
			}
			status, msg, ok := domain.StatusOf(err)
			if !ok || status != domain.StatusServFailure || msg != "Password too long." {
				t.Errorf("StatusOf() = (%v, %q, %v)", status, msg, ok)
			}
		})
	}

	if repo.saves != 0 {
		t.Errorf("saves = %d, want 0", repo.saves)
	}
	if _, ok := d.Lookup("bob"); ok {
		t.Error("bob should not be registered")
	}
	if !d.VerifyPassword("alice", "old") {
		t.Error("alice's password should be unchanged")
	}
}

func TestDirectory_Authenticate(t *testing.T) {
	repo := newMockUserRepo(&domain.User{Name: "alice", PasswordHash: mustHash(t, "secret")})
	d, keys := newTestDirectory(t, repo)
	ctx := context.Background()

	tests := []struct {
		name    string
		user    string
		pass    string
		wantErr bool
	}{
		{"wrong password", "alice", "nope", true},
		{"unknown user", "mallory", "secret", true},
		{"case sensitive", "Alice", "secret", true},
		{"valid", "alice", "secret", false},
		{"wrong password after login", "alice", "nope", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keysBefore := keys.Len()
			savesBefore := repo.saves
			usersBefore := d.Users()
			ownedBefore := len(d.KeysOf(tt.user))
			userBefore, _ := d.Lookup(tt.user)

			k, err := d.Authenticate(ctx, tt.user, tt.pass)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrAuthenticationFailed) {
					t.Errorf("error = %v, want ErrAuthenticationFailed", err)
				}
				if k.ID != "" {
					t.Errorf("failed login returned key %q", k.ID)
				}
				if keys.Len() != keysBefore {
					t.Errorf("keys = %d, want %d", keys.Len(), keysBefore)
				}
				if repo.saves != savesBefore {
					t.Errorf("saves = %d, want %d", repo.saves, savesBefore)
				}
				if got := d.Users(); !slices.Equal(got, usersBefore) {
					t.Errorf("Users() = %v, want %v", got, usersBefore)
				}
				if got := len(d.KeysOf(tt.user)); got != ownedBefore {
					t.Errorf("KeysOf(%q) = %d keys, want %d", tt.user, got, ownedBefore)
				}
				if u, _ := d.Lookup(tt.user); u != userBefore {
					t.Errorf("Lookup(%q) changed to %+v", tt.user, u)
				}
				return
			}
			if err != nil {
				t.Fatalf("Authenticate() error = %v", err)
			}
			if !keys.Validate(k.ID) {
				t.Error("issued key should validate")
			}
			if owner, ok := d.OwnerOf(k.ID); !ok || owner != "alice" {
				t.Errorf("OwnerOf() = (%q, %v)", owner, ok)
			}
		})
	}
}

func TestDirectory_KeyLifecycle(t *testing.T) {
	repo := newMockUserRepo(&domain.User{Name: "alice", PasswordHash: mustHash(t, "secret")})
	d, _ := newTestDirectory(t, repo)
	ctx := context.Background()

	k1, _ := d.Authenticate(ctx, "alice", "secret")
	k2, _ := d.Authenticate(ctx, "alice", "secret")
	if k1.ID == k2.ID {
		t.Fatal("two logins returned the same key")
	}

	if got := d.KeysOf("alice"); len(got) != 2 {
		t.Errorf("KeysOf() = %d keys, want 2", len(got))
	}
	if owner, ok := d.ValidateKey(k1.ID); !ok || owner != "alice" {
		t.Errorf("ValidateKey() = (%q, %v)", owner, ok)
	}

	if !d.Logoff(k1.ID) {
		t.Error("Logoff of live key should report true")
	}
	if d.Logoff(k1.ID) {
		t.Error("second Logoff should report false")
	}
	if _, ok := d.ValidateKey(k1.ID); ok {
		t.Error("logged-off key validated")
	}
	if _, ok := d.OwnerOf(k1.ID); ok {
		t.Error("back-reference should be dropped on logoff")
	}
	if got := d.KeysOf("alice"); len(got) != 1 || got[0].ID != k2.ID {
		t.Errorf("KeysOf() after logoff = %+v", got)
	}
	if _, ok := d.ValidateKey(""); ok {
		t.Error("empty key validated")
	}
}

func TestDirectory_ExpiredKeyDropsBackReference(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	keys := memory.NewKeyStore(memory.WithClock(clock), memory.WithTimeout(time.Minute))
	repo := newMockUserRepo(&domain.User{Name: "alice", PasswordHash: mustHash(t, "secret")})
	d, err := OpenDirectory(context.Background(), repo, keys, WithHasher(testHasher))
	if err != nil {
		t.Fatal(err)
	}

	k, _ := d.Authenticate(context.Background(), "alice", "secret")
	mu.Lock()
	now = now.Add(2 * time.Minute)
	mu.Unlock()

	if _, ok := d.ValidateKey(k.ID); ok {
		t.Error("expired key validated")
	}
	if _, ok := d.OwnerOf(k.ID); ok {
		t.Error("expired key should lose its back-reference")
	}
}

func TestDirectory_AuthenticateThrottled(t *testing.T) {
	repo := newMockUserRepo(&domain.User{Name: "alice", PasswordHash: mustHash(t, "secret")})
	reg := metric.NewRegistry()
	d, _ := newTestDirectory(t, repo,
		WithThrottle(NewLoginThrottle(0.001, 2)),
		WithDirectoryMetrics(reg),
	)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := d.Authenticate(ctx, "alice", "wrong"); !errors.Is(err, domain.ErrAuthenticationFailed) {
			t.Fatalf("attempt %d error = %v", i, err)
		}
	}

	// Bucket is empty: even the right password is refused.
	_, err := d.Authenticate(ctx, "alice", "secret")
	if !errors.Is(err, domain.ErrAuthenticationFailed) {
		t.Errorf("throttled attempt error = %v, want ErrAuthenticationFailed", err)
	}
	if got := testutil.ToFloat64(reg.LoginThrottled); got != 1 {
		t.Errorf("throttled counter = %v, want 1", got)
	}
}

func TestDirectory_AuthenticateCanceled(t *testing.T) {
	repo := newMockUserRepo(&domain.User{Name: "alice", PasswordHash: mustHash(t, "secret")})
	d, _ := newTestDirectory(t, repo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.Authenticate(ctx, "alice", "secret"); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestDirectory_WithUserFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "users.meta")

	d1, _ := newTestDirectory(t, userfile.New(path))
	for i := 0; i < 3; i++ {
		if err := d1.Register(ctx, fmt.Sprintf("user%d", i), "pw"); err != nil {
			t.Fatal(err)
		}
	}

	d2, _ := newTestDirectory(t, userfile.New(path))
	want := []string{"root", "user0", "user1", "user2"}
	got := d2.Users()
	if len(got) != len(want) {
		t.Fatalf("Users() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Users()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if !d2.VerifyPassword("user1", "pw") {
		t.Error("reloaded password should verify")
	}
}
