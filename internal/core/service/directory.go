package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/branchweb/branchweb-go/internal/core/domain"
	"github.com/branchweb/branchweb-go/internal/storage/memory"
	"github.com/branchweb/branchweb-go/internal/telemetry/metric"
	"github.com/branchweb/branchweb-go/pkg/crypto/passhash"
	"github.com/branchweb/branchweb-go/pkg/token"
)

// UserRepository defines the storage interface for the user directory.
type UserRepository interface {
	// Load returns every persisted user. A store that does not exist yet
	// reports domain.ErrStoreNotFound.
	Load(ctx context.Context) ([]*domain.User, error)

	// Save replaces the persisted users with users, in order.
	Save(ctx context.Context, users []*domain.User) error
}

// Directory is the registry of users and the entry point for logins.
type Directory struct {
	mu     sync.RWMutex
	users  []*domain.User
	byName map[string]*domain.User

	repo     UserRepository
	keys     *memory.KeyStore
	owners   *memory.OwnerIndex
	hasher   passhash.Hasher
	throttle *LoginThrottle
	metrics  *metric.Registry
	logger   *slog.Logger

	decoyOnce sync.Once
	decoyHash string
}

// DirectoryOption configures a Directory.
type DirectoryOption func(*Directory)

// WithHasher sets the algorithm used for new password hashes.
func WithHasher(h passhash.Hasher) DirectoryOption {
	return func(d *Directory) {
		d.hasher = h
	}
}

// WithThrottle limits login attempts per user.
func WithThrottle(t *LoginThrottle) DirectoryOption {
	return func(d *Directory) {
		d.throttle = t
	}
}

// WithDirectoryMetrics records login metrics into reg.
func WithDirectoryMetrics(reg *metric.Registry) DirectoryOption {
	return func(d *Directory) {
		d.metrics = reg
	}
}

// WithDirectoryLogger sets the logger.
func WithDirectoryLogger(l *slog.Logger) DirectoryOption {
	return func(d *Directory) {
		d.logger = l
	}
}

// NewDirectory creates an empty directory over repo whose logins issue keys from keys.
func NewDirectory(repo UserRepository, keys *memory.KeyStore, opts ...DirectoryOption) *Directory {
	d := &Directory{
		byName: make(map[string]*domain.User),
		repo:   repo,
		keys:   keys,
		owners: memory.NewOwnerIndex(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.hasher == nil {
		d.hasher = passhash.NewArgon2id(passhash.DefaultArgon2Params)
	}
	if d.metrics == nil {
		d.metrics = metric.NewRegistry()
	}

	keys.OnRemove(func(id string, _ memory.RemoveReason) {
		d.owners.Forget(id)
	})
	return d
}

// OpenDirectory creates a directory and loads it from repo.
//
// If the store does not exist yet, a root user with a random password is
// created and persisted, and the password is logged once.
func OpenDirectory(ctx context.Context, repo UserRepository, keys *memory.KeyStore, opts ...DirectoryOption) (*Directory, error) {
	d := NewDirectory(repo, keys, opts...)

	users, err := repo.Load(ctx)
	switch {
	case errors.Is(err, domain.ErrStoreNotFound):
		if err := d.bootstrap(ctx); err != nil {
			return nil, err
		}
		return d, nil
	case err != nil:
		return nil, fmt.Errorf("load users: %w", err)
	}

	for _, u := range users {
		if _, dup := d.byName[u.Name]; dup {
			return nil, domain.ErrStoreCorrupt.WithDetails(fmt.Sprintf("duplicate user %q", u.Name))
		}
		d.users = append(d.users, u)
		d.byName[u.Name] = u
	}
	d.logger.Debug("user directory loaded", "users", len(d.users))
	return d, nil
}

func (d *Directory) bootstrap(ctx context.Context) error {
	pw, err := token.GeneratePassword(token.DefaultPasswordLength)
	if err != nil {
		return fmt.Errorf("generate root password: %w", err)
	}
	hash, err := d.hasher.Hash(pw)
	if err != nil {
		return fmt.Errorf("hash root password: %w", err)
	}

	root := &domain.User{Name: domain.RootUserName, PasswordHash: hash}
	if err := d.repo.Save(ctx, []*domain.User{root}); err != nil {
		return domain.ErrPersistence.WithDetails("create user store").WithCause(err)
	}
	d.users = []*domain.User{root}
	d.byName[root.Name] = root

	d.logger.Info("============================")
	d.logger.Info("!!!!!!!!!!!!!!!!!!!!!!!!!!!!")
	d.logger.Info("NEW ROOT PASSWORD GENERATED!")
	d.logger.Info("!!!!!!!!!!!!!!!!!!!!!!!!!!!!")
	d.logger.Info("Password: " + pw)
	d.logger.Info("============================")
	return nil
}

// Lookup returns a copy of the named user.
func (d *Directory) Lookup(name string) (domain.User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.byName[name]
	if !ok {
		return domain.User{}, false
	}
	return *u, true
}

// Users returns all user names in registration order.
func (d *Directory) Users() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, len(d.users))
	for i, u := range d.users {
		names[i] = u.Name
	}
	return names
}

// Len returns the number of registered users.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.users)
}

// Register adds a user and persists the directory.
//
// A taken name yields domain.ErrUserExists. If persisting fails the user
// is removed again and domain.ErrPersistence is returned.
func (d *Directory) Register(ctx context.Context, name, password string) error {
	if err := domain.ValidateUserName(name); err != nil {
		return err
	}
	if _, ok := d.Lookup(name); ok {
		return domain.ErrUserExists.WithDetails(name)
	}

	hash, err := d.hashPassword(password)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.byName[name]; ok {
		return domain.ErrUserExists.WithDetails(name)
	}

	u := &domain.User{Name: name, PasswordHash: hash}
	d.users = append(d.users, u)
	d.byName[name] = u

	if err := d.repo.Save(ctx, d.users); err != nil {
		d.users = d.users[:len(d.users)-1]
		delete(d.byName, name)
		return domain.ErrPersistence.WithDetails("register " + name).WithCause(err)
	}

	d.logger.Info("user registered", "user", name)
	return nil
}

// hashPassword maps hasher failures to domain errors. Only a password the
// algorithm rejects is the caller's fault.
func (d *Directory) hashPassword(password string) (string, error) {
	hash, err := d.hasher.Hash(password)
	switch {
	case err == nil:
		return hash, nil
	case errors.Is(err, passhash.ErrPasswordTooLong):
		return "", domain.ErrPasswordTooLong.WithCause(err)
	default:
		return "", domain.ErrInternal.WithDetails("hash password").WithCause(err)
	}
}

// SetPassword replaces a user's password and persists the directory.
//
// An unknown name yields domain.ErrUserNotFound. If persisting fails the
// old hash is restored and domain.ErrPersistence is returned.
func (d *Directory) SetPassword(ctx context.Context, name, password string) error {
	if _, ok := d.Lookup(name); !ok {
		return domain.ErrUserNotFound.WithDetails(name)
	}

	hash, err := d.hashPassword(password)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	u, ok := d.byName[name]
	if !ok {
		return domain.ErrUserNotFound.WithDetails(name)
	}
	old := u.PasswordHash
	u.PasswordHash = hash

	if err := d.repo.Save(ctx, d.users); err != nil {
		u.PasswordHash = old
		return domain.ErrPersistence.WithDetails("set password for " + name).WithCause(err)
	}

	d.logger.Info("password changed", "user", name)
	return nil
}

// VerifyPassword reports whether password is correct for name.
func (d *Directory) VerifyPassword(name, password string) bool {
	u, ok := d.Lookup(name)
	if !ok {
		passhash.Verify(password, d.decoy())
		return false
	}
	return d.verify(password, u.PasswordHash)
}

// Authenticate checks credentials and issues a new key on success.
//
// Unknown users, wrong passwords and throttled attempts all yield
// domain.ErrAuthenticationFailed.
func (d *Directory) Authenticate(ctx context.Context, name, password string) (domain.SessionKey, error) {
	if err := ctx.Err(); err != nil {
		return domain.SessionKey{}, err
	}
	if !d.throttle.Allow(name) {
		d.metrics.LoginThrottled.Inc()
		d.logger.Warn("login throttled", "user", name)
		return domain.SessionKey{}, domain.ErrAuthenticationFailed.WithDetails("throttled")
	}
	if !d.VerifyPassword(name, password) {
		d.logger.Debug("login rejected", "user", name)
		return domain.SessionKey{}, domain.ErrAuthenticationFailed.WithDetails("bad credentials")
	}

	k := d.keys.Issue()
	d.owners.Add(name, k.ID)
	d.logger.Debug("login accepted", "user", name, "key_fp", token.Fingerprint(k.ID))
	return k, nil
}

// ValidateKey validates keyID (refreshing it) and returns its owner.
func (d *Directory) ValidateKey(keyID string) (string, bool) {
	if keyID == "" || !d.keys.Validate(keyID) {
		return "", false
	}
	return d.owners.Owner(keyID)
}

// OwnerOf returns the user keyID was issued to, without validating it.
func (d *Directory) OwnerOf(keyID string) (string, bool) {
	return d.owners.Owner(keyID)
}

// KeysOf returns the live keys issued to name, oldest activity first.
func (d *Directory) KeysOf(name string) []domain.SessionKey {
	return d.keys.Lookup(d.owners.Keys(name))
}

// Logoff revokes keyID and reports whether it was live.
func (d *Directory) Logoff(keyID string) bool {
	return d.keys.Revoke(keyID)
}

func (d *Directory) verify(password, hash string) bool {
	ok, err := passhash.Verify(password, hash)
	if err != nil {
		d.logger.Warn("stored password hash unreadable", "error", err)
	}
	return ok
}

// decoy returns a hash to verify against when the user does not exist,
// so unknown names cost the same as wrong passwords.
func (d *Directory) decoy() string {
	d.decoyOnce.Do(func() {
		pw, err := token.GeneratePassword(token.DefaultPasswordLength)
		if err == nil {
			d.decoyHash, err = d.hasher.Hash(pw)
		}
		if err != nil {
			d.logger.Warn("decoy hash unavailable", "error", err)
		}
	})
	return d.decoyHash
}
