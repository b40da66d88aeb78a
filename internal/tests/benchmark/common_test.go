package benchmark

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/branchweb/branchweb-go/internal/core/domain"
	"github.com/branchweb/branchweb-go/internal/core/service"
	"github.com/branchweb/branchweb-go/internal/storage/memory"
	"github.com/branchweb/branchweb-go/internal/storage/userfile"
	"github.com/branchweb/branchweb-go/pkg/crypto/passhash"
)

// KeyCounts are the live key counts the store benchmarks run at.
var KeyCounts = []int{1000, 10000, 100000}

// benchPassword is the password of every benchmark user.
const benchPassword = "bench-password"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// prefillStore issues count keys and returns their IDs.
func prefillStore(store *memory.KeyStore, count int) []string {
	ids := make([]string, count)
	for i := range ids {
		ids[i] = store.Issue().ID
	}
	return ids
}

// newDirectory opens a directory holding users user-0..user-(n-1) with
// cheap bcrypt hashes.
func newDirectory(b *testing.B, keys *memory.KeyStore, n int) *service.Directory {
	b.Helper()
	hasher := passhash.NewBcrypt(bcrypt.MinCost)
	hash, err := hasher.Hash(benchPassword)
	if err != nil {
		b.Fatal(err)
	}

	users := make([]*domain.User, n)
	for i := range users {
		users[i] = &domain.User{Name: fmt.Sprintf("user-%d", i), PasswordHash: hash}
	}
	store := userfile.New(filepath.Join(b.TempDir(), "users.meta"))
	if err := store.Save(context.Background(), users); err != nil {
		b.Fatal(err)
	}

	dir, err := service.OpenDirectory(context.Background(), store, keys,
		service.WithHasher(hasher),
		service.WithDirectoryLogger(discardLogger()),
	)
	if err != nil {
		b.Fatal(err)
	}
	return dir
}

// reportMemory reports heap usage after a forced collection.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.HeapAlloc)/(1024*1024), prefix+"_MB")
}

// runWithKeyCounts runs benchFn once per key count.
func runWithKeyCounts(b *testing.B, counts []int, benchFn func(b *testing.B, count int)) {
	for _, count := range counts {
		b.Run(fmt.Sprintf("keys_%d", count), func(b *testing.B) {
			benchFn(b, count)
		})
	}
}

// frozenClock returns a clock that never advances.
func frozenClock() func() time.Time {
	now := time.Now()
	return func() time.Time { return now }
}
