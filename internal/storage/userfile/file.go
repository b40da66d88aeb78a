package userfile

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/branchweb/branchweb-go/internal/core/domain"
)

// DefaultPath is the user file name used when none is configured.
const DefaultPath = "users.meta"

// fileMode keeps password hashes private to the server user.
const fileMode fs.FileMode = 0o600

// maxLineLength bounds a single record.
const maxLineLength = 64 * 1024

// File is a name=hash user store on disk.
type File struct {
	path string
}

// New creates a store backed by path.
func New(path string) *File {
	if path == "" {
		path = DefaultPath
	}
	return &File{path: path}
}

// Path returns the file location.
func (f *File) Path() string {
	return f.path
}

// Load reads every user record.
//
// A missing file yields domain.ErrStoreNotFound. A malformed line or a
// repeated name yields domain.ErrStoreCorrupt naming the line.
func (f *File) Load(_ context.Context) ([]*domain.User, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrStoreNotFound.WithDetails(f.path).WithCause(err)
		}
		return nil, fmt.Errorf("userfile: read %s: %w", f.path, err)
	}
	return Parse(data)
}

// Parse decodes the user file format.
func Parse(data []byte) ([]*domain.User, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 4096), maxLineLength)

	var users []*domain.User
	seen := make(map[string]int)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSuffix(sc.Text(), "\r")
		if line == "" || line[0] == '#' {
			continue
		}

		name, hash, ok := strings.Cut(line, "=")
		if !ok {
			return nil, corrupt(lineNo, "missing '='")
		}
		if hash == "" {
			return nil, corrupt(lineNo, "empty password hash")
		}
		if first, dup := seen[name]; dup {
			return nil, corrupt(lineNo, fmt.Sprintf("duplicate user %q (first on line %d)", name, first))
		}

		u, err := domain.NewUserFromHash(name, hash)
		if err != nil {
			return nil, domain.ErrStoreCorrupt.WithDetails(fmt.Sprintf("line %d", lineNo)).WithCause(err)
		}
		seen[name] = lineNo
		users = append(users, u)
	}
	if err := sc.Err(); err != nil {
		return nil, domain.ErrStoreCorrupt.WithDetails(fmt.Sprintf("after line %d", lineNo)).WithCause(err)
	}
	return users, nil
}

// Save replaces the file with users, in order.
func (f *File) Save(_ context.Context, users []*domain.User) error {
	data, err := Format(users)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("userfile: create temp: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	if err := tmp.Chmod(fileMode); err != nil {
		cleanup()
		return fmt.Errorf("userfile: chmod: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("userfile: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("userfile: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("userfile: close: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("userfile: rename: %w", err)
	}
	return nil
}

// Format encodes users in the user file format.
func Format(users []*domain.User) ([]byte, error) {
	var buf bytes.Buffer
	for _, u := range users {
		if err := domain.ValidateUserName(u.Name); err != nil {
			return nil, err
		}
		if u.PasswordHash == "" || strings.ContainsAny(u.PasswordHash, "\r\n") {
			return nil, fmt.Errorf("userfile: user %q has an unstorable hash", u.Name)
		}
		buf.WriteString(u.Name)
		buf.WriteByte('=')
		buf.WriteString(u.PasswordHash)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func corrupt(line int, msg string) error {
	return domain.ErrStoreCorrupt.WithDetails(fmt.Sprintf("line %d: %s", line, msg))
}
