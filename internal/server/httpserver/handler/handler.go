package handler

import (
	"log/slog"

	"github.com/branchweb/branchweb-go/internal/core/domain"
	"github.com/branchweb/branchweb-go/internal/core/service"
	"github.com/branchweb/branchweb-go/internal/server/httpserver"
	"github.com/branchweb/branchweb-go/internal/storage/memory"
)

// Request field names.
const (
	fieldUser     = "user"
	fieldPass     = "pass"
	fieldAuthKey  = "authkey"
	fieldCreate   = "cuser"
	fieldCreatePw = "cpass"
)

// Handler serves the built-in endpoints.
type Handler struct {
	dir    *service.Directory
	keys   *memory.KeyStore
	logger *slog.Logger
}

// New creates a Handler over the user directory and key store.
func New(dir *service.Directory, keys *memory.KeyStore, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		dir:    dir,
		keys:   keys,
		logger: logger,
	}
}

// Register adds every built-in endpoint to reg.
func (h *Handler) Register(reg *httpserver.Registry) {
	reg.RegisterPost("auth", h.handleAuth)
	reg.RegisterPost("checkauth", h.handleCheckAuth)
	reg.RegisterPost("logoff", h.handleLogoff)
	reg.RegisterPost("createuser", h.handleCreateUser)
	reg.RegisterPost("changepw", h.handleChangePassword)

	reg.RegisterGet("whoami", h.handleWhoAmI)
	reg.RegisterGet("keys", h.handleKeys)
	reg.RegisterGet("health", h.handleHealth)
}

// authorize validates the key and returns the user it belongs to.
func (h *Handler) authorize(keyID string) (string, error) {
	if keyID == "" {
		return "", domain.ErrAuthenticationFailed.WithDetails("no key")
	}
	owner, ok := h.dir.ValidateKey(keyID)
	if !ok {
		return "", domain.ErrAuthenticationFailed.WithDetails("invalid key")
	}
	return owner, nil
}

// required returns the named body fields, or ErrMissingData naming the
// first absent one.
func required(data httpserver.FormData, names ...string) ([]string, error) {
	out := make([]string, len(names))
	for i, name := range names {
		v, ok := data.String(name)
		if !ok {
			return nil, domain.ErrMissingData.WithDetails(name)
		}
		out[i] = v
	}
	return out, nil
}

// bodyKey extracts the authentication key from a POST body.
func bodyKey(req *httpserver.Request) string {
	k, _ := req.Body.String(fieldAuthKey)
	return k
}

// queryKey extracts the authentication key carried as the value of the
// routing query pair, as in /?whoami=<key>.
func queryKey(req *httpserver.Request) string {
	k, _ := req.Query.String(req.RealPath)
	return k
}
