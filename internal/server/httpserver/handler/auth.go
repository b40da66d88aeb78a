package handler

import (
	"context"

	"github.com/branchweb/branchweb-go/internal/core/domain"
	"github.com/branchweb/branchweb-go/internal/server/httpserver"
	"github.com/branchweb/branchweb-go/internal/telemetry/logger"
)

// handleAuth handles POST auth.
//
// Body: user, pass. Payload: the new key ID.
func (h *Handler) handleAuth(ctx context.Context, req *httpserver.Request) (httpserver.Response, error) {
	fields, err := required(req.Body, fieldUser, fieldPass)
	if err != nil {
		return nil, err
	}

	k, err := h.dir.Authenticate(ctx, fields[0], fields[1])
	if err != nil {
		return nil, err
	}
	return httpserver.Success(k.ID), nil
}

// handleCheckAuth handles POST checkauth.
func (h *Handler) handleCheckAuth(_ context.Context, req *httpserver.Request) (httpserver.Response, error) {
	if _, err := h.authorize(bodyKey(req)); err != nil {
		return nil, err
	}
	return httpserver.Success("Authentication key is valid."), nil
}

// handleLogoff handles POST logoff.
func (h *Handler) handleLogoff(ctx context.Context, req *httpserver.Request) (httpserver.Response, error) {
	keyID := bodyKey(req)
	owner, err := h.authorize(keyID)
	if err != nil {
		return nil, err
	}

	// A concurrent logoff of the same key may win; the key is gone either way.
	h.dir.Logoff(keyID)
	logger.L(ctx, h.logger).Info("user logged off", "user", owner)
	return httpserver.Success("Logged off."), nil
}

// handleWhoAmI handles GET /?whoami=<key>.
func (h *Handler) handleWhoAmI(_ context.Context, req *httpserver.Request) (httpserver.Response, error) {
	owner, err := h.authorize(queryKey(req))
	if err != nil {
		return nil, err
	}
	return httpserver.Success(owner), nil
}

// handleKeys handles GET /?keys=<key>.
//
// Payload: the caller's live keys, oldest activity first.
func (h *Handler) handleKeys(_ context.Context, req *httpserver.Request) (httpserver.Response, error) {
	owner, err := h.authorize(queryKey(req))
	if err != nil {
		return nil, err
	}

	keys := h.dir.KeysOf(owner)
	if keys == nil {
		keys = []domain.SessionKey{}
	}
	return httpserver.Success(keys), nil
}
