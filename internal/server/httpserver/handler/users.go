package handler

import (
	"context"

	"github.com/branchweb/branchweb-go/internal/server/httpserver"
	"github.com/branchweb/branchweb-go/internal/telemetry/logger"
)

// handleCreateUser handles POST createuser.
//
// Body: authkey, cuser, cpass. Any authenticated user may create users.
func (h *Handler) handleCreateUser(ctx context.Context, req *httpserver.Request) (httpserver.Response, error) {
	creator, err := h.authorize(bodyKey(req))
	if err != nil {
		return nil, err
	}
	fields, err := required(req.Body, fieldCreate, fieldCreatePw)
	if err != nil {
		return nil, err
	}

	if err := h.dir.Register(ctx, fields[0], fields[1]); err != nil {
		return nil, err
	}
	logger.L(ctx, h.logger).Info("user created", "user", fields[0], "by", creator)
	return httpserver.Success("User created."), nil
}

// handleChangePassword handles POST changepw.
//
// Body: authkey, pass. Changes the password of the key's owner.
func (h *Handler) handleChangePassword(ctx context.Context, req *httpserver.Request) (httpserver.Response, error) {
	owner, err := h.authorize(bodyKey(req))
	if err != nil {
		return nil, err
	}
	fields, err := required(req.Body, fieldPass)
	if err != nil {
		return nil, err
	}

	if err := h.dir.SetPassword(ctx, owner, fields[0]); err != nil {
		return nil, err
	}
	logger.L(ctx, h.logger).Info("password changed", "user", owner)
	return httpserver.Success("Password changed."), nil
}
