package handler

import (
	"context"

	"github.com/branchweb/branchweb-go/internal/infra/buildinfo"
	"github.com/branchweb/branchweb-go/internal/server/httpserver"
)

// HealthStatus is the payload of GET health.
type HealthStatus struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	Commit     string `json:"commit"`
	ActiveKeys int    `json:"active_keys"`
	Users      int    `json:"users"`
}

// handleHealth handles GET health.
func (h *Handler) handleHealth(context.Context, *httpserver.Request) (httpserver.Response, error) {
	info := buildinfo.Get()
	return httpserver.Success(HealthStatus{
		Status:     "healthy",
		Version:    info.Version,
		Commit:     info.Commit,
		ActiveKeys: h.keys.Len(),
		Users:      h.dir.Len(),
	}), nil
}
