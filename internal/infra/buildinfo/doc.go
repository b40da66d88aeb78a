// Package buildinfo exposes build information for branchweb binaries.
//
// Values are injected at build time via ldflags:
//
//	go build -ldflags "-X github.com/branchweb/branchweb-go/internal/infra/buildinfo.Version=v1.0.0"
//
// GoVersion falls back to the runtime version and Commit to the VCS
// revision recorded by the toolchain when they are not injected.
package buildinfo
