// Package version holds build metadata injected with -ldflags, for example:
//
//	go build -ldflags "-X github.com/oshokin/scale-controller/internal/version.Commit=$(git rev-parse --short HEAD)"
package version
