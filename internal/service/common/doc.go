// Package common holds helpers shared by several services.
//
// It provides a lightweight gRPC client wrapper with timeouts and a helper
// that identifies the local user for manually fired alarms.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
