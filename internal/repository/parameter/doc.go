// Package parameter implements persistence for the deployment scale.
//
// A Store reads and writes the single scale parameter. Backends are AWS SSM
// Parameter Store for production, redis for shared development
// environments, a JSON file for local runs and an in-memory store for tests.
// Every backend versions the value so callers can request conditional writes.
package parameter
