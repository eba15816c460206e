// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with console or JSON encoders,
//   - context helpers (ToContext/FromContext/WithName/WithKV/WithFields),
//   - level configuration and parsing utilities,
//   - convenience functions (Infof, ErrorKV, etc.).
//
// The controller, stores and publishers accept a context and extract the
// logger from it, so every invocation logs with its own alarm fields.
package logger
