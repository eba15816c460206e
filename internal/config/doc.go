// Package config defines the settings used by the scale binaries and provides
// helpers to load, validate and save them in YAML format.
//
// Settings select the parameter store backend, the notification sink and the
// transition rules. Environment variables override file values so the Lambda
// runtime can run without a settings file.
package config
