// Package config provides configuration helpers for go-pointer commands:
// environment lookups and YAML pointing profiles.
package config

import (
	"fmt"
	"os"
)

// Default service configuration.
const (
	DefaultPort     = "8090"
	DefaultLogLevel = "info"
)

// Port returns the HTTP port from POINTER_PORT, or DefaultPort.
func Port() string {
	return envOr("POINTER_PORT", DefaultPort)
}

// LogLevel returns the log level from POINTER_LOG_LEVEL, or DefaultLogLevel.
func LogLevel() string {
	return envOr("POINTER_LOG_LEVEL", DefaultLogLevel)
}

// ProfilePath returns the profile file from POINTER_PROFILE. It is empty
// when unset.
func ProfilePath() string {
	return os.Getenv("POINTER_PROFILE")
}

// ServiceURL returns the base HTTP URL of a pointing service.
func ServiceURL(host, port string) string {
	return fmt.Sprintf("http://%s:%s", host, port)
}

// WebSocketURL returns the base websocket URL of a pointing service.
func WebSocketURL(host, port string) string {
	return fmt.Sprintf("ws://%s:%s", host, port)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
