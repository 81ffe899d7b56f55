// Package config resolves runtime settings from three layers: compiled-in
// defaults, a JSON config file, and ENGRAM_* environment variables, in
// increasing precedence. A missing or corrupt config file never blocks
// startup; the server runs on defaults instead.
package config
