// Package server holds HTTP server configuration.
//
// It defines the listen port, the API key protecting write endpoints, and
// the request body limit applied to bulk CSV uploads. The actual Fiber app
// construction happens in the start command; this package only carries the
// settings so they can participate in the reflection-driven config loading.
package server
