// Package server holds the HTTP server configuration.
//
// The Config struct defines the listen address, the API key protecting the
// session endpoints and whether the Swagger UI is served.
package server
