// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - auth: Validates the X-API-Key header against the configured key.
//   - rayid: Assigns every request a RayID, stored in the "ray_id" local and
//     echoed in the X-Ray-ID response header, so log lines of one request can
//     be correlated.
package middleware
