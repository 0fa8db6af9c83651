// Package api exposes the assessment HTTP endpoints. Handlers decode and
// validate requests, delegate to the service layer, and translate errors
// into sanitized JSON responses.
package api
