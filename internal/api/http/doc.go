// Package http provides the gin handlers for the file manager API.
//
// Handlers validate request parameters, call the filesystem provider, map
// its error kinds to HTTP statuses with StatusFor, and publish a change
// notification after every successful mutation. Errors are returned as
// {"error": message}.
package http
