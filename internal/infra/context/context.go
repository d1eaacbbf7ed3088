// Package context holds the request-scoped values shared between the transport
// middleware and the logging handlers.
package context

type contextKey string
