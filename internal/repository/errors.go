// Package repository contains data access logic separated from HTTP handlers.
package repository

import "errors"

// ErrUserNotFound is returned when no user matches the requested id.
// Handlers should translate this into an HTTP 404 response.
var ErrUserNotFound = errors.New("user not found")
