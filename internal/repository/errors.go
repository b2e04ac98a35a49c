// Package repository holds the two store gateways: LodgingRepo over the
// MySQL `lodgings` table and UserRepo over the MongoDB `users`
// collection.  Driver errors are returned as-is; the sentinel values
// below are the only errors the gateways produce themselves.
package repository

import "errors"

// ErrLodgingNotFound is returned when no lodging row has the requested
// id.  Handlers translate it into the generic 404 response.
var ErrLodgingNotFound = errors.New("lodging not found")

// ErrUserNotFound is returned when no user document matches a query.
var ErrUserNotFound = errors.New("user not found")
