package domain

import "errors"

// ErrNotFound is returned when an entity does not exist or belongs to a
// different user.
var ErrNotFound = errors.New("not found")
