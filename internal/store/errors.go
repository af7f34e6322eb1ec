package store

import "clipseek/internal/models"

// Re-export the shared sentinel so store callers don't import models just to
// match lookup failures.
var ErrNotFound = models.ErrNotFound
