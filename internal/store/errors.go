package store

import "errors"

var ErrNotInitialized = errors.New("store not initialized")
