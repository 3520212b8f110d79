package blobstore

import (
	"context"
	"errors"
)

// ErrQuotaExceeded reports that a Put would push the store past its byte
// budget. Callers treat it as non-fatal: the in-memory copy of the value
// stays usable, only durability across restarts is lost.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Store is the key/value persistence abstraction behind the local buffer.
// Implementations must leave the store consistent after every call; a
// missing key is reported through the Get ok flag, never as an error.
type Store interface {
	Put(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, bool, error)
	Remove(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}
