package receipt

import (
	"context"
	"fmt"
	"path"

	"github.com/zombor/receipt-sorter/internal/extraction"
)

const (
	cashPrefix  = "cash/"
	otherPrefix = "other/"
)

// RelocationError reports a failed copy or delete while moving an image
type RelocationError struct {
	Op          string // "copy" or "delete"
	Source      string
	Destination string
	Err         error
}

func (e *RelocationError) Error() string {
	return fmt.Sprintf("relocating %s to %s: %s failed: %v", e.Source, e.Destination, e.Op, e.Err)
}

func (e *RelocationError) Unwrap() error {
	return e.Err
}

// Destination returns the key the image at key should move to
func Destination(record *extraction.Record, key string) string {
	base := path.Base(key)
	if record != nil && record.IsCashOrInstant() {
		return cashPrefix + base
	}
	return otherPrefix + base
}

// Relocate moves the image at key under the prefix picked by the record's
// payment method, by copy then delete. It returns the key the image can be
// read from afterwards: the source if the copy failed, the destination
// otherwise. The move is not atomic.
func Relocate(ctx context.Context, store ObjectStore, record *extraction.Record, key string) (string, error) {
	dst := Destination(record, key)
	if dst == key {
		return key, nil
	}

	if err := store.Copy(ctx, key, dst); err != nil {
		return key, &RelocationError{Op: "copy", Source: key, Destination: dst, Err: err}
	}
	if err := store.Delete(ctx, key); err != nil {
		return dst, &RelocationError{Op: "delete", Source: key, Destination: dst, Err: err}
	}
	return dst, nil
}
