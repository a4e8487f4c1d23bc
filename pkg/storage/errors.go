package storage

import (
	"errors"
	"fmt"

	"sitepaths/pkg/serrors"
)

// Transaction misuse by a caller of Begin, Commit or Rollback.
var (
	ErrAlreadyInTx = errors.New("storage handle already holds a transaction")
	ErrNotInTx     = errors.New("storage handle holds no transaction")
)

// ErrRejectedValue marks a write refused because of the value itself, such as
// text that is not valid UTF-8 or is too large to index. Repeating the write
// fails the same way while other writes are unaffected.
var ErrRejectedValue = errors.New("value rejected by the database")

// RejectValue wraps err so that it matches both ErrRejectedValue and
// serrors.ErrBadRequest.
func RejectValue(err error) error {
	return serrors.Wrap(serrors.ErrBadRequest, fmt.Errorf("%w: %w", ErrRejectedValue, err), "")
}
