package database

import (
	"errors"

	"gorm.io/gorm"
)

// ErrRule is the base for business-rule failures. Domain packages declare
// sentinels that wrap it (via fmt.Errorf and %w); Atomic uses it to tell a
// rule violation apart from a storage fault. Both roll the transaction back,
// but only rule violations keep their domain identity on the way out.
var ErrRule = errors.New("rule violation")

// Fault wraps a storage-level failure: connection loss, query failure,
// lock-wait timeout. Handlers report it generically so store and schema
// detail never reaches a caller; the wrapped error stays available for logs.
type Fault struct {
	Err error
}

func (f *Fault) Error() string {
	return "storage fault: " + f.Err.Error()
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// IsFault reports whether err is (or wraps) a storage fault.
func IsFault(err error) bool {
	var f *Fault
	return errors.As(err, &f)
}

// Atomic runs fn inside a single transaction and returns its result. Any
// error from fn rolls the transaction back; an error that does not wrap
// ErrRule comes back wrapped in *Fault. A commit failure is a Fault too.
// Every operation in this service opens exactly one transaction, so fn must
// not call Atomic again.
func Atomic[T any](db *gorm.DB, fn func(tx *gorm.DB) (T, error)) (T, error) {
	var out T
	err := db.Transaction(func(tx *gorm.DB) error {
		v, err := fn(tx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		if errors.Is(err, ErrRule) {
			return zero, err
		}
		return zero, &Fault{Err: err}
	}
	return out, nil
}
