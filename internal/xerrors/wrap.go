// Package xerrors adds context to errors at package boundaries without
// breaking errors.Is/errors.As chains.
package xerrors

import "fmt"

// Wrap adds context to errors at package boundaries. Returns nil if err
// is nil, allowing safe inline usage.
//
//	if err := doSomething(); err != nil {
//	    return xerrors.Wrap(err, "failed to do something")
//	}
//
// The wrapped error preserves the original error chain, so callers can
// still check sentinel errors with errors.Is.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf adds formatted context to errors at package boundaries. Returns
// nil if err is nil.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", msg, err)
}
