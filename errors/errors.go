// Package errors defines the closed set of error kinds the volume engine can
// return, each wrapped in a chainable DriverError so callers can add context
// without losing the ability to test against the original kind.
package errors

import (
	stderrors "errors"
	"fmt"
)

// DriverError is the common interface satisfied by every error the engine
// returns. It behaves like a normal error but lets callers layer additional
// context onto it without discarding the original value (see Unwrap).
type DriverError interface {
	error
	WithMessage(message string) DriverError
	WrapError(err error) DriverError
	Unwrap() error
}

type customDriverError struct {
	kind          Kind
	message       string
	originalError error
}

func (e customDriverError) Error() string {
	return e.message
}

func (e customDriverError) WithMessage(message string) DriverError {
	return customDriverError{
		kind:          e.kind,
		message:       fmt.Sprintf("%s: %s", e.message, message),
		originalError: e,
	}
}

func (e customDriverError) WrapError(err error) DriverError {
	return customDriverError{
		kind:          e.kind,
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		originalError: err,
	}
}

func (e customDriverError) Unwrap() error {
	return e.originalError
}

// Is lets errors.Is match a wrapped error against its Kind even when the
// wrapping chain carries an unrelated error (e.g. a Kind wrapping an
// *os.PathError still answers to its own Kind).
func (e customDriverError) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.kind
}

// Kind is one of the failure kinds the engine can report. It's a plain
// string so Kind values compare equal across package boundaries and print
// legibly in test failures.
type Kind string

const (
	KindIO             Kind = "IoError"
	KindNotFound       Kind = "NotFound"
	KindNotAFile       Kind = "NotAFile"
	KindNotADirectory  Kind = "NotADirectory"
	KindDirectoryFull  Kind = "DirectoryFull"
	KindNoSpace        Kind = "NoSpace"
	KindTruncatedChain Kind = "TruncatedChain"
	KindCycleDetected  Kind = "CycleDetected"
	KindInvalidLayout  Kind = "InvalidLayout"
	KindExists         Kind = "Exists"
)

func (k Kind) Error() string {
	return string(k)
}

func (k Kind) WithMessage(message string) DriverError {
	return customDriverError{kind: k, message: fmt.Sprintf("%s: %s", k, message), originalError: k}
}

func (k Kind) WrapError(err error) DriverError {
	return customDriverError{kind: k, message: fmt.Sprintf("%s: %s", k, err.Error()), originalError: err}
}

func (k Kind) Unwrap() error {
	return nil
}

// Is reports whether err (or anything it wraps) is of the given kind.
func Is(err error, kind Kind) bool {
	return stderrors.Is(err, kind)
}

// NewIOError reports a short read or write against the backing image.
func NewIOError(message string) DriverError {
	return KindIO.WithMessage(message)
}

// NewNotFound reports that a name didn't resolve to a live directory entry.
func NewNotFound(name string) DriverError {
	return KindNotFound.WithMessage(fmt.Sprintf("%q not found", name))
}

// NewNotAFile reports that an operation expecting a file matched a directory,
// volume label, or other non-file entry.
func NewNotAFile(name string) DriverError {
	return KindNotAFile.WithMessage(fmt.Sprintf("%q is not a file", name))
}

// NewNotADirectory reports that an operation expecting a directory matched a
// file or other non-directory entry.
func NewNotADirectory(name string) DriverError {
	return KindNotADirectory.WithMessage(fmt.Sprintf("%q is not a directory", name))
}

// NewDirectoryFull reports that a directory has no free slot for a new entry.
func NewDirectoryFull() DriverError {
	return KindDirectoryFull.WithMessage("no free directory entry slot")
}

// NewNoSpace reports that the FAT has no free cluster to allocate.
func NewNoSpace() DriverError {
	return KindNoSpace.WithMessage("no free cluster available")
}

// NewTruncatedChain reports that a cluster chain ended before the declared
// file size was satisfied.
func NewTruncatedChain(name string) DriverError {
	return KindTruncatedChain.WithMessage(fmt.Sprintf("cluster chain for %q ended early", name))
}

// NewCycleDetected reports that a cluster chain walk exceeded the total
// cluster count without terminating, indicating a loop.
func NewCycleDetected(head uint16) DriverError {
	return KindCycleDetected.WithMessage(fmt.Sprintf("chain starting at cluster %d did not terminate", head))
}

// NewInvalidLayout reports that a boot sector or MBR field failed a sanity
// check.
func NewInvalidLayout(message string) DriverError {
	return KindInvalidLayout.WithMessage(message)
}

// NewExists reports that a write would duplicate an existing live entry.
func NewExists(name string) DriverError {
	return KindExists.WithMessage(fmt.Sprintf("%q already exists", name))
}
