package ustar

import (
	"errors"
	"fmt"
)

// ErrHeader is the umbrella error for malformed or unrepresentable header
// blocks. The specific header errors below wrap it, so
// errors.Is(err, ErrHeader) matches the whole family.
var ErrHeader = errors.New("ustar: invalid header")

// Header errors.
var (
	// ErrBadChecksum is returned when a header block's checksum field
	// disagrees with the sum computed over the block.
	ErrBadChecksum = fmt.Errorf("%w: checksum mismatch", ErrHeader)

	// ErrBadMagic is returned when a header block's magic or version
	// bytes do not identify the ustar format.
	ErrBadMagic = fmt.Errorf("%w: bad magic", ErrHeader)

	// ErrInvalidField is returned when a numeric header field contains
	// bytes that are not octal digits, padding, or a terminator.
	ErrInvalidField = fmt.Errorf("%w: invalid numeric field", ErrHeader)

	// ErrFieldTooLong is returned when a header field value does not fit
	// in its fixed-width encoding.
	ErrFieldTooLong = fmt.Errorf("%w: field too long", ErrHeader)
)

// Writer errors.
var (
	// ErrWriteTooLong is returned by EntryWriter.Write when accepting the
	// call would push the entry past its declared size. No bytes from the
	// offending call are written.
	ErrWriteTooLong = errors.New("ustar: write exceeds entry size")

	// ErrEntryActive is returned by Writer.AddEntry when the previous
	// entry has not received its declared size and has not been closed.
	ErrEntryActive = errors.New("ustar: previous entry is still incomplete")

	// ErrEntryClosed is returned when writing to an entry that has been
	// finalized, either explicitly or by the archive moving on.
	ErrEntryClosed = errors.New("ustar: entry already finalized")

	// ErrWriterFinished is returned by any Writer operation after Finish.
	ErrWriterFinished = errors.New("ustar: archive already finished")
)
