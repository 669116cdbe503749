package ustar

import (
	"io"
	"iter"
)

// Entries returns a lazy, single-pass iterator over the archive's
// remaining entries.
//
// The sequence is finite: it stops cleanly at end of archive. Any error
// from the underlying source or a malformed header is yielded as the final
// item with a nil entry. The sequence is not restartable; iterating again
// resumes the same Reader, and a fresh Reader is needed for a fresh pass.
// Breaking out of the loop early requires no cleanup beyond dropping the
// Reader.
//
// Each yielded entry is superseded when the iterator advances, exactly as
// with Next: unread data is skipped, so the loop body may consume as much
// or as little of an entry as it likes.
func (r *Reader) Entries() iter.Seq2[*Entry, error] {
	return func(yield func(*Entry, error) bool) {
		for {
			e, err := r.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}
