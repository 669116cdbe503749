package ustar

import (
	"context"
	"fmt"
	"io"
)

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithWriteContext configures the Writer to observe the given context at
// every point where it would block on the underlying sink. If not set,
// context.Background() is used.
func WithWriteContext(ctx context.Context) WriterOption {
	return func(w *Writer) {
		w.ctx = ctx
	}
}

// Flusher is implemented by sinks that buffer writes and support an
// explicit flush, such as *bufio.Writer. Finish flushes such sinks after
// writing the terminator.
type Flusher interface {
	Flush() error
}

// Writer writes a ustar archive to an underlying byte sink.
//
// A Writer owns its sink for its lifetime. At most one EntryWriter is live
// at a time; the archive advances only once the current entry is
// finalized. Entry data is copied directly from caller buffers into the
// sink.
//
// Once an underlying write fails the sink position is unknown and the
// Writer is unusable; the failure is returned from every subsequent
// operation.
type Writer struct {
	dst      io.Writer
	ctx      context.Context
	cur      *EntryWriter
	finished bool
	err      error // sticky; set on any underlying write failure
}

// NewWriter creates a Writer over dst. The Writer assumes exclusive use of
// dst until Finish.
func NewWriter(dst io.Writer, opts ...WriterOption) *Writer {
	w := &Writer{
		dst: dst,
		ctx: context.Background(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(w)
	}
	return w
}

// AddEntry encodes and writes the header block and returns an EntryWriter
// for the entry's data.
//
// A previous entry that already received its declared size is implicitly
// finalized (padded) first. A previous entry that is still short of its
// declared size must be closed explicitly; AddEntry fails with
// ErrEntryActive so a forgotten write surfaces as an error rather than a
// silently zero-filled entry.
func (w *Writer) AddEntry(h *Header) (*EntryWriter, error) {
	if w.err != nil {
		return nil, w.err
	}
	if w.finished {
		return nil, ErrWriterFinished
	}
	if err := w.ctx.Err(); err != nil {
		return nil, err
	}
	if w.cur != nil && w.cur.written < w.cur.size {
		return nil, fmt.Errorf("%w: %d of %d bytes written", ErrEntryActive, w.cur.written, w.cur.size)
	}
	if err := w.closeCurrent(); err != nil {
		return nil, err
	}

	block, err := h.MarshalBinary()
	if err != nil {
		return nil, err
	}
	if err := w.writeAll(block); err != nil {
		return nil, err
	}
	w.cur = &EntryWriter{w: w, size: h.Size}
	return w.cur, nil
}

// Finish finalizes any open entry, writes the two all-zero terminator
// blocks, and flushes the sink if it implements Flusher. The terminator is
// written exactly once; any operation after Finish fails with
// ErrWriterFinished.
func (w *Writer) Finish() error {
	if w.err != nil {
		return w.err
	}
	if w.finished {
		return ErrWriterFinished
	}
	if err := w.ctx.Err(); err != nil {
		return err
	}
	if err := w.closeCurrent(); err != nil {
		return err
	}
	if err := w.writeZeros(2 * BlockSize); err != nil {
		return err
	}
	if f, ok := w.dst.(Flusher); ok {
		if err := f.Flush(); err != nil {
			w.err = err
			return err
		}
	}
	w.finished = true
	return nil
}

func (w *Writer) closeCurrent() error {
	if w.cur == nil {
		return nil
	}
	return w.cur.Close()
}

// writeAll writes b fully to the sink, checking the context between
// partial writes. Underlying failures poison the Writer.
func (w *Writer) writeAll(b []byte) error {
	for len(b) > 0 {
		n, err := w.dst.Write(b)
		b = b[n:]
		switch {
		case err != nil:
			w.err = err
			return err
		case n == 0:
			w.err = io.ErrShortWrite
			return w.err
		}
		if len(b) > 0 {
			if err := w.ctx.Err(); err != nil {
				w.err = err
				return err
			}
		}
	}
	return nil
}

var zeroBlock [BlockSize]byte

// writeZeros writes n zero bytes to the sink.
func (w *Writer) writeZeros(n int64) error {
	for n > 0 {
		chunk := n
		if chunk > BlockSize {
			chunk = BlockSize
		}
		if err := w.writeAll(zeroBlock[:chunk]); err != nil {
			return err
		}
		n -= chunk
		if n > 0 {
			if err := w.ctx.Err(); err != nil {
				w.err = err
				return err
			}
		}
	}
	return nil
}

// EntryWriter is a write handle to one archive entry's data region.
//
// An EntryWriter borrows the Writer's exclusive access to the sink until
// it is closed. Writes are bounded by the header's declared size; on Close
// any shortfall is zero-filled and the data region is padded to the next
// block boundary.
type EntryWriter struct {
	w       *Writer
	size    int64
	written int64
	closed  bool
}

// Interface compliance.
var (
	_ io.Writer = (*EntryWriter)(nil)
	_ io.Closer = (*EntryWriter)(nil)
)

// Write copies p into the sink. It fails with ErrWriteTooLong at the exact
// call that would push the entry past its declared size, accepting none of
// that call's bytes.
func (e *EntryWriter) Write(p []byte) (int, error) {
	w := e.w
	if w.err != nil {
		return 0, w.err
	}
	if e.closed {
		return 0, ErrEntryClosed
	}
	if err := w.ctx.Err(); err != nil {
		return 0, err
	}
	if e.written+int64(len(p)) > e.size {
		return 0, fmt.Errorf("%w: entry size %d, %d written, rejecting %d more",
			ErrWriteTooLong, e.size, e.written, len(p))
	}
	n, err := w.dst.Write(p)
	e.written += int64(n)
	if err != nil {
		w.err = err
		return n, err
	}
	if n < len(p) {
		w.err = io.ErrShortWrite
		return n, w.err
	}
	return n, nil
}

// Close finalizes the entry: any shortfall against the declared size is
// filled with zero bytes, then the data region is padded to the next block
// boundary. Close is idempotent and is invoked implicitly when the Writer
// moves to the next entry or finishes.
func (e *EntryWriter) Close() error {
	if e.closed {
		return nil
	}
	w := e.w
	if w.err != nil {
		return w.err
	}
	if err := w.writeZeros(e.size - e.written + padding(e.size)); err != nil {
		return err
	}
	e.written = e.size
	e.closed = true
	if w.cur == e {
		w.cur = nil
	}
	return nil
}
