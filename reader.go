package ustar

import (
	"context"
	"fmt"
	"io"
)

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithReadContext configures the Reader to observe the given context at
// every point where it would block on the underlying source. If not set,
// context.Background() is used.
func WithReadContext(ctx context.Context) ReaderOption {
	return func(r *Reader) {
		r.ctx = ctx
	}
}

// Reader reads a ustar archive from an underlying byte source.
//
// A Reader owns its source for its lifetime and produces entries strictly
// in archive order. At most one Entry is live at a time: calling Next
// finalizes the previous entry by skipping whatever data the caller left
// unread, plus the block padding, so the stream is realigned before the
// next header is decoded.
//
// The Reader buffers one header block; entry data is copied directly from
// the source into caller buffers.
type Reader struct {
	src   io.Reader
	ctx   context.Context
	cur   *Entry
	pad   int64 // padding after the current entry's data
	err   error // sticky; set once the stream position is unusable
	block [BlockSize]byte
}

// NewReader creates a Reader over src. The Reader assumes exclusive use of
// src until the archive is exhausted.
func NewReader(src io.Reader, opts ...ReaderOption) *Reader {
	r := &Reader{
		src: src,
		ctx: context.Background(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r
}

// Next advances to the next entry in the archive.
//
// It returns io.EOF at a clean end of archive: either the two-block
// terminator, or a source that ends at a block boundary or with a short
// all-zero tail. A short tail containing non-zero bytes returns
// io.ErrUnexpectedEOF. A non-zero block that does not decode as a header
// returns the header error.
//
// Any previously returned Entry is superseded; its unread remainder is
// skipped here and subsequent reads on it return io.EOF.
func (r *Reader) Next() (*Entry, error) {
	if r.err != nil {
		return nil, r.err
	}
	if err := r.ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.skipCurrent(); err != nil {
		r.err = err
		return nil, err
	}
	hdr, err := r.readHeader()
	if err != nil {
		r.err = err
		return nil, err
	}
	r.cur = &Entry{r: r, header: hdr, remaining: hdr.Size}
	r.pad = padding(hdr.Size)
	return r.cur, nil
}

// skipCurrent consumes the live entry's unread data and padding, detaching
// the handle.
func (r *Reader) skipCurrent() error {
	if r.cur == nil {
		return nil
	}
	n := r.cur.remaining + r.pad
	r.cur.remaining = 0
	r.cur = nil
	r.pad = 0
	return r.discard(n)
}

// discard reads and drops n bytes from the source, reusing the header
// block as scratch space.
func (r *Reader) discard(n int64) error {
	for n > 0 {
		chunk := n
		if chunk > BlockSize {
			chunk = BlockSize
		}
		m, err := io.ReadFull(r.src, r.block[:chunk])
		n -= int64(m)
		if err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return io.ErrUnexpectedEOF
			}
			return err
		}
		if n > 0 {
			if err := r.ctx.Err(); err != nil {
				return err
			}
		}
	}
	return nil
}

// readHeader reads one block and decodes it, handling the terminator and
// truncated tails. It returns io.EOF at a clean end of archive.
func (r *Reader) readHeader() (*Header, error) {
	n, err := io.ReadFull(r.src, r.block[:])
	if err != nil {
		return nil, classifyTail(r.block[:n], err)
	}
	if isZero(r.block[:]) {
		// First terminator block; the archive must end with a second.
		n, err := io.ReadFull(r.src, r.block[:])
		if err != nil {
			return nil, classifyTail(r.block[:n], err)
		}
		if !isZero(r.block[:]) {
			return nil, fmt.Errorf("%w: non-zero block inside terminator", ErrHeader)
		}
		return nil, io.EOF
	}
	hdr := new(Header)
	if err := hdr.UnmarshalBinary(r.block[:]); err != nil {
		return nil, err
	}
	return hdr, nil
}

// classifyTail resolves a short read at a header boundary: ending exactly
// at the boundary or with an all-zero tail is a benign end of archive,
// anything else is truncation.
func classifyTail(read []byte, err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		if isZero(read) {
			return io.EOF
		}
		return io.ErrUnexpectedEOF
	}
	return err
}

func isZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

// Entry is a read handle to one archive entry's data region.
//
// An Entry borrows the Reader's exclusive access to the source until it is
// drained or superseded by the next call to Next. Reads are bounded by the
// header's declared size; padding bytes are never exposed.
type Entry struct {
	header    *Header
	r         *Reader
	remaining int64
}

// Interface compliance.
var _ io.Reader = (*Entry)(nil)

// Header returns the entry's decoded header.
func (e *Entry) Header() *Header {
	return e.header
}

// Read copies entry data into p, returning io.EOF exactly when the
// declared size has been consumed. The source ending inside the declared
// data region returns io.ErrUnexpectedEOF.
func (e *Entry) Read(p []byte) (int, error) {
	if e.remaining <= 0 {
		return 0, io.EOF
	}
	if err := e.r.ctx.Err(); err != nil {
		return 0, err
	}
	if int64(len(p)) > e.remaining {
		p = p[:e.remaining]
	}
	n, err := e.r.src.Read(p)
	e.remaining -= int64(n)
	if err == io.EOF {
		if e.remaining > 0 {
			err = io.ErrUnexpectedEOF
		} else {
			err = nil
		}
	}
	return n, err
}

// Skip drains the entry's unread data so that Read reports io.EOF. The
// block padding is consumed by the Reader's next call to Next, so Skip is
// a convenience, not a requirement: Next performs the same accounting for
// entries abandoned mid-read.
func (e *Entry) Skip() error {
	n := e.remaining
	e.remaining = 0
	if n == 0 || e.r.cur != e {
		return nil
	}
	if err := e.r.discard(n); err != nil {
		e.r.err = err
		return err
	}
	return nil
}
