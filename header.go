package ustar

import (
	"bytes"
	"encoding"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/meigma/ustar/internal/field"
)

// BlockSize is the unit of a ustar byte stream. Headers occupy exactly one
// block and entry data is zero-padded to a block boundary.
const BlockSize = 512

// Entry type flags.
const (
	TypeReg     byte = '0' // regular file
	TypeLink    byte = '1' // hard link
	TypeSymlink byte = '2' // symbolic link
	TypeChar    byte = '3' // character device
	TypeBlock   byte = '4' // block device
	TypeDir     byte = '5' // directory
	TypeFifo    byte = '6' // FIFO
	TypeCont    byte = '7' // contiguous file
)

// MaxSize is the largest entry size representable in the 12-byte octal
// size field (8^11 - 1 bytes, just under 8GiB). This is a limitation of
// the ustar format itself; the non-standard base-256 extension is not
// supported.
const MaxSize = 1<<33 - 1

// Field offsets and widths within a header block.
const (
	offName      = 0
	lenName      = 100
	offMode      = 100
	offUID       = 108
	offGID       = 116
	lenOctal     = 8
	offSize      = 124
	offModTime   = 136
	lenLongOctal = 12
	offChecksum  = 148
	lenChecksum  = 8
	offTypeflag  = 156
	offLinkname  = 157
	lenLinkname  = 100
	offMagic     = 257
	lenMagic     = 6
	offVersion   = 263
	lenVersion   = 2
	offUname     = 265
	lenUname     = 32
	offGname     = 297
	lenGname     = 32
	offDevmajor  = 329
	offDevminor  = 337
	offPrefix    = 345
	lenPrefix    = 155
)

var (
	magicUstar   = []byte("ustar\x00")
	versionUstar = []byte("00")
)

// Header describes one entry in a ustar archive.
//
// Name carries the full path. Paths longer than 100 bytes are split across
// the name and prefix fields on encode and rejoined with "/" on decode;
// the combined length is limited to 256 bytes and the split must land on a
// path separator.
type Header struct {
	Name     string    // entry path
	Mode     int64     // permission and mode bits
	UID      int       // user ID of owner
	GID      int       // group ID of owner
	Size     int64     // size of entry data in bytes
	ModTime  time.Time // modification time, truncated to seconds
	Typeflag byte      // entry kind; zero is treated as TypeReg
	Linkname string    // target of link entries
	Uname    string    // user name of owner
	Gname    string    // group name of owner
	Devmajor int64     // major device number for char and block devices
	Devminor int64     // minor device number for char and block devices
}

// Interface compliance.
var (
	_ encoding.BinaryMarshaler   = (*Header)(nil)
	_ encoding.BinaryUnmarshaler = (*Header)(nil)
)

// MarshalBinary encodes the header as a 512-byte ustar block.
//
// It fails with ErrFieldTooLong when a string field exceeds its fixed
// capacity, a numeric field exceeds its octal width, or the path cannot be
// split across the name and prefix fields.
func (h *Header) MarshalBinary() ([]byte, error) {
	block := make([]byte, BlockSize)

	name, prefix, ok := splitPath(h.Name)
	if !ok {
		return nil, fmt.Errorf("name %q: %w", h.Name, ErrFieldTooLong)
	}

	mtime := int64(0)
	if !h.ModTime.IsZero() {
		mtime = h.ModTime.Unix()
	}

	f := formatter{block: block}
	f.str("name", offName, lenName, name)
	f.str("prefix", offPrefix, lenPrefix, prefix)
	f.str("linkname", offLinkname, lenLinkname, h.Linkname)
	f.str("uname", offUname, lenUname, h.Uname)
	f.str("gname", offGname, lenGname, h.Gname)
	f.octal("mode", offMode, lenOctal, h.Mode)
	f.octal("uid", offUID, lenOctal, int64(h.UID))
	f.octal("gid", offGID, lenOctal, int64(h.GID))
	f.octal("size", offSize, lenLongOctal, h.Size)
	f.octal("mtime", offModTime, lenLongOctal, mtime)
	f.octal("devmajor", offDevmajor, lenOctal, h.Devmajor)
	f.octal("devminor", offDevminor, lenOctal, h.Devminor)
	if f.err != nil {
		return nil, f.err
	}

	tf := h.Typeflag
	if tf == 0 {
		tf = TypeReg
	}
	block[offTypeflag] = tf
	copy(block[offMagic:], magicUstar)
	copy(block[offVersion:], versionUstar)

	putChecksum(block)
	return block, nil
}

// UnmarshalBinary decodes a 512-byte ustar block.
//
// It fails with ErrBadChecksum when the stored checksum disagrees with the
// sum computed over the block, ErrBadMagic when the magic or version bytes
// are not ustar, and ErrInvalidField when a numeric field is malformed.
func (h *Header) UnmarshalBinary(block []byte) error {
	if len(block) != BlockSize {
		return fmt.Errorf("ustar: header block is %d bytes, want %d", len(block), BlockSize)
	}

	want, err := field.ParseOctal(block[offChecksum : offChecksum+lenChecksum])
	if err != nil {
		return fmt.Errorf("checksum: %w", ErrInvalidField)
	}
	if got := checksum(block); got != want {
		return fmt.Errorf("%w: field %d, computed %d", ErrBadChecksum, want, got)
	}

	if !bytes.Equal(block[offMagic:offMagic+lenMagic], magicUstar) ||
		!bytes.Equal(block[offVersion:offVersion+lenVersion], versionUstar) {
		return ErrBadMagic
	}

	p := parser{}
	mode := p.octal("mode", block[offMode:offMode+lenOctal])
	uid := p.octal("uid", block[offUID:offUID+lenOctal])
	gid := p.octal("gid", block[offGID:offGID+lenOctal])
	size := p.octal("size", block[offSize:offSize+lenLongOctal])
	mtime := p.octal("mtime", block[offModTime:offModTime+lenLongOctal])
	devmajor := p.octal("devmajor", block[offDevmajor:offDevmajor+lenOctal])
	devminor := p.octal("devminor", block[offDevminor:offDevminor+lenOctal])
	if p.err != nil {
		return p.err
	}

	name := field.ParseString(block[offName : offName+lenName])
	if prefix := field.ParseString(block[offPrefix : offPrefix+lenPrefix]); prefix != "" {
		name = prefix + "/" + name
	}

	tf := block[offTypeflag]
	if tf == 0 {
		tf = TypeReg
	}

	*h = Header{
		Name:     name,
		Mode:     mode,
		UID:      int(uid),
		GID:      int(gid),
		Size:     size,
		ModTime:  time.Unix(mtime, 0),
		Typeflag: tf,
		Linkname: field.ParseString(block[offLinkname : offLinkname+lenLinkname]),
		Uname:    field.ParseString(block[offUname : offUname+lenUname]),
		Gname:    field.ParseString(block[offGname : offGname+lenGname]),
		Devmajor: devmajor,
		Devminor: devminor,
	}
	return nil
}

// checksum returns the unsigned sum of the block bytes with the checksum
// field treated as ASCII spaces.
func checksum(block []byte) int64 {
	var sum int64
	for i, b := range block {
		if i >= offChecksum && i < offChecksum+lenChecksum {
			b = ' '
		}
		sum += int64(b)
	}
	return sum
}

// putChecksum fills the checksum field as six octal digits followed by a
// NUL and a space, the historical layout most readers expect.
func putChecksum(block []byte) {
	sum := checksum(block)
	f := block[offChecksum : offChecksum+lenChecksum]
	for i := range f {
		f[i] = '0'
	}
	s := strconv.FormatInt(sum, 8)
	// The sum of 512 bytes is at most 512*255, which always fits in six
	// octal digits.
	copy(f[6-len(s):6], s)
	f[6] = 0
	f[7] = ' '
}

// splitPath splits a full path across the name and prefix fields. Paths of
// up to 100 bytes land entirely in name.
func splitPath(path string) (name, prefix string, ok bool) {
	if len(path) <= lenName {
		return path, "", true
	}

	n := len(path)
	if n > lenPrefix+1 {
		n = lenPrefix + 1
	} else if path[n-1] == '/' {
		n--
	}
	i := strings.LastIndexByte(path[:n], '/')
	if i <= 0 || len(path)-i-1 > lenName || len(path) == i+1 {
		return "", "", false
	}
	return path[i+1:], path[:i], true
}

// padding returns the number of zero bytes that align an entry of the
// given size to the next block boundary.
func padding(size int64) int64 {
	return (BlockSize - size%BlockSize) % BlockSize
}

// formatter writes header fields, capturing the first failure.
type formatter struct {
	block []byte
	err   error
}

func (f *formatter) str(name string, off, width int, s string) {
	if f.err != nil {
		return
	}
	if !field.FormatString(f.block[off:off+width], s) {
		f.err = fmt.Errorf("%s %q: %w", name, s, ErrFieldTooLong)
	}
}

func (f *formatter) octal(name string, off, width int, v int64) {
	if f.err != nil {
		return
	}
	if !field.FormatOctal(f.block[off:off+width], v) {
		f.err = fmt.Errorf("%s %d: %w", name, v, ErrFieldTooLong)
	}
}

// parser reads header fields, capturing the first failure.
type parser struct {
	err error
}

func (p *parser) octal(name string, b []byte) int64 {
	if p.err != nil {
		return 0
	}
	v, err := field.ParseOctal(b)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", name, ErrInvalidField)
	}
	return v
}
