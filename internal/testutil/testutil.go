// Package testutil builds ustar fixtures by hand, independent of the
// library's codec, so tests can compare against reference bytes.
package testutil

import (
	"bytes"
	"fmt"
	"io"
)

const blockSize = 512

// FixedModTime is the modification time stamped on generated headers.
const FixedModTime = 1234567890

// File is one entry in a generated archive.
type File struct {
	Name string
	Data []byte
}

// HeaderBlock hand-encodes a ustar header for a regular file with mode
// 0644 and a fixed modification time.
func HeaderBlock(name string, size int64) []byte {
	b := make([]byte, blockSize)
	copy(b, name)
	copy(b[100:], fmt.Sprintf("%07o\x00", 0o644))
	copy(b[108:], fmt.Sprintf("%07o\x00", 0))
	copy(b[116:], fmt.Sprintf("%07o\x00", 0))
	copy(b[124:], fmt.Sprintf("%011o\x00", size))
	copy(b[136:], fmt.Sprintf("%011o\x00", FixedModTime))
	b[156] = '0'
	copy(b[257:], "ustar\x00")
	copy(b[263:], "00")
	copy(b[329:], fmt.Sprintf("%07o\x00", 0))
	copy(b[337:], fmt.Sprintf("%07o\x00", 0))
	Checksum(b)
	return b
}

// Checksum recomputes and stores the checksum field of a header block.
func Checksum(b []byte) {
	for i := 148; i < 156; i++ {
		b[i] = ' '
	}
	var sum int
	for _, c := range b {
		sum += int(c)
	}
	copy(b[148:], fmt.Sprintf("%06o\x00 ", sum))
}

// Archive builds a complete archive: headers, data, block padding, and the
// two-block terminator.
func Archive(files ...File) []byte {
	var buf bytes.Buffer
	for _, f := range files {
		buf.Write(HeaderBlock(f.Name, int64(len(f.Data))))
		buf.Write(f.Data)
		if pad := (blockSize - len(f.Data)%blockSize) % blockSize; pad > 0 {
			buf.Write(make([]byte, pad))
		}
	}
	buf.Write(make([]byte, 2*blockSize))
	return buf.Bytes()
}

// ChunkReader returns at most Chunk bytes per Read call, exercising the
// partial reads a network source would produce.
type ChunkReader struct {
	Data  []byte
	Chunk int
}

func (c *ChunkReader) Read(p []byte) (int, error) {
	if len(c.Data) == 0 {
		return 0, io.EOF
	}
	n := c.Chunk
	if n <= 0 || n > len(p) {
		n = len(p)
	}
	if n > len(c.Data) {
		n = len(c.Data)
	}
	copy(p, c.Data[:n])
	c.Data = c.Data[n:]
	return n, nil
}
