package ustar

import (
	"bufio"
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// TestPipeRoundTrip streams an archive through an io.Pipe, with the writer
// and reader on separate goroutines. The engine never seeks, so producer
// and consumer proceed in lockstep with no intermediate buffering.
func TestPipeRoundTrip(t *testing.T) {
	t.Parallel()

	files := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "small", data: []byte("hello world!")},
		{name: "block", data: bytes.Repeat([]byte("B"), 512)},
		{name: "large", data: bytes.Repeat([]byte("payload-"), 4096)}, // 32KiB
	}

	pr, pw := io.Pipe()
	var g errgroup.Group

	g.Go(func() error {
		w := NewWriter(pw)
		for _, f := range files {
			e, err := w.AddEntry(&Header{Name: f.name, Mode: 0o644, Size: int64(len(f.data))})
			if err != nil {
				return err
			}
			if _, err := e.Write(f.data); err != nil {
				return err
			}
		}
		if err := w.Finish(); err != nil {
			return err
		}
		return pw.Close()
	})

	type result struct {
		name string
		data []byte
	}
	var got []result

	g.Go(func() error {
		r := NewReader(pr)
		for {
			e, err := r.Next()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			data, err := io.ReadAll(e)
			if err != nil {
				return err
			}
			got = append(got, result{name: e.Header().Name, data: data})
		}
	})

	require.NoError(t, g.Wait())
	require.Len(t, got, len(files))
	for i, f := range files {
		assert.Equal(t, f.name, got[i].name)
		if len(f.data) == 0 {
			assert.Empty(t, got[i].data)
		} else {
			assert.Equal(t, f.data, got[i].data)
		}
	}
}

// TestZstdRoundTrip composes the engine with an external compression
// layer: the archive is written through a zstd encoder and read back
// through a decoder, exercising strictly sequential access.
func TestZstdRoundTrip(t *testing.T) {
	t.Parallel()

	var compressed bytes.Buffer
	enc, err := zstd.NewWriter(&compressed, zstd.WithEncoderConcurrency(1))
	require.NoError(t, err)

	w := NewWriter(enc)
	payload := bytes.Repeat([]byte("compressible "), 1000)

	e, err := w.AddEntry(&Header{Name: "data.txt", Mode: 0o644, Size: int64(len(payload))})
	require.NoError(t, err)
	_, err = e.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Finish())
	require.NoError(t, enc.Close())

	dec, err := zstd.NewReader(bytes.NewReader(compressed.Bytes()), zstd.WithDecoderConcurrency(1))
	require.NoError(t, err)
	defer dec.Close()

	r := NewReader(dec)
	re, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "data.txt", re.Header().Name)
	got, err := io.ReadAll(re)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

// TestFinishFlushesBufferedSink exercises the Flusher contract against a
// real buffered writer.
func TestFinishFlushesBufferedSink(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewWriter(bufio.NewWriter(&buf))

	e, err := w.AddEntry(&Header{Name: "buffered", Size: 4})
	require.NoError(t, err)
	_, err = e.Write([]byte("data"))
	require.NoError(t, err)
	require.NoError(t, w.Finish())

	// Finish must have flushed everything through to the destination.
	assert.Equal(t, 512+512+1024, buf.Len())
}
