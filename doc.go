// Package ustar provides streaming encoding and decoding of ustar-format
// tar archives over arbitrary byte sources and sinks.
//
// The package never materializes an archive in memory: headers occupy a
// single 512-byte block buffer and entry data moves directly between
// caller buffers and the underlying stream. This suits backup tools,
// package builders, and container-layer producers that process archives
// incrementally.
//
// # Writing
//
// Use [Writer.AddEntry] to write a header and get an [EntryWriter] for the
// entry's data, then [Writer.Finish] to emit the terminator:
//
//	w := ustar.NewWriter(sink)
//	for _, f := range files {
//	    e, err := w.AddEntry(&ustar.Header{Name: f.name, Size: int64(len(f.data)), Mode: 0o644})
//	    if err != nil {
//	        return err
//	    }
//	    if _, err := e.Write(f.data); err != nil {
//	        return err
//	    }
//	}
//	err := w.Finish()
//
// # Reading
//
// Use [Reader.Next] or the [Reader.Entries] iterator to walk the archive:
//
//	r := ustar.NewReader(source)
//	for e, err := range r.Entries() {
//	    if err != nil {
//	        return err
//	    }
//	    content, err := io.ReadAll(e)
//	    // ...
//	}
//
// # Ownership
//
// A tar byte stream is a strict sequence, so at most one entry handle is
// live per archive: requesting the next entry finalizes the previous one.
// On the read side the unread remainder is skipped; on the write side a
// fully written entry is padded, while an underfilled one must be closed
// explicitly (Close zero-fills the shortfall). Entry data cannot be
// interleaved.
//
// All operations block; cancellation is available by configuring a context
// with [WithReadContext] or [WithWriteContext]. The engine spawns no
// goroutines and needs no locks.
//
// Only the POSIX ustar format is implemented. GNU and PAX extensions,
// compression, and filesystem walking are out of scope; compose with other
// packages for those.
package ustar
