// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

// Implements the byte window buffering stream data between the producer and
// the block framer. The window grows on demand to hold the block currently
// being framed and recycles its storage once blocks have been consumed.

package pcapng

import "io"

// readChunk is the size of individual producer reads; producers are free to
// return less per read, down to a single octet.
const readChunk = 16 * 1024

// window buffers octets from a sequential producer, handing them to the
// framer in whole-block portions. Producer reads fill whatever buffer space
// is free, so octets beyond the block currently being assembled may already
// be buffered.
type window struct {
	r     io.Reader
	buf   []byte // buffered octets, buf[start:] still unconsumed
	start int
	base  int64 // stream offset of buf[start]
	eof   bool
	err   error // sticky producer failure
}

func newWindow(r io.Reader) *window {
	return &window{r: r}
}

// fillTo ensures that at least n octets are buffered, reading from the
// producer as often as needed. It returns the number of octets actually
// available, which is less than n only when the producer is exhausted, and a
// non-nil *SourceError when the producer failed.
func (w *window) fillTo(n int) (int, error) {
	for len(w.buf)-w.start < n {
		if w.err != nil {
			return len(w.buf) - w.start, &SourceError{Inner: w.err}
		}
		if w.eof {
			break
		}
		w.makeRoom(n)
		free := w.buf[len(w.buf):cap(w.buf)]
		m, err := w.r.Read(free)
		w.buf = w.buf[:len(w.buf)+m]
		switch {
		case err == io.EOF:
			w.eof = true
		case err != nil:
			w.err = err
			return len(w.buf) - w.start, &SourceError{Inner: err}
		}
	}
	return len(w.buf) - w.start, nil
}

// makeRoom compacts already-consumed octets away and grows the buffer so
// that the next producer read has space to work with, without ever
// allocating more than the larger of the wanted amount and one read chunk.
func (w *window) makeRoom(n int) {
	if w.start > 0 {
		w.buf = w.buf[:copy(w.buf, w.buf[w.start:])]
		w.start = 0
	}
	want := readChunk
	if n > want {
		want = n
	}
	if cap(w.buf) < want {
		grown := make([]byte, len(w.buf), want)
		copy(grown, w.buf)
		w.buf = grown
	}
}

// buffered returns a read-only view of the currently buffered octets. The
// view is invalidated by the next fillTo or advance call.
func (w *window) buffered() []byte {
	return w.buf[w.start:]
}

// advance drops the first n buffered octets.
func (w *window) advance(n int) {
	w.start += n
	w.base += int64(n)
	if w.start == len(w.buf) {
		w.buf = w.buf[:0]
		w.start = 0
	}
}

// offset returns the stream offset of the first buffered octet.
func (w *window) offset() int64 {
	return w.base
}

// restart swaps in a different producer, dropping all buffered octets and
// resetting the stream offset. Used when the stream turns out to be
// compressed and needs to be rerouted through a decompressor.
func (w *window) restart(r io.Reader) {
	w.r = r
	w.buf = w.buf[:0]
	w.start = 0
	w.base = 0
	w.eof = false
	w.err = nil
}
