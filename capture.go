// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

// Declares the high-level interface for iterating over the packets of a
// pcapng capture stream.

package pcapsift

import (
	"io"

	"github.com/siemens/pcapsift/api"
	"github.com/siemens/pcapsift/pcapng"
)

// CaptureOptions describe a set of options giving more detailed control over
// how to decode a packet capture stream.
type CaptureOptions struct {
	// MaxConsecutiveErrors ends decoding early after this many block-local
	// decode errors in a row without a single packet in between. The zero
	// setting defaults to no limit, which is fine for trustworthy captures;
	// untrusted input can otherwise keep a consumer busy with an unbounded
	// sequence of block errors.
	MaxConsecutiveErrors int
}

// Capture iterates over the packets of a single pcapng capture stream and
// keeps track of all capture interfaces seen along the way. Use NewCapture
// to create Captures.
type Capture struct {
	dec    *pcapng.Decoder
	ifaces InterfaceCache
}

// NewCapture returns a new Capture decoding the packet capture stream
// delivered by the given reader, which might be a file, standard input, a
// websocket packet stream (see DialStream), et cetera. The reader is not
// touched before the first Next call. Gzip-compressed capture streams are
// decompressed transparently.
func NewCapture(r io.Reader, opts *CaptureOptions) *Capture {
	c := &Capture{}
	decopts := []pcapng.DecoderOption{
		pcapng.WithInterfaceSink(c.ifaces.Add),
	}
	if opts != nil && opts.MaxConsecutiveErrors > 0 {
		decopts = append(decopts,
			pcapng.WithMaxConsecutiveErrors(opts.MaxConsecutiveErrors))
	}
	c.dec = pcapng.NewDecoder(r, decopts...)
	return c
}

// Next returns the next packet of the capture stream, or io.EOF after the
// last packet has been delivered. Decode errors for which pcapng.IsFatal
// reports false relate to a single skipped block only; it is fine to keep
// calling Next afterwards. Fatal errors are returned exactly once, with all
// later calls returning io.EOF.
func (c *Capture) Next() (*api.Packet, error) {
	return c.dec.Next()
}

// Interface returns the capture interface description for an interface
// identifier previously seen on a packet.
func (c *Capture) Interface(globalID uint64) (*api.Interface, bool) {
	return c.ifaces.Interface(globalID)
}

// Interfaces returns all capture interfaces declared so far, in order of
// their declaration in the stream.
func (c *Capture) Interfaces() api.Interfaces {
	return c.ifaces.Interfaces()
}

// Sections returns the metadata of all capture stream sections seen so far.
func (c *Capture) Sections() []api.SectionInfo {
	return c.dec.Sections()
}

// Stats returns the decode counters accumulated so far.
func (c *Capture) Stats() api.Stats {
	return c.dec.Stats()
}
