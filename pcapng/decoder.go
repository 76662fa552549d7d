// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

// Implements the capture decoder driving the framer and the typed block
// decoders, and mapping their failures onto the skip-a-block versus
// stream-is-toast policy.

package pcapng

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/siemens/pcapsift/api"
	log "github.com/sirupsen/logrus"
)

const magicGzip1 = 0x1f
const magicGzip2 = 0x8b

// Decoder decodes a pcapng capture stream into its packets, block by block.
// A Decoder is strictly sequential and must not be used from multiple go
// routines simultaneously; separate Decoders over separate streams are
// completely independent, though.
type Decoder struct {
	win *window
	fr  *framer
	sec *section

	sections     int
	sectionInfos []api.SectionInfo
	stats        api.Stats

	ifaceSink func(api.Interface)

	// Guard against inputs that produce block errors without end; 0 means
	// no limit.
	maxConsecutiveErrs int
	consecutiveErrs    int

	sniffed  bool
	poisoned bool
}

// DecoderOption configures a Decoder during NewDecoder.
type DecoderOption func(*Decoder)

// WithInterfaceSink installs a function that gets told about every capture
// interface as soon as its declaration has been decoded.
func WithInterfaceSink(sink func(api.Interface)) DecoderOption {
	return func(d *Decoder) { d.ifaceSink = sink }
}

// WithMaxConsecutiveErrors terminates decoding with ErrTooManyErrors after
// the given number of block-local errors in a row, without a successfully
// decoded packet in between. Use it when decoding untrusted input, which
// otherwise might loop forever over a damaged region without progressing. A
// limit of 0 (the default) means unlimited.
func WithMaxConsecutiveErrors(limit int) DecoderOption {
	return func(d *Decoder) { d.maxConsecutiveErrs = limit }
}

// NewDecoder returns a new pcapng Decoder reading the capture stream from
// the given producer. The producer is not touched until the first Next call.
// Producers delivering a gzip-compressed capture stream are handled
// transparently.
func NewDecoder(r io.Reader, opts ...DecoderOption) *Decoder {
	win := newWindow(r)
	d := &Decoder{
		win: win,
		fr:  newFramer(win),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Next decodes up to the next packet of the capture stream and returns it.
// At the end of the stream, and on every call thereafter, it returns io.EOF.
//
// A non-nil decode error relates to a single skipped block when IsFatal
// reports false, and iteration may simply continue with the next Next call.
// A fatal error is returned exactly once, with all subsequent calls
// returning io.EOF.
func (d *Decoder) Next() (*api.Packet, error) {
	if d.poisoned {
		return nil, io.EOF
	}
	if !d.sniffed {
		if err := d.sniffGzip(); err != nil {
			d.poisoned = true
			return nil, err
		}
	}
	for {
		blk, err := d.fr.next()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			// Only the framer declares streams unrecoverable.
			d.poisoned = true
			return nil, err
		}
		d.stats.Blocks++
		pkt, err := d.decodeBlock(blk)
		d.win.advance(len(blk.raw))
		if err != nil {
			d.stats.SkippedBlocks++
			d.consecutiveErrs++
			log.Debugf("skipping %s block at offset %d: %s", blockName(blk.typ), blk.offset, err.Error())
			if d.maxConsecutiveErrs > 0 && d.consecutiveErrs >= d.maxConsecutiveErrs {
				d.poisoned = true
				return nil, fmt.Errorf("%w: %d in a row", ErrTooManyErrors, d.consecutiveErrs)
			}
			return nil, err
		}
		if pkt != nil {
			d.consecutiveErrs = 0
			d.stats.Packets++
			return pkt, nil
		}
	}
}

// decodeBlock dispatches a well-framed block to its typed decoder, returning
// a packet for the packet-bearing block types and nil for the state-only
// ones. Sections of unsupported versions get their blocks consumed without
// decoding, up to the next section header.
func (d *Decoder) decodeBlock(blk block) (*api.Packet, error) {
	if blk.typ == BlockTypeSHB {
		d.stats.Sections++
		return nil, d.decodeSHB(blk)
	}
	if d.sec.silenced {
		log.Debugf("not decoding %s block in skipped section %d", blockName(blk.typ), d.sec.ordinal)
		return nil, nil
	}
	switch blk.typ {
	case BlockTypeIDB:
		return nil, d.decodeIDB(blk)
	case BlockTypeEPB:
		return d.decodeEPB(blk)
	case BlockTypeSPB:
		return d.decodeSPB(blk)
	case BlockTypePB:
		return d.decodePB(blk)
	case BlockTypeISB:
		return nil, d.decodeISB(blk)
	case BlockTypeNRB:
		return nil, d.decodeNRB(blk)
	}
	d.sec.warnOnce(blk.typ, "ignoring blocks of %s", blockName(blk.typ))
	return nil, nil
}

// sniffGzip peeks at the first two stream octets and, when they announce a
// gzip stream, reroutes the producer through a gzip reader. Stream offsets
// then refer to the decompressed stream.
func (d *Decoder) sniffGzip() error {
	d.sniffed = true
	avail, err := d.win.fillTo(2)
	if err != nil {
		return err
	}
	buff := d.win.buffered()
	if avail < 2 || buff[0] != magicGzip1 || buff[1] != magicGzip2 {
		return nil
	}
	log.Debug("gzip-compressed capture stream; decompressing on the fly")
	head := append([]byte(nil), buff...)
	zr, err := gzip.NewReader(io.MultiReader(bytes.NewReader(head), d.win.r))
	if err != nil {
		return &SourceError{Inner: err}
	}
	d.win.restart(zr)
	return nil
}

// Sections returns the metadata of all sections started so far.
func (d *Decoder) Sections() []api.SectionInfo {
	return append([]api.SectionInfo(nil), d.sectionInfos...)
}

// Stats returns the decode counters accumulated so far.
func (d *Decoder) Stats() api.Stats {
	return d.stats
}
