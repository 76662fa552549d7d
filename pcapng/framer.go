// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

// Implements the block framer: it delimits pcapng blocks using their (type,
// total length, body, total length) envelope and validates the envelope
// before anything gets decoded. The framer is the only place where a stream
// can be declared unrecoverable; everything downstream works on single,
// well-framed blocks.

package pcapng

import (
	"bytes"
	"encoding/binary"
	"io"
)

const (
	// MaxBlockLen is the upper bound accepted for a single block's total
	// length, matching what practical pcapng writers produce. Anything
	// larger is treated as stream corruption rather than a genuine block.
	MaxBlockLen = 16 * 1024 * 1024
	// minBlockLen is the size of the bare block envelope: type, total
	// length, and trailing total length.
	minBlockLen = 12
)

// Block type codes of the pcapng format.
const (
	BlockTypeSHB = uint32(0x0A0D0D0A) // Section Header Block
	BlockTypeIDB = uint32(0x00000001) // Interface Description Block
	BlockTypePB  = uint32(0x00000002) // Packet Block (obsolete)
	BlockTypeSPB = uint32(0x00000003) // Simple Packet Block
	BlockTypeNRB = uint32(0x00000004) // Name Resolution Block
	BlockTypeISB = uint32(0x00000005) // Interface Statistics Block
	BlockTypeEPB = uint32(0x00000006) // Enhanced Packet Block
)

var (
	shbMagic       = []byte{0x0a, 0x0d, 0x0d, 0x0a}
	byteOrderMagic = []byte{0x1a, 0x2b, 0x3c, 0x4d}
	// The legacy pcap file magic, in both byte orders; these streams are
	// rejected up front with a helpful error instead of a framing error.
	pcapMagic        = []byte{0xa1, 0xb2, 0xc3, 0xd4}
	pcapMagicSwapped = []byte{0xd4, 0xc3, 0xb2, 0xa1}
)

// block is one well-framed pcapng block. raw covers the whole block
// including its envelope and stays valid only until the window advances past
// the block.
type block struct {
	typ    uint32
	raw    []byte
	offset int64 // stream offset of the block's first octet
}

// body returns the block body, without the envelope.
func (b block) body() []byte {
	return b.raw[8 : len(b.raw)-4]
}

// framer cuts a capture stream into validated blocks. The byte order is
// per-section state learned from each section header block's byte-order
// magic; all other block envelopes are interpreted using the current
// section's byte order.
type framer struct {
	win     *window
	endian  binary.ByteOrder
	started bool
}

func newFramer(win *window) *framer {
	return &framer{win: win}
}

// next frames the next block. It returns io.EOF at a clean block boundary
// when the stream is exhausted, and one of the fatal errors otherwise. The
// caller must consume the block before asking for the next one.
func (f *framer) next() (block, error) {
	avail, err := f.win.fillTo(8)
	if err != nil {
		return block{}, err
	}
	if avail == 0 {
		return block{}, io.EOF
	}
	buff := f.win.buffered()
	if !f.started {
		if avail >= 4 && (bytes.Equal(buff[0:4], pcapMagic) || bytes.Equal(buff[0:4], pcapMagicSwapped)) {
			return block{}, ErrLegacyPcap
		}
		if avail < 4 || !bytes.Equal(buff[0:4], shbMagic) {
			return block{}, ErrBadMagic
		}
		f.started = true
	}
	if avail < 8 {
		return block{}, ErrUnexpectedEOF
	}
	// The SHB type code reads the same in both byte orders, so it can be
	// recognized before this section's byte order is known. Learning the
	// byte order from the byte-order magic must happen before the total
	// length field can be interpreted.
	isSHB := bytes.Equal(buff[0:4], shbMagic)
	if isSHB {
		if avail, err = f.win.fillTo(12); err != nil {
			return block{}, err
		}
		if avail < 12 {
			return block{}, ErrUnexpectedEOF
		}
		buff = f.win.buffered()
		switch {
		case bytes.Equal(buff[8:12], byteOrderMagic):
			f.endian = binary.BigEndian
		case bytes.Equal(buff[8:12], reverse(byteOrderMagic)):
			f.endian = binary.LittleEndian
		default:
			return block{}, ErrBadMagic
		}
	}
	typ := f.endian.Uint32(buff[0:4])
	totalLen := int(f.endian.Uint32(buff[4:8]))
	if totalLen < minBlockLen || totalLen > MaxBlockLen || totalLen%4 != 0 {
		return block{}, ErrBadBlockLength
	}
	if avail, err = f.win.fillTo(totalLen); err != nil {
		return block{}, err
	}
	if avail < totalLen {
		return block{}, ErrUnexpectedEOF
	}
	buff = f.win.buffered()
	if int(f.endian.Uint32(buff[totalLen-4:totalLen])) != totalLen {
		return block{}, ErrTrailerMismatch
	}
	return block{
		typ:    typ,
		raw:    buff[:totalLen],
		offset: f.win.offset(),
	}, nil
}

// byteOrder returns the current section's byte order.
func (f *framer) byteOrder() binary.ByteOrder {
	return f.endian
}

func reverse(b []byte) []byte {
	r := make([]byte, len(b))
	for i, bb := range b {
		r[len(b)-1-i] = bb
	}
	return r
}
