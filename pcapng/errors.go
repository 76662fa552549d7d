// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

// Defines the decode errors, which come in two user-visible flavors: errors
// local to a single block, after which iteration simply continues with the
// next block, and fatal errors, after which the stream is beyond salvage.

package pcapng

import (
	"errors"
	"fmt"
)

// Errors local to a single well-framed block; iteration continues with the
// next block after one of these has been reported.
var (
	// ErrUnknownInterface flags a packet block referencing a capture
	// interface that was never declared in the current section.
	ErrUnknownInterface = errors.New("packet references undeclared capture interface")
	// ErrUnsupportedVersion flags a section header block with a major
	// version other than 1; the whole section is skipped.
	ErrUnsupportedVersion = errors.New("unsupported pcapng version")
	// ErrTruncatedBlockBody flags a block whose body is too short for its
	// type's fixed fields, or whose captured length overruns the block.
	ErrTruncatedBlockBody = errors.New("block body too short for its declared contents")
	// ErrBadOptionLength flags an option length reaching beyond the end of
	// the enclosing block body.
	ErrBadOptionLength = errors.New("option length exceeds remaining block body")
	// ErrInvalidUTF8Option flags a textual option which isn't valid UTF-8.
	ErrInvalidUTF8Option = errors.New("invalid UTF-8 in string option")
)

// Fatal errors; after one of these has been reported, the decoder refuses to
// go on and all further Next calls report the end of the stream.
var (
	// ErrLegacyPcap is reported for streams in the legacy pcap format, which
	// this decoder intentionally does not handle.
	ErrLegacyPcap = errors.New("stream is in the legacy pcap format, not pcapng; please convert it first, for instance using \"editcap -F pcapng\"")
	// ErrBadMagic is reported when the stream does not begin with a section
	// header block, or when a section header block carries an unknown
	// byte-order magic.
	ErrBadMagic = errors.New("invalid packet capture stream; must begin with a section header block")
	// ErrBadBlockLength is reported for block total lengths that are
	// unaligned, too small to be a block, or beyond MaxBlockLen.
	ErrBadBlockLength = errors.New("block total length out of bounds")
	// ErrTrailerMismatch is reported when a block's trailing total length
	// disagrees with its header: the framing is lost and the decoder will
	// not guess where the next block might start.
	ErrTrailerMismatch = errors.New("trailing block total length disagrees with block header")
	// ErrUnexpectedEOF is reported when the stream ends in the middle of a
	// block instead of at a block boundary.
	ErrUnexpectedEOF = errors.New("unexpected end of stream inside a block")
	// ErrTooManyErrors is reported when the configured limit of consecutive
	// per-block errors has been reached without any packet in between,
	// guarding against pathologically looping inputs.
	ErrTooManyErrors = errors.New("too many consecutive block errors")
)

// SourceError wraps an I/O failure of the underlying capture stream
// producer. Source errors are always fatal.
type SourceError struct {
	Inner error
}

// Error returns the source failure description.
func (e *SourceError) Error() string {
	return fmt.Sprintf("reading capture stream: %s", e.Inner.Error())
}

// Unwrap returns the underlying producer failure.
func (e *SourceError) Unwrap() error { return e.Inner }

// fatals lists the fatal sentinel errors for IsFatal.
var fatals = []error{
	ErrLegacyPcap,
	ErrBadMagic,
	ErrBadBlockLength,
	ErrTrailerMismatch,
	ErrUnexpectedEOF,
	ErrTooManyErrors,
}

// IsFatal returns true if the given decode error ended the capture stream,
// as opposed to merely having skipped a single block.
func IsFatal(err error) bool {
	var srcerr *SourceError
	if errors.As(err, &srcerr) {
		return true
	}
	for _, fatal := range fatals {
		if errors.Is(err, fatal) {
			return true
		}
	}
	return false
}
