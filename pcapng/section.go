// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package pcapng

import (
	"encoding/binary"
	"math"
	"math/bits"
	"time"

	"github.com/siemens/pcapsift/api"
	log "github.com/sirupsen/logrus"
)

// nanosPerSecond is the finest timestamp granularity representable in the
// decoded packets.
const nanosPerSecond = uint64(1e9)

// section carries the decoder state scoped to one pcapng section: the byte
// order, the declared section length, and the ordered table of capture
// interfaces. A new section header block replaces the whole section state.
type section struct {
	endian  binary.ByteOrder
	ordinal int
	info    api.SectionInfo
	ifaces  []api.Interface
	// silenced is set for sections of an unsupported format version: their
	// blocks are still framed and consumed, but no longer decoded.
	silenced bool
	// Block types already complained about in this section, so each gets at
	// most one moan per section.
	warned map[uint32]bool
}

func newSection(ordinal int, endian binary.ByteOrder) *section {
	byteorder := "little"
	if endian == binary.BigEndian {
		byteorder = "big"
	}
	return &section{
		endian:  endian,
		ordinal: ordinal,
		info: api.SectionInfo{
			Ordinal:   ordinal,
			ByteOrder: byteorder,
		},
		warned: map[uint32]bool{},
	}
}

// iface returns the capture interface with the given per-section index, or
// nil for indices never declared in this section.
func (s *section) iface(id uint32) *api.Interface {
	if int(id) >= len(s.ifaces) {
		return nil
	}
	return &s.ifaces[id]
}

// addInterface appends a freshly declared capture interface to this
// section's interface table, assigning its stream-wide unique identifier.
func (s *section) addInterface(iface api.Interface) *api.Interface {
	iface.GlobalID = uint64(s.ordinal)<<32 | uint64(len(s.ifaces))
	iface.SectionID = s.ordinal
	s.ifaces = append(s.ifaces, iface)
	return &s.ifaces[len(s.ifaces)-1]
}

// warnOnce logs the given message for a block type at most once per section.
func (s *section) warnOnce(typ uint32, format string, args ...interface{}) {
	if s.warned[typ] {
		return
	}
	s.warned[typ] = true
	log.Warnf(format, args...)
}

// timestampUnits decodes the packed if_tsresol option octet into timestamp
// units per second: the most significant bit selects base 2 over base 10,
// the low seven bits are the exponent. Exponents whose unit count overflows
// an unsigned 64bit integer are clamped, with clamped reporting that.
func timestampUnits(tsresol byte) (units uint64, clamped bool) {
	exp := uint(tsresol & 0x7f)
	if tsresol&0x80 != 0 {
		if exp > 63 {
			return uint64(1) << 63, true
		}
		return uint64(1) << exp, false
	}
	if exp > 19 {
		return uint64(1e19), true
	}
	units = 1
	for i := uint(0); i < exp; i++ {
		units *= 10
	}
	return units, false
}

// timestamp converts a raw per-interface timestamp value into a wall-clock
// instant, using the interface's units-per-second resolution and seconds
// offset. Sub-nanosecond resolutions truncate towards zero.
func timestamp(raw uint64, iface *api.Interface) time.Time {
	units := iface.TimestampUnitsPerSecond
	if units == 0 {
		units = 1
	}
	secs := int64(raw/units) + iface.TimestampOffset
	frac := raw % units
	// frac*1e9 can overflow 64 bits for coarse fractions of fine
	// resolutions, so divide with a 128bit intermediate.
	hi, lo := bits.Mul64(frac, nanosPerSecond)
	nanos, _ := bits.Div64(hi, lo, units)
	return time.Unix(secs, int64(nanos)).UTC()
}

// sectionLength interprets the declared total section length, mapping the
// all-ones "unspecified" marker to -1.
func sectionLength(raw uint64) int64 {
	if raw == math.MaxUint64 {
		return -1
	}
	return int64(raw)
}
