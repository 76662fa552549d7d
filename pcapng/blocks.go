// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

// The typed block decoders: each one interprets the body of a single,
// already well-framed block using the current section's byte order, and
// either updates the section state or produces a packet. Failures here are
// always local to the block at hand.

package pcapng

import (
	"fmt"
	"unicode/utf8"

	"github.com/siemens/pcapsift/api"
	log "github.com/sirupsen/logrus"
)

// Fixed (envelope plus mandatory fields) sizes of the decoded block types,
// used for detecting truncated bodies and, for the block types with packet
// data, for bounds-checking captured lengths.
const (
	fixedSHBLen = 8 + 4 + 2 + 2 + 8 + 4 // envelope + magic + version + section length
	fixedIDBLen = 8 + 2 + 2 + 4 + 4     // envelope + link type + reserved + snap length
	fixedEPBLen = 8 + 4 + 4 + 4 + 4 + 4 + 4
	fixedSPBLen = 8 + 4 + 4
	fixedPBLen  = 8 + 2 + 2 + 4 + 4 + 4 + 4 + 4
)

// blockName returns a short human-readable tag for a block type code.
func blockName(typ uint32) string {
	switch typ {
	case BlockTypeSHB:
		return "SHB"
	case BlockTypeIDB:
		return "IDB"
	case BlockTypePB:
		return "PB"
	case BlockTypeSPB:
		return "SPB"
	case BlockTypeNRB:
		return "NRB"
	case BlockTypeISB:
		return "ISB"
	case BlockTypeEPB:
		return "EPB"
	case 0x00000BAD, 0x40000BAD:
		return fmt.Sprintf("CB 0x%08x", typ)
	}
	return fmt.Sprintf("unknown 0x%08x", typ)
}

// decodeSHB starts a new section from a section header block: it resets the
// interface table, advances the section ordinal, and collects the section
// metadata options. Sections of unsupported format versions are entered in
// silenced state so that their blocks are consumed but not decoded.
func (d *Decoder) decodeSHB(blk block) error {
	sec := newSection(d.sections, d.fr.byteOrder())
	d.sections++
	d.sec = sec
	if len(blk.raw) < fixedSHBLen {
		return ErrTruncatedBlockBody
	}
	endian := sec.endian
	sec.info.VersionMajor = endian.Uint16(blk.raw[12:14])
	sec.info.VersionMinor = endian.Uint16(blk.raw[14:16])
	sec.info.Length = sectionLength(endian.Uint64(blk.raw[16:24]))
	log.Debugf("section header block: version %d.%d", sec.info.VersionMajor, sec.info.VersionMinor)
	if sec.info.Length < 0 {
		log.Debug("signalled unknown section length")
	} else {
		log.Debugf("signalled overall section length: %d", sec.info.Length)
	}
	if _, err := walkOptions(blk.raw[24:len(blk.raw)-4], endian,
		func(code uint16, value []byte) error {
			switch code {
			case OptComment:
				sec.info.Comment = string(value)
			case OptSHBHardware:
				sec.info.Hardware = string(value)
			case OptSHBOS:
				sec.info.OS = string(value)
			case OptSHBUserAppl:
				sec.info.Application = string(value)
			default:
				log.Debugf("ignoring SHB option type %d", code)
			}
			return nil
		}); err != nil {
		return err
	}
	d.sectionInfos = append(d.sectionInfos, sec.info)
	if sec.info.VersionMajor != 1 {
		sec.silenced = true
		return fmt.Errorf("%w: %d.%d; skipping section %d",
			ErrUnsupportedVersion, sec.info.VersionMajor, sec.info.VersionMinor, sec.ordinal)
	}
	return nil
}

// decodeIDB appends a capture interface to the current section's table,
// resolving the timestamp resolution and offset options.
func (d *Decoder) decodeIDB(blk block) error {
	if len(blk.raw) < fixedIDBLen {
		return ErrTruncatedBlockBody
	}
	endian := d.sec.endian
	iface := api.Interface{
		LinkType:                endian.Uint16(blk.raw[8:10]),
		SnapLen:                 endian.Uint32(blk.raw[12:16]),
		TimestampUnitsPerSecond: uint64(1e6),
	}
	if _, err := walkOptions(blk.raw[16:len(blk.raw)-4], endian,
		func(code uint16, value []byte) error {
			switch code {
			case OptIfName:
				if !utf8.Valid(value) {
					return fmt.Errorf("%w: if_name", ErrInvalidUTF8Option)
				}
				iface.Name = string(value)
			case OptIfDescription:
				if !utf8.Valid(value) {
					return fmt.Errorf("%w: if_description", ErrInvalidUTF8Option)
				}
				iface.Description = string(value)
			case OptIfTSResol:
				if len(value) < 1 {
					return fmt.Errorf("%w: empty if_tsresol", ErrBadOptionLength)
				}
				units, clamped := timestampUnits(value[0])
				if clamped {
					log.Warnf("interface declares unrepresentable timestamp resolution 0x%02x; clamping to %d units/s",
						value[0], units)
				}
				iface.TimestampUnitsPerSecond = units
			case OptIfTSOffset:
				if len(value) < 8 {
					return fmt.Errorf("%w: short if_tsoffset", ErrBadOptionLength)
				}
				iface.TimestampOffset = int64(endian.Uint64(value[0:8]))
			default:
				log.Debugf("ignoring IDB option type %d", code)
			}
			return nil
		}); err != nil {
		return err
	}
	if iface.TimestampUnitsPerSecond > nanosPerSecond {
		log.Warnf("interface declares sub-nanosecond timestamp resolution (%d units/s); timestamps will be truncated to nanoseconds",
			iface.TimestampUnitsPerSecond)
	}
	added := d.sec.addInterface(iface)
	if d.ifaceSink != nil {
		d.ifaceSink(*added)
	}
	log.Debugf("interface %d: link type %d, snap length %d, %d timestamp units/s",
		added.GlobalID, added.LinkType, added.SnapLen, added.TimestampUnitsPerSecond)
	return nil
}

// decodeEPB produces a packet from an enhanced packet block.
func (d *Decoder) decodeEPB(blk block) (*api.Packet, error) {
	if len(blk.raw) < fixedEPBLen {
		return nil, ErrTruncatedBlockBody
	}
	endian := d.sec.endian
	ifaceID := endian.Uint32(blk.raw[8:12])
	iface := d.sec.iface(ifaceID)
	if iface == nil {
		return nil, fmt.Errorf("%w: interface %d in section %d",
			ErrUnknownInterface, ifaceID, d.sec.ordinal)
	}
	capturedLen := int(endian.Uint32(blk.raw[20:24]))
	originalLen := endian.Uint32(blk.raw[24:28])
	if capturedLen > len(blk.raw)-fixedEPBLen {
		return nil, fmt.Errorf("%w: captured length %d exceeds block",
			ErrTruncatedBlockBody, capturedLen)
	}
	if iface.SnapLen != 0 && capturedLen > int(iface.SnapLen) {
		log.Warnf("captured length %d exceeds interface snap length %d",
			capturedLen, iface.SnapLen)
	}
	// Options follow the packet data, padded to the next 32bit boundary;
	// they carry nothing this decoder surfaces, but their grammar is still
	// validated.
	optOffset := 28 + pad4(capturedLen)
	if optOffset < len(blk.raw)-4 {
		if _, err := walkOptions(blk.raw[optOffset:len(blk.raw)-4], endian, nil); err != nil {
			return nil, err
		}
	}
	raw := uint64(endian.Uint32(blk.raw[12:16]))<<32 | uint64(endian.Uint32(blk.raw[16:20]))
	return &api.Packet{
		Timestamp:      timestamp(raw, iface),
		InterfaceID:    iface.GlobalID,
		StreamOffset:   blk.offset + 28,
		Data:           append([]byte(nil), blk.raw[28:28+capturedLen]...),
		OriginalLength: originalLen,
	}, nil
}

// decodeSPB produces a packet from a simple packet block. Simple packet
// blocks implicitly belong to the section's first interface and carry no
// timestamp; their captured length is whatever fits the block, bounded by
// the on-wire length and the interface snap length.
func (d *Decoder) decodeSPB(blk block) (*api.Packet, error) {
	if len(blk.raw) < fixedSPBLen {
		return nil, ErrTruncatedBlockBody
	}
	iface := d.sec.iface(0)
	if iface == nil {
		return nil, fmt.Errorf("%w: simple packet block without any declared interface in section %d",
			ErrUnknownInterface, d.sec.ordinal)
	}
	endian := d.sec.endian
	originalLen := endian.Uint32(blk.raw[8:12])
	capturedLen := len(blk.raw) - fixedSPBLen
	if int(originalLen) < capturedLen {
		capturedLen = int(originalLen)
	}
	if iface.SnapLen != 0 && capturedLen > int(iface.SnapLen) {
		capturedLen = int(iface.SnapLen)
	}
	return &api.Packet{
		InterfaceID:    iface.GlobalID,
		StreamOffset:   blk.offset + 12,
		Data:           append([]byte(nil), blk.raw[12:12+capturedLen]...),
		OriginalLength: originalLen,
	}, nil
}

// decodePB produces a packet from an obsolete packet block, with the same
// timestamp semantics as enhanced packet blocks.
func (d *Decoder) decodePB(blk block) (*api.Packet, error) {
	d.sec.warnOnce(BlockTypePB, "deprecated packet block (PB) encountered; the writer should use enhanced packet blocks")
	if len(blk.raw) < fixedPBLen {
		return nil, ErrTruncatedBlockBody
	}
	endian := d.sec.endian
	ifaceID := uint32(endian.Uint16(blk.raw[8:10]))
	iface := d.sec.iface(ifaceID)
	if iface == nil {
		return nil, fmt.Errorf("%w: interface %d in section %d",
			ErrUnknownInterface, ifaceID, d.sec.ordinal)
	}
	capturedLen := int(endian.Uint32(blk.raw[20:24]))
	originalLen := endian.Uint32(blk.raw[24:28])
	if capturedLen > len(blk.raw)-fixedPBLen {
		return nil, fmt.Errorf("%w: captured length %d exceeds block",
			ErrTruncatedBlockBody, capturedLen)
	}
	raw := uint64(endian.Uint32(blk.raw[12:16]))<<32 | uint64(endian.Uint32(blk.raw[16:20]))
	return &api.Packet{
		Timestamp:      timestamp(raw, iface),
		InterfaceID:    iface.GlobalID,
		StreamOffset:   blk.offset + 28,
		Data:           append([]byte(nil), blk.raw[28:28+capturedLen]...),
		OriginalLength: originalLen,
	}, nil
}

// decodeISB validates the structure of an interface statistics block; the
// statistics themselves are of no interest to packet consumers.
func (d *Decoder) decodeISB(blk block) error {
	if len(blk.raw) < 8+4+4+4+4 {
		return ErrTruncatedBlockBody
	}
	endian := d.sec.endian
	ifaceID := endian.Uint32(blk.raw[8:12])
	if d.sec.iface(ifaceID) == nil {
		d.sec.warnOnce(BlockTypeISB, "interface statistics for undeclared interface %d", ifaceID)
	}
	_, err := walkOptions(blk.raw[20:len(blk.raw)-4], endian, nil)
	return err
}

// decodeNRB validates the structure of a name resolution block: its records
// share the option TLV grammar, followed by regular options.
func (d *Decoder) decodeNRB(blk block) error {
	endian := d.sec.endian
	body := blk.raw[8 : len(blk.raw)-4]
	consumed, err := walkOptions(body, endian, nil)
	if err != nil {
		return err
	}
	if consumed < len(body) {
		if _, err := walkOptions(body[consumed:], endian, nil); err != nil {
			return err
		}
	}
	return nil
}

// pad4 rounds n up to the next multiple of 4.
func pad4(n int) int {
	if n&0x3 != 0 {
		return n + 4 - (n & 0x3)
	}
	return n
}
