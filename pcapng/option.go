// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package pcapng

import "encoding/binary"

// Option represents a pcapng option, consisting of a Code uniquely identifying
// the type of option, as well as its (binary) value in form of an octet string.
type Option struct {
	Code  uint16 // Option Code
	Value []byte // Value
}

const (
	// OptEndofOpt signals the end of options.
	OptEndofOpt = uint16(0)
	// OptComment contains a comment in form of an UTF-8 string.
	OptComment = uint16(1)
	// OptSHBHardware contains the description of the hardware used to create this
	// section, in form of an UTF-8 string.
	OptSHBHardware = uint16(2)
	// OptSHBOS contains the name of the operating system used to create this
	// section, in form of an UTF-8 string.
	OptSHBOS = uint16(3)
	// OptSHBUserAppl contains the name of the application used to create this
	// section, in form of an UTF-8 string.
	OptSHBUserAppl = uint16(4)

	// OptIfName contains the name of the capture interface, in form of an
	// UTF-8 string.
	OptIfName = uint16(2)
	// OptIfDescription contains a description of the capture interface, in
	// form of an UTF-8 string.
	OptIfDescription = uint16(3)
	// OptIfTSResol contains the timestamp resolution of the capture
	// interface, packed into a single octet: the most significant bit
	// selects a power of 2 instead of a power of 10, the remaining bits are
	// the (positive) exponent of units per second.
	OptIfTSResol = uint16(9)
	// OptIfTSOffset contains a signed 64bit seconds offset added to each raw
	// packet timestamp of the capture interface.
	OptIfTSOffset = uint16(14)
)

// String returns an option's value as a string instead of octets, assuming
// UTF-8 encoding.
func (o *Option) String() string {
	return string(o.Value)
}

// Bytes returns the octets encoding the option, using the specified
// endianness.
func (o *Option) Bytes(endian binary.ByteOrder) (b []byte) {
	if o == nil {
		return []byte{0, 0, 0, 0}
	}
	value := []byte(o.Value)
	length := uint16(len(value))
	by := make([]byte, uint16(2+2)+length)
	endian.PutUint16(by[0:2], o.Code)
	endian.PutUint16(by[2:4], length)
	copy(by[4:], value)
	if length&0x3 != 0 {
		pad := [3]byte{0, 0, 0}
		by = append(by, pad[0:4-(length&0x3)]...)
	}
	return by
}

// walkOptions iterates over the TLV-encoded options in buff, calling visit
// for each option until the end-of-options marker or the end of buff is
// reached. The same grammar also covers name resolution block records, so
// those reuse this walker. It returns the number of octets consumed,
// including any end-of-options marker. An option length reaching beyond buff
// yields ErrBadOptionLength, as do trailing stray octets too short to even
// hold an option header.
func walkOptions(buff []byte, endian binary.ByteOrder, visit func(code uint16, value []byte) error) (int, error) {
	offset := 0
	for offset < len(buff) {
		if len(buff)-offset < 4 {
			return offset, ErrBadOptionLength
		}
		code := endian.Uint16(buff[offset : offset+2])
		length := int(endian.Uint16(buff[offset+2 : offset+4]))
		if code == OptEndofOpt && length == 0 {
			return offset + 4, nil
		}
		if length > len(buff)-offset-4 {
			return offset, ErrBadOptionLength
		}
		if visit != nil {
			if err := visit(code, buff[offset+4:offset+4+length]); err != nil {
				return offset, err
			}
		}
		// Advance over code, length, and the value padded to the next 32bit
		// boundary.
		skip := 4 + length
		if skip&0x3 != 0 {
			skip += 4 - (skip & 0x3)
		}
		offset += skip
	}
	return offset, nil
}
