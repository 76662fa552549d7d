// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package pcapng

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"io"
	"testing/iotest"
	"time"

	"github.com/siemens/pcapsift/api"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// minimalCapture is a complete single-packet little-endian capture: a
// section header, an interface description for Ethernet with a 64KiB snap
// length and microsecond resolution, and an enhanced packet block with four
// octets of payload captured at exactly one second past the epoch.
var minimalCapture = []byte{
	0x0a, 0x0d, 0x0d, 0x0a, // SHB block type
	0x1c, 0x00, 0x00, 0x00, // total block length 28
	0x4d, 0x3c, 0x2b, 0x1a, // byte-order magic
	0x01, 0x00, 0x00, 0x00, // major 1, minor 0
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, // section length unknown
	0x1c, 0x00, 0x00, 0x00, // total block length 28

	0x01, 0x00, 0x00, 0x00, // IDB block type
	0x20, 0x00, 0x00, 0x00, // total block length 32
	0x01, 0x00, 0x00, 0x00, // link type 1 (Ethernet), reserved
	0xff, 0xff, 0x00, 0x00, // snap length 65535
	0x09, 0x00, 0x01, 0x00, // if_tsresol option...
	0x06, 0x00, 0x00, 0x00, // ...10^6 units/s, padded
	0x00, 0x00, 0x00, 0x00, // end of options
	0x20, 0x00, 0x00, 0x00, // total block length 32

	0x06, 0x00, 0x00, 0x00, // EPB block type
	0x28, 0x00, 0x00, 0x00, // total block length 40
	0x00, 0x00, 0x00, 0x00, // interface 0
	0x00, 0x00, 0x00, 0x00, // timestamp high
	0x40, 0x42, 0x0f, 0x00, // timestamp low: 1,000,000 µs
	0x04, 0x00, 0x00, 0x00, // captured length 4
	0x04, 0x00, 0x00, 0x00, // original length 4
	0xde, 0xad, 0xbe, 0xef, // packet data
	0x00, 0x00, 0x00, 0x00, // end of options
	0x28, 0x00, 0x00, 0x00, // total block length 40
}

func u16(endian binary.ByteOrder, v uint16) []byte {
	var buff [2]byte
	endian.PutUint16(buff[:], v)
	return buff[:]
}

func u32(endian binary.ByteOrder, v uint32) []byte {
	var buff [4]byte
	endian.PutUint32(buff[:], v)
	return buff[:]
}

func u64(endian binary.ByteOrder, v uint64) []byte {
	var buff [8]byte
	endian.PutUint64(buff[:], v)
	return buff[:]
}

// assembleBlock wraps the given body parts into a block envelope with
// matching leading and trailing total lengths.
func assembleBlock(endian binary.ByteOrder, typ uint32, parts ...[]byte) []byte {
	body := bytes.Join(parts, nil)
	total := uint32(12 + len(body))
	blk := u32(endian, typ)
	blk = append(blk, u32(endian, total)...)
	blk = append(blk, body...)
	return append(blk, u32(endian, total)...)
}

func testSHB(endian binary.ByteOrder) []byte {
	return assembleBlock(endian, BlockTypeSHB,
		u32(endian, 0x1a2b3c4d),
		u16(endian, 1), u16(endian, 0),
		bytes.Repeat([]byte{0xff}, 8))
}

func testIDB(endian binary.ByteOrder, linktype uint16, snaplen uint32, opts ...[]byte) []byte {
	parts := [][]byte{
		u16(endian, linktype), u16(endian, 0),
		u32(endian, snaplen),
	}
	if len(opts) > 0 {
		parts = append(parts, opts...)
		parts = append(parts, []byte{0, 0, 0, 0})
	}
	return assembleBlock(endian, BlockTypeIDB, parts...)
}

func testEPB(endian binary.ByteOrder, iface, tshigh, tslow uint32, data []byte) []byte {
	padded := append([]byte(nil), data...)
	for len(padded)&0x3 != 0 {
		padded = append(padded, 0)
	}
	return assembleBlock(endian, BlockTypeEPB,
		u32(endian, iface),
		u32(endian, tshigh), u32(endian, tslow),
		u32(endian, uint32(len(data))), u32(endian, uint32(len(data))),
		padded)
}

// drain pulls everything out of a decoder, collecting packets and errors
// until the stream ends.
func drain(d *Decoder) (packets []*api.Packet, errs []error) {
	for {
		pkt, err := d.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		packets = append(packets, pkt)
	}
}

var _ = Describe("decoder", func() {

	It("Decodes a minimal single-packet capture", func() {
		d := NewDecoder(bytes.NewReader(minimalCapture))
		pkt, err := d.Next()
		Expect(err).ShouldNot(HaveOccurred())
		Expect(pkt.Data).Should(Equal([]byte{0xde, 0xad, 0xbe, 0xef}))
		Expect(pkt.Timestamp.Equal(time.Unix(1, 0))).Should(BeTrue())
		Expect(pkt.InterfaceID).Should(Equal(uint64(0)))
		Expect(pkt.OriginalLength).Should(Equal(uint32(4)))
		Expect(pkt.StreamOffset).Should(Equal(int64(28 + 32 + 28)))
		_, err = d.Next()
		Expect(err).Should(Equal(io.EOF))
	})

	It("Decodes the same capture delivered a single octet at a time", func() {
		d := NewDecoder(iotest.OneByteReader(bytes.NewReader(minimalCapture)))
		pkt, err := d.Next()
		Expect(err).ShouldNot(HaveOccurred())
		Expect(pkt.Data).Should(Equal([]byte{0xde, 0xad, 0xbe, 0xef}))
	})

	It("Decodes big-endian sections to identical packets", func() {
		endian := binary.BigEndian
		capture := testSHB(endian)
		capture = append(capture, testIDB(endian, 1, 0xffff,
			(&Option{Code: OptIfTSResol, Value: []byte{6}}).Bytes(endian))...)
		capture = append(capture, testEPB(endian, 0, 0, 1000000, []byte{0xde, 0xad, 0xbe, 0xef})...)
		d := NewDecoder(bytes.NewReader(capture))
		pkt, err := d.Next()
		Expect(err).ShouldNot(HaveOccurred())
		Expect(pkt.Data).Should(Equal([]byte{0xde, 0xad, 0xbe, 0xef}))
		Expect(pkt.Timestamp.Equal(time.Unix(1, 0))).Should(BeTrue())
		Expect(pkt.InterfaceID).Should(Equal(uint64(0)))
	})

	It("Tells capture interfaces to the interface sink", func() {
		ifaces := []api.Interface{}
		d := NewDecoder(bytes.NewReader(minimalCapture),
			WithInterfaceSink(func(iface api.Interface) { ifaces = append(ifaces, iface) }))
		_, errs := drain(d)
		Expect(errs).Should(BeEmpty())
		Expect(ifaces).Should(HaveLen(1))
		Expect(ifaces[0].LinkType).Should(Equal(uint16(1)))
		Expect(ifaces[0].SnapLen).Should(Equal(uint32(0xffff)))
		Expect(ifaces[0].TimestampUnitsPerSecond).Should(Equal(uint64(1000000)))
		Expect(ifaces[0].SectionID).Should(Equal(0))
	})

	It("Rejects legacy pcap streams with a helpful error", func() {
		d := NewDecoder(bytes.NewReader([]byte{0xd4, 0xc3, 0xb2, 0xa1, 0x02, 0x00, 0x04, 0x00}))
		_, err := d.Next()
		Expect(err).Should(MatchError(ErrLegacyPcap))
		Expect(IsFatal(err)).Should(BeTrue())
		_, err = d.Next()
		Expect(err).Should(Equal(io.EOF))
	})

	It("Rejects streams not starting with a section header block", func() {
		endian := binary.LittleEndian
		d := NewDecoder(bytes.NewReader(testIDB(endian, 1, 0)))
		_, err := d.Next()
		Expect(err).Should(MatchError(ErrBadMagic))
	})

	It("Terminates cleanly on an empty stream", func() {
		d := NewDecoder(bytes.NewReader(nil))
		_, err := d.Next()
		Expect(err).Should(Equal(io.EOF))
	})

	It("Skips packets of undeclared interfaces, then carries on", func() {
		endian := binary.LittleEndian
		capture := testSHB(endian)
		capture = append(capture, testIDB(endian, 1, 0)...)
		capture = append(capture, testEPB(endian, 7, 0, 42, []byte{0x01, 0x02})...)
		capture = append(capture, testEPB(endian, 0, 0, 42, []byte{0x03, 0x04})...)
		d := NewDecoder(bytes.NewReader(capture))
		packets, errs := drain(d)
		Expect(errs).Should(HaveLen(1))
		Expect(errs[0]).Should(MatchError(ErrUnknownInterface))
		Expect(IsFatal(errs[0])).Should(BeFalse())
		Expect(packets).Should(HaveLen(1))
		Expect(packets[0].Data).Should(Equal([]byte{0x03, 0x04}))
	})

	It("Skips blocks with corrupt bodies but intact envelopes", func() {
		endian := binary.LittleEndian
		corrupt := assembleBlock(endian, BlockTypeEPB,
			u32(endian, 0),
			u32(endian, 0), u32(endian, 0),
			u32(endian, 0xffff), // captured length way beyond the block
			u32(endian, 0xffff),
			[]byte{0xba, 0xad, 0xf0, 0x0d})
		capture := testSHB(endian)
		capture = append(capture, testIDB(endian, 1, 0)...)
		capture = append(capture, testEPB(endian, 0, 0, 1, []byte{0x01})...)
		capture = append(capture, corrupt...)
		capture = append(capture, testEPB(endian, 0, 0, 2, []byte{0x02})...)
		d := NewDecoder(bytes.NewReader(capture))
		packets, errs := drain(d)
		Expect(errs).Should(HaveLen(1))
		Expect(errs[0]).Should(MatchError(ErrTruncatedBlockBody))
		Expect(packets).Should(HaveLen(2))
	})

	It("Gives up for good on block trailers disagreeing with their headers", func() {
		endian := binary.LittleEndian
		bad := testEPB(endian, 0, 0, 1, []byte{0x01, 0x02, 0x03, 0x04})
		endian.PutUint32(bad[len(bad)-4:], uint32(len(bad)-4))
		capture := testSHB(endian)
		capture = append(capture, testIDB(endian, 1, 0)...)
		capture = append(capture, bad...)
		capture = append(capture, testEPB(endian, 0, 0, 2, []byte{0x05})...)
		d := NewDecoder(bytes.NewReader(capture))
		packets, errs := drain(d)
		Expect(packets).Should(BeEmpty())
		Expect(errs).Should(HaveLen(1))
		Expect(errs[0]).Should(MatchError(ErrTrailerMismatch))
		Expect(IsFatal(errs[0])).Should(BeTrue())
	})

	It("Rejects out-of-bounds block lengths", func() {
		endian := binary.LittleEndian
		capture := testSHB(endian)
		capture = append(capture,
			0x06, 0x00, 0x00, 0x00,
			0x0a, 0x00, 0x00, 0x00, // unaligned total length 10
			0x0a, 0x00, 0x00, 0x00)
		d := NewDecoder(bytes.NewReader(capture))
		_, errs := drain(d)
		Expect(errs).Should(HaveLen(1))
		Expect(errs[0]).Should(MatchError(ErrBadBlockLength))
	})

	It("Reports streams ending inside a block", func() {
		d := NewDecoder(bytes.NewReader(minimalCapture[:len(minimalCapture)-6]))
		packets, errs := drain(d)
		Expect(packets).Should(BeEmpty())
		Expect(errs).Should(HaveLen(1))
		Expect(errs[0]).Should(MatchError(ErrUnexpectedEOF))
	})

	It("Assigns stream-unique interface identifiers across sections", func() {
		capture := append(append([]byte(nil), minimalCapture...), minimalCapture...)
		ifaces := []api.Interface{}
		d := NewDecoder(bytes.NewReader(capture),
			WithInterfaceSink(func(iface api.Interface) { ifaces = append(ifaces, iface) }))
		packets, errs := drain(d)
		Expect(errs).Should(BeEmpty())
		Expect(packets).Should(HaveLen(2))
		Expect(packets[0].InterfaceID).ShouldNot(Equal(packets[1].InterfaceID))
		Expect(packets[1].InterfaceID).Should(Equal(uint64(1) << 32))
		Expect(ifaces).Should(HaveLen(2))
		Expect(ifaces[0].SectionID).Should(Equal(0))
		Expect(ifaces[1].SectionID).Should(Equal(1))
		Expect(d.Sections()).Should(HaveLen(2))
	})

	It("Converts 64bit microsecond timestamps exactly", func() {
		endian := binary.LittleEndian
		raw := uint64(5)<<32 | uint64(123456)
		capture := testSHB(endian)
		capture = append(capture, testIDB(endian, 1, 0)...) // default 10^6 units/s
		capture = append(capture, testEPB(endian, 0, uint32(raw>>32), uint32(raw&0xffffffff), []byte{0xff})...)
		d := NewDecoder(bytes.NewReader(capture))
		pkt, err := d.Next()
		Expect(err).ShouldNot(HaveOccurred())
		expected := time.Unix(int64(raw/1000000), int64(raw%1000000)*1000)
		Expect(pkt.Timestamp.Equal(expected)).Should(BeTrue())
	})

	It("Honors power-of-two timestamp resolutions and offsets", func() {
		endian := binary.LittleEndian
		capture := testSHB(endian)
		capture = append(capture, testIDB(endian, 1, 0,
			(&Option{Code: OptIfTSResol, Value: []byte{0x87}}).Bytes(endian), // 2^7 units/s
			(&Option{Code: OptIfTSOffset, Value: u64(endian, 100)}).Bytes(endian))...)
		capture = append(capture, testEPB(endian, 0, 0, 129, []byte{0xff})...)
		d := NewDecoder(bytes.NewReader(capture))
		pkt, err := d.Next()
		Expect(err).ShouldNot(HaveOccurred())
		// 129/128s plus 100s offset.
		Expect(pkt.Timestamp.Equal(time.Unix(101, 7812500))).Should(BeTrue())
	})

	It("Decodes simple packet blocks against the first interface", func() {
		endian := binary.LittleEndian
		capture := testSHB(endian)
		capture = append(capture, testIDB(endian, 1, 4)...) // snap length 4
		capture = append(capture, assembleBlock(endian, BlockTypeSPB,
			u32(endian, 8), // original length beyond the snap length
			[]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08})...)
		d := NewDecoder(bytes.NewReader(capture))
		pkt, err := d.Next()
		Expect(err).ShouldNot(HaveOccurred())
		Expect(pkt.Timestamp.IsZero()).Should(BeTrue())
		Expect(pkt.Data).Should(Equal([]byte{0x01, 0x02, 0x03, 0x04}))
		Expect(pkt.OriginalLength).Should(Equal(uint32(8)))
	})

	It("Skips simple packet blocks without any declared interface", func() {
		endian := binary.LittleEndian
		capture := testSHB(endian)
		capture = append(capture, assembleBlock(endian, BlockTypeSPB,
			u32(endian, 4), []byte{0x01, 0x02, 0x03, 0x04})...)
		d := NewDecoder(bytes.NewReader(capture))
		_, err := d.Next()
		Expect(err).Should(MatchError(ErrUnknownInterface))
	})

	It("Still decodes deprecated packet blocks", func() {
		endian := binary.LittleEndian
		capture := testSHB(endian)
		capture = append(capture, testIDB(endian, 1, 0)...)
		capture = append(capture, assembleBlock(endian, BlockTypePB,
			u16(endian, 0), u16(endian, 0), // interface, drops count
			u32(endian, 0), u32(endian, 2000000), // 2s in µs
			u32(endian, 4), u32(endian, 4),
			[]byte{0xca, 0xfe, 0xd0, 0x0d})...)
		d := NewDecoder(bytes.NewReader(capture))
		pkt, err := d.Next()
		Expect(err).ShouldNot(HaveOccurred())
		Expect(pkt.Data).Should(Equal([]byte{0xca, 0xfe, 0xd0, 0x0d}))
		Expect(pkt.Timestamp.Equal(time.Unix(2, 0))).Should(BeTrue())
	})

	It("Ignores unknown, but well-framed block types", func() {
		endian := binary.LittleEndian
		capture := testSHB(endian)
		capture = append(capture, testIDB(endian, 1, 0)...)
		capture = append(capture, assembleBlock(endian, 0x0BAD,
			[]byte{0xde, 0xad, 0xbe, 0xef})...)
		capture = append(capture, testEPB(endian, 0, 0, 1, []byte{0x42})...)
		d := NewDecoder(bytes.NewReader(capture))
		packets, errs := drain(d)
		Expect(errs).Should(BeEmpty())
		Expect(packets).Should(HaveLen(1))
	})

	It("Skips whole sections of unsupported versions", func() {
		endian := binary.LittleEndian
		weird := assembleBlock(endian, BlockTypeSHB,
			u32(endian, 0x1a2b3c4d),
			u16(endian, 2), u16(endian, 0),
			bytes.Repeat([]byte{0xff}, 8))
		capture := append([]byte(nil), weird...)
		capture = append(capture, testIDB(endian, 1, 0)...)
		capture = append(capture, testEPB(endian, 0, 0, 1, []byte{0x13})...)
		capture = append(capture, minimalCapture...)
		d := NewDecoder(bytes.NewReader(capture))
		packets, errs := drain(d)
		Expect(errs).Should(HaveLen(1))
		Expect(errs[0]).Should(MatchError(ErrUnsupportedVersion))
		Expect(IsFatal(errs[0])).Should(BeFalse())
		// Only the packet from the good second section makes it out.
		Expect(packets).Should(HaveLen(1))
		Expect(packets[0].Data).Should(Equal([]byte{0xde, 0xad, 0xbe, 0xef}))
		Expect(packets[0].InterfaceID).Should(Equal(uint64(1) << 32))
	})

	It("Accepts snap length overruns with a warning only", func() {
		endian := binary.LittleEndian
		capture := testSHB(endian)
		capture = append(capture, testIDB(endian, 1, 2)...) // snap length 2
		capture = append(capture, testEPB(endian, 0, 0, 1, []byte{0x01, 0x02, 0x03, 0x04})...)
		d := NewDecoder(bytes.NewReader(capture))
		pkt, err := d.Next()
		Expect(err).ShouldNot(HaveOccurred())
		Expect(pkt.Data).Should(HaveLen(4))
	})

	It("Decodes gzip-compressed capture streams transparently", func() {
		var compressed bytes.Buffer
		zw := gzip.NewWriter(&compressed)
		_, err := zw.Write(minimalCapture)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(zw.Close()).Should(Succeed())
		d := NewDecoder(bytes.NewReader(compressed.Bytes()))
		packets, errs := drain(d)
		Expect(errs).Should(BeEmpty())
		Expect(packets).Should(HaveLen(1))
		Expect(packets[0].Data).Should(Equal([]byte{0xde, 0xad, 0xbe, 0xef}))
	})

	It("Optionally pulls the plug after too many consecutive block errors", func() {
		endian := binary.LittleEndian
		capture := testSHB(endian)
		for i := 0; i < 10; i++ {
			capture = append(capture, testEPB(endian, 7, 0, 0, []byte{0x66})...)
		}
		d := NewDecoder(bytes.NewReader(capture), WithMaxConsecutiveErrors(3))
		packets, errs := drain(d)
		Expect(packets).Should(BeEmpty())
		Expect(errs).Should(HaveLen(3))
		Expect(errs[0]).Should(MatchError(ErrUnknownInterface))
		Expect(errs[2]).Should(MatchError(ErrTooManyErrors))
		Expect(IsFatal(errs[2])).Should(BeTrue())
	})

	It("Wraps producer failures as fatal source errors", func() {
		boom := errors.New("spurious interrupt")
		d := NewDecoder(io.MultiReader(
			bytes.NewReader(minimalCapture[:30]), iotest.ErrReader(boom)))
		packets, errs := drain(d)
		Expect(packets).Should(BeEmpty())
		Expect(errs).Should(HaveLen(1))
		var srcerr *SourceError
		Expect(errors.As(errs[0], &srcerr)).Should(BeTrue())
		Expect(IsFatal(errs[0])).Should(BeTrue())
	})

	It("Keeps count of blocks, packets, and sections", func() {
		d := NewDecoder(bytes.NewReader(minimalCapture))
		_, errs := drain(d)
		Expect(errs).Should(BeEmpty())
		stats := d.Stats()
		Expect(stats.Blocks).Should(Equal(3))
		Expect(stats.Packets).Should(Equal(1))
		Expect(stats.SkippedBlocks).Should(BeZero())
		Expect(stats.Sections).Should(Equal(1))
	})

	It("Surfaces section metadata options", func() {
		endian := binary.LittleEndian
		capture := assembleBlock(endian, BlockTypeSHB,
			u32(endian, 0x1a2b3c4d),
			u16(endian, 1), u16(endian, 0),
			bytes.Repeat([]byte{0xff}, 8),
			(&Option{Code: OptSHBHardware, Value: []byte("acme 9000")}).Bytes(endian),
			(&Option{Code: OptSHBUserAppl, Value: []byte("dumpcat")}).Bytes(endian),
			[]byte{0, 0, 0, 0})
		d := NewDecoder(bytes.NewReader(capture))
		_, errs := drain(d)
		Expect(errs).Should(BeEmpty())
		sections := d.Sections()
		Expect(sections).Should(HaveLen(1))
		Expect(sections[0].Hardware).Should(Equal("acme 9000"))
		Expect(sections[0].Application).Should(Equal("dumpcat"))
		Expect(sections[0].ByteOrder).Should(Equal("little"))
		Expect(sections[0].Length).Should(Equal(int64(-1)))
	})

})

var _ = Describe("timestamp resolutions", func() {

	It("Decodes power-of-ten and power-of-two resolutions", func() {
		units, clamped := timestampUnits(6)
		Expect(units).Should(Equal(uint64(1000000)))
		Expect(clamped).Should(BeFalse())

		units, clamped = timestampUnits(0x83)
		Expect(units).Should(Equal(uint64(8)))
		Expect(clamped).Should(BeFalse())

		units, clamped = timestampUnits(0)
		Expect(units).Should(Equal(uint64(1)))
		Expect(clamped).Should(BeFalse())
	})

	It("Clamps unrepresentable resolutions", func() {
		units, clamped := timestampUnits(0x7f)
		Expect(units).Should(Equal(uint64(1e19)))
		Expect(clamped).Should(BeTrue())

		units, clamped = timestampUnits(0xff)
		Expect(units).Should(Equal(uint64(1) << 63))
		Expect(clamped).Should(BeTrue())
	})

	It("Truncates sub-nanosecond resolutions to nanoseconds", func() {
		iface := &api.Interface{TimestampUnitsPerSecond: 10000000000} // 10^10 units/s
		ts := timestamp(15000000005, iface)
		Expect(ts.Equal(time.Unix(1, 500000000))).Should(BeTrue())
	})

})
