// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

// This statically typed data model describes the packets, capture interfaces,
// and section metadata decoded from pcapng capture streams. The JSON and YAML
// tags support the machine-readable output formats of the pcapsift CLI tool,
// which renders these values through klo templates and YAML documents.

package api

import "time"

// Packets is a list of decoded packets.
type Packets []*Packet

// Packet is a single captured network packet, decoded from a packet-bearing
// pcapng block. A Packet fully owns its Data and stays valid after the
// decoder has moved on.
type Packet struct {
	// Wall-clock capture instant with up to nanosecond precision. The zero
	// time signals that the originating block carries no timestamp (such as
	// simple packet blocks).
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	// Stream-wide unique identifier of the capture interface this packet was
	// taken from: the section ordinal in the upper 32 bits, the per-section
	// interface index in the lower 32 bits.
	InterfaceID uint64 `json:"interface-id" yaml:"interface-id"`
	// Byte offset of the packet data field within the capture stream, for
	// citing the origin of a packet in diagnostics.
	StreamOffset int64 `json:"stream-offset" yaml:"stream-offset"`
	// The raw captured link-layer octets, possibly truncated to the capture
	// interface's snap length.
	Data []byte `json:"data" yaml:"data"`
	// The length of the packet as it was on the wire, before any truncation
	// to the snap length.
	OriginalLength uint32 `json:"original-length" yaml:"original-length"`
}

// Interfaces is a list of capture interface descriptions.
type Interfaces []Interface

// Interface describes a capture interface declared inside a pcapng section.
// Packets reference their capture interface through GlobalID.
type Interface struct {
	// Stream-wide unique interface identifier; see Packet.InterfaceID.
	GlobalID uint64 `json:"id" yaml:"id"`
	// Link-layer type code, as registered with tcpdump.org.
	LinkType uint16 `json:"link-type" yaml:"link-type"`
	// Maximum number of octets captured per packet; 0 means unlimited.
	SnapLen uint32 `json:"snap-length" yaml:"snap-length"`
	// Timestamp resolution in units per second, already decoded from the
	// packed if_tsresol option representation.
	TimestampUnitsPerSecond uint64 `json:"ts-units-per-second" yaml:"ts-units-per-second"`
	// Seconds added to every raw timestamp of this interface.
	TimestampOffset int64 `json:"ts-offset,omitempty" yaml:"ts-offset,omitempty"`
	// Optional interface name, such as "eth0".
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Optional free-form interface description.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// Ordinal of the section which declared this interface.
	SectionID int `json:"section" yaml:"section"`
}

// SectionInfo describes one section of a pcapng capture stream, as declared
// by its section header block.
type SectionInfo struct {
	// 0-based ordinal of this section within the capture stream.
	Ordinal int `json:"ordinal" yaml:"ordinal"`
	// Byte order of the section, either "little" or "big".
	ByteOrder string `json:"byte-order" yaml:"byte-order"`
	// Major and minor pcapng format version.
	VersionMajor uint16 `json:"version-major" yaml:"version-major"`
	VersionMinor uint16 `json:"version-minor" yaml:"version-minor"`
	// Declared overall section length in octets, or -1 if unspecified.
	Length int64 `json:"length" yaml:"length"`
	// Optional free-text metadata from the section header options.
	Comment     string `json:"comment,omitempty" yaml:"comment,omitempty"`
	Hardware    string `json:"hardware,omitempty" yaml:"hardware,omitempty"`
	OS          string `json:"os,omitempty" yaml:"os,omitempty"`
	Application string `json:"application,omitempty" yaml:"application,omitempty"`
}

// Stats sums up what a capture decoder has seen so far.
type Stats struct {
	// Number of well-framed blocks consumed, of any type.
	Blocks int `json:"blocks" yaml:"blocks"`
	// Number of packets decoded and handed out.
	Packets int `json:"packets" yaml:"packets"`
	// Number of well-framed blocks that had to be skipped due to decoding
	// problems local to the individual block.
	SkippedBlocks int `json:"skipped-blocks" yaml:"skipped-blocks"`
	// Number of sections started.
	Sections int `json:"sections" yaml:"sections"`
}
