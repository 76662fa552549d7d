// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

// A small excerpt of the link-layer type registry maintained at
// https://www.tcpdump.org/linktypes.html, covering the types commonly seen in
// the wild. The decoder itself never interprets link types; the names are
// purely for human-friendly CLI output.

package api

import "strconv"

// LinkTypeName returns the well-known name for a link-layer type code, such
// as "ETHERNET" for 1, or the decimal code for types not in the excerpt.
func LinkTypeName(linktype uint16) string {
	if name, ok := linkTypeNames[linktype]; ok {
		return name
	}
	return strconv.FormatUint(uint64(linktype), 10)
}

var linkTypeNames = map[uint16]string{
	0:   "NULL",
	1:   "ETHERNET",
	8:   "SLIP",
	9:   "PPP",
	101: "RAW",
	105: "IEEE802_11",
	113: "LINUX_SLL",
	127: "IEEE802_11_RADIOTAP",
	147: "USER0",
	162: "USER15",
	119: "IEEE802_11_PRISM",
	239: "NFLOG",
	276: "LINUX_SLL2",
}
