// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

// Provides caching capture interface descriptions and looking them up again.

package pcapsift

import (
	"sync"

	"github.com/siemens/pcapsift/api"
)

// InterfaceCache collects and indexes the capture interface descriptions
// encountered while decoding a capture stream. It can safely be accessed
// simultaneously by multiple go routines, such as a consumer inspecting
// interfaces while another go routine drives the decoding.
type InterfaceCache struct {
	// The capture interface descriptions, in stream declaration order.
	ifaces api.Interfaces
	// Index from the stream-wide unique interface identifier into ifaces.
	index map[uint64]int
	m     sync.Mutex
}

// IsEmpty returns true if the cache is empty, otherwise false.
func (ic *InterfaceCache) IsEmpty() bool {
	ic.m.Lock()
	defer ic.m.Unlock()
	return len(ic.ifaces) == 0
}

// Add caches another capture interface description. Re-adding an already
// cached identifier updates the cached description.
func (ic *InterfaceCache) Add(iface api.Interface) {
	ic.m.Lock()
	defer ic.m.Unlock()
	if ic.index == nil {
		ic.index = map[uint64]int{}
	}
	if at, ok := ic.index[iface.GlobalID]; ok {
		ic.ifaces[at] = iface
		return
	}
	ic.index[iface.GlobalID] = len(ic.ifaces)
	ic.ifaces = append(ic.ifaces, iface)
}

// Interface looks up the capture interface description for the given
// stream-wide unique interface identifier, such as taken from a packet.
func (ic *InterfaceCache) Interface(globalID uint64) (*api.Interface, bool) {
	ic.m.Lock()
	defer ic.m.Unlock()
	at, ok := ic.index[globalID]
	if !ok {
		return nil, false
	}
	iface := ic.ifaces[at]
	return &iface, true
}

// Named returns the first capture interface description carrying the given
// interface name. Interface names are optional in pcapng, so lookups by name
// are best-effort only.
func (ic *InterfaceCache) Named(name string) (*api.Interface, bool) {
	ic.m.Lock()
	defer ic.m.Unlock()
	for _, iface := range ic.ifaces {
		if iface.Name == name {
			found := iface
			return &found, true
		}
	}
	return nil, false
}

// Interfaces returns the cached capture interface descriptions in stream
// declaration order.
func (ic *InterfaceCache) Interfaces() api.Interfaces {
	ic.m.Lock()
	defer ic.m.Unlock()
	return append(api.Interfaces(nil), ic.ifaces...)
}

// Clear the cached capture interface descriptions.
func (ic *InterfaceCache) Clear() {
	ic.m.Lock()
	defer ic.m.Unlock()
	ic.ifaces = nil
	ic.index = nil
}
