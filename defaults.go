// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package pcapsift

import "time"

const (
	// DefaultServiceTimeout specifies the time limit for establishing a
	// stream connection to a capture service, including the websocket
	// handshake phase.
	DefaultServiceTimeout = 30 * time.Second
)
