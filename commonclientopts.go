// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

// Defines the options common to all capture stream client types -- not that
// there are that many, but this way we make explicit which options are common
// to whatever way a capture service gets contacted.

package pcapsift

import "time"

// CommonClientOptions defines options common to all capture stream client
// types.
type CommonClientOptions struct {
	// BearerToken optionally specifies the bearer token to use when talking
	// to the capture service.
	BearerToken string
	// Timeout limits the connection establishing phase, including the web
	// socket handshake phase.
	Timeout time.Duration
}
