// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

// Implements the client side for decoding live capture streams: it connects
// to a capture service streaming pcapng data over a websocket and exposes
// the stream as a plain sequential byte producer, ready for NewCapture.

package pcapsift

import (
	"crypto/tls"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/siemens/pcapsift/websock"
)

// StreamOptions allows some degree of control over how to contact a capture
// service streaming pcapng data at a given URL.
type StreamOptions struct {
	CommonClientOptions
	// InsecureSkipVerify skips invalid server certificates; dangerous, and
	// thus off by default.
	InsecureSkipVerify bool
}

// DialStream connects to the capture service streaming pcapng data at the
// specified URL and returns the live capture stream as an io.ReadCloser,
// ready to be handed to NewCapture. The URL scheme can be ws/wss as well as
// http/https; the latter get mapped onto their websocket counterparts.
// Closing the returned stream gracefully shuts down the websocket.
func DialStream(serviceurl string, opts *StreamOptions) (io.ReadCloser, error) {
	if !strings.Contains(serviceurl, "://") {
		serviceurl = "ws://" + serviceurl
	}
	surl, err := url.Parse(serviceurl)
	if err != nil {
		return nil, err
	}
	switch surl.Scheme {
	case "http":
		surl.Scheme = "ws"
	case "https":
		surl.Scheme = "wss"
	case "ws", "wss":
		// ...already fine as is.
	default:
		return nil, errors.New("capture stream URL must use one of the ws, wss, http, or https schemes")
	}
	if surl.User != nil || surl.Opaque != "" || surl.Fragment != "" {
		return nil, errors.New("invalid capture stream URL")
	}
	streamopts := StreamOptions{
		CommonClientOptions: CommonClientOptions{
			Timeout: DefaultServiceTimeout,
		},
	}
	if opts != nil {
		streamopts = *opts
		if streamopts.Timeout == 0 {
			streamopts.Timeout = DefaultServiceTimeout
		}
	}
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: streamopts.Timeout,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: streamopts.InsecureSkipVerify,
		},
	}
	header := http.Header{}
	if streamopts.BearerToken != "" {
		header.Set("Authorization", "Bearer "+streamopts.BearerToken)
	}
	log.Debugf("connecting to capture service %s", surl.String())
	ws, resp, err := dialer.Dial(surl.String(), header)
	if err != nil {
		if resp != nil {
			log.Debugf("capture service handshake failed with status %q", resp.Status)
		}
		return nil, err
	}
	return websock.NewStreamReader(ws), nil
}
