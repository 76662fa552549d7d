// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package wsstream

import (
	"io"

	"github.com/siemens/pcapsift"
	"github.com/siemens/pcapsift/cli"
	"github.com/siemens/pcapsift/cli/command"
	"github.com/spf13/cobra"
	"github.com/thediveo/go-plugger/v3"
)

// ServiceURL specifies the URL of a capture service streaming pcapng data
// over a websocket.
var ServiceURL string

// Insecure skips invalid server certificates.
var Insecure bool

func init() {
	plugger.Group[cli.SetupCLI]().Register(
		StreamSetupCLI, plugger.WithPlugin("wsstream"))
	plugger.Group[cli.NewSource]().Register(
		NewStreamSource, plugger.WithPlugin("wsstream"))
	plugger.Group[cli.CommandExamples]().Register(
		func() map[string]string {
			return map[string]string{
				"dump": `# Dump the packet digests of a live capture service stream.
pcapsift --url ws://localhost:5001/capture dump

# Live-dump with an invalid service certificate, despite better knowledge.
pcapsift --url wss://dns-or-ip:5001/capture -k dump`,
			}
		},
		plugger.WithPlugin("wsstream"), plugger.WithPlacement("<"))
}

// StreamSetupCLI registers the capture service stream source CLI flags.
func StreamSetupCLI(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&ServiceURL, "url", "",
		`[ws://|wss://]hostname[:port][/path] of a capture service streaming
pcapng packet capture data over a websocket`)
	command.Annotate(pf, "url", command.MutualFlagGroupAnnotation, command.SourceGroup)
	pf.BoolVarP(&Insecure, "insecure", "k", false,
		"Danger: skip invalid server certificates when connecting to a capture service")
}

// NewStreamSource opens the live capture stream when a capture service URL
// has been given on the command line.
func NewStreamSource() (io.ReadCloser, error) {
	// --url for a live capture service stream...
	if ServiceURL != "" {
		opts := &pcapsift.StreamOptions{
			CommonClientOptions: pcapsift.CommonClientOptions{
				BearerToken: command.BearerToken,
				Timeout:     command.ReqTimeout,
			},
			InsecureSkipVerify: Insecure,
		}
		return pcapsift.DialStream(ServiceURL, opts)
	}
	return nil, nil
}
