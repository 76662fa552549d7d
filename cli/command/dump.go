// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

// Provides the "pcapsift dump" command, printing one line per decoded
// packet: the capture timestamp and the MD5 digest of the raw packet data.
// This line format is deliberately stable, so it can be diffed against what
// other pcapng readers report for the same capture.

package command

import (
	"crypto/md5"
	"fmt"
	"io"
	"os"

	"github.com/siemens/pcapsift"
	"github.com/siemens/pcapsift/api"
	"github.com/siemens/pcapsift/cli"
	"github.com/siemens/pcapsift/pcapng"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/thediveo/go-plugger/v3"
)

// timestampLayout formats capture timestamps as RFC3339 with full, fixed
// nanosecond precision.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// dumpCmd defines the "pcapsift dump" command.
var dumpCmd = &cobra.Command{
	Use:   "dump [flags] [FILE]",
	Short: "Decode a pcapng capture and print per-packet digests",
	Long: `Decode a pcapng capture stream and print one line per packet: the capture
timestamp in RFC3339 format with nanosecond precision, a tab, and the MD5
digest of the raw packet data. Reads from FILE, from standard input when FILE
is "-" or absent, or from a capture service stream source.`,
	Args: cobra.MaximumNArgs(1),
	RunE: dump,
}

func init() {
	plugger.Group[cli.SetupCLI]().Register(DumpSetupCLI, plugger.WithPlugin("dump"))
	plugger.Group[cli.CommandExamples]().Register(
		func() map[string]string {
			return map[string]string{
				"dump": `# Print the packet digests of a capture file.
pcapsift dump mycapture.pcapng

# Decode a gzip-compressed capture from stdin.
pcapsift dump < mycapture.pcapng.gz`,
			}
		},
		plugger.WithPlugin("dump"))
}

// DumpSetupCLI adds the "dump" command.
func DumpSetupCLI(cmd *cobra.Command) {
	cmd.AddCommand(dumpCmd)
	dumpCmd.PersistentFlags().Uint("max-errors", 0,
		"Give up after this many consecutive per-block decode errors (0 = never)")
}

// dump drives the capture decoder over the selected source until the stream
// ends, printing the per-packet digest lines.
func dump(cmd *cobra.Command, args []string) error {
	src, err := OpenSource(args)
	if err != nil {
		return err
	}
	defer src.Close()
	maxerrs, _ := cmd.Flags().GetUint("max-errors")
	capture := pcapsift.NewCapture(src, &pcapsift.CaptureOptions{
		MaxConsecutiveErrors: int(maxerrs),
	})
	for {
		packet, err := capture.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if pcapng.IsFatal(err) {
				return fmt.Errorf("capture stream broken: %w", err)
			}
			log.Warnf("skipped block: %s", err.Error())
			continue
		}
		fmt.Fprintln(os.Stdout, packetLine(packet))
	}
	stats := capture.Stats()
	log.Debugf("decoded %d packets in %d blocks (%d skipped) across %d section(s)",
		stats.Packets, stats.Blocks, stats.SkippedBlocks, stats.Sections)
	return nil
}

// packetLine renders the digest line for a single packet. Packets without
// any timestamp (from simple packet blocks) get a "-" placeholder instead.
func packetLine(packet *api.Packet) string {
	timestamp := "-"
	if !packet.Timestamp.IsZero() {
		timestamp = packet.Timestamp.UTC().Format(timestampLayout)
	}
	return fmt.Sprintf("%s\t%x", timestamp, md5.Sum(packet.Data))
}
