// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

// Provides the "pcapsift info" command, summarizing the sections, capture
// interfaces, and decode statistics of a pcapng capture stream as a YAML
// document.

package command

import (
	"io"
	"os"

	"github.com/siemens/pcapsift"
	"github.com/siemens/pcapsift/api"
	"github.com/siemens/pcapsift/cli"
	"github.com/siemens/pcapsift/pcapng"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/thediveo/go-plugger/v3"
	"gopkg.in/yaml.v3"
)

// captureSummary is the YAML document structure emitted by the "info"
// command.
type captureSummary struct {
	Sections   []api.SectionInfo          `yaml:"sections"`
	Targets    []*pcapng.CaptureTargetInfo `yaml:"capture-targets,omitempty"`
	Interfaces api.Interfaces             `yaml:"interfaces"`
	Stats      api.Stats                  `yaml:"statistics"`
}

// infoCmd defines the "pcapsift info" command.
var infoCmd = &cobra.Command{
	Use:   "info [flags] [FILE]",
	Short: "Summarize a pcapng capture's sections, interfaces, and statistics",
	Args:  cobra.MaximumNArgs(1),
	RunE:  info,
}

func init() {
	plugger.Group[cli.SetupCLI]().Register(InfoSetupCLI, plugger.WithPlugin("info"))
	plugger.Group[cli.CommandExamples]().Register(
		func() map[string]string {
			return map[string]string{
				"info": `# Summarize a capture file as YAML.
pcapsift info mycapture.pcapng`,
			}
		},
		plugger.WithPlugin("info"))
}

// InfoSetupCLI adds the “info” command.
func InfoSetupCLI(cmd *cobra.Command) {
	cmd.AddCommand(infoCmd)
}

// info drains the capture stream and then renders the gathered metadata as a
// single YAML document.
func info(cmd *cobra.Command, args []string) error {
	src, err := OpenSource(args)
	if err != nil {
		return err
	}
	defer src.Close()
	capture := pcapsift.NewCapture(src, nil)
	for {
		if _, err := capture.Next(); err != nil {
			if err == io.EOF {
				break
			}
			if pcapng.IsFatal(err) {
				log.Warnf("capture stream broken: %s", err.Error())
				break
			}
		}
	}
	summary := captureSummary{
		Sections:   capture.Sections(),
		Interfaces: capture.Interfaces(),
		Stats:      capture.Stats(),
	}
	// Some capture services leave a calling card about the capture target in
	// the section header comments; surface those, too.
	for _, section := range summary.Sections {
		if ti := pcapng.TargetInfo(section.Comment); ti != nil {
			summary.Targets = append(summary.Targets, ti)
		}
	}
	out, err := yaml.Marshal(summary)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}
