// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

// Provides the "pcapsift interfaces" command for listing the capture
// interfaces declared in a pcapng capture stream.

package command

import (
	"io"
	"os"

	"github.com/siemens/pcapsift"
	"github.com/siemens/pcapsift/cli"
	"github.com/siemens/pcapsift/pcapng"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/thediveo/go-plugger/v3"
	"github.com/thediveo/klo"
)

// Builtin custom-columns templates
const (
	// InterfaceListTemplate defines the custom columns when listing the
	// capture interfaces of a capture stream.
	InterfaceListTemplate = "ID:{.GlobalID},LINK:{.LinkType},SNAP:{.SnapLen},NAME:{.Name}"
	// InterfaceWideListTemplate is like InterfaceListTemplate, but
	// additionally tacks on the section, timestamp resolution, and
	// description columns.
	InterfaceWideListTemplate = "ID:{.GlobalID},LINK:{.LinkType},SNAP:{.SnapLen},NAME:{.Name},SECTION:{.SectionID},UNITS/S:{.TimestampUnitsPerSecond},DESCRIPTION:{.Description}"
)

// interfacesCmd defines the "pcapsift interfaces" command.
var interfacesCmd = &cobra.Command{
	Use:     "interfaces [flags] [FILE]",
	Aliases: []string{"ifs"},
	Short:   "List the capture interfaces declared in a pcapng capture",
	Args:    cobra.MaximumNArgs(1),
	RunE:    interfaceslist,
}

func init() {
	plugger.Group[cli.SetupCLI]().Register(InterfacesSetupCLI, plugger.WithPlugin("interfaces"))
}

// InterfacesSetupCLI adds the “interfaces” command.
func InterfacesSetupCLI(cmd *cobra.Command) {
	cmd.AddCommand(interfacesCmd)
	interfacesCmd.Flags().StringP("output", "o", "",
		"Output format. One of: json|yaml|wide|custom-columns=...|custom-columns-file=...|jsonpath=...|jsonpath-file=...")
	interfacesCmd.Flags().Bool("no-headers", false, "When using the default or custom-column output format, don't print headers (default print headers).")
	interfacesCmd.Flags().String("sort-by", "{.GlobalID}",
		"If non-empty, sort custom-columns using this field specification. The field specification is expressed as a JSONPath expression (e.g. '{.Name}').")
}

// interfaceslist drains the capture stream in order to discover all declared
// capture interfaces, then prints them using a (custom columns) template.
func interfaceslist(cmd *cobra.Command, args []string) error {
	src, err := OpenSource(args)
	if err != nil {
		return err
	}
	defer src.Close()
	capture := pcapsift.NewCapture(src, nil)
	// Interfaces may be declared anywhere inside their section, so the
	// stream has to be decoded to its end before the table is complete.
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
	prn, err := getPrinter(cmd)
	if err != nil {
		return err
	}
	// ...throwing in sorting, if not explicitly forbidden. It depends on the
	// object printer if it will honor the sorted data or will just impose its
	// own order anyway.
	if sortby, err := cmd.LocalFlags().GetString("sort-by"); err == nil && sortby != "" {
		var err error
		prn, err = klo.NewSortingPrinter(sortby, prn)
		if err != nil {
			return err
		}
	}
	prn.Fprint(os.Stdout, capture.Interfaces())
	return nil
}

// getPrinter returns a value printer configured according to the output format
// chosen by the user, and some more optional output configuration flags.
func getPrinter(cmd *cobra.Command) (prn klo.ValuePrinter, err error) {
	outfmt, err := cmd.LocalFlags().GetString("output")
	if err != nil {
		return
	}
	// Let the kubectl-like output package handle the details and give us just
	// the printer suitable for dumping the interface list onto our users.
	prn, err = klo.PrinterFromFlag(outfmt, &klo.Specs{
		DefaultColumnSpec: InterfaceListTemplate,
		WideColumnSpec:    InterfaceWideListTemplate,
	})
	if err != nil {
		return
	}
	if ccprn, ok := prn.(*klo.CustomColumnsPrinter); ok {
		ccprn.Padding = 3
		if noheaders, err := cmd.LocalFlags().GetBool("no-headers"); err == nil {
			ccprn.HideHeaders = noheaders
		}
	}
	return
}
