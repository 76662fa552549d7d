// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package command

import (
	"fmt"
	"strings"

	"github.com/siemens/pcapsift"
	"github.com/siemens/pcapsift/cli"
	"github.com/spf13/cobra"
	"github.com/thediveo/go-plugger/v3"
)

// Provides the “pcapsift version” command. The semantic version is the one
// defined for the main pcapsift package, so there's no separate version
// number for the pcapsift CLI command. In addition, the version command lists
// the included capture stream sources.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version (with integrated capture stream sources).",
	Run: func(cmd *cobra.Command, args []string) {
		semver := pcapsift.SemVersion
		for _, pluginsemver := range plugger.Group[cli.SemVer]().Symbols() {
			semver = pluginsemver()
			break
		}
		sources := strings.Join(plugger.Group[cli.NewSource]().Plugins(), ", ")
		if sources == "" {
			sources = "(none)"
		}
		fmt.Printf("%s version %s (capture stream sources: %s)\n",
			cmd.Parent().Name(),
			semver,
			sources)
	},
}

func init() {
	plugger.Group[cli.SetupCLI]().Register(
		VersionSetupCLI, plugger.WithPlugin("version"))
}

// VersionSetupCLI adds the “version” command.
func VersionSetupCLI(cmd *cobra.Command) {
	cmd.AddCommand(versionCmd)
}
