// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package command

import (
	"io"
	"os"

	"github.com/siemens/pcapsift/cli"
	"github.com/thediveo/go-plugger/v3"
)

// OpenSource returns the capture stream byte source to decode, by asking the
// registered source factories one after another until the first one returns
// a source or an error. When no factory feels responsible, the (optional)
// FILE argument is opened instead, with "-" (as well as no argument at all)
// meaning standard input.
func OpenSource(args []string) (io.ReadCloser, error) {
	for _, newSource := range plugger.Group[cli.NewSource]().Symbols() {
		src, err := newSource()
		if err != nil {
			return nil, err
		}
		if src != nil {
			return src, nil
		}
	}
	if len(args) == 0 || args[0] == "-" {
		// Don't let a consumer close standard input behind our back.
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(args[0])
}
