// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

// Some capture services annotate the section header comment of their pcapng
// streams with a YAML document describing the capture target (the container,
// pod, et cetera the packets were taken from). This recovers that document
// from a section comment, if present.

package pcapng

import (
	"regexp"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	// targetmarker describes the "magic" signature of a capture target YAML
	// document.
	targetmarker = "---\n# capture target information\n"
)

var (
	// markerstart matches the first capture target YAML document.
	markerstart = regexp.MustCompile(`(?s)(^|\n)` + targetmarker)
	// markerend matches an optional YAML end/next document marker. Yes, we know
	// that is not fully correct, but must suffice for now.
	markerend = regexp.MustCompile(`(?s)\n---($|\n)`)
)

// CaptureTargetInfo describes the capture target a capture service annotated
// its packet capture stream with.
type CaptureTargetInfo struct {
	ContainerName string `yaml:"container-name"`
	ContainerType string `yaml:"container-type"`
	NodeName      string `yaml:"node-name"`
	Cluster       *struct {
		UID string `yaml:"uid,omitempty"`
	} `yaml:"cluster,omitempty"`
	CaptureFilter string `yaml:"capture-filter,omitempty"`
	NoProm        bool   `yaml:"no-promiscuous-mode,omitempty"`
}

// TargetInfo extracts the capture target information document from a section
// header comment, returning nil when the comment carries no such document or
// the document doesn't unmarshal.
func TargetInfo(comment string) *CaptureTargetInfo {
	start := markerstart.FindStringIndex(comment)
	if len(start) != 2 {
		return nil
	}
	doc := comment[start[1]:]
	if end := markerend.FindStringIndex(doc); len(end) == 2 {
		doc = doc[:end[0]]
	}
	ti := &CaptureTargetInfo{}
	if err := yaml.Unmarshal([]byte(doc), ti); err != nil {
		log.Debugf("undecodable capture target information: %s", err.Error())
		return nil
	}
	return ti
}
