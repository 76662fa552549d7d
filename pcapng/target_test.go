// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package pcapng

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("capture target information", func() {

	It("Recovers target information from a section comment", func() {
		comment := "some operator remark\n" +
			"---\n# capture target information\n" +
			"container-name: \"fools-mikroserviz\"\n" +
			"container-type: \"docker\"\n" +
			"node-name: \"edge-42\"\n" +
			"capture-filter: \"port 443\"\n"
		ti := TargetInfo(comment)
		Expect(ti).ShouldNot(BeNil())
		Expect(ti.ContainerName).Should(Equal("fools-mikroserviz"))
		Expect(ti.ContainerType).Should(Equal("docker"))
		Expect(ti.NodeName).Should(Equal("edge-42"))
		Expect(ti.CaptureFilter).Should(Equal("port 443"))
	})

	It("Stops at the next document marker", func() {
		comment := "---\n# capture target information\n" +
			"container-name: \"abc\"\n" +
			"---\nnot: target info\n"
		ti := TargetInfo(comment)
		Expect(ti).ShouldNot(BeNil())
		Expect(ti.ContainerName).Should(Equal("abc"))
	})

	It("Returns nothing for unmarked comments", func() {
		Expect(TargetInfo("just a comment")).Should(BeNil())
		Expect(TargetInfo("")).Should(BeNil())
	})

})
