// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package pcapng

import (
	"bytes"
	"errors"
	"strings"
	"testing/iotest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("byte window", func() {

	It("Fills from producers delivering single octets", func() {
		w := newWindow(iotest.OneByteReader(strings.NewReader("abcdefgh")))
		avail, err := w.fillTo(4)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(avail).Should(BeNumerically(">=", 4))
		Expect(w.buffered()[:4]).Should(Equal([]byte("abcd")))
	})

	It("Reports short fills at the end of the stream", func() {
		w := newWindow(strings.NewReader("abc"))
		avail, err := w.fillTo(8)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(avail).Should(Equal(3))
		avail, err = w.fillTo(8)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(avail).Should(Equal(3))
	})

	It("Advances and keeps track of the stream offset", func() {
		w := newWindow(strings.NewReader("abcdefgh"))
		_, err := w.fillTo(8)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(w.offset()).Should(Equal(int64(0)))
		w.advance(4)
		Expect(w.offset()).Should(Equal(int64(4)))
		Expect(w.buffered()).Should(Equal([]byte("efgh")))
		w.advance(4)
		Expect(w.offset()).Should(Equal(int64(8)))
		Expect(w.buffered()).Should(BeEmpty())
	})

	It("Wraps producer failures as source errors", func() {
		boom := errors.New("cable chewed through")
		w := newWindow(iotest.ErrReader(boom))
		_, err := w.fillTo(1)
		var srcerr *SourceError
		Expect(errors.As(err, &srcerr)).Should(BeTrue())
		Expect(srcerr.Inner).Should(Equal(boom))
		// The failure is sticky.
		_, err = w.fillTo(1)
		Expect(errors.As(err, &srcerr)).Should(BeTrue())
	})

	It("Restarts with a different producer", func() {
		w := newWindow(strings.NewReader("old and busted"))
		_, err := w.fillTo(3)
		Expect(err).ShouldNot(HaveOccurred())
		w.advance(3)
		w.restart(bytes.NewReader([]byte("new hotness")))
		Expect(w.offset()).Should(Equal(int64(0)))
		avail, err := w.fillTo(3)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(avail).Should(BeNumerically(">=", 3))
		Expect(w.buffered()[:3]).Should(Equal([]byte("new")))
	})

})
