package dut_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/busharness/dut"
)

var _ = Describe("PlusArgs", func() {
	args := dut.PlusArgs{"run", "+trace", "+stall=5", "+base=0x80", "+bad=x"}

	It("should match by prefix", func() {
		arg, found := args.Match("tra")
		Expect(found).To(BeTrue())
		Expect(arg).To(Equal("+trace"))
	})

	It("should only report exact arguments with Has", func() {
		Expect(args.Has("+trace")).To(BeTrue())
		Expect(args.Has("+tracex")).To(BeFalse())
		Expect(dut.PlusArgs{"+traceon"}.Has("+trace")).To(BeFalse())
	})

	It("should parse numeric values", func() {
		Expect(args.Uint("stall", 0)).To(Equal(uint64(5)))
		Expect(args.Uint("base", 0)).To(Equal(uint64(0x80)))
	})

	It("should fall back on missing or malformed values", func() {
		Expect(args.Uint("latency", 3)).To(Equal(uint64(3)))
		Expect(args.Uint("bad", 7)).To(Equal(uint64(7)))
	})
})

var _ = Describe("SignalInfo", func() {
	It("should count hierarchy levels", func() {
		Expect(dut.SignalInfo{Name: "top"}.Depth()).To(Equal(1))
		Expect(dut.SignalInfo{Name: "top.mem.state"}.Depth()).To(Equal(3))
	})
})
