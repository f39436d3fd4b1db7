package bus_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/busharness/bus"
)

var _ = Describe("Sequences", func() {
	drain := func(s bus.Sequence) []bus.Request {
		var reqs []bus.Request
		for {
			r, ok := s.Next()
			if !ok {
				return reqs
			}
			reqs = append(reqs, r)
		}
	}

	It("should replay a slice", func() {
		s := bus.NewSliceSequence(
			bus.RequestBuilder{}.WithAddress(1).Build(),
			bus.RequestBuilder{}.WithAddress(2).Build(),
		)

		Expect(s.Remaining()).To(Equal(2))
		reqs := drain(s)
		Expect(reqs).To(HaveLen(2))
		Expect(reqs[1].Address).To(Equal(uint64(2)))
		Expect(s.Remaining()).To(Equal(0))
	})

	It("should tag round robin", func() {
		inner := bus.NewSliceSequence(make([]bus.Request, 12)...)
		s := bus.NewRoundRobinTagger(inner, 10)

		reqs := drain(s)

		Expect(reqs).To(HaveLen(12))
		for i, r := range reqs {
			Expect(r.Tag).To(Equal(bus.Tag(i % 10)))
		}
	})

	It("should reproduce the register test program", func() {
		reqs := drain(bus.NewProgramSequence(10))

		Expect(reqs).To(HaveLen(40))
		Expect(reqs[0].Op).To(Equal(bus.OpWrite))
		Expect(reqs[0].Address).To(Equal(bus.RAMBase))
		Expect(reqs[0].WriteData).To(Equal(uint64(0x80000000)))
		Expect(reqs[3].Address).To(Equal(bus.PIOBase + 4))
		Expect(reqs[3].WriteData).To(Equal(uint64(0xdead8001)))
		Expect(reqs[20].Op).To(Equal(bus.OpRead))
		Expect(reqs[20].Address).To(Equal(bus.RAMBase))
		Expect(reqs[39].WriteData).To(Equal(uint64(0xbeef8009)))
	})

	It("should give every request a distinct ID", func() {
		reqs := drain(bus.NewProgramSequence(2))
		ids := map[string]bool{}
		for _, r := range reqs {
			ids[r.ID] = true
		}
		Expect(ids).To(HaveLen(len(reqs)))
	})
})
