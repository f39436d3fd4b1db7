package harness_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/busharness/bus"
	"github.com/sarchlab/busharness/datarecording"
	"github.com/sarchlab/busharness/dut/memdut"
	"github.com/sarchlab/busharness/harness"
	"github.com/sarchlab/busharness/signal"
	"github.com/sarchlab/busharness/sim"
)

// probeDUT calls onEvaluate with the wires the design is about to see.
type probeDUT struct {
	*memdut.Comp
	onEvaluate func()
}

func (p *probeDUT) Evaluate() {
	if p.onEvaluate != nil {
		p.onEvaluate()
	}

	p.Comp.Evaluate()
}

var _ = Describe("Harness", func() {
	var (
		logDir string
		config harness.Config
		model  *probeDUT
	)

	build := func(args ...string) *harness.Harness {
		h, err := harness.MakeBuilder().
			WithConfig(config).
			WithDUT(model).
			WithArgs(args).
			Build()
		Expect(err).NotTo(HaveOccurred())

		return h
	}

	BeforeEach(func() {
		logDir = filepath.Join(GinkgoT().TempDir(), "logs")
		config = harness.DefaultConfig().WithLogDir(logDir)
		model = &probeDUT{Comp: memdut.New()}
	})

	It("should refuse an invalid configuration", func() {
		config.ReleaseTime = 0

		_, err := harness.MakeBuilder().
			WithConfig(config).
			WithDUT(model).
			Build()

		Expect(err).To(MatchError(harness.ErrInvalidConfig))
	})

	It("should run the program to completion", func() {
		h := build()

		res, err := h.Run()

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Outcome).To(Equal(harness.OutcomeFinished))
		Expect(res.ExitCode(false)).To(Equal(harness.ExitFinished))
		Expect(res.Completed).To(HaveLen(memdut.DefaultFinishAfter))
		Expect(model.FinalizeCount()).To(Equal(1))
		Expect(model.Peek(bus.RAMBase + 36)).To(Equal(uint64(0x80000009)))
		Expect(model.Peek(bus.PIOBase)).To(Equal(uint64(0xbeef8009)))

		for _, txn := range res.Completed {
			Expect(txn.Response.Tag).To(Equal(txn.Request.Tag))
			Expect(txn.CompletedAt).To(BeNumerically(">=", txn.IssuedAt))

			if txn.Request.Op == bus.OpRead {
				Expect(txn.Response.ReadData).To(
					Equal(0x80000000 + (txn.Request.Address-bus.RAMBase)/4))
			}
		}
	})

	It("should only run once", func() {
		h := build()

		_, err := h.Run()
		Expect(err).NotTo(HaveOccurred())

		Expect(func() { _, _ = h.Run() }).To(Panic())
	})

	It("should hold reset-scoped wires quiescent until release", func() {
		config.Deadline = 300
		h := build("+finish_after=0")

		var violations []string
		var rstN []uint64
		model.onEvaluate = func() {
			now := h.Clock().Now()
			wires := h.Wires()
			rstN = append(rstN, wires.Value(harness.PortResetN))

			for _, w := range wires.ResetScoped() {
				writer := wires.WriterOf(w.Name)
				switch {
				case now < 100 && writer != signal.WriterReset:
					violations = append(violations, w.Name+" not forced")
				case now < 100 && w.Value() != w.Quiescent:
					violations = append(violations, w.Name+" not quiescent")
				case now >= 100 && writer == signal.WriterReset:
					violations = append(violations, w.Name+" forced late")
				}
			}
		}

		res, err := h.Run()

		Expect(err).NotTo(HaveOccurred())
		Expect(violations).To(BeEmpty())
		Expect(rstN).To(HaveLen(301))
		Expect(rstN[:100]).To(HaveEach(BeZero()))
		Expect(rstN[100:]).To(HaveEach(Equal(uint64(1))))
		Expect(h.ResetSequencer().ReleasedAt()).To(Equal(harnessTime(100)))
		Expect(res.Outcome).To(Equal(harness.OutcomeTimeout))
	})

	It("should hold a request under backpressure", func() {
		h := build("+stall=5")

		var held []bus.Request
		var occupancy []int
		model.onEvaluate = func() {
			occupancy = append(occupancy, h.Correlator().Table().Len())
			if req, ok := h.Driver().Pending(); ok && h.Driver().Asserted() &&
				req.Tag == 0 && len(h.Correlator().Completed()) == 0 {
				held = append(held, req)
			}
		}

		res, err := h.Run()

		Expect(err).NotTo(HaveOccurred())
		Expect(held).To(HaveLen(6))
		Expect(held).To(HaveEach(Equal(held[0])))
		Expect(res.Driver.BackpressureStalls).To(Equal(uint64(5)))
		Expect(res.StalledRequests).To(HaveKeyWithValue("backpressure", uint64(1)))
		Expect(res.MaxRequestTime).To(Equal(harnessTime(6)))
		Expect(res.BusyTime).To(BeNumerically(">=", 6))
		Expect(res.Completed[0].Request.Tag).To(Equal(bus.Tag(0)))
		Expect(res.Completed[0].IssuedAt).To(Equal(harnessTime(105)))
		Expect(occupancy[100:106]).To(HaveEach(BeNumerically("<=", 1)))
		Expect(occupancy).To(HaveEach(BeNumerically("<=", config.TagDepth)))
		Expect(res.Outcome).To(Equal(harness.OutcomeFinished))
	})

	It("should refuse a tag outside the tag space", func() {
		config.TagDepth = 2
		req := bus.RequestBuilder{}.WithAddress(bus.RAMBase).WithTag(3).AsRead().Build()

		h, err := harness.MakeBuilder().
			WithConfig(config).
			WithDUT(model).
			WithSequence(bus.NewSliceSequence(req)).
			Build()
		Expect(err).NotTo(HaveOccurred())

		res, err := h.Run()

		Expect(errors.Is(err, bus.ErrTagOutOfRange)).To(BeTrue())
		Expect(errors.Is(err, bus.ErrProtocolViolation)).To(BeFalse())
		Expect(res.Outcome).To(Equal(harness.OutcomeAborted))
		Expect(res.EndTime).To(Equal(harnessTime(100)))
		Expect(res.Completed).To(BeEmpty())
		Expect(h.Correlator().Table().Len()).To(BeZero())
		Expect(model.FinalizeCount()).To(Equal(1))
	})

	It("should fail the run when coverage cannot be written", func() {
		blocker := filepath.Join(GinkgoT().TempDir(), "blocker")
		Expect(os.WriteFile(blocker, nil, 0o644)).To(Succeed())
		config = config.WithLogDir(filepath.Join(blocker, "logs"))
		config.CoverageEnabled = true
		h := build()

		res, err := h.Run()

		Expect(err).To(HaveOccurred())
		Expect(res.Err).To(Equal(err))
		Expect(res.Outcome).To(Equal(harness.OutcomeAborted))
		Expect(h.Outcome()).To(Equal(harness.OutcomeAborted))
		Expect(res.ExitCode(true)).To(Equal(harness.ExitFatal))
		Expect(model.FinalizeCount()).To(Equal(1))
	})

	It("should complete out of order", func() {
		config.TagDepth = 4
		h := build("+ooo", "+latency=3")

		res, err := h.Run()

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Outcome).To(Equal(harness.OutcomeFinished))
		Expect(res.Completed[0].Request.Tag).To(Equal(bus.Tag(1)))
		Expect(h.Correlator().MaxOccupancy()).To(BeNumerically("<=", 4))
	})

	It("should abort on a response with an unknown tag", func() {
		h := build("+trace", "+bogus_tag=7")

		res, err := h.Run()

		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, bus.ErrProtocolViolation)).To(BeTrue())

		var violation *bus.ProtocolViolationError
		Expect(errors.As(err, &violation)).To(BeTrue())
		Expect(violation.Tag).To(Equal(bus.Tag(7)))
		Expect(violation.Time).To(Equal(harnessTime(100)))

		Expect(res.Outcome).To(Equal(harness.OutcomeAborted))
		Expect(res.EndTime).To(Equal(harnessTime(100)))
		Expect(res.Steps).To(Equal(uint64(101)))
		Expect(res.ExitCode(true)).To(Equal(harness.ExitFatal))
		Expect(model.FinalizeCount()).To(Equal(1))

		wave, readErr := os.ReadFile(filepath.Join(logDir, "wave.vcd"))
		Expect(readErr).NotTo(HaveOccurred())
		Expect(string(wave)).To(ContainSubstring("#100\n"))
		Expect(string(wave)).NotTo(ContainSubstring("#101\n"))
	})

	Context("waveform capture", func() {
		It("should write a waveform with +trace", func() {
			config.Deadline = 200
			h := build("+trace", "+finish_after=0")

			_, err := h.Run()

			Expect(err).NotTo(HaveOccurred())
			wave, err := os.ReadFile(filepath.Join(logDir, "wave.vcd"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(wave)).To(ContainSubstring("$var wire 1 ! clk $end"))
			Expect(string(wave)).To(ContainSubstring("state"))
			Expect(string(wave)).To(ContainSubstring("#198\n"))
		})

		DescribeTable("no waveform without the exact flag",
			func(args ...string) {
				config.Deadline = 200
				h := build(append(args, "+finish_after=0")...)

				_, err := h.Run()

				Expect(err).NotTo(HaveOccurred())
				Expect(filepath.Join(logDir, "wave.vcd")).NotTo(BeAnExistingFile())
				Expect(h.Waveform().IsOpen()).To(BeFalse())
			},
			Entry("no arguments"),
			Entry("flag with a value", "+trace=1"),
			Entry("longer flag", "+traces"),
			Entry("flag without plus", "trace"),
		)
	})

	It("should write coverage when enabled", func() {
		config.CoverageEnabled = true
		h := build()

		_, err := h.Run()

		Expect(err).NotTo(HaveOccurred())
		content, err := os.ReadFile(filepath.Join(logDir, "coverage.dat"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(content)).To(ContainSubstring("C 'memdut.ram.write' 10"))
	})

	It("should record transactions and request tasks", func() {
		path := filepath.Join(GinkgoT().TempDir(), "run")
		recorder := datarecording.New(path)

		h, err := harness.MakeBuilder().
			WithConfig(config).
			WithDUT(model).
			WithRecorder(recorder).
			WithRunID("run-7").
			Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(h.RunID()).To(Equal("run-7"))

		_, err = h.Run()
		Expect(err).NotTo(HaveOccurred())

		reader, err := datarecording.NewReader(path + ".sqlite3")
		Expect(err).NotTo(HaveOccurred())
		defer reader.Close()

		reader.MapTable(harness.TransactionTableName, harness.TransactionEntry{})
		_, total, err := reader.Query(context.Background(),
			harness.TransactionTableName, datarecording.QueryParams{})
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(memdut.DefaultFinishAfter))

		reader.MapTable(datarecording.RunInfoTableName, datarecording.RunInfo{})
		rows, _, err := reader.Query(context.Background(),
			datarecording.RunInfoTableName, datarecording.QueryParams{
				Where: "Property = ?",
				Args:  []any{"Outcome"},
			})
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(HaveLen(1))
		Expect(rows[0].(*datarecording.RunInfo).Value).To(Equal("finished"))
		Expect(rows[0].(*datarecording.RunInfo).RunID).To(Equal("run-7"))
	})

	It("should pause and continue between steps", func() {
		h := build()

		h.Pause()
		Expect(h.Snapshot().Paused).To(BeTrue())

		done := make(chan harness.Result)
		go func() {
			defer GinkgoRecover()
			res, _ := h.Run()
			done <- res
		}()

		Consistently(done).ShouldNot(Receive())

		h.Continue()

		var res harness.Result
		Eventually(done).Should(Receive(&res))
		Expect(res.Outcome).To(Equal(harness.OutcomeFinished))
		Expect(h.Snapshot().Steps).To(Equal(res.Steps))
	})
})

var _ = Describe("Harness with a silent design", func() {
	var (
		mockCtrl *gomock.Controller
		model    *MockDUT
		config   harness.Config
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		model = NewMockDUT(mockCtrl)
		config = harness.DefaultConfig().
			WithLogDir(filepath.Join(GinkgoT().TempDir(), "logs"))
		config.Deadline = 200
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should time out at the deadline", func() {
		model.EXPECT().WritePort(gomock.Any(), gomock.Any()).AnyTimes()
		model.EXPECT().ReadPort(gomock.Any()).Return(uint64(0)).AnyTimes()
		model.EXPECT().Evaluate().Times(201)
		model.EXPECT().Finished().Return(false).Times(201)
		model.EXPECT().Finalize().Times(1)

		h, err := harness.MakeBuilder().
			WithConfig(config).
			WithDUT(model).
			Build()
		Expect(err).NotTo(HaveOccurred())

		res, err := h.Run()

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Outcome).To(Equal(harness.OutcomeTimeout))
		Expect(res.EndTime).To(Equal(harnessTime(200)))
		Expect(res.Steps).To(Equal(uint64(201)))
		Expect(res.ExitCode(false)).To(Equal(harness.ExitTimeout))
		Expect(res.ExitCode(true)).To(Equal(harness.ExitFinished))
		Expect(res.Driver.BackpressureStalls).To(Equal(uint64(101)))

		pending, ok := h.Driver().Pending()
		Expect(ok).To(BeTrue())
		Expect(pending.Tag).To(Equal(bus.Tag(0)))
		Expect(h.Correlator().Table().Len()).To(BeZero())
	})

	It("should write inputs before evaluating and read outputs after", func() {
		config.Deadline = 101

		var evaluated bool
		model.EXPECT().WritePort(gomock.Any(), gomock.Any()).
			Do(func(string, uint64) {
				Expect(evaluated).To(BeFalse())
			}).AnyTimes()
		model.EXPECT().Evaluate().Do(func() { evaluated = true }).AnyTimes()
		model.EXPECT().ReadPort(gomock.Any()).
			DoAndReturn(func(string) uint64 {
				Expect(evaluated).To(BeTrue())
				return 0
			}).AnyTimes()
		model.EXPECT().Finished().
			DoAndReturn(func() bool {
				evaluated = false
				return false
			}).AnyTimes()
		model.EXPECT().Finalize()

		h, err := harness.MakeBuilder().
			WithConfig(config).
			WithDUT(model).
			Build()
		Expect(err).NotTo(HaveOccurred())

		res, err := h.Run()

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Steps).To(Equal(uint64(102)))
	})

	It("should stop at time zero when the design finishes immediately", func() {
		model.EXPECT().WritePort(gomock.Any(), gomock.Any()).AnyTimes()
		model.EXPECT().ReadPort(gomock.Any()).Return(uint64(0)).AnyTimes()
		model.EXPECT().Evaluate().Times(1)
		model.EXPECT().Finished().Return(true)
		model.EXPECT().Finalize()

		h, err := harness.MakeBuilder().
			WithConfig(config).
			WithDUT(model).
			Build()
		Expect(err).NotTo(HaveOccurred())

		res, err := h.Run()

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Outcome).To(Equal(harness.OutcomeFinished))
		Expect(res.EndTime).To(Equal(sim.VTime(0)))
	})
})
