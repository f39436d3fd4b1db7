package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/busharness/sim"
)

type namedDomain struct {
	sim.HookableBase
	name string
}

func (d *namedDomain) Name() string {
	return d.name
}

var _ = Describe("Task API", func() {
	var (
		mockCtrl   *gomock.Controller
		timeTeller *MockTimeTeller
		domain     *namedDomain
		now        sim.VTime
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		timeTeller = NewMockTimeTeller(mockCtrl)
		timeTeller.EXPECT().Now().DoAndReturn(func() sim.VTime {
			return now
		}).AnyTimes()
		domain = &namedDomain{name: "Driver"}
		now = 0
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should not require hooks", func() {
		StartTask("1", "", domain, "req", "read", nil)
		AddTaskStep("1", domain, "stall")
		EndTask("1", domain)
	})

	It("should reject a task without kind", func() {
		tracer := NewAverageTimeTracer(timeTeller, AllTasks)
		CollectTrace(domain, tracer)

		Expect(func() {
			StartTask("1", "", domain, "", "read", nil)
		}).To(Panic())
	})

	It("should refuse to attach the same tracer twice", func() {
		tracer := NewAverageTimeTracer(timeTeller, AllTasks)
		CollectTrace(domain, tracer)

		Expect(func() { CollectTrace(domain, tracer) }).To(Panic())
	})

	It("should measure average and max task time", func() {
		tracer := NewAverageTimeTracer(timeTeller, AllTasks)
		CollectTrace(domain, tracer)

		now = 10
		StartTask("1", "", domain, "req", "read", nil)
		StartTask("2", "", domain, "req", "write", nil)
		now = 14
		EndTask("1", domain)
		now = 20
		EndTask("2", domain)

		Expect(tracer.TotalCount()).To(Equal(uint64(2)))
		Expect(tracer.AverageTime()).To(BeNumerically("~", 7.0))
		Expect(tracer.MaxTime()).To(Equal(sim.VTime(10)))
	})

	It("should ignore filtered tasks", func() {
		tracer := NewAverageTimeTracer(timeTeller, func(t Task) bool {
			return t.What == "write"
		})
		CollectTrace(domain, tracer)

		StartTask("1", "", domain, "req", "read", nil)
		EndTask("1", domain)

		Expect(tracer.TotalCount()).To(Equal(uint64(0)))
	})

	It("should count steps per name and per task", func() {
		tracer := NewStepCountTracer(AllTasks)
		CollectTrace(domain, tracer)

		StartTask("1", "", domain, "req", "read", nil)
		StartTask("2", "", domain, "req", "read", nil)
		AddTaskStep("1", domain, "backpressure")
		AddTaskStep("1", domain, "backpressure")
		AddTaskStep("2", domain, "backpressure")
		AddTaskStep("2", domain, "tag_stall")
		EndTask("1", domain)
		EndTask("2", domain)

		Expect(tracer.GetStepNames()).To(
			Equal([]string{"backpressure", "tag_stall"}))
		Expect(tracer.GetStepCount("backpressure")).To(Equal(uint64(3)))
		Expect(tracer.GetTaskCount("backpressure")).To(Equal(uint64(2)))
		Expect(tracer.GetTaskCount("tag_stall")).To(Equal(uint64(1)))
	})
})
