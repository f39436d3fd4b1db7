package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/busharness/sim"
)

var _ = Describe("BusyTimeTracer", func() {
	var (
		mockCtrl   *gomock.Controller
		timeTeller *MockTimeTeller
		now        sim.VTime
		t          *BusyTimeTracer
	)

	at := func(time sim.VTime) {
		now = time
	}

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		timeTeller = NewMockTimeTeller(mockCtrl)
		timeTeller.EXPECT().Now().DoAndReturn(func() sim.VTime {
			return now
		}).AnyTimes()

		t = NewBusyTimeTracer(timeTeller, nil)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should count a single task", func() {
		at(10)
		t.StartTask(Task{ID: "1"})
		at(15)
		t.EndTask(Task{ID: "1"})

		Expect(t.BusyTime()).To(Equal(sim.VTime(5)))
	})

	It("should count overlapping tasks once", func() {
		at(10)
		t.StartTask(Task{ID: "1"})
		at(12)
		t.StartTask(Task{ID: "2"})
		at(15)
		t.EndTask(Task{ID: "1"})
		at(20)
		t.EndTask(Task{ID: "2"})
		at(30)
		t.StartTask(Task{ID: "3"})
		at(31)
		t.EndTask(Task{ID: "3"})

		Expect(t.BusyTime()).To(Equal(sim.VTime(11)))
	})

	It("should count an open period up to now", func() {
		at(10)
		t.StartTask(Task{ID: "1"})
		at(14)

		Expect(t.BusyTime()).To(Equal(sim.VTime(4)))
	})

	It("should skip filtered tasks", func() {
		t = NewBusyTimeTracer(timeTeller, func(task Task) bool {
			return task.Kind == "req_read"
		})

		at(10)
		t.StartTask(Task{ID: "1", Kind: "req_write"})
		at(20)
		t.EndTask(Task{ID: "1", Kind: "req_write"})

		Expect(t.BusyTime()).To(BeZero())
	})
})
