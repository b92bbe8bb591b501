package timing

import (
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/desim/sim/hooking"
	"go.uber.org/mock/gomock"
)

type endRecorder struct {
	calledAt []VTimeInSec
}

func (r *endRecorder) Handle(now VTimeInSec) {
	r.calledAt = append(r.calledAt, now)
}

var _ = Describe("SerialEngine", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *SerialEngine
		order    []string
	)

	record := func(label string) func() {
		return func() { order = append(order, label) }
	}

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = NewSerialEngine()
		order = nil
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should dispatch events in time order", func() {
		_, err := engine.ScheduleAt(4, PrioNormal, "a", record("evt1"))
		Expect(err).NotTo(HaveOccurred())
		_, err = engine.ScheduleAt(2, PrioNormal, "b", func() {
			order = append(order, "evt2")
			_, _ = engine.ScheduleIn(1, PrioNormal, "a", record("evt3"))
			_, _ = engine.ScheduleIn(3, PrioNormal, "a", record("evt4"))
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(engine.Run()).To(Succeed())

		Expect(order).To(Equal([]string{"evt2", "evt3", "evt1", "evt4"}))
		Expect(engine.CurrentTime()).To(Equal(VTimeInSec(5)))
		Expect(engine.EventCount()).To(Equal(uint64(4)))
	})

	It("should dispatch urgent events first and keep FIFO among equals", func() {
		_, _ = engine.ScheduleAt(1, PrioNormal, "x", record("normal1"))
		_, _ = engine.ScheduleAt(1, PrioLow, "x", record("low"))
		_, _ = engine.ScheduleAt(1, PrioNormal, "x", record("normal2"))
		_, _ = engine.ScheduleAt(1, PrioHigh, "x", record("high"))

		Expect(engine.Run()).To(Succeed())

		Expect(order).To(Equal([]string{"high", "normal1", "normal2", "low"}))
	})

	It("should order zero-delay events after already queued same-time events", func() {
		_, _ = engine.ScheduleAt(1, PrioNormal, "x", func() {
			order = append(order, "first")
			_, err := engine.ScheduleIn(0, PrioNormal, "x", record("zero"))
			Expect(err).NotTo(HaveOccurred())
		})
		_, _ = engine.ScheduleAt(1, PrioNormal, "x", record("second"))
		_, _ = engine.ScheduleAt(2, PrioNormal, "x", record("later"))

		Expect(engine.Run()).To(Succeed())

		Expect(order).To(Equal([]string{"first", "second", "zero", "later"}))
	})

	It("should keep the time non-decreasing", func() {
		times := make([]VTimeInSec, 0)
		for i := 0; i < 100; i++ {
			t := VTimeInSec((i * 37) % 11)
			_, _ = engine.ScheduleAt(t, PrioNormal, "x", func() {
				times = append(times, engine.CurrentTime())
			})
		}

		Expect(engine.Run()).To(Succeed())

		for i := 1; i < len(times); i++ {
			Expect(times[i]).To(BeNumerically(">=", times[i-1]))
		}
	})

	It("should reject events in the past", func() {
		_, _ = engine.ScheduleAt(5, PrioNormal, "x", func() {
			_, err := engine.ScheduleAt(4, PrioNormal, "x", record("past"))
			Expect(errors.Is(err, ErrCausality)).To(BeTrue())
		})

		Expect(engine.Run()).To(Succeed())
		Expect(order).To(BeEmpty())
	})

	It("should reject negative delays", func() {
		_, err := engine.ScheduleIn(-0.5, PrioNormal, "x", record("neg"))

		Expect(err).To(MatchError(ErrCausality))
	})

	It("should return ErrEmptyQueue when stepping without events", func() {
		Expect(engine.Step()).To(MatchError(ErrEmptyQueue))
	})

	It("should expose the priority of the running event", func() {
		var seen int
		_, _ = engine.ScheduleAt(1, PrioLow, "x", func() {
			seen = engine.CurrentPriority()
		})

		Expect(engine.CurrentPriority()).To(Equal(PrioNormal))
		Expect(engine.Run()).To(Succeed())
		Expect(seen).To(Equal(PrioLow))
	})

	It("should drop remaining events on End", func() {
		handler := &endRecorder{}
		engine.RegisterSimulationEndHandler(handler)

		_, _ = engine.ScheduleAt(1, PrioNormal, "x", func() {
			order = append(order, "end")
			engine.End()
		})
		_, _ = engine.ScheduleAt(2, PrioNormal, "x", record("dropped"))

		Expect(engine.Finished()).To(BeFalse())
		Expect(engine.Run()).To(Succeed())

		Expect(order).To(Equal([]string{"end"}))
		Expect(engine.Ended()).To(BeTrue())
		Expect(engine.Finished()).To(BeTrue())
		Expect(engine.Pending()).To(Equal(0))
		Expect(handler.calledAt).To(Equal([]VTimeInSec{1}))
	})

	It("should not run twice", func() {
		Expect(engine.Run()).To(Succeed())
		Expect(engine.Run()).To(MatchError(ErrIllegalState))
	})

	It("should cancel pending events", func() {
		handle, _ := engine.ScheduleAt(1, PrioNormal, "x", record("canceled"))
		_, _ = engine.ScheduleAt(2, PrioNormal, "x", record("kept"))

		Expect(handle.Pending()).To(BeTrue())
		Expect(handle.Cancel()).To(BeTrue())
		Expect(handle.Cancel()).To(BeFalse())
		Expect(engine.Run()).To(Succeed())

		Expect(order).To(Equal([]string{"kept"}))
	})

	It("should not cancel dispatched events", func() {
		handle, _ := engine.ScheduleAt(1, PrioNormal, "x", record("done"))

		Expect(engine.Run()).To(Succeed())

		Expect(handle.Pending()).To(BeFalse())
		Expect(handle.Cancel()).To(BeFalse())
	})

	It("should record failing callbacks and keep running", func() {
		_, _ = engine.ScheduleAt(1, PrioNormal, "bad", func() {
			panic(fmt.Errorf("boom"))
		})
		_, _ = engine.ScheduleAt(2, PrioNormal, "good", record("good"))

		err := engine.Run()

		var userErr *UserCodeError
		Expect(errors.As(err, &userErr)).To(BeTrue())
		Expect(userErr.Source).To(Equal("bad"))
		Expect(userErr.Time).To(Equal(VTimeInSec(1)))
		Expect(order).To(Equal([]string{"good"}))
		Expect(engine.Errors()).To(HaveLen(1))
	})

	It("should stop at the first failure when configured to", func() {
		engine.WithAbortOnError()
		_, _ = engine.ScheduleAt(1, PrioNormal, "bad", func() { panic("boom") })
		_, _ = engine.ScheduleAt(2, PrioNormal, "good", record("good"))

		err := engine.Run()

		Expect(err).To(MatchError(ContainSubstring("panic: boom")))
		Expect(order).To(BeEmpty())
	})

	It("should stop with the abort error", func() {
		abortErr := errors.New("listener broke")
		_, _ = engine.ScheduleAt(1, PrioNormal, "x", func() {
			engine.Abort(abortErr)
		})
		_, _ = engine.ScheduleAt(2, PrioNormal, "x", record("never"))

		Expect(engine.Run()).To(MatchError(abortErr))
		Expect(order).To(BeEmpty())
	})

	It("should invoke hooks around each event", func() {
		hook := NewMockHook(mockCtrl)
		engine.AcceptHook(hook)
		_, _ = engine.ScheduleAt(1, PrioNormal, "x", record("evt"))

		before := hook.EXPECT().Func(gomock.Any()).Do(func(ctx hooking.HookCtx) {
			Expect(order).To(BeEmpty())
		})
		hook.EXPECT().Func(gomock.Any()).Do(func(ctx hooking.HookCtx) {
			Expect(order).To(Equal([]string{"evt"}))
		}).After(before)

		Expect(engine.Run()).To(Succeed())
	})
})
