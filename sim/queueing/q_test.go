package queueing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/desim/sim/hooking"
	"github.com/sarchlab/desim/sim/process"
	"github.com/sarchlab/desim/sim/timing"
)

type delivery struct {
	taker string
	item  int
	at    timing.VTimeInSec
}

var _ = Describe("Q", func() {
	var (
		sched  *timing.SerialEngine
		engine *process.Engine
	)

	BeforeEach(func() {
		sched = timing.NewSerialEngine()
		engine = process.NewEngine(sched)
		sched.RegisterSimulationEndHandler(engine)
	})

	It("should store and release items without blocking", func() {
		q := NewQ[int]("Q")

		Expect(q.Name()).To(Equal("Q"))
		Expect(q.Capacity()).To(Equal(0))
		Expect(q.TryPut(1)).To(BeTrue())
		Expect(q.TryPut(2)).To(BeTrue())
		Expect(q.NumItems()).To(Equal(2))

		item, ok := q.TryTake()
		Expect(ok).To(BeTrue())
		Expect(item).To(Equal(1))

		item, ok = q.TryTake()
		Expect(ok).To(BeTrue())
		Expect(item).To(Equal(2))

		_, ok = q.TryTake()
		Expect(ok).To(BeFalse())
	})

	It("should refuse to overfill a bounded queue", func() {
		q := NewBoundedQ[string]("Q", 1)

		Expect(q.TryPut("a")).To(BeTrue())
		Expect(q.TryPut("b")).To(BeFalse())
		Expect(q.NumItems()).To(Equal(1))
		Expect(q.Capacity()).To(Equal(1))
	})

	It("should panic on a non-positive capacity", func() {
		Expect(func() { NewBoundedQ[int]("Q", 0) }).To(Panic())
		Expect(func() { NewBoundedQ[int]("Q", -1) }).To(Panic())
	})

	It("should deliver every item exactly once in FIFO order", func() {
		q := NewQ[int]("Q")
		var got []delivery

		engine.Spawn("producer", timing.PrioNormal,
			func(p *process.Process) error {
				for i := 0; i < 6; i++ {
					p.WaitFor(1)
					q.Put(p, i)
				}

				return nil
			})

		for _, name := range []string{"c1", "c2"} {
			name := name
			engine.Spawn(name, timing.PrioNormal,
				func(p *process.Process) error {
					for {
						item := q.Take(p)
						got = append(got, delivery{name, item, p.Now()})
						p.WaitFor(1.5)
					}
				})
		}

		Expect(sched.Run()).To(Succeed())

		items := make([]int, 0, len(got))
		for _, d := range got {
			items = append(items, d.item)
		}

		Expect(items).To(Equal([]int{0, 1, 2, 3, 4, 5}))
		Expect(got[0]).To(Equal(delivery{"c1", 0, 1}))
		Expect(got[1]).To(Equal(delivery{"c2", 1, 2}))
		Expect(q.NumItems()).To(Equal(0))
	})

	It("should serve waiting takers in arrival order", func() {
		q := NewQ[int]("Q")
		var order []string

		for _, name := range []string{"first", "second", "third"} {
			name := name
			engine.Spawn(name, timing.PrioNormal,
				func(p *process.Process) error {
					q.Take(p)
					order = append(order, name)

					return nil
				})
		}

		_, _ = sched.ScheduleAt(1, timing.PrioNormal, "feeder", func() {
			Expect(q.NumWaitingTakers()).To(Equal(3))
			for i := 0; i < 3; i++ {
				Expect(q.TryPut(i)).To(BeTrue())
			}
			Expect(q.NumItems()).To(Equal(0))
		})

		Expect(sched.Run()).To(Succeed())
		Expect(order).To(Equal([]string{"first", "second", "third"}))
	})

	It("should block putters on a full queue", func() {
		q := NewBoundedQ[int]("Q", 2)
		var putDone []timing.VTimeInSec

		engine.Spawn("producer", timing.PrioNormal,
			func(p *process.Process) error {
				for i := 0; i < 4; i++ {
					q.Put(p, i)
					putDone = append(putDone, p.Now())
				}

				return nil
			})

		var taken []int
		engine.Spawn("consumer", timing.PrioLow,
			func(p *process.Process) error {
				p.WaitFor(5)
				Expect(q.NumWaitingPutters()).To(Equal(1))

				for i := 0; i < 4; i++ {
					taken = append(taken, q.Take(p))
					p.WaitFor(1)
				}

				return nil
			})

		Expect(sched.Run()).To(Succeed())

		Expect(taken).To(Equal([]int{0, 1, 2, 3}))
		Expect(putDone).To(Equal([]timing.VTimeInSec{0, 0, 5, 6}))
	})

	It("should skip takers that have terminated", func() {
		q := NewQ[int]("Q")
		var received []int

		victim := engine.Spawn("victim", timing.PrioNormal,
			func(p *process.Process) error {
				received = append(received, q.Take(p))
				return nil
			})

		engine.Spawn("survivor", timing.PrioNormal,
			func(p *process.Process) error {
				received = append(received, q.Take(p)*10)
				return nil
			})

		_, _ = sched.ScheduleAt(1, timing.PrioNormal, "killer", func() {
			victim.Kill()
			Expect(q.NumWaitingTakers()).To(Equal(1))
			Expect(q.TryPut(7)).To(BeTrue())
		})

		Expect(sched.Run()).To(Succeed())
		Expect(received).To(Equal([]int{70}))
		Expect(q.NumItems()).To(Equal(0))
	})

	It("should pass an item on when its taker is killed before receiving it", func() {
		q := NewQ[int]("Q")
		var received []int

		victim := engine.Spawn("victim", timing.PrioNormal,
			func(p *process.Process) error {
				received = append(received, q.Take(p))
				return nil
			})

		engine.Spawn("survivor", timing.PrioNormal,
			func(p *process.Process) error {
				received = append(received, q.Take(p)*10)
				return nil
			})

		_, _ = sched.ScheduleAt(1, timing.PrioNormal, "killer", func() {
			Expect(q.TryPut(7)).To(BeTrue())
			Expect(q.NumWaitingTakers()).To(Equal(1))
			victim.Kill()
		})

		Expect(sched.Run()).To(Succeed())
		Expect(received).To(Equal([]int{70}))
		Expect(q.NumItems()).To(Equal(0))
		Expect(q.NumWaitingTakers()).To(Equal(0))
	})

	It("should put an item back at the head when no taker is left", func() {
		q := NewQ[int]("Q")

		victim := engine.Spawn("victim", timing.PrioNormal,
			func(p *process.Process) error {
				q.Take(p)
				return nil
			})

		_, _ = sched.ScheduleAt(1, timing.PrioNormal, "killer", func() {
			Expect(q.TryPut(7)).To(BeTrue())
			Expect(q.TryPut(8)).To(BeTrue())
			victim.Kill()
		})

		Expect(sched.Run()).To(Succeed())
		Expect(q.NumItems()).To(Equal(2))

		first, _ := q.TryTake()
		second, _ := q.TryTake()
		Expect([]int{first, second}).To(Equal([]int{7, 8}))
	})

	It("should invoke hooks on put and take", func() {
		q := NewQ[int]("Q")
		var positions []string

		q.AcceptHook(hooking.HookFunc(func(ctx hooking.HookCtx) {
			Expect(ctx.Domain).To(BeIdenticalTo(q))
			positions = append(positions, ctx.Pos.Name)
		}))

		q.TryPut(1)
		q.TryTake()

		Expect(positions).To(Equal([]string{"Q Put", "Q Take"}))
	})
})
