package tracing

import (
	"bytes"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Sink", func() {
	var (
		mockCtrl *gomock.Controller
		first    *MockListener
		second   *MockListener
		sink     *Sink
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		first = NewMockListener(mockCtrl)
		second = NewMockListener(mockCtrl)
		sink = NewSink(LevelInfo)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should not deliver without listeners", func() {
		Expect(sink.Enabled(LevelInfo)).To(BeFalse())
		Expect(sink.Emit(Record{Level: LevelInfo})).To(Succeed())
	})

	It("should deliver to listeners in registration order", func() {
		rec := Record{Time: 1, Level: LevelInfo, Component: "MM1", Label: "x"}
		sink.AddListener(first)
		sink.AddListener(second)

		gomock.InOrder(
			first.EXPECT().Print(rec).Return(nil),
			second.EXPECT().Print(rec).Return(nil),
		)

		Expect(sink.Emit(rec)).To(Succeed())
		Expect(sink.NumListeners()).To(Equal(2))
	})

	It("should filter by level", func() {
		sink.AddListener(first)

		first.EXPECT().Print(gomock.Any()).Times(2).Return(nil)

		Expect(sink.Emit(Record{Level: LevelError})).To(Succeed())
		Expect(sink.Emit(Record{Level: LevelInfo})).To(Succeed())
		Expect(sink.Emit(Record{Level: LevelDebug})).To(Succeed())
		Expect(sink.Emit(Record{Level: LevelOff})).To(Succeed())
	})

	It("should filter against an explicit level", func() {
		sink.AddListener(first)

		first.EXPECT().Print(Record{Level: LevelTrace}).Return(nil)

		Expect(sink.EnabledAt(LevelTrace, LevelAll)).To(BeTrue())
		Expect(sink.EnabledAt(LevelInfo, LevelOff)).To(BeFalse())
		Expect(sink.EmitAt(Record{Level: LevelTrace}, LevelAll)).To(Succeed())
		Expect(sink.EmitAt(Record{Level: LevelError}, LevelOff)).To(Succeed())
	})

	It("should deliver everything at level all", func() {
		sink.SetLevel(LevelAll)
		sink.AddListener(first)

		first.EXPECT().Print(gomock.Any()).Return(nil)

		Expect(sink.Emit(Record{Level: LevelTrace})).To(Succeed())
		Expect(sink.Level()).To(Equal(LevelAll))
	})

	It("should stop delivery at a failing listener", func() {
		boom := errors.New("boom")
		sink.AddListener(first)
		sink.AddListener(second)

		first.EXPECT().Print(gomock.Any()).Return(boom)

		err := sink.Emit(Record{Level: LevelInfo})

		Expect(errors.Is(err, ErrTraceListener)).To(BeTrue())
		Expect(errors.Is(err, boom)).To(BeTrue())
	})
})

var _ = Describe("Level", func() {
	It("should parse names in any case", func() {
		l, err := ParseLevel("all")
		Expect(err).NotTo(HaveOccurred())
		Expect(l).To(Equal(LevelAll))

		l, err = ParseLevel("Debug")
		Expect(err).NotTo(HaveOccurred())
		Expect(l).To(Equal(LevelDebug))

		_, err = ParseLevel("verbose")
		Expect(err).To(HaveOccurred())
	})

	It("should print names", func() {
		Expect(LevelWarn.String()).To(Equal("WARN"))
		Expect(Level(99).String()).To(Equal("Level(99)"))
	})
})

var _ = Describe("Record", func() {
	It("should format in one line", func() {
		r := Record{
			Time:      1.5,
			Level:     LevelInfo,
			Component: "MM1.Server",
			Label:     "procStarted",
			Values:    []any{3, "a"},
		}

		Expect(r.String()).To(Equal("1.500000\tINFO\tMM1.Server\tprocStarted\t3 a"))
	})

	It("should omit empty values", func() {
		r := Record{Level: LevelInfo, Component: "MM1", Label: "start"}
		Expect(r.String()).To(Equal("0.000000\tINFO\tMM1\tstart"))
	})
})

var _ = Describe("WriterListener", func() {
	It("should write one line per record", func() {
		var buf bytes.Buffer
		l := WriterListener(&buf)

		Expect(l.Print(Record{Time: 2, Level: LevelInfo, Component: "A", Label: "b"})).
			To(Succeed())

		Expect(buf.String()).To(Equal("2.000000\tINFO\tA\tb\n"))
	})
})

var _ = Describe("ListenerFunc", func() {
	It("should call the function", func() {
		var got Record
		l := ListenerFunc(func(r Record) error {
			got = r
			return nil
		})

		Expect(l.Print(Record{Label: "x"})).To(Succeed())
		Expect(got.Label).To(Equal("x"))
	})
})
