package tracing

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/desim/datarecording"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

var _ = Describe("LogrusListener", func() {
	It("should log at the matching level", func() {
		logger, hook := test.NewNullLogger()
		logger.SetLevel(logrus.TraceLevel)
		l := LogrusListener(logger)

		Expect(l.Print(Record{
			Time:      3,
			Level:     LevelWarn,
			Component: "MM1",
			Label:     "created job",
			Values:    []any{7},
		})).To(Succeed())

		entry := hook.LastEntry()
		Expect(entry).NotTo(BeNil())
		Expect(entry.Level).To(Equal(logrus.WarnLevel))
		Expect(entry.Message).To(Equal("created job 7"))
		Expect(entry.Data["component"]).To(Equal("MM1"))
		Expect(entry.Data["time"]).To(Equal(3.0))

		Expect(l.Print(Record{Level: LevelAll, Label: "x"})).To(Succeed())
		Expect(hook.LastEntry().Level).To(Equal(logrus.TraceLevel))
		Expect(hook.LastEntry().Data["level"]).To(Equal("ALL"))
	})
})

var _ = Describe("RecorderListener", func() {
	It("should store records in the trace table", func() {
		path := filepath.Join(GinkgoT().TempDir(), "trace")
		recorder, err := datarecording.New(path)
		Expect(err).NotTo(HaveOccurred())
		defer recorder.Close()

		l, err := RecorderListener(recorder)
		Expect(err).NotTo(HaveOccurred())
		Expect(recorder.ListTables()).To(ContainElement(TraceTable))

		Expect(l.Print(Record{
			Time:      1.25,
			Level:     LevelInfo,
			Component: "MM1.Server",
			Label:     "procFinished",
			Values:    []any{4},
		})).To(Succeed())
		Expect(recorder.Flush()).To(Succeed())

		reader, err := datarecording.NewReader(path + ".sqlite3")
		Expect(err).NotTo(HaveOccurred())
		defer reader.Close()

		reader.MapTable(TraceTable, TraceEntry{})
		results, total, err := reader.Query(context.Background(), TraceTable,
			datarecording.QueryParams{})
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(1))
		Expect(results[0]).To(Equal(&TraceEntry{
			Time:      1.25,
			Level:     "INFO",
			Component: "MM1.Server",
			Label:     "procFinished",
			Values:    "4",
		}))
	})
})

var _ = Describe("CSVListener", func() {
	It("should write a header and one row per record", func() {
		path := filepath.Join(GinkgoT().TempDir(), "trace")
		l, err := NewCSVListener(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(l.Path()).To(Equal(path + ".csv"))

		Expect(l.Print(Record{
			Time:      0.5,
			Level:     LevelDebug,
			Component: "MM1",
			Label:     "created job",
			Values:    []any{0},
		})).To(Succeed())
		Expect(l.Close()).To(Succeed())
		Expect(l.Close()).To(Succeed())
		Expect(l.Print(Record{})).NotTo(Succeed())

		f, err := os.Open(path + ".csv")
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()

		rows, err := csv.NewReader(f).ReadAll()
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(Equal([][]string{
			{"Time", "Level", "Component", "Label", "Values"},
			{"0.5", "DEBUG", "MM1", "created job", "0"},
		}))
	})

	It("should refuse to overwrite a file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "trace")
		Expect(os.WriteFile(path+".csv", nil, 0o600)).To(Succeed())

		_, err := NewCSVListener(path)
		Expect(err).To(HaveOccurred())
	})
})
