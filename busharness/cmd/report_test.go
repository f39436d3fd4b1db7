package cmd

import (
	"bytes"
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/busharness/datarecording"
	"github.com/sarchlab/busharness/dut/memdut"
	"github.com/sarchlab/busharness/harness"
)

var _ = Describe("report", func() {
	It("should summarize a recorded run", func() {
		logDir := filepath.Join(GinkgoT().TempDir(), "logs")
		recorder, err := newRecorder(logDir)
		Expect(err).NotTo(HaveOccurred())

		h, err := harness.MakeBuilder().
			WithConfig(harness.DefaultConfig().WithLogDir(logDir)).
			WithDUT(memdut.New()).
			WithArgs([]string{"+stall=3"}).
			WithRecorder(recorder).
			WithRunID("report-run").
			Build()
		Expect(err).NotTo(HaveOccurred())

		_, err = h.Run()
		Expect(err).NotTo(HaveOccurred())

		reader, err := datarecording.NewReader(
			filepath.Join(logDir, recordingName+".sqlite3"))
		Expect(err).NotTo(HaveOccurred())
		defer reader.Close()

		s, err := summarize(context.Background(), reader)

		Expect(err).NotTo(HaveOccurred())
		Expect(s.RunID).To(Equal("report-run"))
		Expect(s.Outcome).To(Equal("finished"))
		Expect(s.Transactions).To(Equal(memdut.DefaultFinishAfter))
		Expect(s.Unfinished).To(BeZero())
		Expect(s.PerOp["read"].Count).To(Equal(10))
		Expect(s.PerOp["write"].Count).To(Equal(30))
		Expect(s.PerOp["write"].MaxLatency).To(Equal(int64(1)))

		buf := new(bytes.Buffer)
		s.print(buf)
		Expect(buf.String()).To(ContainSubstring("Run report-run: finished"))
		Expect(buf.String()).To(ContainSubstring("Transactions: 40"))
		Expect(buf.String()).To(ContainSubstring("read: 10"))
	})
})
