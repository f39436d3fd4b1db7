package coverage_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/busharness/coverage"
)

type plainModel struct{}

func (m *plainModel) Evaluate()                {}
func (m *plainModel) ReadPort(string) uint64   { return 0 }
func (m *plainModel) WritePort(string, uint64) {}
func (m *plainModel) Finished() bool           { return false }
func (m *plainModel) Finalize()                {}

type countingModel struct {
	plainModel
	counters map[string]uint64
}

func (m *countingModel) CoverageCounters() map[string]uint64 {
	return m.counters
}

var _ = Describe("Writer", func() {
	var (
		path  string
		model *countingModel
	)

	BeforeEach(func() {
		path = filepath.Join(GinkgoT().TempDir(), "logs", "coverage.dat")
		model = &countingModel{counters: map[string]uint64{
			"ram.write": 10,
			"pio.write": 20,
		}}
	})

	It("should write sorted counters and create the directory", func() {
		w := coverage.NewWriter(path)

		Expect(w.Write(model)).To(Succeed())

		content, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(content)).To(Equal("# SystemC::Coverage-3\n" +
			"C 'pio.write' 20\n" +
			"C 'ram.write' 10\n"))
	})

	It("should write only once", func() {
		w := coverage.NewWriter(path)

		Expect(w.Write(model)).To(Succeed())
		Expect(w.Write(model)).To(MatchError(coverage.ErrAlreadyWritten))
	})

	It("should write an empty file for a model without counters", func() {
		w := coverage.NewWriter(path)

		Expect(w.Write(&plainModel{})).To(Succeed())

		content, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(content)).To(Equal("# SystemC::Coverage-3\n"))
	})

	It("should escape quotes in point names", func() {
		buf := new(bytes.Buffer)

		Expect(coverage.Encode(buf, map[string]uint64{"a'b": 1})).To(Succeed())

		Expect(buf.String()).To(ContainSubstring(`C 'a\'b' 1`))
	})
})
