// Package coverage persists the coverage counters of a model at the end of a
// run.
package coverage

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/sarchlab/busharness/dut"
)

// ErrAlreadyWritten is returned when a Writer is asked to write twice.
var ErrAlreadyWritten = errors.New("coverage already written")

// Writer writes coverage counters to a file exactly once.
type Writer struct {
	path string

	lock    sync.Mutex
	written bool
}

// NewWriter creates a writer for the given file. The parent directory is
// created when the counters are written.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Path returns the output file.
func (w *Writer) Path() string {
	return w.path
}

// Write collects the counters of source and writes them. A model without
// counters produces an empty coverage file.
func (w *Writer) Write(source dut.DUT) error {
	w.lock.Lock()
	defer w.lock.Unlock()

	if w.written {
		return ErrAlreadyWritten
	}

	w.written = true

	counters := map[string]uint64{}
	if s, ok := source.(dut.CoverageSource); ok {
		counters = s.CoverageCounters()
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(w.path)
	if err != nil {
		return err
	}

	err = Encode(f, counters)
	if cerr := f.Close(); err == nil {
		err = cerr
	}

	return err
}

// Encode writes counters in a line-oriented text format, sorted by point
// name:
//
//	# SystemC::Coverage-3
//	C 'point' count
func Encode(out io.Writer, counters map[string]uint64) error {
	w := bufio.NewWriter(out)

	points := make([]string, 0, len(counters))
	for p := range counters {
		points = append(points, p)
	}
	sort.Strings(points)

	fmt.Fprintf(w, "# SystemC::Coverage-3\n")
	for _, p := range points {
		fmt.Fprintf(w, "C '%s' %d\n",
			strings.ReplaceAll(p, "'", "\\'"), counters[p])
	}

	return w.Flush()
}
