package bus

// A Sequence supplies the requests that the driver issues, in order.
type Sequence interface {
	// Next returns the next request, or false if the sequence is exhausted.
	Next() (Request, bool)
}

// SliceSequence replays a fixed list of requests.
type SliceSequence struct {
	reqs []Request
	next int
}

// NewSliceSequence creates a sequence over reqs.
func NewSliceSequence(reqs ...Request) *SliceSequence {
	return &SliceSequence{reqs: reqs}
}

// Next returns the next request.
func (s *SliceSequence) Next() (Request, bool) {
	if s.next >= len(s.reqs) {
		return Request{}, false
	}

	req := s.reqs[s.next]
	s.next++

	return req, true
}

// Remaining returns how many requests are left.
func (s *SliceSequence) Remaining() int {
	return len(s.reqs) - s.next
}

// RoundRobinTagger overwrites the tags of an underlying sequence with
// 0, 1, ..., numTags-1, 0, 1, ...
type RoundRobinTagger struct {
	inner   Sequence
	numTags int
	nextTag int
}

// NewRoundRobinTagger wraps inner.
func NewRoundRobinTagger(inner Sequence, numTags int) *RoundRobinTagger {
	if numTags <= 0 {
		panic("number of tags must be positive")
	}

	return &RoundRobinTagger{
		inner:   inner,
		numTags: numTags,
	}
}

// Next returns the next request of the inner sequence with a new tag.
func (s *RoundRobinTagger) Next() (Request, bool) {
	req, ok := s.inner.Next()
	if !ok {
		return Request{}, false
	}

	req.Tag = Tag(s.nextTag)
	s.nextTag = (s.nextTag + 1) % s.numTags

	return req, true
}

// Memory map of the reference system.
const (
	RAMBase uint64 = 0x80000000
	PIOBase uint64 = 0xF0000000
)

// NewProgramSequence builds the access pattern of the register test
// program: fill words of RAM and PIO, then read the RAM back and report
// through PIO. Tags are left at zero; wrap the result in a
// RoundRobinTagger.
func NewProgramSequence(words int) *SliceSequence {
	reqs := make([]Request, 0, 4*words)
	b := RequestBuilder{}

	for i := 0; i < words; i++ {
		offset := uint64(4 * i)
		reqs = append(reqs,
			b.WithAddress(RAMBase+offset).
				AsWrite(0x80000000+uint64(i)).Build(),
			b.WithAddress(PIOBase+offset).
				AsWrite(0xdead8000+uint64(i)).Build(),
		)
	}

	for i := 0; i < words; i++ {
		offset := uint64(4 * i)
		reqs = append(reqs,
			b.WithAddress(RAMBase+offset).AsRead().Build(),
			b.WithAddress(PIOBase+offset).
				AsWrite(0xbeef8000+uint64(i)).Build(),
		)
	}

	return NewSliceSequence(reqs...)
}
